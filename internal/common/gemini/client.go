// Package gemini is the image generation backend on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"photoshoot-api/internal/common/config"
	"photoshoot-api/internal/models"

	"google.golang.org/genai"
)

// ErrNoImage is returned when a successful response carries no picture.
var ErrNoImage = errors.New("no image in Gemini response")

// Fetcher downloads file-reference parts.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Config struct {
	BaseURL     string
	Temperature float32
	TopP        float32
	TopK        float32
	HTTPClient  *http.Client
}

// ConfigFrom maps the application generation section.
func ConfigFrom(cfg config.GenerationConfig) Config {
	return Config{
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		TopK:        cfg.TopK,
	}
}

// Client keeps one genai client per API key.
type Client struct {
	cfg     Config
	fetcher Fetcher

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func New(cfg Config, fetcher Fetcher) *Client {
	return &Client{
		cfg:     cfg,
		fetcher: fetcher,
		clients: make(map[string]*genai.Client),
	}
}

func (c *Client) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.cfg.HTTPClient,
	}
	if c.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.clients[apiKey] = client
	return client, nil
}

func (c *Client) generationConfig() *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if c.cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(c.cfg.Temperature)
	}
	if c.cfg.TopP > 0 {
		gc.TopP = genai.Ptr(c.cfg.TopP)
	}
	if c.cfg.TopK > 0 {
		gc.TopK = genai.Ptr(c.cfg.TopK)
	}
	return gc
}

// Generate sends the prompt and both reference images to one model with one
// key. Backend errors are returned unwrapped so callers can inspect
// genai.APIError.
func (c *Client) Generate(ctx context.Context, attempt models.GenerationAttempt) (*models.ImagePayload, error) {
	client, err := c.clientFor(ctx, attempt.APIKey)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(attempt.Images)+1)
	parts = append(parts, genai.NewPartFromText(attempt.Prompt))
	for _, img := range attempt.Images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, attempt.Model, contents, c.generationConfig())
	if err != nil {
		return nil, err
	}
	return c.extractImage(ctx, resp)
}

// extractImage takes the first inline image of the first candidate, falling
// back to the first file reference. File references carry no mime type.
func (c *Client) extractImage(ctx context.Context, resp *genai.GenerateContentResponse) (*models.ImagePayload, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}
	parts := resp.Candidates[0].Content.Parts

	for _, p := range parts {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return &models.ImagePayload{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType}, nil
		}
	}

	for _, p := range parts {
		if p == nil || p.FileData == nil || p.FileData.FileURI == "" || c.fetcher == nil {
			continue
		}
		data, err := c.fetcher.Fetch(ctx, p.FileData.FileURI)
		if err != nil {
			return nil, fmt.Errorf("fetch file data: %w", err)
		}
		if len(data) == 0 {
			break
		}
		return &models.ImagePayload{Data: data}, nil
	}

	return nil, ErrNoImage
}
