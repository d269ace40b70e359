// internal/models/photoshoot.go
package models

import (
	"encoding/base64"
	"time"
)

// DefaultImageMIMEType is used when the backend returns bytes without a type.
const DefaultImageMIMEType = "image/png"

// ImageInput is one uploaded reference photo.
type ImageInput struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`
}

// GenerationRequest is built once per HTTP call and never persisted.
type GenerationRequest struct {
	Prompt string     `json:"prompt"`
	ImageA ImageInput `json:"imageA"`
	ImageB ImageInput `json:"imageB"`
	Count  int        `json:"count"`
}

// GenerationAttempt is one backend call for one (key, model) pair.
type GenerationAttempt struct {
	APIKey string
	Model  string
	Prompt string
	Images []ImageInput
	Seed   int64
}

// ImagePayload is what a single successful backend call yields.
type ImagePayload struct {
	Data     []byte
	MIMEType string
}

// GeneratedImage is one finished picture of a batch.
type GeneratedImage struct {
	Index    int    `json:"id"`
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	Seed     int64  `json:"seed"`
	Model    string `json:"model,omitempty"`
}

// DataURL renders the image as an inline data URL.
func (g GeneratedImage) DataURL() string {
	mime := g.MIMEType
	if mime == "" {
		mime = DefaultImageMIMEType
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(g.Data)
}

// Style is one entry of the preset style catalog.
type Style struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Prompt  string `json:"prompt"`
	Preview string `json:"preview"`
}

// ImageResult is the wire shape of one generated image.
type ImageResult struct {
	ID      int    `json:"id"`
	DataURL string `json:"dataUrl"`
}

// GenerateResponse is the success body of POST /api/generate.
type GenerateResponse struct {
	Images []ImageResult `json:"images"`
}

// ErrorResponse is the failure body of every API route.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Batch statuses recorded in the generation journal.
const (
	BatchStatusSuccess = "success"
	BatchStatusFailed  = "failed"
	BatchStatusTimeout = "timeout"
)

// BatchRecord is one row of the generation journal. It carries no image
// bytes and no prompt text.
type BatchRecord struct {
	ID         string    `json:"id" db:"id"`
	StyleID    string    `json:"styleId" db:"style_id"`
	ClientKey  string    `json:"clientKey" db:"client_key"`
	Demo       bool      `json:"demo" db:"demo"`
	Status     string    `json:"status" db:"status"`
	ImageCount int       `json:"imageCount" db:"image_count"`
	ErrorCode  string    `json:"errorCode,omitempty" db:"error_code"`
	DurationMS int64     `json:"durationMs" db:"duration_ms"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
