// internal/workers/generation/render-placeholder/handler.go
package renderplaceholder

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/models"
)

const (
	TaskType = "render-placeholder"

	MIMEType = "image/svg+xml"
)

var placeholderTemplate = template.Must(template.New("placeholder").Parse(`<svg xmlns='http://www.w3.org/2000/svg' width='{{.Width}}' height='{{.Height}}'>
  <defs>
    <linearGradient id='g' x1='0' y1='0' x2='1' y2='1'>
      <stop offset='0%' stop-color='#fde68a'/>
      <stop offset='100%' stop-color='#fca5a5'/>
    </linearGradient>
  </defs>
  <rect width='100%' height='100%' fill='url(#g)'/>
  <text x='50%' y='45%' dominant-baseline='middle' text-anchor='middle' font-size='36' font-family='Inter, sans-serif' fill='#111'>AI Pre-Wedding</text>
  <text x='50%' y='55%' dominant-baseline='middle' text-anchor='middle' font-size='20' font-family='Inter, sans-serif' fill='#111'>{{.Title}} • {{.Index}}/{{.Count}}</text>
</svg>`))

type placeholderData struct {
	Width  int
	Height int
	Title  string
	Index  int
	Count  int
}

// Handler renders deterministic SVG placeholders used when demo mode is on.
type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	count := input.Count
	if count <= 0 {
		count = h.config.Count
	}

	images := make([]models.GeneratedImage, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		svg, err := h.render(input.StyleTitle, i, count)
		if err != nil {
			return nil, fmt.Errorf("render placeholder %d: %w", i, err)
		}
		images = append(images, models.GeneratedImage{
			Index:    i,
			Data:     svg,
			MIMEType: MIMEType,
		})
	}

	h.logger.Info("demo placeholders rendered", map[string]interface{}{
		"count": count,
		"style": input.StyleTitle,
	})
	return &Output{Images: images}, nil
}

func (h *Handler) render(title string, index, count int) ([]byte, error) {
	var buf bytes.Buffer
	err := placeholderTemplate.Execute(&buf, placeholderData{
		Width:  h.config.Width,
		Height: h.config.Height,
		Title:  title,
		Index:  index,
		Count:  count,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
