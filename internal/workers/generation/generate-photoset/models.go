// internal/workers/generation/generate-photoset/models.go
package generatephotoset

import "photoshoot-api/internal/models"

type Input struct {
	Prompt string            `json:"prompt"`
	ImageA models.ImageInput `json:"imageA"`
	ImageB models.ImageInput `json:"imageB"`
	Count  int               `json:"count"`
}

type Output struct {
	Images []models.GeneratedImage `json:"images"`
}
