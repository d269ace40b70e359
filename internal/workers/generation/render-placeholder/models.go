// internal/workers/generation/render-placeholder/models.go
package renderplaceholder

import "photoshoot-api/internal/models"

type Input struct {
	StyleTitle string `json:"styleTitle"`
	Count      int    `json:"count"`
}

type Output struct {
	Images []models.GeneratedImage `json:"images"`
}
