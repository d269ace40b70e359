package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type styleSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
}

type StyleHandler struct {
	catalog StyleCatalog
}

func NewStyleHandler(catalog StyleCatalog) *StyleHandler {
	return &StyleHandler{catalog: catalog}
}

// ListStyles returns the catalog without prompt text.
func (h *StyleHandler) ListStyles(c *gin.Context) {
	styles := h.catalog.List()
	out := make([]styleSummary, len(styles))
	for i, s := range styles {
		out[i] = styleSummary{ID: s.ID, Title: s.Title, Preview: s.Preview}
	}
	c.JSON(http.StatusOK, gin.H{"styles": out})
}
