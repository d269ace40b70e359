// Package catalog resolves style ids to generation prompts.
package catalog

import (
	_ "embed"
	"fmt"

	"photoshoot-api/internal/models"
	"photoshoot-api/pkg/registry"
)

//go:embed styles.json
var defaultRegistry []byte

type Catalog struct {
	version string
	styles  []models.Style
	byID    map[string]models.Style
}

// New loads the catalog from path, or the embedded styles when path is empty.
func New(path string) (*Catalog, error) {
	var (
		reg *registry.StyleRegistry
		err error
	)
	if path == "" {
		reg, err = registry.Parse(defaultRegistry)
	} else {
		reg, err = registry.LoadRegistry(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load style catalog: %w", err)
	}
	return fromRegistry(reg), nil
}

// Default returns the embedded catalog. It panics if the embedded file is
// invalid, which the package tests guard against.
func Default() *Catalog {
	c, err := New("")
	if err != nil {
		panic(err)
	}
	return c
}

func fromRegistry(reg *registry.StyleRegistry) *Catalog {
	c := &Catalog{
		version: reg.Version,
		styles:  make([]models.Style, 0, len(reg.Styles)),
		byID:    make(map[string]models.Style, len(reg.Styles)),
	}
	for _, s := range reg.Styles {
		style := models.Style{ID: s.ID, Title: s.Title, Prompt: s.Prompt, Preview: s.Preview}
		c.styles = append(c.styles, style)
		c.byID[s.ID] = style
	}
	return c
}

func (c *Catalog) Lookup(id string) (models.Style, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// List returns the styles in catalog order.
func (c *Catalog) List() []models.Style {
	out := make([]models.Style, len(c.styles))
	copy(out, c.styles)
	return out
}

func (c *Catalog) Version() string { return c.version }
