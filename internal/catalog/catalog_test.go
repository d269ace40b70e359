package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	styles := c.List()
	require.Len(t, styles, 6)

	wantTitles := []string{
		"90s Vintage Romance",
		"Lakeside Golden Hour",
		"Bollywood Stroll",
		"Intimate Indoor Braiding",
		"Retro Sunshine",
		"Fairytale Forest Dawn",
	}
	for i, s := range styles {
		assert.Equal(t, wantTitles[i], s.Title)
		assert.NotEmpty(t, s.Prompt)
		assert.Equal(t, "/styles/"+s.ID+".svg", s.Preview)
	}
}

func TestLookup(t *testing.T) {
	c := Default()

	tests := []struct {
		id     string
		found  bool
		prefix string
	}{
		{id: "prompt-2", found: true, prefix: "A stunning, 4K HD realistic"},
		{id: "prompt-6", found: true, prefix: "A magical pre-wedding shoot"},
		{id: "prompt-7", found: false},
		{id: "", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s, ok := c.Lookup(tt.id)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Contains(t, s.Prompt, tt.prefix)
			}
		})
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	c := Default()
	list := c.List()
	list[0].Title = "changed"

	s, _ := c.Lookup("prompt-1")
	assert.Equal(t, "90s Vintage Romance", s.Title)
	assert.Equal(t, "90s Vintage Romance", c.List()[0].Title)
}

func TestNew_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.json")
	doc := `{"version": "2.0.0", "styles": [{"id": "beach", "title": "Beach", "prompt": "On a beach"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", c.Version())
	assert.Len(t, c.List(), 1)

	_, ok := c.Lookup("prompt-1")
	assert.False(t, ok)
}

func TestNew_BadOverride(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
