package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
	"version": "1.0.0",
	"lastUpdated": "2026-01-01T00:00:00Z",
	"styles": [
		{"id": "prompt-1", "title": "One", "prompt": "first", "preview": "/styles/prompt-1.svg"},
		{"id": "prompt-2", "title": "Two", "prompt": "second"}
	]
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "valid", doc: validDoc},
		{
			name:    "missing styles",
			doc:     `{"version": "1.0.0"}`,
			wantErr: "styles",
		},
		{
			name:    "empty styles",
			doc:     `{"version": "1.0.0", "styles": []}`,
			wantErr: "registry validation failed",
		},
		{
			name:    "bad id pattern",
			doc:     `{"version": "1", "styles": [{"id": "Prompt 1", "title": "x", "prompt": "y"}]}`,
			wantErr: "registry validation failed",
		},
		{
			name:    "empty prompt",
			doc:     `{"version": "1", "styles": [{"id": "a", "title": "x", "prompt": ""}]}`,
			wantErr: "registry validation failed",
		},
		{
			name:    "duplicate id",
			doc:     `{"version": "1", "styles": [{"id": "a", "title": "x", "prompt": "y"}, {"id": "a", "title": "z", "prompt": "w"}]}`,
			wantErr: "duplicate style ID: a",
		},
		{
			name:    "not json",
			doc:     `{`,
			wantErr: "validation error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Parse([]byte(tt.doc))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, reg.Styles, 2)
		})
	}
}

func TestSaveAndLoadRegistry(t *testing.T) {
	reg, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "styles.json")
	require.NoError(t, SaveRegistry(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg, loaded)

	s, ok := loaded.Find("prompt-2")
	require.True(t, ok)
	assert.Equal(t, "Two", s.Title)

	_, ok = loaded.Find("prompt-9")
	assert.False(t, ok)
}

func TestStyleRegistry_Validate(t *testing.T) {
	reg, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	reg.Styles = append(reg.Styles, Style{ID: "prompt-1", Title: "dup", Prompt: "dup"})
	assert.Error(t, reg.Validate())
}
