// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var schemaLoader = gojsonschema.NewStringLoader(registrySchema)

func LoadRegistry(path string) (*StyleRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates data against the registry schema and decodes it.
func Parse(data []byte) (*StyleRegistry, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("registry validation failed: %s", strings.Join(errs, "; "))
	}

	var reg StyleRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.checkUnique(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate re-checks an in-memory registry, e.g. after an edit.
func (r *StyleRegistry) Validate() error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = Parse(data)
	return err
}

func (r *StyleRegistry) Find(id string) (*Style, bool) {
	for i := range r.Styles {
		if r.Styles[i].ID == id {
			return &r.Styles[i], true
		}
	}
	return nil, false
}

func (r *StyleRegistry) checkUnique() error {
	ids := make(map[string]bool, len(r.Styles))
	for _, s := range r.Styles {
		if ids[s.ID] {
			return fmt.Errorf("duplicate style ID: %s", s.ID)
		}
		ids[s.ID] = true
	}
	return nil
}

// SaveRegistry writes reg as indented JSON, creating parent directories.
func SaveRegistry(reg *StyleRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
