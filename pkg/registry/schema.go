// pkg/registry/schema.go
package registry

// StyleRegistry is the on-disk style catalog document.
type StyleRegistry struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"lastUpdated"`
	Styles      []Style `json:"styles"`
}

type Style struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Prompt  string   `json:"prompt"`
	Preview string   `json:"preview"`
	Tags    []string `json:"tags,omitempty"`
}

const registrySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version", "styles"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"lastUpdated": {"type": "string"},
		"styles": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "title", "prompt"],
				"properties": {
					"id": {"type": "string", "pattern": "^[a-z0-9-]+$"},
					"title": {"type": "string", "minLength": 1},
					"prompt": {"type": "string", "minLength": 1},
					"preview": {"type": "string"},
					"tags": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`
