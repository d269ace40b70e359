// internal/workers/generation/generate-photoset/config.go
package generatephotoset

import (
	"time"

	"photoshoot-api/internal/common/config"
)

type Config struct {
	APIKeys     []string
	Models      []string
	Count       int
	Workers     int
	Timeout     time.Duration
	MinInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Models:  append([]string(nil), config.DefaultModels...),
		Count:   10,
		Workers: 2,
		Timeout: 90 * time.Second,
	}
}

// ConfigFrom maps the application generation section.
func ConfigFrom(cfg config.GenerationConfig) *Config {
	c := LoadConfig()
	c.APIKeys = append([]string(nil), cfg.APIKeys...)
	if len(cfg.Models) > 0 {
		c.Models = append([]string(nil), cfg.Models...)
	}
	if cfg.Count > 0 {
		c.Count = cfg.Count
	}
	if cfg.Workers > 0 {
		c.Workers = cfg.Workers
	}
	if cfg.Timeout > 0 {
		c.Timeout = config.GetDuration(cfg.Timeout)
	}
	c.MinInterval = config.GetDuration(cfg.MinInterval)
	return c
}
