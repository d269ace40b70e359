// internal/workers/generation/render-placeholder/config.go
package renderplaceholder

type Config struct {
	Count  int
	Width  int
	Height int
}

func LoadConfig() *Config {
	return &Config{
		Count:  10,
		Width:  800,
		Height: 1000,
	}
}
