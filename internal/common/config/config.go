// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Generation    GenerationConfig        `mapstructure:"generation"`
	RateLimit     RateLimitConfig         `mapstructure:"rate_limit"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Mode            string `mapstructure:"mode"`             // gin mode: debug, release, test
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxFileBytes    int64  `mapstructure:"max_file_bytes"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// MaxBodyBytes caps the bytes read from one multipart upload. It leaves room
// for oversized images to be read past, so the parts after them can still be
// checked for presence and type.
func (s ServerConfig) MaxBodyBytes() int64 {
	return 4*s.MaxFileBytes + 1<<20
}

// GenerationConfig holds the settings of the image generation backend.
type GenerationConfig struct {
	DemoMode    bool     `mapstructure:"demo_mode"`
	APIKeys     []string `mapstructure:"api_keys"`
	Models      []string `mapstructure:"models"`
	BaseURL     string   `mapstructure:"base_url"`
	Count       int      `mapstructure:"count"`
	Workers     int      `mapstructure:"workers"`
	Timeout     int      `mapstructure:"timeout"`      // milliseconds, whole batch
	MinInterval int      `mapstructure:"min_interval"` // milliseconds between backend calls, 0 disables
	Temperature float32  `mapstructure:"temperature"`
	TopP        float32  `mapstructure:"top_p"`
	TopK        float32  `mapstructure:"top_k"`
}

// RateLimitConfig configures the fixed-window limiter on the generate endpoint.
type RateLimitConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Backend       string `mapstructure:"backend"` // memory or redis
	Window        int    `mapstructure:"window"`  // milliseconds
	Limit         int64  `mapstructure:"limit"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	SweepInterval int    `mapstructure:"sweep_interval"` // milliseconds
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether a journal database is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// Warnings lists non-fatal configuration problems worth reporting at start-up.
func (c *Config) Warnings() []string {
	var out []string
	if !c.Generation.DemoMode && len(c.Generation.APIKeys) == 0 {
		out = append(out, "[env] DEMO_MODE=0 but no GEMINI_API_KEY_* provided. API calls will fail.")
	}
	return out
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
