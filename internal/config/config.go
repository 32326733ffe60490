// Package config provides unified configuration loading for Course Creator.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/course-creator/internal/domain"
)

// Config holds all configuration for Course Creator.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	LLM           LLMConfig           `yaml:"llm"`
	Session       SessionConfig       `yaml:"session"`
	Export        ExportConfig        `yaml:"export"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// LLMConfig holds Generation Service settings. The API key is never read from
// the YAML file; it only comes from the environment.
type LLMConfig struct {
	APIKey     string        `yaml:"-"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	Stream     bool          `yaml:"stream"`
	MaxRetries int           `yaml:"max_retries"`
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	CookieName string        `yaml:"cookie_name"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ExportConfig holds document layout settings.
type ExportConfig struct {
	Filename     string  `yaml:"filename"`
	PageSize     string  `yaml:"page_size"`
	FontFamily   string  `yaml:"font_family"`
	FontSize     float64 `yaml:"font_size"`
	LineHeight   float64 `yaml:"line_height"`
	BottomMargin float64 `yaml:"bottom_margin"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// LoadEnvFiles loads .env files into the process environment. Missing files are ignored.
func LoadEnvFiles(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8501,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     8 * time.Minute,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   7 * time.Minute,
			GracefulShutdown: 10 * time.Second,
		},
		LLM: LLMConfig{
			Model:      "google/gemini-2.5-flash",
			BaseURL:    "https://openrouter.ai/api/v1",
			Timeout:    3 * time.Minute,
			MaxRetries: 0,
		},
		Session: SessionConfig{
			Driver:     "memory",
			TTL:        2 * time.Hour,
			MaxEntries: 10000,
			CookieName: "course_session",
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
				Prefix:   "cc:",
			},
		},
		Export: ExportConfig{
			Filename:     domain.ExportFilename,
			PageSize:     "A4",
			FontFamily:   "Arial",
			FontSize:     12,
			LineHeight:   10,
			BottomMargin: 15,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "course-creator",
		},
	}
}

// Validate checks the configuration for errors. A missing API key is not a
// validation failure here; commands that generate call RequireCredential.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Session.Driver != "memory" && c.Session.Driver != "redis" {
		return fmt.Errorf("invalid session driver: %s", c.Session.Driver)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries must not be negative")
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}

	if need := c.MinRequestTimeout(); c.Server.RequestTimeout < need {
		return fmt.Errorf("server request_timeout %s is shorter than the %s an outline can take", c.Server.RequestTimeout, need)
	}

	if c.Server.WriteTimeout < c.Server.RequestTimeout {
		return fmt.Errorf("server write_timeout must not be shorter than request_timeout")
	}

	if c.Export.FontSize <= 0 || c.Export.LineHeight <= 0 {
		return fmt.Errorf("export font_size and line_height must be positive")
	}

	if c.Export.Filename == "" {
		return fmt.Errorf("export filename is required")
	}

	return nil
}

// MinRequestTimeout is the longest an outline request can take: two serial
// generation calls, each attempted up to MaxRetries+1 times.
func (c *Config) MinRequestTimeout() time.Duration {
	return 2 * time.Duration(c.LLM.MaxRetries+1) * c.LLM.Timeout
}

// RequireCredential reports a config error when the Generation Service key is absent.
func (c *Config) RequireCredential() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return domain.ConfigError("OPENROUTER_API_KEY environment variable not set", nil)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("LLM_STREAM"); v != "" {
		cfg.LLM.Stream = v == "true" || v == "1"
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Session.Driver = "redis"
		cfg.Session.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = d
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
