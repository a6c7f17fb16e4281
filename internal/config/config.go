// Package config loads the optional ideawall.yaml configuration. Everything
// has a compiled-in default; the file only overrides what it names.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ideawall/internal/layout"
	"ideawall/internal/plan"
	"ideawall/internal/wall"
)

// FileName is the config file searched for by walk-up discovery.
const FileName = "ideawall.yaml"

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// GeneratorConfig holds plan-generator settings. The API key itself comes
// only from the environment, never from the file.
type GeneratorConfig struct {
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	APIKeyEnv      string `yaml:"api_key_env"`
}

// Timeout returns the configured upstream timeout.
func (g GeneratorConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 25 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// APIKey reads the model credential from the configured environment variable.
func (g GeneratorConfig) APIKey() string {
	env := g.APIKeyEnv
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	return os.Getenv(env)
}

// Config is the full application configuration.
type Config struct {
	DB        string          `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
	Generator GeneratorConfig `yaml:"generator"`
	Layout    layout.Config   `yaml:"layout"`
	Wall      wall.Config     `yaml:"wall"`
	Keywords  plan.Keywords   `yaml:"keywords"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		DB:       "ideawall.db",
		Server:   ServerConfig{Addr: ":8787"},
		Layout:   layout.DefaultConfig(),
		Wall:     wall.DefaultConfig(),
		Keywords: plan.DefaultKeywords(),
	}
}

// Load reads a config file over the defaults. An empty path triggers
// walk-up discovery; a missing file is not an error and yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Discover()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Empty keyword lists in the file fall back to the compiled defaults.
	defaults := plan.DefaultKeywords()
	if len(cfg.Keywords.P0) == 0 {
		cfg.Keywords.P0 = defaults.P0
	}
	if len(cfg.Keywords.P1) == 0 {
		cfg.Keywords.P1 = defaults.P1
	}
	if len(cfg.Keywords.Frontend) == 0 {
		cfg.Keywords.Frontend = defaults.Frontend
	}
	if len(cfg.Keywords.Backend) == 0 {
		cfg.Keywords.Backend = defaults.Backend
	}
	if len(cfg.Keywords.ActionVerbs) == 0 {
		cfg.Keywords.ActionVerbs = defaults.ActionVerbs
	}
	return cfg, nil
}

// Discover walks up from the working directory looking for ideawall.yaml.
// Priority: IDEAWALL_CONFIG env var, then the nearest file on the walk up.
func Discover() string {
	if envPath := os.Getenv("IDEAWALL_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
