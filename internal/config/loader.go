package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tripscout/internal/domain"
)

// DefaultPath is the config file name looked up in the working directory.
const DefaultPath = "tripscout.json"

// WriteDefault writes a default Config to path. Parent directories are not
// created.
func WriteDefault(path string) error {
	cfg := Default()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns the configuration a fresh install starts from: scripted
// provider (no API key needed), local SQLite file, templates/ directory.
func Default() *domain.Config {
	return &domain.Config{
		LLM: domain.LLMConfig{
			Provider:  "scripted",
			Model:     "claude-sonnet-4-5",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			MaxTurns:  8,
		},
		Database:  domain.DatabaseConfig{URL: "file:tripscout.db"},
		Templates: domain.TemplatesConfig{Dir: "templates", Watch: false},
		Forecast:  domain.ForecastConfig{RefreshCron: "0 6 * * *"},
		Infra:     domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
	}
}

// Load reads path, unmarshals into domain.Config, applies defaults for
// omitted fields, and cleans path fields to mitigate traversal.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	var c domain.Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	applyDefaults(&c)
	CleanPaths(&c)
	return &c, nil
}

// Save writes cfg to path as indented JSON, creating parent directories.
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config save mkdir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config save marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config save write: %w", err)
	}
	return nil
}

// CleanPaths applies filepath.Clean to Templates.Dir, the only filesystem
// path in the config. Database.URL is a URL, not a path, and is left alone.
func CleanPaths(cfg *domain.Config) {
	if cfg == nil {
		return
	}
	cfg.Templates.Dir = filepath.Clean(cfg.Templates.Dir)
}

func applyDefaults(c *domain.Config) {
	def := Default()
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = def.LLM.APIKeyEnv
	}
	if c.LLM.MaxTurns <= 0 {
		c.LLM.MaxTurns = def.LLM.MaxTurns
	}
	if c.Database.URL == "" {
		c.Database.URL = def.Database.URL
	}
	if c.Templates.Dir == "" {
		c.Templates.Dir = def.Templates.Dir
	}
	if c.Forecast.RefreshCron == "" {
		c.Forecast.RefreshCron = def.Forecast.RefreshCron
	}
	if c.Infra.LogFormat == "" {
		c.Infra.LogFormat = def.Infra.LogFormat
	}
	if c.Infra.LogLevel == "" {
		c.Infra.LogLevel = def.Infra.LogLevel
	}
}
