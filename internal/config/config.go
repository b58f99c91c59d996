package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	AI struct {
		Provider      string `yaml:"provider"`
		Model         string `yaml:"model"`          // full-document generation
		FollowUpModel string `yaml:"followup_model"` // SEARCH/REPLACE edits
		APIKey        string `yaml:"api_key"`
		BaseURL       string `yaml:"base_url"`
	} `yaml:"ai"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.AI.Provider = "openai"
	cfg.Storage.Path = "sitedit.db"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	cfg := Default()
	file, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	overrides := map[string]*string{
		"SITEDIT_API_KEY":  &cfg.AI.APIKey,
		"SITEDIT_PROVIDER": &cfg.AI.Provider,
		"SITEDIT_MODEL":    &cfg.AI.Model,
		"SITEDIT_BASE_URL": &cfg.AI.BaseURL,
		"SITEDIT_ADDR":     &cfg.Server.Addr,
		"SITEDIT_DB":       &cfg.Storage.Path,
		"SITEDIT_LOG":      &cfg.Log.Level,
	}
	for env, dst := range overrides {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	return cfg, nil
}
