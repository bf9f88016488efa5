// Package config loads application configuration from a YAML file with
// environment overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Store struct {
		// Backend is "postgres" or "memory".
		Backend string `yaml:"backend"`
	} `yaml:"store"`
	Embeddings struct {
		Provider      string        `yaml:"provider"`
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		Model         string        `yaml:"model"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxConcurrent int           `yaml:"max_concurrent"`
		BatchSize     int           `yaml:"batch_size"`
	} `yaml:"embeddings"`
	LLM struct {
		Provider string        `yaml:"provider"`
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Model    string        `yaml:"model"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Processing struct {
		ChunkSize       int     `yaml:"chunk_size"`
		OverlapFraction float64 `yaml:"overlap_fraction"`
		TopK            int     `yaml:"top_k"`
	} `yaml:"processing"`
	Auth struct {
		Provider string `yaml:"provider"`
	} `yaml:"auth"`
}

// Load loads configuration from file or returns defaults. Environment
// variables override file values so secrets can stay out of the file.
func Load() (*Config, error) {
	return loadFrom(filepath.Join(os.Getenv("HOME"), ".docuchat", "config.yaml"))
}

func loadFrom(configPath string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".docuchat")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Database.ConnectionString = "postgres://postgres@localhost/docuchat?sslmode=disable"
	cfg.Store.Backend = "postgres"

	cfg.Embeddings.Provider = "ollama"
	cfg.Embeddings.BaseURL = "http://localhost:11434"
	cfg.Embeddings.Model = "nomic-embed-text"
	cfg.Embeddings.Timeout = 30 * time.Second
	cfg.Embeddings.MaxConcurrent = 4
	cfg.Embeddings.BatchSize = 64

	cfg.LLM.Provider = "ollama"
	cfg.LLM.BaseURL = "http://localhost:11434"
	cfg.LLM.Model = "llama3.2"
	cfg.LLM.Timeout = 5 * time.Minute

	cfg.Processing.ChunkSize = 2000
	cfg.Processing.OverlapFraction = 0.2
	cfg.Processing.TopK = 5

	cfg.Auth.Provider = "none"

	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.ConnectionString = v
	}
	if v := os.Getenv("DOCUCHAT_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("AUTH_PROVIDER"); v != "" {
		c.Auth.Provider = v
	}
	if v := os.Getenv("CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.ChunkSize = n
		}
	}
	if v := os.Getenv("TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Processing.TopK = n
		}
	}
}

// Validate fails fast on values that would only surface as runtime
// errors deep in the pipeline.
func (c *Config) Validate() error {
	if c.Processing.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be positive, got %d", c.Processing.ChunkSize)
	}
	if c.Processing.OverlapFraction < 0 || c.Processing.OverlapFraction >= 1 {
		return fmt.Errorf("config: overlap_fraction must be in [0, 1), got %g", c.Processing.OverlapFraction)
	}
	if c.Processing.TopK <= 0 {
		return fmt.Errorf("config: top_k must be positive, got %d", c.Processing.TopK)
	}
	switch c.Store.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown store backend %q (want postgres or memory)", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Database.ConnectionString == "" {
		return fmt.Errorf("config: database connection_string is required for the postgres store")
	}
	return nil
}
