// Package config loads praxis configuration from praxis.yaml with
// environment variable overrides. A missing config file is not an error:
// every subsystem has usable defaults for a local Ollama setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "praxis.yaml"

// Config holds all praxis configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Store     StoreConfig     `yaml:"store"`
	Memory    MemoryConfig    `yaml:"memory"`
	RAG       RAGConfig       `yaml:"rag"`
	Agent     AgentConfig     `yaml:"agent"`
	Server    ServerConfig    `yaml:"server"`
	MCP       MCPConfig       `yaml:"mcp"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		LLM:       DefaultLLMConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Store:     DefaultStoreConfig(),
		Memory:    DefaultMemoryConfig(),
		RAG:       DefaultRAGConfig(),
		Agent:     DefaultAgentConfig(),
		Server:    DefaultServerConfig(),
		MCP:       DefaultMCPConfig(),
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from path. An empty path falls back to
// ./praxis.yaml; if that file does not exist the defaults are returned.
// A .env file next to the config is loaded first so env overrides can
// come from either the process environment or .env.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	// Best effort: missing .env is fine.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent: max_iterations must be positive")
	}
	if _, err := c.LLM.TimeoutDuration(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// parseDurationDefault parses a duration string, returning def when empty.
func parseDurationDefault(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
