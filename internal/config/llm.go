package config

import "time"

// LLMConfig configures the chat completion client.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // ollama, openai, gemini
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// DefaultLLMConfig targets a local Ollama instance.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    "ollama",
		Model:       "llama3.2",
		BaseURL:     "http://localhost:11434",
		Temperature: 0.7,
		Timeout:     "2m",
	}
}

// TimeoutDuration returns the parsed request timeout.
func (c LLMConfig) TimeoutDuration() (time.Duration, error) {
	return parseDurationDefault(c.Timeout, 2*time.Minute)
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama, gemini
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	// Dimensions of the produced vectors. Zero means the engine default.
	Dimensions int `yaml:"dimensions"`
}

// DefaultEmbeddingConfig targets nomic-embed-text on local Ollama.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: "ollama",
		Model:    "nomic-embed-text",
		Endpoint: "http://localhost:11434",
	}
}
