package config

import "os"

// applyEnvOverrides layers environment variables over the loaded config.
// PRAXIS_* variables always win. Provider-specific API key variables fill
// in credentials and, when no provider was chosen explicitly, select one.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PRAXIS_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("PRAXIS_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("PRAXIS_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("PRAXIS_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("PRAXIS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		if c.LLM.Provider == "ollama" {
			c.LLM.BaseURL = v
		}
		if c.Embedding.Provider == "ollama" {
			c.Embedding.Endpoint = v
		}
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
		if c.Embedding.Provider == "gemini" && c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
	}
}
