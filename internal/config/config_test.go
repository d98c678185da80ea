package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "praxis.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 10, cfg.Memory.WindowSize)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "praxis.yaml")
	data := []byte("llm:\n  provider: openai\n  model: gpt-4o-mini\nrag:\n  top_k: 8\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.RAG.TopK)
	// Untouched sections keep defaults.
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("PRAXIS vars always win", func(t *testing.T) {
		t.Setenv("PRAXIS_LLM_PROVIDER", "gemini")
		t.Setenv("PRAXIS_LLM_MODEL", "gemini-2.0-flash")

		cfg := Default()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini", cfg.LLM.Provider)
		assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	})

	t.Run("OPENAI_API_KEY fills key without overriding provider", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg := Default() // provider already "ollama"
		cfg.applyEnvOverrides()
		assert.Equal(t, "sk-test", cfg.LLM.APIKey)
		assert.Equal(t, "ollama", cfg.LLM.Provider)
	})

	t.Run("OLLAMA_HOST retargets both clients", func(t *testing.T) {
		t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

		cfg := Default()
		cfg.applyEnvOverrides()
		assert.Equal(t, "http://gpu-box:11434", cfg.LLM.BaseURL)
		assert.Equal(t, "http://gpu-box:11434", cfg.Embedding.Endpoint)
	})
}

func TestValidateRejectsOverlapLargerThanChunk(t *testing.T) {
	cfg := Default()
	cfg.RAG.ChunkSize = 100
	cfg.RAG.ChunkOverlap = 100
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadTimeout(t *testing.T) {
	cfg := Default()
	cfg.LLM.Timeout = "soon"
	require.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "praxis.yaml")

	cfg := Default()
	cfg.LLM.Model = "qwen2.5"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", loaded.LLM.Model)
}
