package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "praxis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: first\n"), 0644))

	reloaded := make(chan *Config, 1)
	stop, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: second\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "second", cfg.LLM.Model)
	case <-time.After(3 * time.Second):
		t.Fatal("config change never observed")
	}
}

func TestWatchKeepsPreviousConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "praxis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: good\n"), 0644))

	reloaded := make(chan *Config, 4)
	stop, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	defer stop()

	// Invalid yaml must not reach onChange.
	require.NoError(t, os.WriteFile(path, []byte(":: not yaml ::\n"), 0644))
	// A later valid write still does.
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: recovered\n"), 0644))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.LLM.Model == "recovered" {
				return
			}
			t.Fatalf("unexpected reload with model %q", cfg.LLM.Model)
		case <-deadline:
			t.Fatal("valid config change never observed")
		}
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "praxis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: stable\n"), 0644))

	reloaded := make(chan *Config, 1)
	stop, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))

	select {
	case <-reloaded:
		t.Fatal("sibling file write triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}
