package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"praxis/internal/config"
)

func configEmbedding(provider string) config.EmbeddingConfig {
	cfg := config.DefaultEmbeddingConfig()
	cfg.Provider = provider
	return cfg
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	if got := CosineSimilarity(a, b); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("identical vectors: got %v, want 1.0", got)
	}

	c := []float32{0, 1, 0}
	if got := CosineSimilarity(a, c); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: got %v, want 0", got)
	}

	if got := CosineSimilarity(a, []float32{1, 2}); got != 0 {
		t.Fatalf("mismatched lengths: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{0, 0}); got != 0 {
		t.Fatalf("zero vectors: got %v, want 0", got)
	}
}

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path=%q", r.URL.Path)
		}
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "nomic-embed-text" {
			t.Errorf("model=%q", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	e, err := NewOllamaEngine(srv.URL, "", 3)
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}
	got, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 3 || got[0] != 0.1 {
		t.Fatalf("embedding=%v", got)
	}
}

func TestOllamaEmbedBatchPropagatesError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{1}})
	}))
	defer srv.Close()

	e, _ := NewOllamaEngine(srv.URL, "", 1)
	_, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err == nil {
		t.Fatal("expected error from failing batch item")
	}
}

func TestNewEngineUnknownProvider(t *testing.T) {
	cfg := configEmbedding("carrier-pigeon")
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
