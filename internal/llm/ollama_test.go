package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path=%q, want /api/chat", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("Chat should not request streaming")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages=%+v, want system+user", req.Messages)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "hello back"},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	got, err := c.CompleteWithSystem(context.Background(), "be brief", "hello")
	if err != nil {
		t.Fatalf("CompleteWithSystem: %v", err)
	}
	if got != "hello back" {
		t.Fatalf("got %q, want %q", got, "hello back")
	}
}

func TestOllamaChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks := []ollamaChatResponse{
			{Message: ollamaMessage{Content: "one "}},
			{Message: ollamaMessage{Content: "two"}},
			{Done: true},
		}
		enc := json.NewEncoder(w)
		for _, c := range chunks {
			enc.Encode(c)
		}
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	var seen []string
	reply, err := c.ChatStream(context.Background(), []Message{{Role: RoleUser, Content: "count"}},
		func(chunk string) error {
			seen = append(seen, chunk)
			return nil
		})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if reply.Content != "one two" {
		t.Fatalf("full reply=%q, want %q", reply.Content, "one two")
	}
	if len(seen) != 2 {
		t.Fatalf("chunks=%d, want 2", len(seen))
	}
}

func TestOllamaChatStreamCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Content: "x"}})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	wantErr := fmt.Errorf("stop")
	_, err := c.ChatStream(context.Background(), []Message{{Role: RoleUser, Content: "q"}},
		func(string) error { return wantErr })
	if err == nil || !strings.Contains(err.Error(), "stop") {
		t.Fatalf("err=%v, want callback error propagated", err)
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("err=%v, want status error", err)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(configLLM("smoke-signals"))
	if err == nil {
		t.Fatal("NewClient should reject unknown provider")
	}
}
