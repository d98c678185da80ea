package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadWriteFileRoundTrip(t *testing.T) {
	ws := t.TempDir()
	ctx := context.Background()

	write := NewWriteFile(ws)
	if _, err := write.Execute(ctx, map[string]any{
		"path":    "notes/hello.txt",
		"content": "hello world",
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	read := NewReadFile(ws)
	out, err := read.Execute(ctx, map[string]any{"path": "notes/hello.txt"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("out=%q", out)
	}
}

func TestFileToolsRejectEscapes(t *testing.T) {
	ws := t.TempDir()
	ctx := context.Background()

	for _, path := range []string{"../outside.txt", "a/../../outside.txt", "/etc/passwd"} {
		if _, err := NewReadFile(ws).Execute(ctx, map[string]any{"path": path}); err == nil {
			t.Errorf("read %q: expected error", path)
		}
		if _, err := NewWriteFile(ws).Execute(ctx, map[string]any{"path": path, "content": "x"}); err == nil {
			t.Errorf("write %q: expected error", path)
		}
	}
}

func TestListFiles(t *testing.T) {
	ws := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", ".hidden"} {
		if err := os.WriteFile(filepath.Join(ws, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(ws, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	out, err := NewListFiles(ws).Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out, ".hidden") {
		t.Fatalf("hidden file listed: %q", out)
	}
	if !strings.Contains(out, "sub/") {
		t.Fatalf("directory not marked: %q", out)
	}
}

func TestWikipediaTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/Alan_Turing") {
			w.Write([]byte(`{"title":"Alan Turing","extract":"English mathematician and computer scientist.","type":"standard"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tool := NewWikipedia(srv.Client(), srv.URL)
	ctx := context.Background()

	out, err := tool.Execute(ctx, map[string]any{"topic": "Alan Turing"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "English mathematician") {
		t.Fatalf("out=%q", out)
	}

	out, err = tool.Execute(ctx, map[string]any{"topic": "No Such Page"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "No Wikipedia article") {
		t.Fatalf("out=%q", out)
	}
}

func TestWikipediaOfflineFallback(t *testing.T) {
	// A server that is already closed produces a transport error.
	srv := httptest.NewServer(http.NotFoundHandler())
	client := srv.Client()
	srv.Close()

	tool := NewWikipedia(client, srv.URL)
	ctx := context.Background()

	out, err := tool.Execute(ctx, map[string]any{"topic": "Alan Turing"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "Alan Turing was an English mathematician") {
		t.Fatalf("out=%q", out)
	}
	if !strings.Contains(out, "offline snippet") {
		t.Fatalf("out=%q, want offline marker", out)
	}

	// Topics without a canned snippet still surface the error.
	if _, err := tool.Execute(ctx, map[string]any{"topic": "Obscure Topic"}); err == nil {
		t.Fatal("expected error for unknown topic while offline")
	}
}

func TestWebFetchTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page body"))
	}))
	defer srv.Close()

	out, err := NewWebFetch(srv.Client()).Execute(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "page body" {
		t.Fatalf("out=%q", out)
	}

	if _, err := NewWebFetch(nil).Execute(context.Background(), map[string]any{"url": "ftp://nope"}); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}
