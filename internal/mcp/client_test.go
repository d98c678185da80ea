package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"praxis/internal/store"
	"praxis/internal/tools"
)

// connect wires a client to the server over an in-memory pipe.
func connect(t *testing.T, s *Server) *Client {
	t.Helper()
	clientEnd, serverEnd := NewPipeTransport()

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		_ = s.Serve(ctx, serverEnd)
	}()

	c := NewClient("test-client", "0.0.1", clientEnd)
	if err := c.Connect(context.Background()); err != nil {
		cancel()
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		cancel()
		<-serveDone
	})
	return c
}

func TestClientHandshakeAndPing(t *testing.T) {
	c := connect(t, testServer())
	if c.ServerInfo().Name != "test-server" {
		t.Fatalf("ServerInfo=%+v", c.ServerInfo())
	}
	if !c.SupportsTools() {
		t.Fatal("tools capability not reported")
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestClientListAndCallTool(t *testing.T) {
	c := connect(t, testServer())
	ctx := context.Background()

	list, err := c.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(list) != 1 || list[0].Name != "shout" {
		t.Fatalf("tools=%+v", list)
	}

	out, err := c.CallTool(ctx, "shout", map[string]any{"text": "hey"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if out != "HEY" {
		t.Fatalf("out=%q", out)
	}

	// In-band tool failure surfaces as a client-side error.
	if _, err := c.CallTool(ctx, "shout", nil); err == nil {
		t.Fatal("expected error for missing argument")
	}
}

func TestClientReadResourceAndPrompt(t *testing.T) {
	c := connect(t, testServer())
	ctx := context.Background()

	text, err := c.ReadResource(ctx, "test://greeting")
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if text != "hello" {
		t.Fatalf("text=%q", text)
	}

	prompt, err := c.GetPrompt(ctx, "greet", map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(prompt.Messages) != 1 || prompt.Messages[0].Content.Text != "Hello Ada" {
		t.Fatalf("prompt=%+v", prompt)
	}
}

func TestClientConcurrentCalls(t *testing.T) {
	c := connect(t, testServer())
	ctx := context.Background()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			out, err := c.CallTool(ctx, "shout", map[string]any{"text": "x"})
			if err == nil && out != "X" {
				err = fmt.Errorf("out=%q, want X", out)
			}
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent call: %v", err)
		}
	}
}

func TestBridgeTools(t *testing.T) {
	c := connect(t, testServer())
	registry := tools.NewRegistry()

	n, err := BridgeTools(context.Background(), c, registry)
	if err != nil {
		t.Fatalf("BridgeTools: %v", err)
	}
	if n != 1 {
		t.Fatalf("bridged=%d, want 1", n)
	}

	out, err := registry.Call(context.Background(), "test-server.shout", map[string]any{"text": "bridged"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out != "BRIDGED" {
		t.Fatalf("out=%q", out)
	}

	// Required args from the remote schema are enforced locally.
	if _, err := registry.Call(context.Background(), "test-server.shout", map[string]any{}); err == nil {
		t.Fatal("expected missing argument error")
	}
}

func TestTaskServerEndToEnd(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	c := connect(t, NewTaskServer(st, "0.1.0"))
	ctx := context.Background()

	out, err := c.CallTool(ctx, "create_task", map[string]any{"title": "write report"})
	if err != nil {
		t.Fatalf("create_task: %v", err)
	}
	id := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(out, "created task "), ": write report"))

	out, err = c.CallTool(ctx, "list_tasks", map[string]any{"status": "pending"})
	if err != nil {
		t.Fatalf("list_tasks: %v", err)
	}
	if !strings.Contains(out, "write report") {
		t.Fatalf("out=%q", out)
	}

	if _, err := c.CallTool(ctx, "complete_task", map[string]any{"id": id}); err != nil {
		t.Fatalf("complete_task: %v", err)
	}

	out, err = c.CallTool(ctx, "task_stats", nil)
	if err != nil {
		t.Fatalf("task_stats: %v", err)
	}
	if !strings.Contains(out, "1 total") || !strings.Contains(out, "1 completed") {
		t.Fatalf("out=%q", out)
	}

	// Completing twice fails in-band.
	if _, err := c.CallTool(ctx, "complete_task", map[string]any{"id": id}); err == nil {
		t.Fatal("expected error for double completion")
	}

	text, err := c.ReadResource(ctx, "tasks://all")
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if !strings.Contains(text, "write report") {
		t.Fatalf("resource=%q", text)
	}
}
