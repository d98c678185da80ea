package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSSERoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	NewSSEHandler(testServer(), "/message").Mount(mux, "/sse")
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	transport, err := NewSSETransport(ctx, srv.Client(), srv.URL+"/sse")
	if err != nil {
		t.Fatalf("NewSSETransport: %v", err)
	}

	c := NewClient("sse-client", "0.0.1", transport)
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	out, err := c.CallTool(ctx, "shout", map[string]any{"text": "stream"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if out != "STREAM" {
		t.Fatalf("out=%q", out)
	}

	list, err := c.ListTools(ctx)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("tools=%+v", list)
	}
}

// A caller that stops receiving must still be able to close the
// transport without stranding the event reader on a full buffer.
func TestSSECloseUnblocksReader(t *testing.T) {
	mux := http.NewServeMux()
	NewSSEHandler(testServer(), "/message").Mount(mux, "/sse")
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	transport, err := NewSSETransport(ctx, srv.Client(), srv.URL+"/sse")
	if err != nil {
		t.Fatalf("NewSSETransport: %v", err)
	}
	tr := transport.(*sseClientTransport)

	// Fill the message buffer and beyond without ever receiving.
	for i := 0; i < 12; i++ {
		msg, err := newRequest(int64(i+1), "ping", nil)
		if err != nil {
			t.Fatalf("newRequest: %v", err)
		}
		if err := tr.Send(ctx, msg); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-tr.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("event reader still running after Close")
	}

	// Close is idempotent.
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
