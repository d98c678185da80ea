package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"praxis/internal/logging"
)

// Client talks to one MCP server over a transport. Safe for concurrent
// use; responses are matched to requests by id.
type Client struct {
	info      Info
	transport Transport

	nextID  atomic.Int64
	mu      sync.Mutex
	pending map[int64]chan Message
	closed  bool

	serverInfo Info
	caps       Capabilities

	wg sync.WaitGroup
}

// NewClient wraps a transport. Call Connect before anything else.
func NewClient(name, version string, t Transport) *Client {
	return &Client{
		info:      Info{Name: name, Version: version},
		transport: t,
		pending:   make(map[int64]chan Message),
	}
}

// Connect starts the read loop and performs the initialize handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.wg.Add(1)
	go c.readLoop()

	var result InitializeResult
	err := c.call(ctx, "initialize", InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      c.info,
	}, &result)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	c.mu.Lock()
	c.serverInfo = result.ServerInfo
	c.caps = result.Capabilities
	c.mu.Unlock()

	note, err := newNotification("notifications/initialized", nil)
	if err != nil {
		return err
	}
	if err := c.transport.Send(ctx, note); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}

	logging.Get(logging.CategoryMCP).Infow("connected",
		"server", result.ServerInfo.Name, "version", result.ServerInfo.Version)
	return nil
}

// ServerInfo returns the server identity from the handshake.
func (c *Client) ServerInfo() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// SupportsTools reports the server's tools capability.
func (c *Client) SupportsTools() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps.Tools != nil
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	var result struct{}
	return c.call(ctx, "ping", nil, &result)
}

// ListTools fetches the server's tool definitions.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var result ListToolsResult
	if err := c.call(ctx, "tools/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a tool and concatenates its text content. A tool-level
// failure comes back as an error carrying the server's message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	var result CallToolResult
	err := c.call(ctx, "tools/call", CallToolParams{Name: name, Arguments: args}, &result)
	if err != nil {
		return "", err
	}

	var text string
	for _, content := range result.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if result.IsError {
		return "", fmt.Errorf("tool %s: %s", name, text)
	}
	return text, nil
}

// ListResources fetches the server's resource list.
func (c *Client) ListResources(ctx context.Context) ([]Resource, error) {
	var result ListResourcesResult
	if err := c.call(ctx, "resources/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// ReadResource reads one resource and concatenates its text parts.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	var result ReadResourceResult
	if err := c.call(ctx, "resources/read", ReadResourceParams{URI: uri}, &result); err != nil {
		return "", err
	}
	var text string
	for _, part := range result.Contents {
		text += part.Text
	}
	return text, nil
}

// ListPrompts fetches the server's prompt templates.
func (c *Client) ListPrompts(ctx context.Context) ([]Prompt, error) {
	var result ListPromptsResult
	if err := c.call(ctx, "prompts/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Prompts, nil
}

// GetPrompt renders a prompt template.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (GetPromptResult, error) {
	var result GetPromptResult
	err := c.call(ctx, "prompts/get", GetPromptParams{Name: name, Arguments: args}, &result)
	return result, err
}

// Close shuts the transport down and unblocks pending calls.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	err := c.transport.Close()
	c.wg.Wait()
	return err
}

// call sends a request and decodes the matching response into result.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	req, err := newRequest(id, method, params)
	if err != nil {
		return err
	}

	ch := make(chan Message, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client closed")
	}
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.transport.Send(ctx, req); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return fmt.Errorf("%s: connection closed", method)
		}
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("%s: decode result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readLoop dispatches responses to their waiting callers.
func (c *Client) readLoop() {
	defer c.wg.Done()
	log := logging.Get(logging.CategoryMCP)

	for {
		msg, err := c.transport.Receive(context.Background())
		if err != nil {
			if err != io.EOF {
				log.Debugw("read loop ended", "err", err)
			}
			c.mu.Lock()
			for id, ch := range c.pending {
				close(ch)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			return
		}

		if !msg.IsResponse() {
			// Server-initiated notifications are logged and dropped.
			log.Debugw("server notification", "method", msg.Method)
			continue
		}

		var id int64
		if err := json.Unmarshal(msg.ID, &id); err != nil {
			log.Warnw("response with non-numeric id", "id", string(msg.ID))
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[id]
		if ok {
			delete(c.pending, id)
		}
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}
