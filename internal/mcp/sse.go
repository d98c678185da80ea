package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"

	"praxis/internal/logging"
)

// SSEHandler serves MCP over Server-Sent Events. GET on the SSE path
// opens a session and streams responses; the client POSTs requests to
// the per-session message endpoint it is told about in the first event.
type SSEHandler struct {
	server     *Server
	messageURL string

	mu       sync.Mutex
	sessions map[string]*sseSession
}

type sseSession struct {
	mu   sync.Mutex
	sess *sse.Session
	done chan struct{}
}

// send pushes one message down the session's event stream.
func (s *sseSession) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ev := &sse.Message{Type: sse.Type("message")}
	ev.AppendData(string(data))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Send(ev); err != nil {
		return err
	}
	return s.sess.Flush()
}

// NewSSEHandler wraps a server. messageURL is the path clients POST
// requests to, typically "/message".
func NewSSEHandler(server *Server, messageURL string) *SSEHandler {
	return &SSEHandler{
		server:     server,
		messageURL: messageURL,
		sessions:   make(map[string]*sseSession),
	}
}

// HandleSSE upgrades GET requests to an event stream and announces the
// session's message endpoint.
func (h *SSEHandler) HandleSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sse.Upgrade(w, r)
		if err != nil {
			http.Error(w, "upgrade failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		id := uuid.NewString()
		session := &sseSession{sess: sess, done: make(chan struct{})}

		h.mu.Lock()
		h.sessions[id] = session
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.sessions, id)
			h.mu.Unlock()
		}()

		endpoint := &sse.Message{Type: sse.Type("endpoint")}
		endpoint.AppendData(fmt.Sprintf("%s?sessionID=%s", h.messageURL, id))
		session.mu.Lock()
		err = sess.Send(endpoint)
		if err == nil {
			err = sess.Flush()
		}
		session.mu.Unlock()
		if err != nil {
			logging.Get(logging.CategoryMCP).Warnw("announce endpoint failed", "err", err)
			return
		}

		// Hold the connection open until the client goes away.
		select {
		case <-r.Context().Done():
		case <-session.done:
		}
	})
}

// HandleMessage accepts POSTed requests, dispatches them, and sends the
// response down the session's event stream. The POST itself is answered
// with 202 Accepted.
func (h *SSEHandler) HandleMessage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("sessionID")
		h.mu.Lock()
		session, ok := h.sessions[id]
		h.mu.Unlock()
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxLineBytes))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}

		resp := h.server.HandleRaw(r.Context(), body)
		w.WriteHeader(http.StatusAccepted)
		if resp == nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(resp, &msg); err != nil {
			return
		}
		if err := session.send(msg); err != nil {
			logging.Get(logging.CategoryMCP).Warnw("send response failed", "session", id, "err", err)
		}
	})
}

// Mount registers the SSE and message endpoints on a mux.
func (h *SSEHandler) Mount(mux *http.ServeMux, ssePath string) {
	mux.Handle(ssePath, h.HandleSSE())
	mux.Handle(h.messageURL, h.HandleMessage())
}

// sseClientTransport connects to an SSE server: events in, POSTs out.
type sseClientTransport struct {
	httpClient *http.Client
	messageURL string

	messages  chan Message
	cancel    context.CancelFunc
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSSETransport connects to the server's SSE endpoint and waits for the
// message endpoint announcement.
func NewSSETransport(ctx context.Context, httpClient *http.Client, sseURL string) (Transport, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, sseURL, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect %s: %w", sseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("connect %s: status %d", sseURL, resp.StatusCode)
	}

	t := &sseClientTransport{
		httpClient: httpClient,
		messages:   make(chan Message, 8),
		cancel:     cancel,
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
	}

	endpointCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go t.readEvents(resp.Body, sseURL, endpointCh, errCh)

	select {
	case endpoint := <-endpointCh:
		t.messageURL = endpoint
	case err := <-errCh:
		cancel()
		return nil, err
	case <-time.After(10 * time.Second):
		cancel()
		return nil, fmt.Errorf("connect %s: no endpoint announcement", sseURL)
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
	return t, nil
}

func (t *sseClientTransport) readEvents(body io.ReadCloser, sseURL string, endpointCh chan<- string, errCh chan<- error) {
	defer func() {
		body.Close()
		close(t.closed)
	}()
	log := logging.Get(logging.CategoryMCP)

	base, _ := url.Parse(sseURL)
	announced := false
	for ev, err := range sse.Read(body, nil) {
		if err != nil {
			if !announced {
				errCh <- fmt.Errorf("read events: %w", err)
			}
			return
		}
		switch ev.Type {
		case "endpoint":
			ref, err := url.Parse(ev.Data)
			if err != nil || ev.Data == "" {
				if !announced {
					errCh <- fmt.Errorf("bad endpoint announcement %q", ev.Data)
				}
				return
			}
			announced = true
			endpointCh <- base.ResolveReference(ref).String()
		case "message":
			var msg Message
			if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil {
				log.Warnw("malformed event", "err", err)
				continue
			}
			// The buffer can fill if the caller stops receiving; a
			// close must still unblock this goroutine.
			select {
			case t.messages <- msg:
			case <-t.done:
				return
			}
		default:
			log.Debugw("unhandled event type", "type", ev.Type)
		}
	}
}

func (t *sseClientTransport) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.messageURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post message: status %d", resp.StatusCode)
	}
	return nil
}

func (t *sseClientTransport) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.messages:
		return msg, nil
	case <-t.closed:
		return Message{}, io.EOF
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (t *sseClientTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.cancel()
	})
	return nil
}
