package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"praxis/internal/logging"
)

// maxLineBytes bounds one JSON-RPC message on a stream transport.
const maxLineBytes = 4 * 1024 * 1024

// Transport moves JSON-RPC messages between two peers.
type Transport interface {
	// Send writes one message.
	Send(ctx context.Context, msg Message) error

	// Receive blocks until the next message arrives. It returns io.EOF
	// when the peer goes away.
	Receive(ctx context.Context) (Message, error)

	// Close tears the connection down. Pending Receives unblock.
	Close() error
}

// Serve answers requests arriving on the transport until the context ends
// or the peer disconnects.
func (s *Server) Serve(ctx context.Context, t Transport) error {
	log := logging.Get(logging.CategoryMCP)
	for {
		msg, err := t.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		resp := s.Handle(ctx, &msg)
		if resp == nil {
			continue
		}
		if err := t.Send(ctx, *resp); err != nil {
			log.Warnw("send response failed", "err", err)
			return fmt.Errorf("send: %w", err)
		}
	}
}

// streamTransport frames messages as newline-delimited JSON over a
// reader/writer pair. Used for stdio on both ends.
type streamTransport struct {
	scanner *bufio.Scanner
	w       io.Writer
	closer  io.Closer
}

// NewStreamTransport wraps a reader/writer pair, e.g. os.Stdin/os.Stdout
// for a server speaking stdio. closer may be nil.
func NewStreamTransport(r io.Reader, w io.Writer, closer io.Closer) Transport {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &streamTransport{scanner: scanner, w: w, closer: closer}
}

func (t *streamTransport) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = t.w.Write(append(data, '\n'))
	return err
}

func (t *streamTransport) Receive(ctx context.Context) (Message, error) {
	for t.scanner.Scan() {
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			// One malformed line does not kill the stream.
			logging.Get(logging.CategoryMCP).Warnw("malformed message", "err", err)
			continue
		}
		return msg, nil
	}
	if err := t.scanner.Err(); err != nil {
		return Message{}, err
	}
	return Message{}, io.EOF
}

func (t *streamTransport) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// pipeTransport is an in-memory duplex transport. NewPipeTransport
// returns both ends; tests wire a client to a server without a process
// boundary.
type pipeTransport struct {
	in     chan Message
	out    chan Message
	done   chan struct{}
	closer func()
}

// NewPipeTransport creates a connected transport pair.
func NewPipeTransport() (clientEnd, serverEnd Transport) {
	a := make(chan Message, 8)
	b := make(chan Message, 8)
	done := make(chan struct{})
	var once sync.Once
	closer := func() { once.Do(func() { close(done) }) }
	return &pipeTransport{in: a, out: b, done: done, closer: closer},
		&pipeTransport{in: b, out: a, done: done, closer: closer}
}

func (t *pipeTransport) Send(ctx context.Context, msg Message) error {
	select {
	case t.out <- msg:
		return nil
	case <-t.done:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *pipeTransport) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.in:
		return msg, nil
	case <-t.done:
		return Message{}, io.EOF
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (t *pipeTransport) Close() error {
	t.closer()
	return nil
}
