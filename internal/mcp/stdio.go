package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"praxis/internal/logging"
)

// ServeStdio runs the server on stdin/stdout, the standard MCP subprocess
// arrangement. Logs must go to stderr; stdout carries only protocol.
func (s *Server) ServeStdio(ctx context.Context) error {
	t := NewStreamTransport(os.Stdin, os.Stdout, nil)
	return s.Serve(ctx, t)
}

// stdioTransport launches an MCP server as a subprocess and frames
// messages over its stdin/stdout.
type stdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	scanner *bufio.Scanner
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup
}

// NewStdioTransport starts command with args and connects to its pipes.
func NewStdioTransport(command string, args ...string) (Transport, error) {
	if command == "" {
		return nil, fmt.Errorf("stdio transport: empty command")
	}
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	t := &stdioTransport{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		scanner: bufio.NewScanner(stdout),
	}
	t.scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	// Drain stderr so the subprocess never blocks on it.
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		log := logging.Get(logging.CategoryMCP)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Debugw("server stderr", "line", scanner.Text())
		}
	}()

	return t, nil
}

func (t *stdioTransport) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err = t.stdin.Write(append(data, '\n'))
	return err
}

func (t *stdioTransport) Receive(ctx context.Context) (Message, error) {
	for t.scanner.Scan() {
		line := t.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			logging.Get(logging.CategoryMCP).Warnw("malformed message from server", "err", err)
			continue
		}
		return msg, nil
	}
	if err := t.scanner.Err(); err != nil {
		return Message{}, err
	}
	return Message{}, io.EOF
}

func (t *stdioTransport) Close() error {
	t.closeOnce.Do(func() {
		_ = t.stdin.Close()
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
		}
		t.closeErr = t.cmd.Wait()
		t.wg.Wait()
	})
	return t.closeErr
}
