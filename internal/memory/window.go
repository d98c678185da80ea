// Package memory implements conversation memory: a bounded window of
// recent turns, a rolling summary for older history, and extraction of
// durable user preferences from what the user says.
package memory

import (
	"sync"

	"praxis/internal/llm"
)

// WindowBuffer keeps the last K exchanges (user+assistant pairs) verbatim.
type WindowBuffer struct {
	mu       sync.Mutex
	size     int // max exchanges retained
	messages []llm.Message
}

// NewWindowBuffer creates a buffer holding up to size exchanges.
func NewWindowBuffer(size int) *WindowBuffer {
	if size <= 0 {
		size = 10
	}
	return &WindowBuffer{size: size}
}

// Add appends a message, evicting the oldest exchange when over capacity.
func (w *WindowBuffer) Add(msg llm.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
	evicted := false
	for w.exchanges() > w.size {
		w.messages = w.messages[1:]
		evicted = true
	}
	// Keep the window aligned on exchange boundaries: eviction must not
	// leave an orphaned assistant reply at the head.
	if evicted {
		for len(w.messages) > 0 && w.messages[0].Role == llm.RoleAssistant {
			w.messages = w.messages[1:]
		}
	}
}

// AddExchange appends a user turn and its assistant reply.
func (w *WindowBuffer) AddExchange(user, assistant string) {
	w.Add(llm.Message{Role: llm.RoleUser, Content: user})
	w.Add(llm.Message{Role: llm.RoleAssistant, Content: assistant})
}

// Messages returns a copy of the buffered history in order.
func (w *WindowBuffer) Messages() []llm.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]llm.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len returns the number of buffered messages.
func (w *WindowBuffer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

// Clear drops all history.
func (w *WindowBuffer) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = nil
}

// exchanges counts user messages; callers hold the lock.
func (w *WindowBuffer) exchanges() int {
	n := 0
	for _, m := range w.messages {
		if m.Role == llm.RoleUser {
			n++
		}
	}
	return n
}
