package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"praxis/internal/store"
)

// Checkpointer persists a thread's position and state between steps.
type Checkpointer[S any] interface {
	Save(ctx context.Context, threadID, nextNode string, state S) error
	Load(ctx context.Context, threadID string) (nextNode string, state S, err error)
	Delete(ctx context.Context, threadID string) error
}

// MemoryCheckpointer keeps checkpoints in memory. For tests and
// single-process use.
type MemoryCheckpointer[S any] struct {
	mu      sync.Mutex
	entries map[string]memEntry[S]
}

type memEntry[S any] struct {
	node  string
	state S
}

// NewMemoryCheckpointer creates an empty in-memory checkpointer.
func NewMemoryCheckpointer[S any]() *MemoryCheckpointer[S] {
	return &MemoryCheckpointer[S]{entries: make(map[string]memEntry[S])}
}

func (m *MemoryCheckpointer[S]) Save(ctx context.Context, threadID, nextNode string, state S) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[threadID] = memEntry[S]{node: nextNode, state: state}
	return nil
}

func (m *MemoryCheckpointer[S]) Load(ctx context.Context, threadID string) (string, S, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[threadID]
	if !ok {
		var zero S
		return "", zero, fmt.Errorf("%w: %s", ErrNoCheckpoint, threadID)
	}
	return entry.node, entry.state, nil
}

func (m *MemoryCheckpointer[S]) Delete(ctx context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, threadID)
	return nil
}

// StoreCheckpointer persists checkpoints to the SQLite store as JSON, so
// interrupted runs survive process restarts.
type StoreCheckpointer[S any] struct {
	st *store.Store
}

// NewStoreCheckpointer wraps a store.
func NewStoreCheckpointer[S any](st *store.Store) *StoreCheckpointer[S] {
	return &StoreCheckpointer[S]{st: st}
}

func (c *StoreCheckpointer[S]) Save(ctx context.Context, threadID, nextNode string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return c.st.SaveCheckpoint(ctx, store.Checkpoint{
		ThreadID:  threadID,
		NextNode:  nextNode,
		StateJSON: data,
	})
}

func (c *StoreCheckpointer[S]) Load(ctx context.Context, threadID string) (string, S, error) {
	var zero S
	cp, err := c.st.LoadCheckpoint(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", zero, fmt.Errorf("%w: %s", ErrNoCheckpoint, threadID)
		}
		return "", zero, err
	}
	var state S
	if err := json.Unmarshal([]byte(cp.StateJSON), &state); err != nil {
		return "", zero, fmt.Errorf("unmarshal state: %w", err)
	}
	return cp.NextNode, state, nil
}

func (c *StoreCheckpointer[S]) Delete(ctx context.Context, threadID string) error {
	return c.st.DeleteCheckpoint(ctx, threadID)
}
