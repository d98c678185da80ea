package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Checkpoint is a persisted workflow pause point. One checkpoint exists
// per thread; saving replaces any previous one.
type Checkpoint struct {
	ThreadID  string
	NextNode  string
	StateJSON []byte
}

// SaveCheckpoint upserts the checkpoint for a thread.
func (s *Store) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, next_node, state_json, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(thread_id) DO UPDATE SET
			next_node = excluded.next_node,
			state_json = excluded.state_json,
			updated_at = CURRENT_TIMESTAMP`,
		cp.ThreadID, cp.NextNode, string(cp.StateJSON))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint fetches the checkpoint for a thread.
func (s *Store) LoadCheckpoint(ctx context.Context, threadID string) (Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cp Checkpoint
	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT thread_id, next_node, state_json FROM checkpoints WHERE thread_id = ?",
		threadID).Scan(&cp.ThreadID, &cp.NextNode, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	cp.StateJSON = []byte(stateJSON)
	return cp, nil
}

// DeleteCheckpoint removes the checkpoint for a thread. Deleting a missing
// checkpoint is not an error.
func (s *Store) DeleteCheckpoint(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
