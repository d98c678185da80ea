package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task is one entry in the task list exposed by the demo MCP server.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"` // pending or completed
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CreateTask inserts a new pending task and returns it.
func (s *Store) CreateTask(ctx context.Context, title, description string) (Task, error) {
	task := Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      "pending",
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, title, description, status, created_at) VALUES (?, ?, ?, ?, ?)",
		task.ID, task.Title, task.Description, task.Status, task.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks, optionally filtered by status ("" means all).
func (s *Store) ListTasks(ctx context.Context, status string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, title, description, status, created_at, completed_at FROM tasks"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var desc sql.NullString
		var completed sql.NullTime
		if err := rows.Scan(&t.ID, &t.Title, &desc, &t.Status, &t.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Description = desc.String
		if completed.Valid {
			t.CompletedAt = &completed.Time
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CompleteTask marks a task completed.
func (s *Store) CompleteTask(ctx context.Context, id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = 'completed', completed_at = ? WHERE id = ? AND status = 'pending'",
		now, id)
	if err != nil {
		return Task{}, fmt.Errorf("complete task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return Task{}, ErrNotFound
	}

	var t Task
	var desc sql.NullString
	var completed sql.NullTime
	err = s.db.QueryRowContext(ctx,
		"SELECT id, title, description, status, created_at, completed_at FROM tasks WHERE id = ?", id).
		Scan(&t.ID, &t.Title, &desc, &t.Status, &t.CreatedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("reload task: %w", err)
	}
	t.Description = desc.String
	if completed.Valid {
		t.CompletedAt = &completed.Time
	}
	return t, nil
}

// TaskStats summarizes the task list.
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// TaskStats returns counts by status.
func (s *Store) TaskStats(ctx context.Context) (TaskStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats TaskStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM tasks`).Scan(&stats.Total, &stats.Pending, &stats.Completed)
	if err != nil {
		return TaskStats{}, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}
