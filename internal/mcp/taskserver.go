package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"praxis/internal/store"
)

// NewTaskServer builds the bundled demo server: a task manager backed by
// the SQLite store. It exposes tools to create, list, and complete tasks,
// a resource with the full task list, and a planning prompt.
func NewTaskServer(st *store.Store, version string) *Server {
	s := NewServer("praxis-tasks", version)

	s.RegisterTool(Tool{
		Name:        "create_task",
		Description: "Create a new task with a title and optional description.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"title":{"type":"string"},"description":{"type":"string"}},"required":["title"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		title, _ := args["title"].(string)
		if strings.TrimSpace(title) == "" {
			return "", fmt.Errorf("title is required")
		}
		description, _ := args["description"].(string)
		task, err := st.CreateTask(ctx, title, description)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("created task %s: %s", task.ID, task.Title), nil
	})

	s.RegisterTool(Tool{
		Name:        "list_tasks",
		Description: "List tasks, optionally filtered by status (pending or completed).",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"status":{"type":"string","enum":["pending","completed"]}}}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		status, _ := args["status"].(string)
		tasks, err := st.ListTasks(ctx, status)
		if err != nil {
			return "", err
		}
		if len(tasks) == 0 {
			return "no tasks", nil
		}
		var b strings.Builder
		for _, t := range tasks {
			fmt.Fprintf(&b, "[%s] %s: %s\n", t.Status, t.ID, t.Title)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	})

	s.RegisterTool(Tool{
		Name:        "complete_task",
		Description: "Mark a pending task as completed by its id.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		id, _ := args["id"].(string)
		task, err := st.CompleteTask(ctx, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("completed task %s: %s", task.ID, task.Title), nil
	})

	s.RegisterTool(Tool{
		Name:        "task_stats",
		Description: "Report how many tasks are pending and completed.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, args map[string]any) (string, error) {
		stats, err := st.TaskStats(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d total, %d pending, %d completed",
			stats.Total, stats.Pending, stats.Completed), nil
	})

	s.RegisterResource(Resource{
		URI:         "tasks://all",
		Name:        "All tasks",
		Description: "The full task list as JSON.",
		MimeType:    "application/json",
	}, func(ctx context.Context) (string, error) {
		tasks, err := st.ListTasks(ctx, "")
		if err != nil {
			return "", err
		}
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	})

	s.RegisterPrompt(Prompt{
		Name:        "plan_day",
		Description: "Draft a plan for the day from the pending tasks.",
		Arguments: []PromptArgument{
			{Name: "focus", Description: "Optional area to prioritize."},
		},
	}, func(ctx context.Context, args map[string]string) (GetPromptResult, error) {
		tasks, err := st.ListTasks(ctx, "pending")
		if err != nil {
			return GetPromptResult{}, err
		}
		var b strings.Builder
		b.WriteString("Plan my day around these pending tasks:\n")
		for _, t := range tasks {
			fmt.Fprintf(&b, "- %s", t.Title)
			if t.Description != "" {
				fmt.Fprintf(&b, " (%s)", t.Description)
			}
			b.WriteString("\n")
		}
		if focus := args["focus"]; focus != "" {
			fmt.Fprintf(&b, "Prioritize anything related to %s.\n", focus)
		}
		return GetPromptResult{
			Description: "Daily planning prompt",
			Messages: []PromptMessage{
				{Role: "user", Content: TextContent(b.String())},
			},
		}, nil
	})

	return s
}
