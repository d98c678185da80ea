// Package tools provides the tool definitions agents can call during
// reasoning. Each tool is standalone; the Registry holds the active set
// and renders their descriptions into agent prompts.
package tools

import (
	"context"
	"fmt"
)

// Property describes a single parameter for the tool's JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// ToolSchema defines the expected arguments for a tool.
type ToolSchema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is a callable capability exposed to agents.
type Tool struct {
	// Name is the unique identifier the agent uses to invoke the tool.
	Name string

	// Description explains what the tool does. Rendered into prompts,
	// so it should say when to use the tool, not how it works.
	Description string

	// Schema defines the expected arguments.
	Schema ToolSchema

	// Execute runs the tool.
	Execute ExecuteFunc
}

// Validate checks the tool definition.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// CheckArgs verifies that all required arguments are present.
func (t *Tool) CheckArgs(args map[string]any) error {
	for _, name := range t.Schema.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingArgument, name)
		}
	}
	return nil
}

// StringArg extracts a string argument, coercing scalars when possible.
func StringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	case float64, int, bool:
		return fmt.Sprintf("%v", s), true
	default:
		return "", false
	}
}
