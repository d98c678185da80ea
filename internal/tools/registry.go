package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"praxis/internal/logging"
)

// Registry holds the available tools. Thread-safe; tools can be registered
// at runtime, e.g. when an MCP server connects.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool
	logging.Get(logging.CategoryTools).Debugw("registered tool", "name", tool.Name)
	return nil
}

// MustRegister registers a tool and panics on error. For static
// registration at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call looks up a tool, checks its required arguments, and executes it.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, err := r.Get(name)
	if err != nil {
		return "", err
	}
	if err := tool.CheckArgs(args); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	timer := logging.StartTimer(logging.CategoryTools, "tool:"+name)
	defer timer.Stop()
	return tool.Execute(ctx, args)
}

// RenderPrompt formats the tool set as a prompt block agents can reason
// over. One tool per paragraph: name, description, arguments.
func (r *Registry) RenderPrompt() string {
	var b strings.Builder
	for _, t := range r.List() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		if len(t.Schema.Properties) > 0 {
			names := make([]string, 0, len(t.Schema.Properties))
			for name := range t.Schema.Properties {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				prop := t.Schema.Properties[name]
				req := ""
				if contains(t.Schema.Required, name) {
					req = " (required)"
				}
				fmt.Fprintf(&b, "    %s%s: %s\n", name, req, prop.Description)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
