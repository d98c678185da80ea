package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"praxis/internal/tools"
)

// BridgeTools registers every tool of a connected MCP server into a local
// tool registry, so agents can call remote tools like built-in ones.
// Names are prefixed with the server name to avoid collisions.
func BridgeTools(ctx context.Context, client *Client, registry *tools.Registry) (int, error) {
	remote, err := client.ListTools(ctx)
	if err != nil {
		return 0, fmt.Errorf("bridge tools: %w", err)
	}

	prefix := client.ServerInfo().Name
	added := 0
	for _, def := range remote {
		name := def.Name
		if prefix != "" {
			name = prefix + "." + def.Name
		}
		remoteName := def.Name
		err := registry.Register(&tools.Tool{
			Name:        name,
			Description: def.Description,
			Schema:      schemaFromMCP(def),
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				return client.CallTool(ctx, remoteName, args)
			},
		})
		if err != nil {
			return added, fmt.Errorf("bridge tools: %w", err)
		}
		added++
	}
	return added, nil
}

// schemaFromMCP converts an MCP input schema into the local tool schema.
// Only the pieces the prompt renderer uses are mapped.
func schemaFromMCP(def Tool) tools.ToolSchema {
	var raw struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
	}
	schema := tools.ToolSchema{Properties: make(map[string]tools.Property)}
	if len(def.InputSchema) == 0 {
		return schema
	}
	if err := json.Unmarshal(def.InputSchema, &raw); err != nil {
		return schema
	}
	schema.Required = raw.Required
	for name, prop := range raw.Properties {
		schema.Properties[name] = tools.Property{
			Type:        prop.Type,
			Description: prop.Description,
		}
	}
	return schema
}
