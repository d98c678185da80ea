package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxReadBytes = 256 * 1024

// resolveInWorkspace joins rel onto root and rejects anything escaping it.
func resolveInWorkspace(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(root, rel))
	if err != nil {
		return "", err
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if abs != rootAbs && !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", rel)
	}
	return abs, nil
}

// NewReadFile returns a tool that reads a file under the workspace root.
func NewReadFile(workspace string) *Tool {
	return &Tool{
		Name:        "read_file",
		Description: "Read a text file from the workspace. Path is relative to the workspace root.",
		Schema: ToolSchema{
			Required: []string{"path"},
			Properties: map[string]Property{
				"path": {Type: "string", Description: "Relative path of the file to read."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			rel, _ := StringArg(args, "path")
			abs, err := resolveInWorkspace(workspace, rel)
			if err != nil {
				return "", err
			}
			info, err := os.Stat(abs)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", rel, err)
			}
			if info.Size() > maxReadBytes {
				return "", fmt.Errorf("file %s is too large (%d bytes)", rel, info.Size())
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", rel, err)
			}
			return string(data), nil
		},
	}
}

// NewWriteFile returns a tool that writes a file under the workspace root,
// creating parent directories as needed.
func NewWriteFile(workspace string) *Tool {
	return &Tool{
		Name:        "write_file",
		Description: "Write content to a file in the workspace, replacing any existing content.",
		Schema: ToolSchema{
			Required: []string{"path", "content"},
			Properties: map[string]Property{
				"path":    {Type: "string", Description: "Relative path of the file to write."},
				"content": {Type: "string", Description: "The full file content."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			rel, _ := StringArg(args, "path")
			content, _ := StringArg(args, "content")
			abs, err := resolveInWorkspace(workspace, rel)
			if err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return "", fmt.Errorf("write %s: %w", rel, err)
			}
			if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
				return "", fmt.Errorf("write %s: %w", rel, err)
			}
			return fmt.Sprintf("wrote %d bytes to %s", len(content), rel), nil
		},
	}
}

// NewListFiles returns a tool that lists files in a workspace directory.
func NewListFiles(workspace string) *Tool {
	return &Tool{
		Name:        "list_files",
		Description: "List the files in a workspace directory.",
		Schema: ToolSchema{
			Properties: map[string]Property{
				"path": {Type: "string", Description: "Relative directory path. Defaults to the workspace root."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			rel, _ := StringArg(args, "path")
			if rel == "" {
				rel = "."
			}
			abs, err := resolveInWorkspace(workspace, rel)
			if err != nil {
				return "", err
			}
			entries, err := os.ReadDir(abs)
			if err != nil {
				return "", fmt.Errorf("list %s: %w", rel, err)
			}
			var b strings.Builder
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), ".") {
					continue
				}
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				b.WriteString(name)
				b.WriteString("\n")
			}
			if b.Len() == 0 {
				return "(empty)", nil
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	}
}
