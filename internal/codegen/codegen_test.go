package codegen

import (
	"context"
	"strings"
	"testing"

	"praxis/internal/llm/llmtest"
)

func TestExtractCodeBlocks(t *testing.T) {
	text := "Here is the function:\n\n```go\nfunc Add(a, b int) int {\n\treturn a + b\n}\n```\n\nAnd a test:\n\n```go\nfunc TestAdd(t *testing.T) {}\n```\n"
	blocks := ExtractCodeBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].Language != "go" {
		t.Fatalf("language=%q", blocks[0].Language)
	}
	if !strings.Contains(blocks[0].Code, "return a + b") {
		t.Fatalf("code=%q", blocks[0].Code)
	}
}

func TestExtractUnterminatedFence(t *testing.T) {
	text := "```python\ndef greet():\n    print(\"hi\")\n"
	blocks := ExtractCodeBlocks(text)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Language != "python" {
		t.Fatalf("language=%q", blocks[0].Language)
	}
}

func TestExtractNoBlocks(t *testing.T) {
	if got := ExtractCodeBlocks("just prose, no code"); len(got) != 0 {
		t.Fatalf("got %d blocks, want 0", len(got))
	}
}

func TestFirstBlockByLanguage(t *testing.T) {
	text := "```json\n{}\n```\n```go\nfunc main() {}\n```"
	b, ok := FirstBlock(text, "go")
	if !ok || !strings.Contains(b.Code, "func main") {
		t.Fatalf("ok=%v code=%q", ok, b.Code)
	}
	if _, ok := FirstBlock(text, "rust"); ok {
		t.Fatal("found a rust block that does not exist")
	}
}

func TestStripFences(t *testing.T) {
	text := "```go\nfunc A() {}\n```"
	if got := StripFences(text); got != "func A() {}" {
		t.Fatalf("got %q", got)
	}
	// Bare code passes through trimmed.
	if got := StripFences("  x := 1  "); got != "x := 1" {
		t.Fatalf("got %q", got)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		block   Block
		wantErr string
	}{
		{"valid go", Block{Language: "go", Code: "func Add(a, b int) int { return a + b }"}, ""},
		{"valid python", Block{Language: "python", Code: "def add(a, b):\n    return a + b"}, ""},
		{"empty", Block{Language: "go", Code: "   "}, "empty"},
		{"unclosed brace", Block{Language: "go", Code: "func A() {"}, "unclosed"},
		{"stray paren", Block{Language: "go", Code: "func A()) {}"}, "unbalanced"},
		{"no declaration", Block{Language: "go", Code: "x := 1"}, "no function"},
		{"unknown language passes", Block{Language: "haskell", Code: "add a b = a + b"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.block)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err=%v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckIgnoresBracketsInStrings(t *testing.T) {
	b := Block{Language: "go", Code: `func A() string { return "(((" }`}
	if err := Check(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckText(t *testing.T) {
	if err := CheckText("no code here"); err == nil {
		t.Fatal("expected error for missing block")
	}
	if err := CheckText("```go\nfunc A() {}\n```"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateRepairsBrokenCode(t *testing.T) {
	client := llmtest.NewMockClient(
		"```go\nfunc Broken() {\n```",
		"```go\nfunc Fixed() {}\n```",
	)
	block, err := Generate(context.Background(), client, "go", "write a function")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(block.Code, "Fixed") {
		t.Fatalf("code=%q", block.Code)
	}
	if client.CallCount() != 2 {
		t.Fatalf("calls=%d, want 2", client.CallCount())
	}
	if !strings.Contains(client.Calls[1], "unclosed") {
		t.Fatalf("repair prompt missing check error: %q", client.Calls[1])
	}
}

func TestGenerateGivesUp(t *testing.T) {
	bad := "```go\nfunc Broken() {\n```"
	client := llmtest.NewMockClient(bad, bad, bad)
	if _, err := Generate(context.Background(), client, "go", "task"); err == nil {
		t.Fatal("expected error after exhausting repairs")
	}
	if client.CallCount() != 3 {
		t.Fatalf("calls=%d, want 3", client.CallCount())
	}
}
