package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		Schema: ToolSchema{
			Required: []string{"text"},
			Properties: map[string]Property{
				"text": {Type: "string", Description: "text to echo"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			s, _ := StringArg(args, "text")
			return s, nil
		},
	}
}

func TestRegistryRegisterAndCall(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := r.Call(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out != "hi" {
		t.Fatalf("out=%q, want hi", out)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register(echoTool("echo"))
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Fatalf("err=%v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(context.Background(), "nope", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("err=%v, want ErrToolNotFound", err)
	}
}

func TestRegistryMissingArgument(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("echo"))
	_, err := r.Call(context.Background(), "echo", map[string]any{})
	if !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("err=%v, want ErrMissingArgument", err)
	}
}

func TestRegistryInvalidTool(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Tool{Name: "broken"}); !errors.Is(err, ErrToolExecuteNil) {
		t.Fatalf("err=%v, want ErrToolExecuteNil", err)
	}
	if err := r.Register(echoTool("")); !errors.Is(err, ErrToolNameEmpty) {
		t.Fatalf("err=%v, want ErrToolNameEmpty", err)
	}
}

func TestRenderPrompt(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCalculator())
	r.MustRegister(NewClock(func() time.Time { return time.Time{} }))

	prompt := r.RenderPrompt()
	if !strings.Contains(prompt, "- calculator:") {
		t.Fatalf("prompt missing calculator: %q", prompt)
	}
	if !strings.Contains(prompt, "expression (required)") {
		t.Fatalf("prompt missing required marker: %q", prompt)
	}
	// Tools render in name order.
	if strings.Index(prompt, "calculator") > strings.Index(prompt, "clock") {
		t.Fatalf("tools not sorted: %q", prompt)
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("zeta"))
	r.MustRegister(echoTool("alpha"))
	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("names=%v", names)
	}
}
