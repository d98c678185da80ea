// Package llm provides chat completion clients for the providers praxis
// supports: local Ollama, OpenAI-compatible endpoints, and Gemini.
// All providers implement the same small Client interface so the rest of
// the system never sees provider details.
package llm

import (
	"context"
	"fmt"
	"time"

	"praxis/internal/config"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Images holds optional base64-encoded image payloads for multimodal
	// turns. Only some providers/models accept them.
	Images []string `json:"images,omitempty"`
}

// Client is the minimal chat completion interface consumed everywhere.
type Client interface {
	// Complete sends a bare prompt and returns the completion text.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt under a system instruction.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Chat sends a full conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []Message) (Message, error)

	// Name identifies the provider and model, e.g. "ollama:llama3.2".
	Name() string
}

// StreamingClient is implemented by providers that can stream tokens.
type StreamingClient interface {
	Client

	// ChatStream streams the reply, invoking onChunk for each text delta.
	// The full reply is returned after the stream completes.
	ChatStream(ctx context.Context, messages []Message, onChunk func(string) error) (Message, error)
}

// VisionClient is implemented by providers that accept image input.
type VisionClient interface {
	Client

	// DescribeImage answers a prompt about the image at path.
	DescribeImage(ctx context.Context, prompt, imagePath string) (string, error)
}

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) (Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     timeout,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     timeout,
		}), nil
	case "gemini":
		return NewGeminiClient(context.Background(), GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}

// ensureDeadline applies a timeout when the caller's context has none.
func ensureDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
