// Package llmtest provides a scriptable llm.Client for package tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"praxis/internal/llm"
)

// MockClient returns canned responses in order, or routes through Fn when
// set. It records every prompt it receives.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	// Fn, when non-nil, computes the response from the last user message.
	Fn    func(prompt string) (string, error)
	Calls []string
	next  int
}

// NewMockClient returns a client that cycles through responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

func (m *MockClient) reply(prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)
	if m.Fn != nil {
		return m.Fn(prompt)
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock: no responses configured")
	}
	resp := m.Responses[m.next%len(m.Responses)]
	m.next++
	return resp, nil
}

// Complete implements llm.Client.
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.reply(prompt)
}

// CompleteWithSystem implements llm.Client.
func (m *MockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.Complete(ctx, userPrompt)
}

// Chat implements llm.Client using the last user message as the prompt.
func (m *MockClient) Chat(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	prompt := ""
	for _, msg := range messages {
		if msg.Role == llm.RoleUser {
			prompt = msg.Content
		}
	}
	content, err := m.Complete(ctx, prompt)
	if err != nil {
		return llm.Message{}, err
	}
	return llm.Message{Role: llm.RoleAssistant, Content: content}, nil
}

// Name implements llm.Client.
func (m *MockClient) Name() string { return "mock" }

// CallCount returns how many completions were requested.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
