package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"praxis/internal/logging"
)

// OpenAIClient implements Client against any OpenAI-compatible
// /chat/completions endpoint (OpenAI, OpenRouter, llama.cpp server, ...).
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// OpenAIConfig configures the client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// minRequestSpacing keeps bursts from tripping provider rate limits.
const minRequestSpacing = 100 * time.Millisecond

// NewOpenAIClient creates a client with defaults filled in.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OpenAIClient{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends a bare prompt.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt under a system instruction.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var msgs []Message
	if systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: userPrompt})
	reply, err := c.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// Chat sends a full conversation, retrying transient failures.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (Message, error) {
	if c.apiKey == "" {
		return Message{}, fmt.Errorf("openai: API key not configured")
	}

	timer := logging.StartTimer(logging.CategoryLLM, "openai.Chat")
	defer timer.Stop()

	// Space out consecutive requests.
	c.mu.Lock()
	if elapsed := time.Since(c.lastRequest); elapsed < minRequestSpacing {
		time.Sleep(minRequestSpacing - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	req := openAIRequest{
		Model:       c.model,
		Temperature: c.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Message{}, fmt.Errorf("marshal request: %w", err)
	}

	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 2 * time.Second
			logging.Get(logging.CategoryLLM).Warnw("retrying request",
				"provider", "openai", "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Message{}, ctx.Err()
			}
		}

		reply, retryable, err := c.doRequest(ctx, body)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return Message{}, lastErr
}

func (c *OpenAIClient) doRequest(ctx context.Context, body []byte) (Message, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Message{}, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Message{}, true, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Message{}, true, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(data))
	}
	if resp.StatusCode != http.StatusOK {
		return Message{}, false, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(data))
	}

	var result openAIResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return Message{}, false, fmt.Errorf("decode response: %w", err)
	}
	if result.Error != nil {
		return Message{}, false, fmt.Errorf("openai: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return Message{}, false, fmt.Errorf("openai: empty choices")
	}
	return Message{Role: RoleAssistant, Content: result.Choices[0].Message.Content}, false, nil
}

// Name identifies the provider and model.
func (c *OpenAIClient) Name() string {
	return fmt.Sprintf("openai:%s", c.model)
}
