package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"praxis/internal/logging"
)

// OllamaClient talks to a local Ollama server via /api/chat.
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// NewOllamaClient creates a client with defaults filled in.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OllamaClient{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// Complete sends a bare prompt.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt under a system instruction.
func (c *OllamaClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
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

// Chat sends a full conversation.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message) (Message, error) {
	timer := logging.StartTimer(logging.CategoryLLM, "ollama.Chat")
	defer timer.Stop()

	resp, err := c.send(ctx, messages, false)
	if err != nil {
		return Message{}, err
	}
	defer resp.Body.Close()

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Message{}, fmt.Errorf("decode ollama response: %w", err)
	}
	if result.Error != "" {
		return Message{}, fmt.Errorf("ollama: %s", result.Error)
	}
	return Message{Role: RoleAssistant, Content: result.Message.Content}, nil
}

// ChatStream streams the reply token by token. Ollama emits one JSON object
// per line until a final object with done=true.
func (c *OllamaClient) ChatStream(ctx context.Context, messages []Message, onChunk func(string) error) (Message, error) {
	resp, err := c.send(ctx, messages, true)
	if err != nil {
		return Message{}, err
	}
	defer resp.Body.Close()

	var full bytes.Buffer
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return Message{}, fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return Message{}, fmt.Errorf("ollama: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			if onChunk != nil {
				if err := onChunk(chunk.Message.Content); err != nil {
					return Message{}, err
				}
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return Message{}, fmt.Errorf("read stream: %w", err)
	}
	return Message{Role: RoleAssistant, Content: full.String()}, nil
}

// DescribeImage answers a prompt about an image using a vision-capable
// model (e.g. llava). The image is inlined base64 per the Ollama API.
func (c *OllamaClient) DescribeImage(ctx context.Context, prompt, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	msg := Message{
		Role:    RoleUser,
		Content: prompt,
		Images:  []string{base64.StdEncoding.EncodeToString(data)},
	}
	reply, err := c.Chat(ctx, []Message{msg})
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// Name identifies the provider and model.
func (c *OllamaClient) Name() string {
	return fmt.Sprintf("ollama:%s", c.model)
}

func (c *OllamaClient) send(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	// http.Client.Timeout bounds the whole exchange including body reads,
	// so no per-request context deadline is applied here.
	req := ollamaChatRequest{
		Model:  c.model,
		Stream: stream,
	}
	if c.temperature > 0 {
		req.Options = map[string]any{"temperature": c.temperature}
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollamaMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Images:  m.Images,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(data))
	}
	return resp, nil
}
