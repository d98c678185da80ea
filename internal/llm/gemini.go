package llm

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"google.golang.org/genai"

	"praxis/internal/logging"
)

// GeminiClient implements Client on top of the Gemini API via the genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float64
}

// GeminiConfig configures the client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// Complete sends a bare prompt.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt under a system instruction.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
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

// Chat sends a full conversation. System messages become the system
// instruction; Gemini uses "model" where we use "assistant".
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (Message, error) {
	timer := logging.StartTimer(logging.CategoryLLM, "gemini.Chat")
	defer timer.Stop()

	cfg := &genai.GenerateContentConfig{}
	if c.temperature > 0 {
		temp := float32(c.temperature)
		cfg.Temperature = &temp
	}

	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return Message{}, fmt.Errorf("gemini: no user content")
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return Message{}, fmt.Errorf("gemini generate failed: %w", err)
	}
	return Message{Role: RoleAssistant, Content: result.Text()}, nil
}

// DescribeImage answers a prompt about the image at path.
func (c *GeminiClient) DescribeImage(ctx context.Context, prompt, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "image/png"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(data, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini vision failed: %w", err)
	}
	return result.Text(), nil
}

// Name identifies the provider and model.
func (c *GeminiClient) Name() string {
	return fmt.Sprintf("gemini:%s", c.model)
}
