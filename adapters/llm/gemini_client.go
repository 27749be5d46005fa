package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"takforge/ports"
)

// GeminiClient implements ports.LLMClient via the Google genai SDK.
type GeminiClient struct {
	client       *genai.Client
	systemPrompt string
	temperature  float64
	timeout      time.Duration
}

// NewGeminiClient creates a Gemini oracle client.
func NewGeminiClient(config Config) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{
		client:       client,
		systemPrompt: config.SystemPrompt,
		temperature:  config.Temperature,
		timeout:      config.Timeout,
	}, nil
}

// callContext bounds a request context by the configured timeout, so one hung
// call cannot hang the whole run.
func (c *GeminiClient) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GeminiClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := c.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *GeminiClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Temperature:     genai.Ptr(float32(c.temperature)),
	}
	if c.systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(c.systemPrompt, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini response missing content")
	}

	usage := &ports.UsageData{Model: model, Provider: "gemini"}
	if result.UsageMetadata != nil {
		usage.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(result.UsageMetadata.TotalTokenCount)
	}
	return &ports.LLMResponse{Content: text, Usage: usage}, nil
}
