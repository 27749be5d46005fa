package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"takforge/ports"
)

// OpenAIClient implements ports.LLMClient for OpenAI
type OpenAIClient struct {
	APIKey       string
	BaseURL      string
	SystemPrompt string
	Timeout      time.Duration
	Temperature  float64
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := c.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *OpenAIClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	// Chat Completions API (kept minimal: one system + one user message)
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	messages := make([]msg, 0, 2)
	if c.SystemPrompt != "" {
		messages = append(messages, msg{Role: "system", Content: c.SystemPrompt})
	}
	messages = append(messages, msg{Role: "user", Content: prompt})
	body := reqBody{
		Model:       model,
		Messages:    messages,
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, string(respRaw))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
		Usage   struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}
	return &ports.LLMResponse{
		Content: decoded.Choices[0].Message.Content,
		Usage: &ports.UsageData{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
			Model:            model,
			Provider:         "openai",
		},
	}, nil
}
