package llm

import (
	"context"

	"takforge/ports"
)

// MockLLMClient is a mock oracle client for testing. Responses are served in
// order, repeating the last one once the queue is exhausted; every prompt is
// recorded for assertion.
type MockLLMClient struct {
	Responses []string // Sequenced responses, one per call
	Error     error    // Set this to simulate errors
	Prompts   []string // Every prompt received, in call order

	calls int
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := m.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (m *MockLLMClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Error != nil {
		return nil, m.Error
	}

	response := "<artifact/>"
	if len(m.Responses) > 0 {
		idx := m.calls
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		response = m.Responses[idx]
	}
	m.calls++

	return &ports.LLMResponse{
		Content: response,
		Usage: &ports.UsageData{
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(response) / 4,
			TotalTokens:      (len(prompt) + len(response)) / 4,
			Model:            model,
			Provider:         "mock",
		},
	}, nil
}
