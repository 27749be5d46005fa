// Package llm provides the generative-text oracle clients. The OpenAI client
// speaks the Chat Completions API directly; the Gemini client goes through
// the official genai SDK.
package llm

import (
	"fmt"
	"strings"
	"time"

	"takforge/ports"
)

// Config selects and parameterizes an oracle provider.
type Config struct {
	Provider     string // "openai" or "gemini"
	APIKey       string
	BaseURL      string
	SystemPrompt string
	Timeout      time.Duration
	Temperature  float64
}

// NewClient creates an oracle client based on config.
func NewClient(config Config) (ports.LLMClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing %s API key", providerName(config.Provider))
	}

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "", "openai":
		baseURL := strings.TrimSpace(config.BaseURL)
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return &OpenAIClient{
			APIKey:       config.APIKey,
			BaseURL:      baseURL,
			SystemPrompt: config.SystemPrompt,
			Timeout:      config.Timeout,
			Temperature:  config.Temperature,
		}, nil
	case "gemini":
		return NewGeminiClient(config)
	default:
		return nil, fmt.Errorf("unknown oracle provider '%s'", config.Provider)
	}
}

func providerName(provider string) string {
	if strings.EqualFold(provider, "gemini") {
		return "Gemini"
	}
	return "OpenAI"
}
