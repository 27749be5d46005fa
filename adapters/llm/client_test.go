package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientSelectsProvider(t *testing.T) {
	c, err := NewClient(Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	oc, ok := c.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "https://api.openai.com/v1", oc.BaseURL)

	_, err = NewClient(Config{Provider: "openai"})
	assert.ErrorContains(t, err, "missing OpenAI API key")

	_, err = NewClient(Config{Provider: "llamacpp", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown oracle provider")
}

func TestGeminiCallContextAppliesTimeout(t *testing.T) {
	c := &GeminiClient{timeout: 50 * time.Millisecond}
	ctx, cancel := c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "configured timeout must bound the request context")
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 20*time.Millisecond)
}

func TestGeminiCallContextWithoutTimeout(t *testing.T) {
	c := &GeminiClient{}
	ctx, cancel := c.callContext(context.Background())
	defer cancel()

	_, ok := ctx.Deadline()
	assert.False(t, ok, "no timeout configured means the caller's context passes through")
}
