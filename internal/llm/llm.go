// Package llm wraps the chat-completion APIs the assistant talks to.
package llm

import (
	"context"
	"fmt"
)

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Role of a message in the conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call. A nil Temperature leaves the
// provider's default in place.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float32
}

// Temperature returns a pointer to t for Request.Temperature.
func Temperature(t float32) *float32 { return &t }

// Provider returns the model's reply to a request.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

const defaultMaxTokens = 4096

// New returns the provider named by name. An empty model selects the
// provider's default.
func New(name, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: %s: api key is not set", name)
	}
	switch name {
	case ProviderAnthropic:
		return NewAnthropic(apiKey, model), nil
	case ProviderOpenAI:
		return NewOpenAI(apiKey, model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", name)
	}
}

func maxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}
