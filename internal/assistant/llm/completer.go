package llm

import (
	"context"
	"fmt"

	"github.com/b2bnest/b2bnest-api/config"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion: a system prompt, prior turns and the new user message.
type Request struct {
	System  string
	History []Message
	Message string
}

// Completer produces the assistant's reply for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New returns the Completer selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case config.LLMProviderOpenAI, "":
		return NewOpenAIClient(cfg), nil
	case config.LLMProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
