// Package llm wraps the chat-completion providers the writing coach can run
// against. Callers pick a provider once at startup via New and talk to it
// through the Generator and Embedder interfaces from then on.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Provider selects a text-generation backend.
type Provider string

const (
	// ProviderOpenAI uses the OpenAI chat completion API, or any
	// compatible endpoint when BaseURL is set.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini uses the Gemini API through its native SDK.
	ProviderGemini Provider = "gemini"
)

// Config defines the provider-independent client options.
type Config struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Model       string
	EmbedModel  string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// Request is a single generation call. System carries the role instructions,
// User the task payload. ForceJSON asks the provider for a JSON-only
// response; MaxTokens, when positive, overrides the configured default.
type Request struct {
	System    string
	User      string
	ForceJSON bool
	MaxTokens int
}

// Generator produces a completion for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client is the full provider surface: generation plus embeddings.
type Client interface {
	Generator
	Embedder
}

// New builds the client for the configured provider. An empty provider
// defaults to OpenAI.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg)
	case ProviderGemini:
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
