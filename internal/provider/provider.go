// Package provider gives the pipeline a single capability interface over
// the configured LLM backend. The variant is selected once at process start
// and injected; nothing looks providers up globally.
package provider

import (
	"context"
	"fmt"

	"inboxia/internal/config"
)

// EmbeddingDimensions must match the storage schema's vector column
const EmbeddingDimensions = 1536

// Provider is the call contract for embedding and generation
type Provider interface {
	// Embed returns one fixed-dimension vector per input string, order-preserving
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Chat produces an answer for a single-turn prompt
	Chat(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider; stored as the embedding model marker
	Name() string
}

// New selects a provider from configuration. The set is closed: "openai"
// or "stub".
func New(cfg *config.Config) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "stub", "":
		return NewStubProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected \"openai\" or \"stub\")", cfg.Provider)
	}
}
