package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// StubProvider produces deterministic vectors and answers without any
// network calls. Used in development and tests.
type StubProvider struct{}

// NewStubProvider creates a stub provider
func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

// Embed derives a fixed-dimension vector from each text's sha256 digest.
// The same text always maps to the same vector.
func (p *StubProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		digest := sha256.Sum256([]byte(text))
		vector := make([]float32, EmbeddingDimensions)
		for j := range vector {
			vector[j] = float32(digest[j%len(digest)]) / 255.0
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// Chat returns a deterministic answer derived from the prompt hash
func (p *StubProvider) Chat(_ context.Context, prompt string) (string, error) {
	digest := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("Stub response: This is a deterministic answer based on the prompt hash %s. Please replace with a real provider in production.", hex.EncodeToString(digest[:])[:8]), nil
}

// Name identifies the provider
func (p *StubProvider) Name() string {
	return "stub"
}
