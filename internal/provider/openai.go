package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inboxia/internal/config"

	"github.com/sashabaranov/go-openai"
)

const openAIEndpoint = "https://api.openai.com/v1"

// OpenAIProvider calls the OpenAI platform for embeddings and chat
type OpenAIProvider struct {
	client  *openai.Client
	timeout time.Duration
}

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(cfg *config.Config) (*OpenAIProvider, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}
	return &OpenAIProvider{
		client:  openai.NewClient(cfg.OpenAIKey),
		timeout: time.Duration(cfg.OpenAITimeout) * time.Second,
	}, nil
}

// TestConnection verifies the API connection works
func (p *OpenAIProvider) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := p.Embed(ctx, []string{"test"}); err != nil {
		return fmt.Errorf("failed to connect to OpenAI: %v", err)
	}
	return nil
}

// Embed generates embeddings for the given texts in a single batched call
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.SmallEmbedding3,
	})
	if err != nil {
		if strings.Contains(err.Error(), "does not support") || strings.Contains(err.Error(), "not supported") {
			return nil, fmt.Errorf("model %s does not support embeddings: %w", openai.SmallEmbedding3, err)
		}
		return nil, fmt.Errorf("embedding request to %s failed: %w", openAIEndpoint, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response from %s returned %d vectors for %d inputs", openAIEndpoint, len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = data.Embedding
	}
	return embeddings, nil
}

// Chat generates an answer for a single-turn prompt
func (p *OpenAIProvider) Chat(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: string(openai.GPT4oMini),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an assistant for an email workspace. Follow instructions.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat request to %s failed: %w", openAIEndpoint, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response from %s contained no choices", openAIEndpoint)
	}
	return resp.Choices[0].Message.Content, nil
}

// Name identifies the provider
func (p *OpenAIProvider) Name() string {
	return "openai"
}
