package processors

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"videoAssistant/config"
)

// TextGenerator is the model inference boundary. Implementations normalize
// whatever the backend returns into plain text or an error; callers never
// branch on response shape.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// generateTimeout bounds every model call. Degraded paths depend on calls
// actually returning.
const generateTimeout = 60 * time.Second

// OpenAIGenerator talks to an OpenAI-compatible endpoint via go-openai.
type OpenAIGenerator struct {
	cli   *openai.Client
	model string
}

func NewOpenAIGenerator(cfg *config.Config) *OpenAIGenerator {
	return &OpenAIGenerator{
		cli:   newOpenAIClient(cfg),
		model: cfg.ChatModel,
	}
}

func newOpenAIClient(cfg *config.Config) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, generateTimeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   1000,
		Temperature: temperature,
	}

	resp, err := g.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		// Some OpenAI-compatible servers only expose the legacy completion
		// endpoint; normalize that shape here rather than in callers.
		return g.generateLegacy(ctx, prompt, temperature, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *OpenAIGenerator) generateLegacy(ctx context.Context, prompt string, temperature float32, chatErr error) (string, error) {
	resp, err := g.cli.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       g.model,
		Prompt:      prompt,
		MaxTokens:   1000,
		Temperature: temperature,
	})
	if err != nil {
		// Report the original chat error; the fallback failing as well
		// usually means the endpoint itself is down.
		return "", fmt.Errorf("chat completion failed: %w", chatErr)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}
