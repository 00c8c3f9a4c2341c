package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthoption "github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, authToken, model string) *AnthropicClient {
	opts := []anthoption.RequestOption{anthoption.WithHeader("User-Agent", "sprout/1.0")}
	if authToken != "" {
		opts = append(opts,
			anthoption.WithAuthToken(authToken),
			anthoption.WithHeader("anthropic-beta", "oauth-2025-04-20"),
		)
	} else if apiKey != "" {
		opts = append(opts, anthoption.WithAPIKey(apiKey))
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), model: model}
}

func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 4096,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic chat: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
