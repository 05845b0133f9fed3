package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// anthropicClient implements Client and ImageClient on the Anthropic messages API.
type anthropicClient struct {
	client      anthropicsdk.Client
	model       string
	temperature float64
	maxTokens   int
}

func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 150
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicClient{
		client:      anthropicsdk.NewClient(opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate sends a single user prompt.
func (c *anthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, anthropicsdk.NewTextBlock(prompt))
}

// GenerateWithImage sends the image block followed by the prompt.
func (c *anthropicClient) GenerateWithImage(ctx context.Context, prompt string, image Image) (string, error) {
	return c.send(ctx,
		anthropicsdk.NewImageBlockBase64(image.MediaType, base64.StdEncoding.EncodeToString(image.Data)),
		anthropicsdk.NewTextBlock(prompt),
	)
}

func (c *anthropicClient) send(ctx context.Context, blocks ...anthropicsdk.ContentBlockParamUnion) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: param.NewOpt(c.temperature),
		System:      []anthropicsdk.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropicsdk.MessageParam{anthropicsdk.NewUserMessage(blocks...)},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in response")
	}

	return sb.String(), nil
}
