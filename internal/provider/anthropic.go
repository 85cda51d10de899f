package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/usawrapco/wrapforge/internal/secrets"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

// AnthropicAdapter runs brand-analysis prompts through the Claude Messages
// API using the official SDK.
type AnthropicAdapter struct {
	secrets     secrets.Resolver
	tokenBudget int                   // max_tokens when the caller does not specify one
	baseOpts    []option.RequestOption // extra client options, used in tests
}

func NewAnthropicAdapter(resolver secrets.Resolver, tokenBudget int) *AnthropicAdapter {
	if tokenBudget <= 0 {
		tokenBudget = 2000
	}
	return &AnthropicAdapter{secrets: resolver, tokenBudget: tokenBudget}
}

// WithClientOptions appends SDK client options (e.g. a base URL override).
func (a *AnthropicAdapter) WithClientOptions(opts ...option.RequestOption) *AnthropicAdapter {
	a.baseOpts = append(a.baseOpts, opts...)
	return a
}

func (a *AnthropicAdapter) Invoke(ctx context.Context, orgID string, model ModelRef, in Input) (Result, error) {
	key, ok := a.secrets.Resolve(ctx, orgID, "anthropic_api_key")
	if !ok {
		return Result{}, credentialMissing("anthropic_api_key")
	}

	opts := append([]option.RequestOption{option.WithAPIKey(key)}, a.baseOpts...)
	client := anthropic.NewClient(opts...)

	maxTokens := int64(in.MaxTokens)
	if maxTokens == 0 {
		maxTokens = int64(a.tokenBudget)
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model.ProviderRef),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(in.Prompt)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	tokens := int(resp.Usage.InputTokens + resp.Usage.OutputTokens)
	logger.Infof("[Anthropic] model=%s response=%d chars tokens=%d", model.ProviderRef, len(content), tokens)

	return Result{Text: content, TokensUsed: tokens}, nil
}
