package provider

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/usawrapco/wrapforge/internal/secrets"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

// OpenAIAdapter covers OpenAI and OpenAI-compatible chat-completion
// endpoints for text models.
type OpenAIAdapter struct {
	secrets     secrets.Resolver
	baseURL     string // empty means the official endpoint
	tokenBudget int
}

func NewOpenAIAdapter(resolver secrets.Resolver, baseURL string, tokenBudget int) *OpenAIAdapter {
	if tokenBudget <= 0 {
		tokenBudget = 2000
	}
	return &OpenAIAdapter{secrets: resolver, baseURL: baseURL, tokenBudget: tokenBudget}
}

func (a *OpenAIAdapter) Invoke(ctx context.Context, orgID string, model ModelRef, in Input) (Result, error) {
	key, ok := a.secrets.Resolve(ctx, orgID, "openai_api_key")
	if !ok {
		return Result{}, credentialMissing("openai_api_key")
	}

	clientConfig := openai.DefaultConfig(key)
	if a.baseURL != "" {
		clientConfig.BaseURL = a.baseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	maxTokens := in.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.tokenBudget
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model.ProviderRef,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: in.Prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[OpenAI] model=%s response=%d chars tokens=%d", model.ProviderRef, len(content), resp.Usage.TotalTokens)

	return Result{Text: content, TokensUsed: resp.Usage.TotalTokens}, nil
}
