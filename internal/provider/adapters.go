package provider

import (
	"time"

	"github.com/usawrapco/wrapforge/internal/config"
	"github.com/usawrapco/wrapforge/internal/secrets"
)

// BuildAdapters wires one adapter per invocable provider. "client_side"
// intentionally has no entry: those models run in the browser and a
// server-side dispatch to them is a configuration mistake.
func BuildAdapters(resolver secrets.Resolver, cfg *config.Config) map[string]Adapter {
	pollInterval := time.Duration(cfg.Pipeline.PollIntervalSeconds) * time.Second

	return map[string]Adapter{
		"replicate":  NewReplicateAdapter(resolver, nil, pollInterval, cfg.Pipeline.PollMaxAttempts),
		"ideogram":   NewIdeogramAdapter(resolver, nil),
		"anthropic":  NewAnthropicAdapter(resolver, cfg.Pipeline.DefaultTokenBudget),
		"openai":     NewOpenAIAdapter(resolver, cfg.Providers.OpenAIBaseURL, cfg.Pipeline.DefaultTokenBudget),
		"removebg":   NewRemoveBgAdapter(resolver, nil, cfg.Pipeline.MediaDir),
		"vectorizer": NewVectorizerAdapter(resolver, nil),
	}
}
