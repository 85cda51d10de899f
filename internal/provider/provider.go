package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Input is the generic invocation payload. Only adapters interpret its
// shape; the dispatcher passes it through opaquely.
type Input struct {
	Prompt         string         `json:"prompt,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	NumOutputs     int            `json:"num_outputs,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	AspectRatio    string         `json:"aspect_ratio,omitempty"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"` // provider-specific passthrough fields
}

// Result is the provider-normalized outcome of one invocation. Refs holds
// output references in exactly the order the provider returned them;
// callers rely on first-result-is-preferred semantics. Text carries the
// completion for text models, and TokensUsed the actual token count when
// the provider reports one (0 otherwise).
type Result struct {
	Refs       []string
	Text       string
	TokensUsed int
}

// Adapter translates a generic invocation into one provider's wire format.
// Implementations return a typed error on any non-recoverable failure:
// missing credential, non-2xx response, provider-reported error, or a poll
// that never reached a terminal state.
type Adapter interface {
	Invoke(ctx context.Context, orgID string, model ModelRef, in Input) (Result, error)
}

// ModelRef is the slice of a registry descriptor an adapter needs to place
// a call. Kept separate from the registry package so adapters do not import
// catalog data they have no use for.
type ModelRef struct {
	Key         string // registry model key
	ProviderRef string // provider-specific model reference
	MaxOutputs  int
}

// ErrCredentialMissing marks a call that failed before reaching the
// provider because no API key was configured. The dispatcher treats it
// like a provider failure for fallback purposes, but the error text keeps
// "not configured" distinguishable from a provider rejection.
var ErrCredentialMissing = errors.New("credential not configured")

// ErrPollTimeout marks a submit-then-poll invocation that exhausted its
// attempt budget without the job reaching a terminal state.
var ErrPollTimeout = errors.New("timed out waiting for a terminal state")

func credentialMissing(name string) error {
	return fmt.Errorf("%s: %w", name, ErrCredentialMissing)
}

// Sleeper abstracts the wait between poll attempts so poll-timeout behavior
// is testable without wall-clock delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper waits on a real timer, returning early if ctx is cancelled.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
