package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/usawrapco/wrapforge/internal/secrets"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

const replicateDefaultBaseURL = "https://api.replicate.com"

// ReplicateAdapter drives Replicate's prediction API. Creation is
// submit-then-poll: the create call asks the API to wait up to 60 seconds
// inline, and if the prediction is still running afterwards the adapter
// polls the status endpoint on a fixed interval up to a bounded attempt
// count. Exhausting the budget is a failure, never a silent partial result.
type ReplicateAdapter struct {
	secrets      secrets.Resolver
	client       *http.Client
	sleeper      Sleeper
	baseURL      string
	pollInterval time.Duration
	pollAttempts int
}

func NewReplicateAdapter(resolver secrets.Resolver, client *http.Client, pollInterval time.Duration, pollAttempts int) *ReplicateAdapter {
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	return &ReplicateAdapter{
		secrets:      resolver,
		client:       client,
		sleeper:      TimerSleeper{},
		baseURL:      replicateDefaultBaseURL,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (a *ReplicateAdapter) WithBaseURL(u string) *ReplicateAdapter {
	a.baseURL = u
	return a
}

// WithSleeper overrides the poll wait. Used in tests.
func (a *ReplicateAdapter) WithSleeper(s Sleeper) *ReplicateAdapter {
	a.sleeper = s
	return a
}

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	Detail string          `json:"detail"`
}

func (p *replicatePrediction) terminal() bool {
	return p.Status == "succeeded" || p.Status == "failed" || p.Status == "canceled"
}

func (p *replicatePrediction) errText() string {
	if p.Error == nil {
		return ""
	}
	return fmt.Sprint(p.Error)
}

func (a *ReplicateAdapter) Invoke(ctx context.Context, orgID string, model ModelRef, in Input) (Result, error) {
	token, ok := a.secrets.Resolve(ctx, orgID, "replicate_api_token")
	if !ok {
		return Result{}, credentialMissing("replicate_api_token")
	}

	body, err := json.Marshal(map[string]any{"input": replicateInput(in)})
	if err != nil {
		return Result{}, fmt.Errorf("replicate request encode: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", a.baseURL, model.ProviderRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait=60")

	pred, err := a.doPrediction(req)
	if err != nil {
		return Result{}, err
	}
	if msg := pred.errText(); msg != "" {
		return Result{}, fmt.Errorf("replicate: %s", msg)
	}

	if !pred.terminal() {
		pred, err = a.poll(ctx, token, pred)
		if err != nil {
			return Result{}, err
		}
	}

	if pred.Status != "succeeded" {
		msg := pred.errText()
		if msg == "" {
			msg = "generation " + pred.Status
		}
		return Result{}, fmt.Errorf("replicate: %s", msg)
	}

	refs, err := normalizeRefs(pred.Output)
	if err != nil {
		return Result{}, fmt.Errorf("replicate output: %w", err)
	}
	return Result{Refs: refs}, nil
}

// poll waits for the prediction to reach a terminal state, checking every
// pollInterval up to pollAttempts times. Cancellation of ctx stops the wait
// promptly.
func (a *ReplicateAdapter) poll(ctx context.Context, token string, pred *replicatePrediction) (*replicatePrediction, error) {
	for attempt := 0; attempt < a.pollAttempts; attempt++ {
		if err := a.sleeper.Sleep(ctx, a.pollInterval); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/v1/predictions/%s", a.baseURL, pred.ID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		next, err := a.doPrediction(req)
		if err != nil {
			return nil, err
		}
		if next.terminal() {
			return next, nil
		}
		pred = next
	}

	logger.Warnf("[Replicate] prediction %s still %s after %d polls", pred.ID, pred.Status, a.pollAttempts)
	return nil, fmt.Errorf("replicate prediction %s: %w", pred.ID, ErrPollTimeout)
}

func (a *ReplicateAdapter) doPrediction(req *http.Request) (*replicatePrediction, error) {
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate response read: %w", err)
	}

	var pred replicatePrediction
	if err := json.Unmarshal(data, &pred); err != nil {
		return nil, fmt.Errorf("replicate response decode: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := pred.Detail
		if msg == "" {
			msg = pred.errText()
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("replicate API error: %s", msg)
	}
	return &pred, nil
}

// replicateInput builds the provider input object from the generic payload.
// Extra fields pass through untouched; the named fields only override when
// set so callers can drive exotic models entirely through Extra.
func replicateInput(in Input) map[string]any {
	m := make(map[string]any, len(in.Extra)+5)
	for k, v := range in.Extra {
		m[k] = v
	}
	if in.Prompt != "" {
		m["prompt"] = in.Prompt
	}
	if in.ImageURL != "" {
		m["image"] = in.ImageURL
	}
	if in.NumOutputs > 0 {
		m["num_outputs"] = in.NumOutputs
	}
	if in.AspectRatio != "" {
		m["aspect_ratio"] = in.AspectRatio
	}
	if in.NegativePrompt != "" {
		m["negative_prompt"] = in.NegativePrompt
	}
	return m
}

// normalizeRefs accepts the two output shapes Replicate models produce (a
// single URL string or an array of URL strings) and returns an ordered
// reference list.
func normalizeRefs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}

	return nil, fmt.Errorf("unrecognized output shape: %s", truncate(string(raw), 100))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
