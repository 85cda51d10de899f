package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/usawrapco/wrapforge/internal/secrets"
)

// countingSleeper returns immediately and counts how often the poll loop
// waited.
type countingSleeper struct {
	calls int
}

func (s *countingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls++
	return ctx.Err()
}

func testResolver() secrets.StaticResolver {
	return secrets.StaticResolver{
		"replicate_api_token": "r8_test",
		"ideogram_api_key":    "ide_test",
		"removebg_api_key":    "rbg_test",
		"vectorizer_api_key":  "vec_test",
	}
}

func fluxModel() ModelRef {
	return ModelRef{Key: "flux-dev", ProviderRef: "black-forest-labs/flux-dev", MaxOutputs: 4}
}

func TestReplicate_ImmediateSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer r8_test" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "pred-1",
			"status": "succeeded",
			"output": []string{"https://img/1.png", "https://img/2.png"},
		})
	}))
	defer srv.Close()

	a := NewReplicateAdapter(testResolver(), srv.Client(), time.Second, 30).WithBaseURL(srv.URL)
	res, err := a.Invoke(context.Background(), "org-1", fluxModel(), Input{Prompt: "matte black wrap", NumOutputs: 2})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if len(res.Refs) != 2 {
		t.Fatalf("got %d refs, expected 2", len(res.Refs))
	}
	if res.Refs[0] != "https://img/1.png" {
		t.Errorf("refs[0] = %q, order not preserved", res.Refs[0])
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 HTTP call, got %d", n)
	}
}

func TestReplicate_PollsUntilTerminal(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{"id": "pred-2", "status": "processing"})
			return
		}
		n := atomic.AddInt32(&polls, 1)
		status := "processing"
		if n >= 3 {
			status = "succeeded"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "pred-2",
			"status": status,
			"output": "https://img/final.png",
		})
	}))
	defer srv.Close()

	sleeper := &countingSleeper{}
	a := NewReplicateAdapter(testResolver(), srv.Client(), 2*time.Second, 30).
		WithBaseURL(srv.URL).
		WithSleeper(sleeper)

	res, err := a.Invoke(context.Background(), "org-1", fluxModel(), Input{Prompt: "x"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if len(res.Refs) != 1 || res.Refs[0] != "https://img/final.png" {
		t.Errorf("refs = %v, expected single final url", res.Refs)
	}
	if sleeper.calls != 3 {
		t.Errorf("slept %d times, expected 3", sleeper.calls)
	}
}

func TestReplicate_PollTimeoutAfterAttemptCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-3", "status": "processing"})
	}))
	defer srv.Close()

	sleeper := &countingSleeper{}
	a := NewReplicateAdapter(testResolver(), srv.Client(), 2*time.Second, 30).
		WithBaseURL(srv.URL).
		WithSleeper(sleeper)

	_, err := a.Invoke(context.Background(), "org-1", fluxModel(), Input{Prompt: "x"})
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("Invoke() error = %v, expected ErrPollTimeout", err)
	}
	if sleeper.calls != 30 {
		t.Errorf("slept %d times, expected exactly the 30-attempt ceiling", sleeper.calls)
	}
}

func TestReplicate_FailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "pred-4",
			"status": "failed",
			"error":  "NSFW content detected",
		})
	}))
	defer srv.Close()

	a := NewReplicateAdapter(testResolver(), srv.Client(), time.Second, 30).WithBaseURL(srv.URL)
	_, err := a.Invoke(context.Background(), "org-1", fluxModel(), Input{Prompt: "x"})
	if err == nil {
		t.Fatal("Invoke() should fail for a failed prediction")
	}
	if got := err.Error(); got != "replicate: NSFW content detected" {
		t.Errorf("error = %q, expected provider error text", got)
	}
}

func TestReplicate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{"detail": "insufficient credit"})
	}))
	defer srv.Close()

	a := NewReplicateAdapter(testResolver(), srv.Client(), time.Second, 30).WithBaseURL(srv.URL)
	_, err := a.Invoke(context.Background(), "org-1", fluxModel(), Input{Prompt: "x"})
	if err == nil || err.Error() != "replicate API error: insufficient credit" {
		t.Errorf("error = %v, expected detail text", err)
	}
}

func TestReplicate_MissingCredential(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	a := NewReplicateAdapter(secrets.StaticResolver{}, srv.Client(), time.Second, 30).WithBaseURL(srv.URL)
	_, err := a.Invoke(context.Background(), "org-1", fluxModel(), Input{Prompt: "x"})
	if !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("Invoke() error = %v, expected ErrCredentialMissing", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("no HTTP call should be made without a credential")
	}
}

func TestReplicate_CancelledContextStopsPolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "pred-5", "status": "processing"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	a := NewReplicateAdapter(testResolver(), srv.Client(), time.Hour, 30).
		WithBaseURL(srv.URL) // real TimerSleeper; cancellation must win over the interval

	done := make(chan error, 1)
	go func() {
		_, err := a.Invoke(ctx, "org-1", fluxModel(), Input{Prompt: "x"})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, expected context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop promptly after cancellation")
	}
}

func TestNormalizeRefs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "array", raw: `["a","b","c"]`, want: []string{"a", "b", "c"}},
		{name: "single string", raw: `"only"`, want: []string{"only"}},
		{name: "null", raw: `null`, want: nil},
		{name: "empty", raw: ``, want: nil},
		{name: "object", raw: `{"weird":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeRefs(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("normalizeRefs() = %v, expected %v", got, tt.want)
			}
		})
	}
}
