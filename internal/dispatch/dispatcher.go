package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/usawrapco/wrapforge/internal/config"
	"github.com/usawrapco/wrapforge/internal/models"
	"github.com/usawrapco/wrapforge/internal/provider"
	"github.com/usawrapco/wrapforge/internal/registry"
	"github.com/usawrapco/wrapforge/internal/services"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

// Request is one invocation of a pipeline step. Input is opaque at this
// layer; only the chosen model's adapter interprets it.
type Request struct {
	Step      string         `json:"step"`
	Input     provider.Input `json:"input"`
	OrgID     string         `json:"org_id"`
	UserID    string         `json:"user_id"`
	ProjectID string         `json:"project_id,omitempty"` // correlation id for joining usage to domain records
}

// Outcome is the structured result of a dispatch. ModelUsed names the model
// that actually served (or last failed) the request, which may be the
// fallback; callers must check it since quality differs between models.
// LedgerErr reports a usage-ledger write failure separately so it never
// masks the dispatch result itself.
type Outcome struct {
	Success   bool     `json:"success"`
	Refs      []string `json:"refs,omitempty"`
	Text      string   `json:"text,omitempty"`
	ModelUsed string   `json:"model_used"`
	Provider  string   `json:"provider"`
	Cost      float64  `json:"cost"`
	LatencyMs int64    `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
	LedgerErr error    `json:"-"`
}

// Dispatcher routes pipeline-step invocations to provider adapters with a
// single-hop fallback policy. It holds no per-tenant state; concurrent
// dispatches share only read-only structures.
type Dispatcher struct {
	registry *registry.Registry
	adapters map[string]provider.Adapter
	configs  *services.PipelineConfigService
	usage    *services.AIUsageService
	stats    services.TaskQueue

	previewLen         int
	defaultTokenBudget int
	defaultNumOutputs  int
}

func New(
	reg *registry.Registry,
	adapters map[string]provider.Adapter,
	configs *services.PipelineConfigService,
	usage *services.AIUsageService,
	stats services.TaskQueue,
	cfg *config.PipelineConfig,
) *Dispatcher {
	return &Dispatcher{
		registry:           reg,
		adapters:           adapters,
		configs:            configs,
		usage:              usage,
		stats:              stats,
		previewLen:         cfg.PromptPreviewLen,
		defaultTokenBudget: cfg.DefaultTokenBudget,
		defaultNumOutputs:  cfg.DefaultNumOutputs,
	}
}

// stepModels is the resolved model pair for one dispatch.
type stepModels struct {
	primary  registry.ModelDescriptor
	fallback *registry.ModelDescriptor
}

// Dispatch runs one pipeline step invocation. A non-nil error means a
// configuration problem (unknown step, model missing from the registry):
// nothing was attempted and no usage row exists. Otherwise the returned
// Outcome describes the attempt, including failures, and exactly one usage
// row was written for it.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Outcome, error) {
	ms, err := d.resolveModels(ctx, req.OrgID, req.Step)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	out := &Outcome{ModelUsed: ms.primary.Key, Provider: ms.primary.Provider}

	res, err := d.attempt(ctx, req, ms.primary)
	if err == nil {
		out.Success = true
		out.Cost = d.computeCost(ms.primary, req.Input, res)
	} else {
		logger.Warnf("[Dispatch] primary model %s failed for step %s: %v", ms.primary.Key, req.Step, err)

		if ms.fallback != nil {
			logger.Infof("[Dispatch] attempting fallback model %s for step %s", ms.fallback.Key, req.Step)
			out.ModelUsed = ms.fallback.Key
			out.Provider = ms.fallback.Provider

			res, err = d.attempt(ctx, req, *ms.fallback)
			if err == nil {
				out.Success = true
				out.Cost = d.computeCost(*ms.fallback, req.Input, res)
			}
		}
	}

	if out.Success {
		out.Refs = res.Refs
		out.Text = res.Text
	} else {
		out.Error = err.Error()
	}
	out.LatencyMs = time.Since(started).Milliseconds()

	d.record(ctx, req, out, res)

	// Best-effort aggregate update; never blocks or fails the dispatch.
	if qErr := d.stats.Enqueue(&services.StatsTask{
		OrgID:        req.OrgID,
		PipelineStep: req.Step,
		Cost:         out.Cost,
		LatencyMs:    out.LatencyMs,
		Success:      out.Success,
	}); qErr != nil {
		logger.Errorf("[Dispatch] stats enqueue failed for %s/%s: %v", req.OrgID, req.Step, qErr)
	}

	return out, nil
}

// resolveModels loads the org's step config, falling back to the system
// defaults field by field, and verifies both model keys against the
// registry before anything is attempted.
func (d *Dispatcher) resolveModels(ctx context.Context, orgID, step string) (*stepModels, error) {
	row, err := d.configs.Get(ctx, orgID, step)
	if err != nil {
		return nil, fmt.Errorf("load step config: %w", err)
	}

	var primaryKey, fallbackKey string
	if row != nil {
		primaryKey = row.PrimaryModel
		fallbackKey = row.FallbackModel
	}

	def, hasDefault := registry.DefaultPipeline[step]
	if primaryKey == "" && hasDefault {
		primaryKey = def.PrimaryModel
	}
	if fallbackKey == "" && row == nil && hasDefault {
		fallbackKey = def.FallbackModel
	}

	if primaryKey == "" {
		return nil, fmt.Errorf("%w: %s", services.ErrUnknownStep, step)
	}

	primary, ok := d.registry.Describe(primaryKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s (step %s primary)", services.ErrUnknownModel, primaryKey, step)
	}

	ms := &stepModels{primary: primary}
	if fallbackKey != "" {
		fb, ok := d.registry.Describe(fallbackKey)
		if !ok {
			return nil, fmt.Errorf("%w: %s (step %s fallback)", services.ErrUnknownModel, fallbackKey, step)
		}
		ms.fallback = &fb
	}
	return ms, nil
}

func (d *Dispatcher) attempt(ctx context.Context, req *Request, desc registry.ModelDescriptor) (provider.Result, error) {
	adapter, ok := d.adapters[desc.Provider]
	if !ok {
		return provider.Result{}, fmt.Errorf("provider %s cannot be invoked server-side", desc.Provider)
	}

	ref := provider.ModelRef{
		Key:         desc.Key,
		ProviderRef: desc.ProviderRef,
		MaxOutputs:  desc.MaxOutputs,
	}
	return adapter.Invoke(ctx, req.OrgID, ref, req.Input)
}

// computeCost prices the call from the model that actually produced the
// result. Token pricing prefers the actual consumed count when the provider
// reported one, then the caller's budget, then the configured default.
func (d *Dispatcher) computeCost(desc registry.ModelDescriptor, in provider.Input, res provider.Result) float64 {
	switch desc.Pricing {
	case registry.PerUnitOutput:
		n := in.NumOutputs
		if n <= 0 {
			n = d.defaultNumOutputs
		}
		return desc.Rate * float64(n)
	case registry.PerThousandTokens:
		tokens := res.TokensUsed
		if tokens <= 0 {
			tokens = in.MaxTokens
		}
		if tokens <= 0 {
			tokens = d.defaultTokenBudget
		}
		return desc.Rate * float64(tokens) / 1000
	}
	return 0
}

// record writes the usage ledger row. It runs even when ctx was cancelled
// mid-attempt so an abandoned call still leaves a trace, and its failure is
// surfaced on the outcome without overriding the dispatch result.
func (d *Dispatcher) record(ctx context.Context, req *Request, out *Outcome, res provider.Result) {
	row := &models.AIUsageLog{
		OrgID:         req.OrgID,
		PipelineStep:  req.Step,
		ModelUsed:     out.ModelUsed,
		Provider:      out.Provider,
		PromptPreview: d.preview(req.Input),
		Success:       out.Success,
		ErrorMessage:  clip(out.Error, 500),
		Cost:          out.Cost,
		LatencyMs:     out.LatencyMs,
		TokensUsed:    res.TokensUsed,
		ProjectID:     req.ProjectID,
		UserID:        req.UserID,
	}
	if len(out.Refs) > 0 {
		if data, err := json.Marshal(out.Refs); err == nil {
			row.ResultRefs = clip(string(data), 2000)
		}
	}

	if err := d.usage.Record(context.WithoutCancel(ctx), row); err != nil {
		out.LedgerErr = err
		logger.Errorf("[Dispatch] usage ledger write failed for %s/%s: %v", req.OrgID, req.Step, err)
	}
}

func (d *Dispatcher) preview(in provider.Input) string {
	data, err := json.Marshal(in)
	if err != nil {
		return ""
	}
	return clip(string(data), d.previewLen)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
