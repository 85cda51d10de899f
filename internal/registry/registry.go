package registry

import (
	"fmt"
	"sort"
)

// PricingMode selects which cost formula applies to a model.
type PricingMode string

const (
	PerUnitOutput     PricingMode = "per_unit_output"
	PerThousandTokens PricingMode = "per_thousand_tokens"
)

// Provider identifiers. "client_side" models run in the browser and cannot
// be invoked by this service.
const (
	ProviderReplicate  = "replicate"
	ProviderIdeogram   = "ideogram"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderRemoveBg   = "removebg"
	ProviderVectorizer = "vectorizer"
	ProviderClientSide = "client_side"
)

// Model categories.
const (
	CategoryImageGeneration   = "image_generation"
	CategoryUpscaling         = "upscaling"
	CategoryDepthMapping      = "depth_mapping"
	CategoryBrandAnalysis     = "brand_analysis"
	CategoryBackgroundRemoval = "background_removal"
	CategoryVectorization     = "vectorization"
)

// ModelDescriptor describes one invocable model. Descriptors are immutable
// after the registry is built.
type ModelDescriptor struct {
	Key         string   `json:"key"`
	Provider    string   `json:"provider"`
	ProviderRef string   `json:"provider_ref,omitempty"` // provider-specific model reference
	Pricing     PricingMode `json:"pricing"`
	Rate        float64  `json:"rate"` // per output unit, or per 1k tokens
	Category    string   `json:"category"`
	Quality     int      `json:"quality"` // 1-5, informational
	Speed       int      `json:"speed"`   // 1-5, informational
	BestFor     []string `json:"best_for,omitempty"`
	MaxOutputs  int      `json:"max_outputs,omitempty"`
}

// Registry is the static model catalog. Lookups are read-only after New,
// so concurrent use needs no locking.
type Registry struct {
	models map[string]ModelDescriptor
}

// New builds the catalog. Pricing data is compiled in deliberately: cost
// math must not depend on network or database availability.
func New() *Registry {
	r := &Registry{models: make(map[string]ModelDescriptor)}

	for _, m := range []ModelDescriptor{
		// Image generation
		{
			Key: "flux-1.1-pro-ultra", Provider: ProviderReplicate,
			ProviderRef: "black-forest-labs/flux-1.1-pro-ultra",
			Pricing:     PerUnitOutput, Rate: 0.06,
			Category: CategoryImageGeneration, Quality: 5, Speed: 3,
			BestFor:    []string{"photorealism", "vehicles", "high resolution"},
			MaxOutputs: 4,
		},
		{
			Key: "flux-1.1-pro", Provider: ProviderReplicate,
			ProviderRef: "black-forest-labs/flux-1.1-pro",
			Pricing:     PerUnitOutput, Rate: 0.04,
			Category: CategoryImageGeneration, Quality: 4, Speed: 3,
			BestFor:    []string{"photorealism", "commercial"},
			MaxOutputs: 4,
		},
		{
			Key: "flux-dev", Provider: ProviderReplicate,
			ProviderRef: "black-forest-labs/flux-dev",
			Pricing:     PerUnitOutput, Rate: 0.025,
			Category: CategoryImageGeneration, Quality: 4, Speed: 4,
			BestFor:    []string{"concept generation", "fast"},
			MaxOutputs: 4,
		},
		{
			Key: "flux-schnell", Provider: ProviderReplicate,
			ProviderRef: "black-forest-labs/flux-schnell",
			Pricing:     PerUnitOutput, Rate: 0.003,
			Category: CategoryImageGeneration, Quality: 3, Speed: 5,
			BestFor:    []string{"quick drafts", "testing"},
			MaxOutputs: 4,
		},
		{
			Key: "ideogram-v2", Provider: ProviderIdeogram,
			Pricing: PerUnitOutput, Rate: 0.08,
			Category: CategoryImageGeneration, Quality: 5, Speed: 3,
			BestFor:    []string{"text accuracy", "lettering", "logos on vehicles"},
			MaxOutputs: 4,
		},
		{
			Key: "ideogram-v2-turbo", Provider: ProviderIdeogram,
			Pricing: PerUnitOutput, Rate: 0.05,
			Category: CategoryImageGeneration, Quality: 4, Speed: 4,
			BestFor:    []string{"text accuracy", "fast"},
			MaxOutputs: 4,
		},
		{
			Key: "recraft-v3", Provider: ProviderReplicate,
			ProviderRef: "recraft-ai/recraft-v3",
			Pricing:     PerUnitOutput, Rate: 0.04,
			Category: CategoryImageGeneration, Quality: 4, Speed: 4,
			BestFor:    []string{"clean graphics", "vectors", "illustration style"},
			MaxOutputs: 1,
		},

		// Upscaling
		{
			Key: "clarity-upscaler", Provider: ProviderReplicate,
			ProviderRef: "philz1337x/clarity-upscaler",
			Pricing:     PerUnitOutput, Rate: 0.01,
			Category: CategoryUpscaling, Quality: 5, Speed: 3,
			BestFor:    []string{"print quality", "detail enhancement"},
			MaxOutputs: 1,
		},
		{
			Key: "real-esrgan", Provider: ProviderReplicate,
			ProviderRef: "nightmareai/real-esrgan",
			Pricing:     PerUnitOutput, Rate: 0.001,
			Category: CategoryUpscaling, Quality: 4, Speed: 5,
			BestFor:    []string{"fast upscale", "basic enhancement"},
			MaxOutputs: 1,
		},

		// ControlNet
		{
			Key: "controlnet-depth", Provider: ProviderReplicate,
			ProviderRef: "jagilley/controlnet-depth2img",
			Pricing:     PerUnitOutput, Rate: 0.02,
			Category: CategoryDepthMapping, Quality: 5, Speed: 3,
			BestFor:    []string{"vehicle depth mapping", "realistic placement"},
			MaxOutputs: 1,
		},

		// Brand analysis
		{
			Key: "claude-opus-4-5", Provider: ProviderAnthropic,
			ProviderRef: "claude-opus-4-5",
			Pricing:     PerThousandTokens, Rate: 0.015,
			Category: CategoryBrandAnalysis, Quality: 5, Speed: 3,
			BestFor: []string{"deep brand analysis", "complex strategy"},
		},
		{
			Key: "claude-sonnet-4-5", Provider: ProviderAnthropic,
			ProviderRef: "claude-sonnet-4-5",
			Pricing:     PerThousandTokens, Rate: 0.003,
			Category: CategoryBrandAnalysis, Quality: 4, Speed: 5,
			BestFor: []string{"fast analysis", "general use"},
		},
		{
			Key: "gpt-4o", Provider: ProviderOpenAI,
			ProviderRef: "gpt-4o",
			Pricing:     PerThousandTokens, Rate: 0.005,
			Category: CategoryBrandAnalysis, Quality: 4, Speed: 4,
			BestFor: []string{"structured output", "OpenAI-compatible endpoints"},
		},

		// Background removal
		{
			Key: "remove-bg", Provider: ProviderRemoveBg,
			Pricing: PerUnitOutput, Rate: 0.01,
			Category: CategoryBackgroundRemoval, Quality: 5, Speed: 4,
			BestFor: []string{"logos", "products", "people"},
		},
		{
			Key: "imgly-bg-removal", Provider: ProviderClientSide,
			Pricing: PerUnitOutput, Rate: 0,
			Category: CategoryBackgroundRemoval, Quality: 3, Speed: 5,
			BestFor: []string{"free option", "simple backgrounds"},
		},

		// Vectorization
		{
			Key: "vectorizer-ai", Provider: ProviderVectorizer,
			Pricing: PerUnitOutput, Rate: 0.002,
			Category: CategoryVectorization, Quality: 5, Speed: 4,
			BestFor: []string{"logos", "graphics", "print vectors"},
		},
	} {
		r.models[m.Key] = m
	}

	return r
}

// Describe returns the descriptor for a model key.
func (r *Registry) Describe(key string) (ModelDescriptor, bool) {
	m, ok := r.models[key]
	return m, ok
}

// Keys returns all model keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.models))
	for k := range r.models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ByCategory returns all models in a category, sorted by key.
func (r *Registry) ByCategory(category string) []ModelDescriptor {
	var out []ModelDescriptor
	for _, k := range r.Keys() {
		if m := r.models[k]; m.Category == category {
			out = append(out, m)
		}
	}
	return out
}

// Validate checks that every model referenced by the default pipeline
// exists in the catalog. Called at boot so a bad default fails the process
// immediately instead of the first dispatch.
func (r *Registry) Validate() error {
	for step, def := range DefaultPipeline {
		if _, ok := r.models[def.PrimaryModel]; !ok {
			return fmt.Errorf("default pipeline step %s references unknown primary model %s", step, def.PrimaryModel)
		}
		if def.FallbackModel != "" {
			if _, ok := r.models[def.FallbackModel]; !ok {
				return fmt.Errorf("default pipeline step %s references unknown fallback model %s", step, def.FallbackModel)
			}
		}
	}
	return nil
}
