package registry

import (
	"testing"
)

func TestDescribe_KnownModels(t *testing.T) {
	r := New()

	tests := []struct {
		key      string
		provider string
		pricing  PricingMode
		rate     float64
	}{
		{"flux-1.1-pro-ultra", ProviderReplicate, PerUnitOutput, 0.06},
		{"flux-dev", ProviderReplicate, PerUnitOutput, 0.025},
		{"clarity-upscaler", ProviderReplicate, PerUnitOutput, 0.01},
		{"real-esrgan", ProviderReplicate, PerUnitOutput, 0.001},
		{"ideogram-v2", ProviderIdeogram, PerUnitOutput, 0.08},
		{"claude-sonnet-4-5", ProviderAnthropic, PerThousandTokens, 0.003},
		{"claude-opus-4-5", ProviderAnthropic, PerThousandTokens, 0.015},
		{"gpt-4o", ProviderOpenAI, PerThousandTokens, 0.005},
		{"remove-bg", ProviderRemoveBg, PerUnitOutput, 0.01},
		{"imgly-bg-removal", ProviderClientSide, PerUnitOutput, 0},
		{"vectorizer-ai", ProviderVectorizer, PerUnitOutput, 0.002},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, ok := r.Describe(tt.key)
			if !ok {
				t.Fatalf("Describe(%q) not found", tt.key)
			}
			if m.Provider != tt.provider {
				t.Errorf("Provider = %q, expected %q", m.Provider, tt.provider)
			}
			if m.Pricing != tt.pricing {
				t.Errorf("Pricing = %q, expected %q", m.Pricing, tt.pricing)
			}
			if m.Rate != tt.rate {
				t.Errorf("Rate = %v, expected %v", m.Rate, tt.rate)
			}
		})
	}
}

func TestDescribe_UnknownModel(t *testing.T) {
	r := New()
	if _, ok := r.Describe("no-such-model"); ok {
		t.Error("Describe should report unknown model as not found")
	}
}

func TestValidate_DefaultsResolve(t *testing.T) {
	r := New()
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v, expected nil", err)
	}
}

func TestDefaultPipeline_CoversKnownSteps(t *testing.T) {
	expected := []string{
		"background_removal",
		"brand_analysis",
		"concept_generation",
		"depth_mapping",
		"upscaling",
		"vectorization",
	}

	names := StepNames()
	if len(names) != len(expected) {
		t.Fatalf("StepNames() returned %d steps, expected %d", len(names), len(expected))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("StepNames()[%d] = %q, expected %q", i, names[i], name)
		}
	}
}

func TestDefaultPipeline_FallbackIsOptional(t *testing.T) {
	if DefaultPipeline["depth_mapping"].FallbackModel != "" {
		t.Error("depth_mapping should have no fallback")
	}
	if DefaultPipeline["concept_generation"].FallbackModel != "flux-dev" {
		t.Errorf("concept_generation fallback = %q, expected flux-dev",
			DefaultPipeline["concept_generation"].FallbackModel)
	}
}

func TestByCategory(t *testing.T) {
	r := New()
	ups := r.ByCategory(CategoryUpscaling)
	if len(ups) != 2 {
		t.Fatalf("ByCategory(upscaling) returned %d models, expected 2", len(ups))
	}
	for _, m := range ups {
		if m.Category != CategoryUpscaling {
			t.Errorf("model %s has category %q", m.Key, m.Category)
		}
	}
}
