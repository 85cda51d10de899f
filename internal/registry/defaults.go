package registry

import "sort"

// StepDefaults is the system-wide default configuration for one pipeline
// step. Organizations get a copy of these rows on first use and may
// customize them afterwards.
type StepDefaults struct {
	Label         string
	PrimaryModel  string
	FallbackModel string // empty means no fallback attempt
	Provider      string
	Description   string
	CostPerCall   float64 // display-only reference cost; real cost comes from the registry
}

// DefaultPipeline maps each known step name to its defaults. FallbackModel
// is a single hop: a failed fallback is never chained further.
var DefaultPipeline = map[string]StepDefaults{
	"concept_generation": {
		Label:         "Concept Generation",
		PrimaryModel:  "flux-1.1-pro-ultra",
		FallbackModel: "flux-dev",
		Provider:      ProviderReplicate,
		Description:   "Generate initial vehicle wrap concepts",
		CostPerCall:   0.24, // 4 images x $0.06
	},
	"upscaling": {
		Label:         "Print Upscaling",
		PrimaryModel:  "clarity-upscaler",
		FallbackModel: "real-esrgan",
		Provider:      ProviderReplicate,
		Description:   "Upscale concepts to print resolution",
		CostPerCall:   0.01,
	},
	"depth_mapping": {
		Label:         "Vehicle Depth Mapping",
		PrimaryModel:  "controlnet-depth",
		FallbackModel: "",
		Provider:      ProviderReplicate,
		Description:   "Map design onto real vehicle photo contours",
		CostPerCall:   0.02,
	},
	"brand_analysis": {
		Label:         "Brand Analysis",
		PrimaryModel:  "claude-sonnet-4-5",
		FallbackModel: "claude-opus-4-5",
		Provider:      ProviderAnthropic,
		Description:   "Analyze customer brand and generate recommendations",
		CostPerCall:   0.003,
	},
	"background_removal": {
		Label:         "Background Removal",
		PrimaryModel:  "remove-bg",
		FallbackModel: "imgly-bg-removal",
		Provider:      ProviderRemoveBg,
		Description:   "Remove background from logos and images",
		CostPerCall:   0.01,
	},
	"vectorization": {
		Label:         "Vectorization",
		PrimaryModel:  "vectorizer-ai",
		FallbackModel: "",
		Provider:      ProviderVectorizer,
		Description:   "Convert AI graphics to print-ready vectors",
		CostPerCall:   0.002,
	},
}

// StepNames returns the known pipeline step names in sorted order.
func StepNames() []string {
	names := make([]string, 0, len(DefaultPipeline))
	for name := range DefaultPipeline {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
