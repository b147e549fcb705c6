package router

// candidate is one ranked entry of the preference table.
type candidate struct {
	provider  string
	model     string
	latencyMs int
	conf      float64
	reason    string
}

const (
	sonnet45   = "claude-sonnet-4-5-20250929"
	sonnet35   = "claude-3-5-sonnet-20241022"
	haiku35    = "claude-3-5-haiku-20241022"
	opus3      = "claude-3-opus-20240229"
	gpt4o      = "gpt-4o"
	gpt4oMini  = "gpt-4o-mini"
	geminiFl15 = "google/gemini-flash-1.5"
	llama70b   = "meta-llama/llama-3.1-70b-instruct"
)

// preferences ranks candidates per task type and quality tier. Task types
// without their own table use code_generation.
var preferences = map[TaskType]map[QualityTier][]candidate{
	TaskSimpleQuery: {
		QualityLow: {
			{ProviderOpenRouter, geminiFl15, 2000, 0.9, "Cheapest and fastest for simple queries"},
			{ProviderOpenAI, gpt4oMini, 2500, 0.85, "Good balance of speed and cost"},
			{ProviderClaude, haiku35, 2500, 0.85, "Fast Claude model"},
		},
		QualityStandard: {
			{ProviderOpenAI, gpt4oMini, 2500, 0.9, "Reliable for standard queries"},
			{ProviderClaude, haiku35, 2500, 0.85, "Fast and accurate"},
		},
		QualityHigh: {
			{ProviderClaude, sonnet35, 4000, 0.95, "Best quality"},
			{ProviderOpenAI, gpt4o, 4000, 0.9, "Excellent reasoning"},
		},
		QualityPremium: {
			{ProviderClaude, sonnet45, 5000, 1.0, "Latest and most capable"},
			{ProviderClaude, opus3, 6000, 0.95, "Maximum capability"},
		},
	},
	TaskCodeGeneration: {
		QualityLow: {
			{ProviderOpenAI, gpt4oMini, 3000, 0.8, "Fast code generation"},
			{ProviderOpenRouter, llama70b, 3500, 0.75, "Good for simple code"},
		},
		QualityStandard: {
			{ProviderClaude, sonnet35, 5000, 0.9, "Excellent at coding"},
			{ProviderOpenAI, gpt4o, 5000, 0.85, "Reliable code quality"},
		},
		QualityHigh: {
			{ProviderClaude, sonnet45, 6000, 0.95, "Best coding capabilities"},
			{ProviderClaude, sonnet35, 5000, 0.9, "Proven coding model"},
		},
		QualityPremium: {
			{ProviderClaude, sonnet45, 6000, 1.0, "Cutting-edge coding AI"},
			{ProviderClaude, opus3, 7000, 0.95, "Maximum quality code"},
		},
	},
	TaskComplexReasoning: {
		QualityLow: {
			{ProviderOpenAI, gpt4oMini, 4000, 0.7, "Basic reasoning capability"},
			{ProviderClaude, haiku35, 3500, 0.75, "Fast reasoning"},
		},
		QualityStandard: {
			{ProviderClaude, sonnet35, 6000, 0.9, "Strong reasoning"},
			{ProviderOpenAI, gpt4o, 6000, 0.85, "Excellent reasoning"},
		},
		QualityHigh: {
			{ProviderClaude, sonnet45, 7000, 0.95, "Superior reasoning"},
			{ProviderClaude, opus3, 8000, 0.93, "Deep reasoning"},
		},
		QualityPremium: {
			{ProviderClaude, sonnet45, 7000, 1.0, "Best reasoning model"},
			{ProviderClaude, opus3, 8000, 0.98, "Maximum intelligence"},
		},
	},
}

func candidatesFor(t TaskType, q QualityTier) []candidate {
	byTier, ok := preferences[t]
	if !ok {
		byTier = preferences[TaskCodeGeneration]
	}
	list, ok := byTier[q]
	if !ok {
		list = byTier[QualityStandard]
	}
	return list
}
