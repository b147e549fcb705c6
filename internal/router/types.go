package router

// Provider identifiers, in the order they are registered at startup.
const (
	ProviderClaude     = "claude"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// TaskType names the kind of work a request performs. It selects the
// preference table the router consults.
type TaskType string

const (
	TaskCodeGeneration   TaskType = "code_generation"
	TaskCodeReview       TaskType = "code_review"
	TaskTestGeneration   TaskType = "test_generation"
	TaskDocumentation    TaskType = "documentation"
	TaskBugFix           TaskType = "bug_fix"
	TaskOptimization     TaskType = "optimization"
	TaskSimpleQuery      TaskType = "simple_query"
	TaskComplexReasoning TaskType = "complex_reasoning"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskCodeGeneration, TaskCodeReview, TaskTestGeneration, TaskDocumentation,
		TaskBugFix, TaskOptimization, TaskSimpleQuery, TaskComplexReasoning:
		return true
	}
	return false
}

// QualityTier is the caller's desired quality level.
type QualityTier string

const (
	QualityLow      QualityTier = "low"
	QualityStandard QualityTier = "standard"
	QualityHigh     QualityTier = "high"
	QualityPremium  QualityTier = "premium"
)

// Valid reports whether q is one of the known tiers.
func (q QualityTier) Valid() bool {
	switch q {
	case QualityLow, QualityStandard, QualityHigh, QualityPremium:
		return true
	}
	return false
}

// Task describes what a caller wants done. Zero values mean "not set".
type Task struct {
	Type              TaskType    `json:"type"`
	Quality           QualityTier `json:"quality_level"`
	PreferredProvider string      `json:"preferred_provider,omitempty"`
	PreferredModel    string      `json:"preferred_model,omitempty"`
	MaxCostUSD        float64     `json:"max_cost,omitempty"`
	MaxLatencyMs      int         `json:"max_latency_ms,omitempty"`
}

// Decision is the router's answer for a Task.
type Decision struct {
	ProviderID         string  `json:"provider"`
	ModelID            string  `json:"model"`
	EstimatedCostUSD   float64 `json:"estimated_cost"`
	EstimatedLatencyMs int     `json:"estimated_latency_ms"`
	Confidence         float64 `json:"confidence"`
	Reason             string  `json:"reasoning"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-agnostic chat request. Adapters translate it into
// vendor-specific payloads and apply their own defaults for unset fields.
type Request struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Request defaults applied by adapters.
const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// EffectiveMaxTokens returns MaxTokens or the default when unset.
func (r Request) EffectiveMaxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

// EffectiveTemperature returns Temperature or the default when unset.
func (r Request) EffectiveTemperature() float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return DefaultTemperature
}

// Response is a normalized, non-streaming chat result.
type Response struct {
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost"`
	ModelID      string  `json:"model"`
	ProviderID   string  `json:"provider"`
}

// Capabilities flags what a model supports.
type Capabilities struct {
	Streaming       bool `json:"streaming"`
	FunctionCalling bool `json:"function_calling"`
	Vision          bool `json:"vision"`
}

// Model is an immutable catalog entry. Prices are USD per 1K tokens.
type Model struct {
	ID               string       `json:"id"`
	ProviderID       string       `json:"provider_id"`
	InputPer1K       float64      `json:"input_per_1k"`
	OutputPer1K      float64      `json:"output_per_1k"`
	MaxContextTokens int          `json:"max_context_tokens"`
	Capabilities     Capabilities `json:"capabilities"`
}
