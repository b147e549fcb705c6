package usage

import (
	"context"
	"time"
)

// Record is one completed (or failed) non-streaming chat call. Records are
// append-only and never mutated after Add.
type Record struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ProviderID   string    `json:"provider"`
	ModelID      string    `json:"model"`
	TaskType     string    `json:"task_type"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost"`
	Success      bool      `json:"success"`
}

// Store persists usage records beyond the process lifetime.
type Store interface {
	Migrate(ctx context.Context) error
	AppendUsage(ctx context.Context, r Record) error
	ListUsage(ctx context.Context) ([]Record, error)
	ClearUsage(ctx context.Context) error
	Close() error
}

// Summary aggregates every record in the ledger.
type Summary struct {
	TotalCalls         int                `json:"total_calls"`
	SuccessfulCalls    int                `json:"successful_calls"`
	FailedCalls        int                `json:"failed_calls"`
	TotalCostUSD       float64            `json:"total_cost"`
	InputTokens        int                `json:"input_tokens"`
	OutputTokens       int                `json:"output_tokens"`
	CostByProvider     map[string]float64 `json:"cost_by_provider"`
	CostByModel        map[string]float64 `json:"cost_by_model"`
	CallsByTaskType    map[string]int     `json:"calls_by_task_type"`
	BaselinePerCallUSD float64            `json:"baseline_per_call"`
	SavingsUSD         float64            `json:"savings"`
}
