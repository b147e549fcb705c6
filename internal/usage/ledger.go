package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBaselinePerCallUSD is the assumed flat cost of a call without
// routing, used by SavingsVsBaseline.
const DefaultBaselinePerCallUSD = 0.20

// Ledger is the process-wide, append-only list of usage records. mu is
// never held across store I/O; storeMu orders store writes against Clear so a
// cleared record cannot reappear in the store.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
	storeMu sync.Mutex

	baseline float64
	store    Store
	logger   *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStore persists every record to s.
func WithStore(s Store) Option {
	return func(l *Ledger) { l.store = s }
}

// WithBaseline sets the per-call baseline for savings.
func WithBaseline(usd float64) Option {
	return func(l *Ledger) { l.baseline = usd }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{baseline: DefaultBaselinePerCallUSD, logger: slog.Default()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load seeds the ledger from its store. It is a no-op without a store.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	recs, err := l.store.ListUsage(ctx)
	if err != nil {
		return fmt.Errorf("load usage records: %w", err)
	}
	l.Seed(recs)
	return nil
}

// Seed bulk-loads historical records.
func (l *Ledger) Seed(recs []Record) {
	l.mu.Lock()
	l.records = append(l.records, recs...)
	l.mu.Unlock()
}

// Add appends r, assigning an ID and timestamp when missing, and returns the
// stored record. A store failure is logged; the in-memory record is kept.
func (l *Ledger) Add(ctx context.Context, r Record) Record {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	l.storeMu.Lock()
	defer l.storeMu.Unlock()

	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.AppendUsage(ctx, r); err != nil {
			l.logger.Warn("failed to persist usage record",
				slog.String("id", r.ID),
				slog.String("error", err.Error()))
		}
	}
	return r
}

// Clear empties the ledger and its store. Clearing an empty ledger is a
// no-op.
func (l *Ledger) Clear(ctx context.Context) error {
	l.storeMu.Lock()
	defer l.storeMu.Unlock()

	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.ClearUsage(ctx); err != nil {
			return fmt.Errorf("clear usage store: %w", err)
		}
	}
	return nil
}

// Records returns a copy of every record in insertion order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]Record, len(l.records))
	copy(cp, l.records)
	return cp
}

// RecordsBetween returns records with from <= Timestamp <= to. A zero bound
// is open.
func (l *Ledger) RecordsBetween(from, to time.Time) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Record
	for _, r := range l.records {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (l *Ledger) TotalCalls() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Ledger) TotalCost() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var sum float64
	for _, r := range l.records {
		sum += r.CostUSD
	}
	return sum
}

func (l *Ledger) CostByProvider() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64)
	for _, r := range l.records {
		out[r.ProviderID] += r.CostUSD
	}
	return out
}

// CostByModel keys costs by "provider/model".
func (l *Ledger) CostByModel() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64)
	for _, r := range l.records {
		out[ModelKey(r.ProviderID, r.ModelID)] += r.CostUSD
	}
	return out
}

func (l *Ledger) CallsByTaskType() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int)
	for _, r := range l.records {
		out[r.TaskType]++
	}
	return out
}

// SavingsVsBaseline is SuccessfulCalls * baseline - TotalCost. Failed calls
// cost nothing and save nothing.
func (l *Ledger) SavingsVsBaseline() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var cost float64
	var ok int
	for _, r := range l.records {
		cost += r.CostUSD
		if r.Success {
			ok++
		}
	}
	return float64(ok)*l.baseline - cost
}

// Summary computes every aggregate from a single consistent view.
func (l *Ledger) Summary() Summary {
	recs := l.Records()
	s := Summary{
		CostByProvider:     make(map[string]float64),
		CostByModel:        make(map[string]float64),
		CallsByTaskType:    make(map[string]int),
		BaselinePerCallUSD: l.baseline,
	}
	for _, r := range recs {
		s.TotalCalls++
		if r.Success {
			s.SuccessfulCalls++
		} else {
			s.FailedCalls++
		}
		s.TotalCostUSD += r.CostUSD
		s.InputTokens += r.InputTokens
		s.OutputTokens += r.OutputTokens
		s.CostByProvider[r.ProviderID] += r.CostUSD
		s.CostByModel[ModelKey(r.ProviderID, r.ModelID)] += r.CostUSD
		s.CallsByTaskType[r.TaskType]++
	}
	s.SavingsUSD = float64(s.SuccessfulCalls)*l.baseline - s.TotalCostUSD
	return s
}

// ModelKey is the CostByModel key for a provider and model.
func ModelKey(providerID, modelID string) string {
	return providerID + "/" + modelID
}
