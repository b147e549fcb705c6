package router

import (
	"sync"
)

const (
	defaultLatencyMs   = 5000
	fallbackConfidence = 0.5
	// Cost estimates assume one thousand tokens in each direction, priced
	// at the input rate.
	estimateMultiplier = 2

	ReasonUserSpecified = "user-specified"
	ReasonFallback      = "fallback"
)

// Router chooses a provider and model for a Task from a static preference
// table. It holds no per-request state; the registry is written at startup.
type Router struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]Provider
}

func New() *Router {
	return &Router{providers: make(map[string]Provider)}
}

// Register adds an adapter. Registration order decides the fallback
// provider. Re-registering an ID replaces the adapter in place.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.ID()]; !ok {
		r.order = append(r.order, p.ID())
	}
	r.providers[p.ID()] = p
}

// Provider returns the adapter registered under id.
func (r *Router) Provider(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// Configured lists the IDs of adapters with credentials, in registration
// order.
func (r *Router) Configured() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.order {
		if r.providers[id].IsConfigured() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Catalog returns the models of every configured provider.
func (r *Router) Catalog() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Model
	for _, id := range r.order {
		p := r.providers[id]
		if p.IsConfigured() {
			out = append(out, p.Models()...)
		}
	}
	return out
}

// Route picks a provider and model for t. It fails only when no adapter is
// configured.
func (r *Router) Route(t Task) (Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configured := make(map[string]Provider)
	var first Provider
	for _, id := range r.order {
		p := r.providers[id]
		if !p.IsConfigured() {
			continue
		}
		configured[id] = p
		if first == nil && len(p.Models()) > 0 {
			first = p
		}
	}
	if len(configured) == 0 {
		return Decision{}, ErrNoProviderConfigured
	}

	if t.PreferredProvider != "" && t.PreferredModel != "" {
		if _, ok := configured[t.PreferredProvider]; ok {
			return Decision{
				ProviderID:         t.PreferredProvider,
				ModelID:            t.PreferredModel,
				EstimatedLatencyMs: defaultLatencyMs,
				Confidence:         1.0,
				Reason:             ReasonUserSpecified,
			}, nil
		}
	}

	for _, c := range candidatesFor(t.Type, t.Quality) {
		p, ok := configured[c.provider]
		if !ok {
			continue
		}
		m, ok := FindModel(p.Models(), c.model)
		if !ok {
			continue
		}
		est := m.InputPer1K * estimateMultiplier
		if t.MaxCostUSD > 0 && est > t.MaxCostUSD {
			continue
		}
		if t.MaxLatencyMs > 0 && c.latencyMs > t.MaxLatencyMs {
			continue
		}
		return Decision{
			ProviderID:         c.provider,
			ModelID:            c.model,
			EstimatedCostUSD:   est,
			EstimatedLatencyMs: c.latencyMs,
			Confidence:         c.conf,
			Reason:             c.reason,
		}, nil
	}

	if first == nil {
		return Decision{}, &ConfigurationError{Msg: "configured providers expose no models"}
	}
	m := first.Models()[0]
	return Decision{
		ProviderID:         first.ID(),
		ModelID:            m.ID,
		EstimatedCostUSD:   m.InputPer1K * estimateMultiplier,
		EstimatedLatencyMs: defaultLatencyMs,
		Confidence:         fallbackConfidence,
		Reason:             ReasonFallback,
	}, nil
}
