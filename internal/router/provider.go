package router

import "context"

// Provider is the contract every vendor adapter implements. Defined here to
// avoid an import cycle with the providers packages.
type Provider interface {
	ID() string
	// IsConfigured reports whether a credential is present. It never
	// touches the network.
	IsConfigured() bool
	// Models returns the adapter's fixed catalog.
	Models() []Model
	// EstimateCost prices a call against the catalog; 0 for unknown models.
	EstimateCost(inputTokens, outputTokens int, modelID string) float64
	Chat(ctx context.Context, req Request) (Response, error)
	StreamChat(ctx context.Context, req Request) (*Stream, error)
}

// estimateCostUSD prices a call from per-1K token rates.
func estimateCostUSD(inputTokens, outputTokens int, inPer1K, outPer1K float64) float64 {
	return float64(inputTokens)/1000*inPer1K + float64(outputTokens)/1000*outPer1K
}

// EstimateCost looks modelID up in catalog and prices the token counts.
// Unknown models cost 0.
func EstimateCost(catalog []Model, inputTokens, outputTokens int, modelID string) float64 {
	m, ok := FindModel(catalog, modelID)
	if !ok {
		return 0
	}
	return estimateCostUSD(inputTokens, outputTokens, m.InputPer1K, m.OutputPer1K)
}

// FindModel returns the catalog entry with the given ID.
func FindModel(catalog []Model, modelID string) (Model, bool) {
	for _, m := range catalog {
		if m.ID == modelID {
			return m, true
		}
	}
	return Model{}, false
}
