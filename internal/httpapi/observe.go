package httpapi

import (
	"errors"
	"net/http"

	"github.com/codeforge-ai/codeforge/internal/events"
	"github.com/codeforge-ai/codeforge/internal/router"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

// jsonError writes {"error": msg} with the given status.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, errorBody{Error: msg})
}

// jsonFailure writes msg plus the classified kind and detail of err.
func jsonFailure(w http.ResponseWriter, msg string, code int, err error) {
	kind, detail := router.Classify(err)
	writeJSON(w, code, errorBody{Error: msg, Kind: kind, Details: detail})
}

// errBadInput marks request validation failures.
var errBadInput = errors.New("bad input")

// statusFor maps an error kind to the status used by /v1/chat and
// /v1/route.
func statusFor(err error) int {
	if errors.Is(err, errBadInput) {
		return http.StatusBadRequest
	}
	switch kind, _ := router.Classify(err); kind {
	case router.KindConfiguration:
		return http.StatusServiceUnavailable
	case router.KindProvider, router.KindParse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// observeParams carries one call's outcome to the metrics registry and
// the event bus.
type observeParams struct {
	TaskType  string
	Decision  router.Decision
	Response  router.Response
	LatencyMs int64
	Err       error
	RequestID string
}

// recordObservability fans a call result out to the configured sinks. Each
// sink is skipped when nil. Usage is recorded by the gateway, not here.
func recordObservability(d Dependencies, p observeParams) {
	status := "ok"
	if p.Err != nil {
		status = "error"
	}

	if d.Metrics != nil && p.Decision.ProviderID != "" {
		d.Metrics.ObserveCall(p.TaskType, p.Decision.ProviderID, p.Decision.ModelID, status,
			float64(p.LatencyMs), p.Response.CostUSD, p.Response.InputTokens, p.Response.OutputTokens)
	}

	if p.Err != nil {
		kind, detail := router.Classify(p.Err)
		d.EventBus.Publish(events.Event{
			Type:       events.EventRouteError,
			TaskType:   p.TaskType,
			ModelID:    p.Decision.ModelID,
			ProviderID: p.Decision.ProviderID,
			LatencyMs:  float64(p.LatencyMs),
			ErrorKind:  kind,
			ErrorMsg:   detail,
			RequestID:  p.RequestID,
		})
		return
	}
	d.EventBus.Publish(events.Event{
		Type:       events.EventRouteSuccess,
		TaskType:   p.TaskType,
		ModelID:    p.Decision.ModelID,
		ProviderID: p.Decision.ProviderID,
		LatencyMs:  float64(p.LatencyMs),
		CostUSD:    p.Response.CostUSD,
		Reason:     p.Decision.Reason,
		RequestID:  p.RequestID,
	})
}
