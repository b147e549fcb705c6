package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codeforge-ai/codeforge/internal/dna"
	"github.com/codeforge-ai/codeforge/internal/events"
	"github.com/codeforge-ai/codeforge/internal/gateway"
	"github.com/codeforge-ai/codeforge/internal/metrics"
)

type Dependencies struct {
	Gateway   *gateway.Gateway
	Generator *dna.Generator
	Projects  *dna.Projects
	Metrics   *metrics.Registry
	EventBus  *events.Bus
	Logger    *slog.Logger
}

func (d Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func MountRoutes(r chi.Router, d Dependencies) {
	r.Get("/healthz", HealthHandler(d))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", GenerateHandler(d))
		r.Post("/chat", ChatHandler(d))
		r.Post("/route", RouteHandler(d))
		r.Get("/models", ModelsHandler(d))

		r.Get("/usage", UsageSummaryHandler(d))
		r.Get("/usage/records", UsageRecordsHandler(d))
		r.Delete("/usage", UsageClearHandler(d))

		r.Post("/projects", ProjectCreateHandler(d))
		r.Get("/projects/{id}", ProjectGetHandler(d))

		if d.EventBus != nil {
			r.Get("/events", EventsHandler(d.EventBus))
		}
	})

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
}

// HealthHandler reports liveness. The service is up even with no provider
// configured; calls then fail with a configuration error.
func HealthHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		configured := d.Gateway.Router().Configured()
		if configured == nil {
			configured = []string{}
		}
		status := "ok"
		if len(configured) == 0 {
			status = "degraded"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":               status,
			"configured_providers": configured,
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
