package httpapi

import (
	"net/http"
	"time"

	"github.com/codeforge-ai/codeforge/internal/events"
	"github.com/codeforge-ai/codeforge/internal/usage"
)

func UsageSummaryHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, d.Gateway.Ledger().Summary())
	}
}

// UsageRecordsHandler lists records, optionally limited to the inclusive
// RFC3339 range given by from and to.
func UsageRecordsHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := parseTime(r.URL.Query().Get("from"))
		if err != nil {
			jsonError(w, "from must be RFC3339", http.StatusBadRequest)
			return
		}
		to, err := parseTime(r.URL.Query().Get("to"))
		if err != nil {
			jsonError(w, "to must be RFC3339", http.StatusBadRequest)
			return
		}
		recs := d.Gateway.Ledger().RecordsBetween(from, to)
		if recs == nil {
			recs = []usage.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": recs, "count": len(recs)})
	}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func UsageClearHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Gateway.Ledger().Clear(r.Context()); err != nil {
			jsonFailure(w, "failed to clear usage", http.StatusInternalServerError, err)
			return
		}
		d.EventBus.Publish(events.Event{Type: events.EventUsageCleared})
		w.WriteHeader(http.StatusNoContent)
	}
}
