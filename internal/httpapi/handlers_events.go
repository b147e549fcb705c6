package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/codeforge-ai/codeforge/internal/events"
)

// sseHeartbeat keeps idle event feeds open through proxies.
const sseHeartbeat = 15 * time.Second

// EventsHandler streams bus events as SSE. ?types=a,b limits the feed to the
// named event types.
func EventsHandler(bus *events.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var types []events.EventType
		if raw := r.URL.Query().Get("types"); raw != "" {
			for _, name := range strings.Split(raw, ",") {
				t, ok := events.ParseType(strings.TrimSpace(name))
				if !ok {
					jsonError(w, "unknown event type: "+name, http.StatusBadRequest)
					return
				}
				types = append(types, t)
			}
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			jsonError(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		sub := bus.Subscribe(64, types...)
		defer bus.Unsubscribe(sub)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		_, _ = fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		tick := time.NewTicker(sseHeartbeat)
		defer tick.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-tick.C:
				_, _ = fmt.Fprint(w, ": ping\n\n")
			case e := <-sub.C:
				_, _ = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Type, e.JSON())
			}
			flusher.Flush()
		}
	}
}
