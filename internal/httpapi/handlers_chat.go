package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/codeforge-ai/codeforge/internal/events"
	"github.com/codeforge-ai/codeforge/internal/gateway"
	"github.com/codeforge-ai/codeforge/internal/providers"
	"github.com/codeforge-ai/codeforge/internal/router"
)

// maxStreamBytes bounds the text relayed for one streamed call (100 MB).
const maxStreamBytes = 100 * 1024 * 1024

// ChatRequest is the JSON body for /v1/chat.
type ChatRequest struct {
	Task         router.Task          `json:"task"`
	Request      router.Request       `json:"request"`
	OutputFormat *router.OutputFormat `json:"output_format,omitempty"`
}

// ChatResponse is the JSON body returned by /v1/chat for blocking calls.
type ChatResponse struct {
	Response router.Response `json:"response"`
	Decision router.Decision `json:"decision"`
}

func validateTask(t router.Task) error {
	if t.MaxCostUSD < 0 {
		return fmt.Errorf("%w: max_cost must be >= 0", errBadInput)
	}
	if t.MaxLatencyMs < 0 {
		return fmt.Errorf("%w: max_latency_ms must be >= 0", errBadInput)
	}
	return nil
}

func ChatHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.Request.Messages) == 0 {
			jsonError(w, "messages required", http.StatusBadRequest)
			return
		}
		if err := validateTask(req.Task); err != nil {
			jsonFailure(w, "invalid task", http.StatusBadRequest, err)
			return
		}

		reqID := middleware.GetReqID(r.Context())
		ctx := providers.WithRequestID(r.Context(), reqID)
		taskType := string(gateway.NormalizeTask(req.Task).Type)

		if req.Request.Stream {
			streamChat(w, r, d, req, reqID)
			return
		}

		resp, decision, err := d.Gateway.Chat(ctx, req.Task, req.Request)
		recordObservability(d, observeParams{
			TaskType:  taskType,
			Decision:  decision,
			Response:  resp,
			LatencyMs: time.Since(start).Milliseconds(),
			Err:       err,
			RequestID: reqID,
		})
		if err != nil {
			jsonFailure(w, "chat failed", statusFor(err), err)
			return
		}

		if req.OutputFormat != nil {
			resp.Content = router.ShapeContent(resp.Content, *req.OutputFormat)
		}
		writeJSON(w, http.StatusOK, ChatResponse{Response: resp, Decision: decision})
	}
}

type streamFrame struct {
	Content string `json:"content"`
}

// streamChat relays fragments as SSE data frames and ends with [DONE]. An
// error after the first frame is sent as an "error" event.
func streamChat(w http.ResponseWriter, r *http.Request, d Dependencies, req ChatRequest, reqID string) {
	logger := d.logger()
	ctx := providers.WithRequestID(r.Context(), reqID)
	taskType := string(gateway.NormalizeTask(req.Task).Type)

	s, decision, err := d.Gateway.StreamChat(ctx, req.Task, req.Request)
	if err != nil {
		recordObservability(d, observeParams{TaskType: taskType, Decision: decision, Err: err, RequestID: reqID})
		jsonFailure(w, "stream failed", statusFor(err), err)
		return
	}
	defer func() { _ = s.Close() }()

	if d.Metrics != nil {
		d.Metrics.StreamsTotal.WithLabelValues(decision.ProviderID, decision.ModelID).Inc()
	}
	d.EventBus.Publish(events.Event{
		Type:       events.EventStreamStarted,
		TaskType:   taskType,
		ModelID:    decision.ModelID,
		ProviderID: decision.ProviderID,
		Reason:     decision.Reason,
		RequestID:  reqID,
	})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Negotiated-Provider", decision.ProviderID)
	w.Header().Set("X-Negotiated-Model", decision.ModelID)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	var total int
	for frag, ferr := range s.Fragments() {
		if ferr != nil {
			kind, detail := router.Classify(ferr)
			logger.Warn("stream: upstream error",
				slog.String("request_id", reqID),
				slog.String("model", decision.ModelID),
				slog.String("kind", kind))
			b, _ := json.Marshal(errorBody{Error: "stream failed", Kind: kind, Details: detail})
			_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", b)
			break
		}
		total += len(frag)
		if total > maxStreamBytes {
			logger.Warn("stream: max size exceeded, terminating",
				slog.String("request_id", reqID),
				slog.String("model", decision.ModelID),
				slog.Int("bytes", total))
			break
		}
		b, _ := json.Marshal(streamFrame{Content: frag})
		if _, werr := fmt.Fprintf(w, "data: %s\n\n", b); werr != nil {
			logger.Warn("stream: write error",
				slog.String("request_id", reqID),
				slog.String("error", werr.Error()))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}

// RouteHandler returns the decision for a task without dispatching it.
func RouteHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t router.Task
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validateTask(t); err != nil {
			jsonFailure(w, "invalid task", http.StatusBadRequest, err)
			return
		}
		decision, err := d.Gateway.Route(t)
		if err != nil {
			jsonFailure(w, "routing failed", statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, decision)
	}
}

// ModelsHandler lists the catalogs of configured providers.
func ModelsHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		models := d.Gateway.Router().Catalog()
		if models == nil {
			models = []router.Model{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"models": models})
	}
}
