package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/codeforge-ai/codeforge/internal/dna"
	"github.com/codeforge-ai/codeforge/internal/gateway"
	"github.com/codeforge-ai/codeforge/internal/providers"
	"github.com/codeforge-ai/codeforge/internal/router"
)

const generateTemperature = 0.7

type GenerateRequest struct {
	Prompt     string             `json:"prompt"`
	TaskType   router.TaskType    `json:"task_type,omitempty"`
	Quality    router.QualityTier `json:"quality_level,omitempty"`
	ProjectDNA *dna.ProjectDNA    `json:"project_dna,omitempty"`
}

type GenerateUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

type GenerateResponse struct {
	Success  bool          `json:"success"`
	Code     string        `json:"code"`
	Usage    GenerateUsage `json:"usage"`
	Model    string        `json:"model"`
	Provider string        `json:"provider"`
}

// GenerateHandler generates code for a prompt, conditioned on the project's
// DNA when one is supplied. Every failure after validation is a 500.
func GenerateHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Prompt == "" {
			jsonError(w, "Prompt is required", http.StatusBadRequest)
			return
		}

		task := gateway.NormalizeTask(router.Task{Type: req.TaskType, Quality: req.Quality})
		temp := generateTemperature
		reqID := middleware.GetReqID(r.Context())
		ctx := providers.WithRequestID(r.Context(), reqID)

		resp, decision, err := d.Gateway.Chat(ctx, task, router.Request{
			Messages: []router.Message{
				{Role: router.RoleSystem, Content: dna.SystemPrompt(req.ProjectDNA)},
				{Role: router.RoleUser, Content: req.Prompt},
			},
			Temperature: &temp,
		})
		recordObservability(d, observeParams{
			TaskType:  string(task.Type),
			Decision:  decision,
			Response:  resp,
			LatencyMs: time.Since(start).Milliseconds(),
			Err:       err,
			RequestID: reqID,
		})
		if err != nil {
			d.logger().Error("generate code failed",
				slog.String("request_id", reqID),
				slog.String("error", err.Error()))
			jsonFailure(w, "Failed to generate code", http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, GenerateResponse{
			Success: true,
			Code:    resp.Content,
			Usage: GenerateUsage{
				InputTokens:  resp.InputTokens,
				OutputTokens: resp.OutputTokens,
				TotalCost:    resp.CostUSD,
			},
			Model:    resp.ModelID,
			Provider: resp.ProviderID,
		})
	}
}
