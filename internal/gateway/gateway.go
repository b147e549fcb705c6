package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeforge-ai/codeforge/internal/providers"
	"github.com/codeforge-ai/codeforge/internal/router"
	"github.com/codeforge-ai/codeforge/internal/usage"
)

// Gateway routes a task, dispatches the request to the chosen adapter and
// records usage. It never retries or fails over.
type Gateway struct {
	router *router.Router
	ledger *usage.Ledger
	logger *slog.Logger
}

func New(r *router.Router, l *usage.Ledger, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{router: r, ledger: l, logger: logger}
}

// Router exposes the underlying router for read-only queries.
func (g *Gateway) Router() *router.Router { return g.router }

// Ledger exposes the usage ledger.
func (g *Gateway) Ledger() *usage.Ledger { return g.ledger }

// NormalizeTask fills an empty task type and quality tier with
// code_generation and standard.
func NormalizeTask(t router.Task) router.Task {
	if t.Type == "" {
		t.Type = router.TaskCodeGeneration
	}
	if t.Quality == "" {
		t.Quality = router.QualityStandard
	}
	return t
}

// Route returns the routing decision for t without dispatching.
func (g *Gateway) Route(t router.Task) (router.Decision, error) {
	return g.router.Route(NormalizeTask(t))
}

func (g *Gateway) dispatch(ctx context.Context, t router.Task, req *router.Request) (router.Provider, router.Decision, context.Context, error) {
	t = NormalizeTask(t)
	d, err := g.router.Route(t)
	if err != nil {
		return nil, router.Decision{}, ctx, err
	}
	p, ok := g.router.Provider(d.ProviderID)
	if !ok {
		return nil, d, ctx, fmt.Errorf("routed to unregistered provider %q", d.ProviderID)
	}
	req.Model = d.ModelID
	req.Provider = d.ProviderID

	g.logger.Debug("routed request",
		slog.String("task_type", string(t.Type)),
		slog.String("quality", string(t.Quality)),
		slog.String("provider", d.ProviderID),
		slog.String("model", d.ModelID),
		slog.String("reason", d.Reason),
		slog.Float64("confidence", d.Confidence))

	return p, d, providers.WithTaskType(ctx, string(t.Type)), nil
}

// Chat performs one blocking call and appends a usage record for it. A
// failed adapter call is recorded with zero tokens and cost and
// Success=false; a routing failure is not recorded.
func (g *Gateway) Chat(ctx context.Context, t router.Task, req router.Request) (router.Response, router.Decision, error) {
	p, d, ctx, err := g.dispatch(ctx, t, &req)
	if err != nil {
		return router.Response{}, d, err
	}

	taskType := string(NormalizeTask(t).Type)
	resp, err := p.Chat(ctx, req)
	if err != nil {
		g.ledger.Add(ctx, usage.Record{
			ProviderID: d.ProviderID,
			ModelID:    d.ModelID,
			TaskType:   taskType,
			Success:    false,
		})
		return router.Response{}, d, err
	}

	g.ledger.Add(ctx, usage.Record{
		ProviderID:   resp.ProviderID,
		ModelID:      resp.ModelID,
		TaskType:     taskType,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
		Success:      true,
	})
	return resp, d, nil
}

// StreamChat routes t and opens a stream on the chosen adapter. Streamed
// calls are not recorded in the ledger because vendors do not report token
// counts on the fragment stream.
func (g *Gateway) StreamChat(ctx context.Context, t router.Task, req router.Request) (*router.Stream, router.Decision, error) {
	p, d, ctx, err := g.dispatch(ctx, t, &req)
	if err != nil {
		return nil, d, err
	}
	req.Stream = true
	s, err := p.StreamChat(ctx, req)
	if err != nil {
		return nil, d, err
	}
	return s, d, nil
}
