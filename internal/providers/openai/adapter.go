package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeforge-ai/codeforge/internal/providers"
	"github.com/codeforge-ai/codeforge/internal/router"
)

const (
	DefaultBaseURL  = "https://api.openai.com"
	DefaultModel    = "gpt-4o"
	completionsPath = "/v1/chat/completions"
)

var catalog = []router.Model{
	{ID: DefaultModel, ProviderID: router.ProviderOpenAI, InputPer1K: 0.0025, OutputPer1K: 0.01, MaxContextTokens: 128000,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true, Vision: true}},
	{ID: "gpt-4o-mini", ProviderID: router.ProviderOpenAI, InputPer1K: 0.00015, OutputPer1K: 0.0006, MaxContextTokens: 128000,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true, Vision: true}},
	{ID: "gpt-4-turbo", ProviderID: router.ProviderOpenAI, InputPer1K: 0.01, OutputPer1K: 0.03, MaxContextTokens: 128000,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true, Vision: true}},
	{ID: "gpt-3.5-turbo", ProviderID: router.ProviderOpenAI, InputPer1K: 0.0005, OutputPer1K: 0.0015, MaxContextTokens: 16385,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true}},
}

// Adapter implements router.Provider for the OpenAI Chat Completions API.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates an OpenAI adapter. baseURL is the API root without the /v1
// suffix; empty means the public API.
func New(apiKey, baseURL string, opts ...Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Adapter{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1"),
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.client.Timeout = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func (a *Adapter) ID() string { return router.ProviderOpenAI }

func (a *Adapter) IsConfigured() bool { return a.apiKey != "" }

func (a *Adapter) Models() []router.Model { return catalog }

func (a *Adapter) EstimateCost(inputTokens, outputTokens int, modelID string) float64 {
	return router.EstimateCost(catalog, inputTokens, outputTokens, modelID)
}

func (a *Adapter) model(req router.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return DefaultModel
}

func (a *Adapter) Chat(ctx context.Context, req router.Request) (router.Response, error) {
	model := a.model(req)
	payload := providers.ChatCompletionPayload(model, req, false, a.logger)
	body, err := providers.DoRequest(ctx, a.client, a.ID(), a.baseURL+completionsPath, payload, a.authHeaders())
	if err != nil {
		return router.Response{}, err
	}
	content, in, out, err := providers.ParseChatCompletion(a.ID(), body)
	if err != nil {
		return router.Response{}, err
	}
	return router.Response{
		Content:      content,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      a.EstimateCost(in, out, model),
		ModelID:      model,
		ProviderID:   a.ID(),
	}, nil
}

func (a *Adapter) StreamChat(ctx context.Context, req router.Request) (*router.Stream, error) {
	payload := providers.ChatCompletionPayload(a.model(req), req, true, a.logger)
	body, err := providers.DoStreamRequest(ctx, a.client, a.ID(), a.baseURL+completionsPath, payload, a.authHeaders())
	if err != nil {
		return nil, err
	}
	return providers.ReadStream(a.ID(), body, providers.ChatCompletionDecoder(a.ID()), a.logger), nil
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.apiKey}
}
