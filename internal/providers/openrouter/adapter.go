package openrouter

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
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "anthropic/claude-3.5-sonnet"
	DefaultReferer = "https://codeforge.ai"
	DefaultTitle   = "CodeForge AI"
)

func entry(id string, in, out float64, ctx int, fn, vision bool) router.Model {
	return router.Model{
		ID: id, ProviderID: router.ProviderOpenRouter,
		InputPer1K: in, OutputPer1K: out, MaxContextTokens: ctx,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: fn, Vision: vision},
	}
}

var catalog = []router.Model{
	entry(DefaultModel, 0.003, 0.015, 200000, true, true),
	entry("anthropic/claude-3.5-haiku", 0.0008, 0.004, 200000, true, false),
	entry("openai/gpt-4o", 0.0025, 0.01, 128000, true, true),
	entry("openai/gpt-4o-mini", 0.00015, 0.0006, 128000, true, true),
	entry("google/gemini-pro-1.5", 0.00125, 0.005, 1000000, true, true),
	entry("google/gemini-flash-1.5", 0.000075, 0.0003, 1000000, true, true),
	entry("meta-llama/llama-3.1-405b-instruct", 0.003, 0.003, 128000, false, false),
	entry("meta-llama/llama-3.1-70b-instruct", 0.0005, 0.0008, 128000, false, false),
	entry("mistralai/mistral-large", 0.002, 0.006, 128000, true, false),
}

// Adapter implements router.Provider for OpenRouter's OpenAI-compatible API.
type Adapter struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	client  *http.Client
	logger  *slog.Logger
}

// New creates an OpenRouter adapter. baseURL includes the /api/v1 prefix.
func New(apiKey, baseURL string, opts ...Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Adapter{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		referer: DefaultReferer,
		title:   DefaultTitle,
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

func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.client.Timeout = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithAttribution sets the HTTP-Referer and X-Title headers OpenRouter uses
// to attribute traffic. Empty values keep the defaults.
func WithAttribution(referer, title string) Option {
	return func(a *Adapter) {
		if referer != "" {
			a.referer = referer
		}
		if title != "" {
			a.title = title
		}
	}
}

func (a *Adapter) ID() string { return router.ProviderOpenRouter }

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
	body, err := providers.DoRequest(ctx, a.client, a.ID(), a.baseURL+"/chat/completions", payload, a.headers())
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
	body, err := providers.DoStreamRequest(ctx, a.client, a.ID(), a.baseURL+"/chat/completions", payload, a.headers())
	if err != nil {
		return nil, err
	}
	return providers.ReadStream(a.ID(), body, providers.ChatCompletionDecoder(a.ID()), a.logger), nil
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.apiKey,
		"HTTP-Referer":  a.referer,
		"X-Title":       a.title,
	}
}
