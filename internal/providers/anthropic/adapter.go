package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeforge-ai/codeforge/internal/providers"
	"github.com/codeforge-ai/codeforge/internal/router"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-sonnet-4-5-20250929"
	apiVersion     = "2023-06-01"
	messagesPath   = "/v1/messages"
)

var catalog = []router.Model{
	{ID: DefaultModel, ProviderID: router.ProviderClaude, InputPer1K: 0.003, OutputPer1K: 0.015, MaxContextTokens: 200000,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true, Vision: true}},
	{ID: "claude-3-5-sonnet-20241022", ProviderID: router.ProviderClaude, InputPer1K: 0.003, OutputPer1K: 0.015, MaxContextTokens: 200000,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true, Vision: true}},
	{ID: "claude-3-5-haiku-20241022", ProviderID: router.ProviderClaude, InputPer1K: 0.0008, OutputPer1K: 0.004, MaxContextTokens: 200000,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true}},
	{ID: "claude-3-opus-20240229", ProviderID: router.ProviderClaude, InputPer1K: 0.015, OutputPer1K: 0.075, MaxContextTokens: 200000,
		Capabilities: router.Capabilities{Streaming: true, FunctionCalling: true, Vision: true}},
}

// Adapter implements router.Provider for the Anthropic Messages API.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates a Claude adapter. An empty baseURL uses the public API.
func New(apiKey, baseURL string, opts ...Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	a := &Adapter{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
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

// WithHTTPClient replaces the HTTP client, e.g. with a traced transport.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func (a *Adapter) ID() string { return router.ProviderClaude }

// IsConfigured reports whether an API key is set.
func (a *Adapter) IsConfigured() bool { return a.apiKey != "" }

func (a *Adapter) Models() []router.Model { return catalog }

func (a *Adapter) EstimateCost(inputTokens, outputTokens int, modelID string) float64 {
	return router.EstimateCost(catalog, inputTokens, outputTokens, modelID)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Adapter) model(req router.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return DefaultModel
}

func (a *Adapter) payload(req router.Request, stream bool) messagesRequest {
	system, rest := providers.SplitSystem(req.Messages, a.logger)
	msgs := make([]message, len(rest))
	for i, m := range rest {
		msgs[i] = message{Role: m.Role, Content: m.Content}
	}
	return messagesRequest{
		Model:       a.model(req),
		MaxTokens:   req.EffectiveMaxTokens(),
		Temperature: req.EffectiveTemperature(),
		System:      system,
		Messages:    msgs,
		Stream:      stream,
	}
}

func (a *Adapter) Chat(ctx context.Context, req router.Request) (router.Response, error) {
	model := a.model(req)
	body, err := providers.DoRequest(ctx, a.client, a.ID(), a.baseURL+messagesPath, a.payload(req, false), a.authHeaders())
	if err != nil {
		return router.Response{}, err
	}

	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return router.Response{}, &router.ParseError{Provider: a.ID(), Err: err}
	}
	text, ok := firstText(resp)
	if !ok {
		return router.Response{}, &router.ParseError{Provider: a.ID(), Err: errors.New("no text content block in response")}
	}

	return router.Response{
		Content:      text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      a.EstimateCost(resp.Usage.InputTokens, resp.Usage.OutputTokens, model),
		ModelID:      model,
		ProviderID:   a.ID(),
	}, nil
}

func firstText(resp messagesResponse) (string, bool) {
	for _, c := range resp.Content {
		if c.Type == "text" {
			return c.Text, true
		}
	}
	return "", false
}

// StreamChat opens a streaming Messages call. Text arrives in
// content_block_delta events; message_stop ends the stream.
func (a *Adapter) StreamChat(ctx context.Context, req router.Request) (*router.Stream, error) {
	body, err := providers.DoStreamRequest(ctx, a.client, a.ID(), a.baseURL+messagesPath, a.payload(req, true), a.authHeaders())
	if err != nil {
		return nil, err
	}
	return providers.ReadStream(a.ID(), body, a.decodeFrame, a.logger), nil
}

func (a *Adapter) decodeFrame(f providers.Frame) (string, error) {
	var ev streamEvent
	if err := json.Unmarshal([]byte(f.Data), &ev); err != nil {
		return "", &router.ParseError{Provider: a.ID(), Err: err}
	}
	typ := ev.Type
	if typ == "" {
		typ = f.Event
	}
	switch typ {
	case "content_block_delta":
		if ev.Delta.Type == "text_delta" {
			return ev.Delta.Text, nil
		}
	case "message_stop":
		return "", providers.ErrStreamDone
	case "error":
		return "", &router.ProviderError{Provider: a.ID(), Body: ev.Error.Type + ": " + ev.Error.Message}
	}
	return "", nil
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": apiVersion,
	}
}
