package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeforge-ai/codeforge/internal/providers/anthropic"
	"github.com/codeforge-ai/codeforge/internal/providers/openai"
	"github.com/codeforge-ai/codeforge/internal/providers/openrouter"
	"github.com/codeforge-ai/codeforge/internal/router"
	"github.com/codeforge-ai/codeforge/internal/usage"
)

func claudeServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newGateway(claudeKey, claudeURL, openaiKey, openaiURL string) *Gateway {
	r := router.New()
	r.Register(anthropic.New(claudeKey, claudeURL))
	r.Register(openai.New(openaiKey, openaiURL))
	r.Register(openrouter.New("", ""))
	return New(r, usage.NewLedger(), nil)
}

func TestChatRecordsUsage(t *testing.T) {
	var model string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		model, _ = p["model"].(string)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"package main"}],"usage":{"input_tokens":1000,"output_tokens":100}}`))
	}))
	defer ts.Close()

	g := newGateway("k", ts.URL, "", "")
	resp, d, err := g.Chat(context.Background(),
		router.Task{Type: router.TaskCodeGeneration, Quality: router.QualityStandard},
		router.Request{Messages: []router.Message{{Role: "user", Content: "write main"}}})
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet-20241022", model)
	assert.Equal(t, "claude", d.ProviderID)
	assert.Equal(t, "package main", resp.Content)
	assert.InDelta(t, 0.0045, resp.CostUSD, 1e-12)

	recs := g.Ledger().Records()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Success)
	assert.Equal(t, "code_generation", recs[0].TaskType)
	assert.InDelta(t, 0.0045, g.Ledger().TotalCost(), 1e-12)
	assert.InDelta(t, 0.0045, g.Ledger().CostByModel()["claude/claude-3-5-sonnet-20241022"], 1e-12)
}

func TestChatFailureIsRecorded(t *testing.T) {
	ts := claudeServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	g := newGateway("k", ts.URL, "", "")

	_, d, err := g.Chat(context.Background(), router.Task{Type: router.TaskBugFix},
		router.Request{Messages: []router.Message{{Role: "user", Content: "fix"}}})
	var pe *router.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "claude", d.ProviderID)

	recs := g.Ledger().Records()
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Zero(t, recs[0].CostUSD)
	assert.Zero(t, recs[0].InputTokens)
	assert.Equal(t, "bug_fix", recs[0].TaskType)
}

func TestChatNoProviderNotRecorded(t *testing.T) {
	g := newGateway("", "", "", "")
	_, _, err := g.Chat(context.Background(), router.Task{},
		router.Request{Messages: []router.Message{{Role: "user", Content: "hi"}}})
	require.ErrorIs(t, err, router.ErrNoProviderConfigured)
	assert.Zero(t, g.Ledger().TotalCalls())
}

func TestChatDefaultsTask(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":1,"completion_tokens":1}}`))
	}))
	defer ts.Close()

	g := newGateway("", "", "k", ts.URL)
	_, d, err := g.Chat(context.Background(), router.Task{},
		router.Request{Messages: []router.Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	// code_generation/standard on OpenAI alone picks gpt-4o.
	assert.Equal(t, "gpt-4o", d.ModelID)
	assert.Equal(t, map[string]int{"code_generation": 1}, g.Ledger().CallsByTaskType())
}

func TestStreamChatNotRecorded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"c\"}}]}\n\n" +
			"data: {oops\n\n" +
			"data: [DONE]\n\n"))
	}))
	defer ts.Close()

	g := newGateway("", "", "k", ts.URL)
	s, d, err := g.StreamChat(context.Background(),
		router.Task{Type: router.TaskSimpleQuery, Quality: router.QualityStandard},
		router.Request{Messages: []router.Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", d.ModelID)

	var frags []string
	for frag, err := range s.Fragments() {
		require.NoError(t, err)
		frags = append(frags, frag)
	}
	assert.Equal(t, []string{"a", "b", "c"}, frags)
	assert.Zero(t, g.Ledger().TotalCalls())
}

func TestRouteDryRun(t *testing.T) {
	g := newGateway("k", "", "", "")
	d, err := g.Route(router.Task{Type: router.TaskComplexReasoning, Quality: router.QualityPremium})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250929", d.ModelID)
	assert.Equal(t, 1.0, d.Confidence)
	assert.Zero(t, g.Ledger().TotalCalls())
}
