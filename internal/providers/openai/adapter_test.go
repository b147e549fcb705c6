package openai

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codeforge-ai/codeforge/internal/router"
)

func TestChatSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected Bearer auth, got %s", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "Hello from OpenAI!"}}},
			"usage":   map[string]int{"prompt_tokens": 2000, "completion_tokens": 500},
		})
	}))
	defer ts.Close()

	resp, err := New("test-key", ts.URL).Chat(context.Background(), router.Request{
		Messages: []router.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Hello from OpenAI!" || resp.ModelID != DefaultModel || resp.ProviderID != "openai" {
		t.Errorf("got %+v", resp)
	}
	// 2 * 0.0025 + 0.5 * 0.01
	if math.Abs(resp.CostUSD-0.01) > 1e-9 {
		t.Errorf("cost = %v, want 0.01", resp.CostUSD)
	}
}

func TestChatPayload(t *testing.T) {
	var payload struct {
		Model       string           `json:"model"`
		Messages    []router.Message `json:"messages"`
		MaxTokens   int              `json:"max_tokens"`
		Temperature float64          `json:"temperature"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	temp := 0.2
	_, err := New("k", ts.URL+"/v1").Chat(context.Background(), router.Request{
		Model:       "gpt-4o-mini",
		MaxTokens:   256,
		Temperature: &temp,
		Messages: []router.Message{
			{Role: "user", Content: "question"},
			{Role: "system", Content: "be brief"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if payload.Model != "gpt-4o-mini" || payload.MaxTokens != 256 || payload.Temperature != 0.2 {
		t.Errorf("payload = %+v", payload)
	}
	if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" || payload.Messages[0].Content != "be brief" {
		t.Errorf("system message should lead the list, got %+v", payload.Messages)
	}
}

func TestChatZeroTemperatureIsSent(t *testing.T) {
	var payload map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	zero := 0.0
	_, err := New("k", ts.URL).Chat(context.Background(), router.Request{
		Temperature: &zero,
		Messages:    []router.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if payload["temperature"] != 0.0 {
		t.Errorf("temperature = %v, want 0", payload["temperature"])
	}
}

func TestChatUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer ts.Close()

	_, err := New("bad", ts.URL).Chat(context.Background(), router.Request{
		Messages: []router.Message{{Role: "user", Content: "hi"}},
	})
	var pe *router.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.StatusCode != 401 || !strings.Contains(pe.Body, "Incorrect API key") {
		t.Errorf("got %+v", pe)
	}
}

func TestChatNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	_, err := New("k", ts.URL).Chat(context.Background(), router.Request{
		Messages: []router.Message{{Role: "user", Content: "hi"}},
	})
	var pe *router.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestStreamChat(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"func \"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"main()\"}}]}\n\n" +
				"data: [DONE]\n\n"))
	}))
	defer ts.Close()

	s, err := New("k", ts.URL).StreamChat(context.Background(), router.Request{
		Messages: []router.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Collect()
	if err != nil || got != "func main()" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestCatalog(t *testing.T) {
	a := New("", "")
	if a.IsConfigured() {
		t.Error("empty key should not be configured")
	}
	if len(a.Models()) != 4 || a.Models()[0].ID != DefaultModel {
		t.Errorf("catalog = %v", a.Models())
	}
	if got := a.EstimateCost(0, 0, "gpt-4-turbo"); got != 0 {
		t.Errorf("zero tokens cost %v", got)
	}
	if got := a.EstimateCost(1000, 1000, "gpt-4-turbo"); math.Abs(got-0.04) > 1e-9 {
		t.Errorf("gpt-4-turbo 1K/1K = %v", got)
	}
}
