package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codeforge-ai/codeforge/internal/router"
)

func TestDoRequestSendsJSONAndHeaders(t *testing.T) {
	var received map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":"hello"}`))
	}))
	defer ts.Close()

	body, err := DoRequest(context.Background(), ts.Client(), "openai", ts.URL,
		map[string]string{"model": "gpt-4o"}, map[string]string{"Authorization": "Bearer tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"message":"hello"}` {
		t.Errorf("body = %q", body)
	}
	if received["model"] != "gpt-4o" {
		t.Errorf("received = %v", received)
	}
}

func TestDoRequestNon2xxIsProviderError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"something broke"}`))
		}))

		_, err := DoRequest(context.Background(), ts.Client(), "claude", ts.URL, struct{}{}, nil)
		ts.Close()

		var pe *router.ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("status %d: expected *router.ProviderError, got %T: %v", status, err, err)
		}
		if pe.StatusCode != status || pe.Provider != "claude" {
			t.Errorf("got %+v", pe)
		}
		if pe.Body != `{"error":"something broke"}` {
			t.Errorf("Body = %q, want raw vendor text", pe.Body)
		}
	}
}

func TestDoRequestForwardsRequestID(t *testing.T) {
	var gotID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	if _, err := DoRequest(context.Background(), ts.Client(), "openai", ts.URL, struct{}{}, nil); err != nil {
		t.Fatal(err)
	}
	if gotID != "" {
		t.Errorf("X-Request-ID should be absent, got %q", gotID)
	}

	ctx := WithRequestID(context.Background(), "req-trace-999")
	if _, err := DoRequest(ctx, ts.Client(), "openai", ts.URL, struct{}{}, nil); err != nil {
		t.Fatal(err)
	}
	if gotID != "req-trace-999" {
		t.Errorf("X-Request-ID = %q", gotID)
	}
}

func TestDoRequestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, err := DoRequest(context.Background(), client, "openai", ts.URL, struct{}{}, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Errorf("error = %q", err)
	}
}

func TestDoRequestMarshalError(t *testing.T) {
	_, err := DoRequest(context.Background(), http.DefaultClient, "openai", "http://localhost", make(chan int), nil)
	if err == nil || !strings.Contains(err.Error(), "marshal") {
		t.Errorf("expected marshal error, got %v", err)
	}
}

func TestDoStreamRequestReturnsOpenBody(t *testing.T) {
	const want = "data: {\"chunk\":\"1\"}\n\ndata: {\"chunk\":\"2\"}\n\n"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(want))
	}))
	defer ts.Close()

	rc, err := DoStreamRequest(context.Background(), ts.Client(), "openai", ts.URL, struct{}{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Errorf("body = %q", got)
	}
	if err := rc.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestDoStreamRequestErrorBeforeBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`bad gateway`))
	}))
	defer ts.Close()

	rc, err := DoStreamRequest(context.Background(), ts.Client(), "openrouter", ts.URL, struct{}{}, nil)
	if rc != nil {
		t.Error("expected nil body on error")
	}
	var pe *router.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *router.ProviderError, got %T: %v", err, err)
	}
	if pe.StatusCode != http.StatusBadGateway || pe.Body != "bad gateway" {
		t.Errorf("got %+v", pe)
	}
}
