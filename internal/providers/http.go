package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/codeforge-ai/codeforge/internal/router"
)

const tracerName = "codeforge.providers"

// maxErrorBody bounds how much of a vendor error body is kept.
const maxErrorBody = 64 << 10

// DoRequest POSTs payload as JSON to url and returns the response body.
// A non-2xx status becomes a *router.ProviderError carrying the vendor's raw
// body.
func DoRequest(ctx context.Context, client *http.Client, providerID, url string, payload any, headers map[string]string) ([]byte, error) {
	ctx, span := startSpan(ctx, "provider.request", providerID, url)
	defer span.End()

	resp, err := post(ctx, client, providerID, url, payload, headers, span)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read response failed")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return body, nil
}

// DoStreamRequest POSTs payload and returns the open response body for
// incremental reading. The caller must close it; closing also ends the span.
// A non-2xx status is reported before any byte of the body is handed out.
func DoStreamRequest(ctx context.Context, client *http.Client, providerID, url string, payload any, headers map[string]string) (io.ReadCloser, error) {
	// The span outlives this call and ends when the caller closes the body.
	ctx, span := startSpan(ctx, "provider.stream", providerID, url)

	resp, err := post(ctx, client, providerID, url, payload, headers, span)
	if err != nil {
		span.End()
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &spanCloser{ReadCloser: resp.Body, span: span}, nil
}

func startSpan(ctx context.Context, name, providerID, url string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("http.url", url),
		attribute.String("codeforge.provider", providerID),
	}
	if tt := TaskType(ctx); tt != "" {
		attrs = append(attrs, attribute.String("codeforge.task_type", tt))
	}
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// post sends the request and returns the response only for 2xx statuses.
func post(ctx context.Context, client *http.Client, providerID, url string, payload any, headers map[string]string, span trace.Span) (*http.Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal failed")
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create request failed")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if reqID := RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%s request failed: %w", providerID, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		pe := &router.ProviderError{Provider: providerID, StatusCode: resp.StatusCode, Body: string(body)}
		span.RecordError(pe)
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return nil, pe
	}
	return resp, nil
}

// spanCloser ends the associated span when the body is closed.
type spanCloser struct {
	io.ReadCloser
	span trace.Span
}

func (sc *spanCloser) Close() error {
	err := sc.ReadCloser.Close()
	sc.span.End()
	return err
}
