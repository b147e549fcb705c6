package router

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds reported by Classify.
const (
	KindConfiguration = "configuration"
	KindProvider      = "provider"
	KindParse         = "response_parse"
	KindDecode        = "decode"
	KindCanceled      = "canceled"
	KindInternal      = "internal"
)

// ConfigurationError means no usable provider is available.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ErrNoProviderConfigured is returned by Route when no registered adapter
// has credentials.
var ErrNoProviderConfigured = &ConfigurationError{Msg: "no AI providers configured"}

// ProviderError captures a non-success HTTP status from a vendor, or an
// explicit error event on a stream. Body carries the vendor's raw text.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// ParseError means a vendor response could not be normalized.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response parse error: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// kindError lets packages that cannot be imported here (dna) report their
// own kind through Classify.
type kindError interface {
	error
	Kind() string
}

// Classify returns a short machine-readable kind and a human-readable detail
// for err.
func Classify(err error) (kind, detail string) {
	if err == nil {
		return "", ""
	}
	var ce *ConfigurationError
	var pe *ProviderError
	var pa *ParseError
	var ke kindError
	switch {
	case errors.As(err, &ce):
		return KindConfiguration, ce.Msg
	case errors.As(err, &pe):
		return KindProvider, pe.Error()
	case errors.As(err, &pa):
		return KindParse, pa.Error()
	case errors.As(err, &ke):
		return ke.Kind(), ke.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled, err.Error()
	}
	return KindInternal, err.Error()
}
