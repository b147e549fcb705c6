package logging

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const redacted = "[REDACTED]"

// sensitiveHeaders never appear in logs.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"x-api-key":           true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
}

// contentKeys carry user prompts, generated code or vendor bodies.
var contentKeys = map[string]bool{
	"body":         true,
	"request_body": true,
	"req_body":     true,
	"prompt":       true,
	"content":      true,
	"code":         true,
	"messages":     true,
}

var level = new(slog.LevelVar)

// Setup installs a redacting JSON logger on stdout as the slog default.
func Setup(lvl string) *slog.Logger {
	logger := New(os.Stdout, lvl)
	slog.SetDefault(logger)
	return logger
}

// New builds a redacting JSON logger writing to w. All loggers share one
// level, changed with SetLevel.
func New(w io.Writer, lvl string) *slog.Logger {
	SetLevel(lvl)
	base := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(&RedactingHandler{base: base})
}

// SetLevel accepts debug, info, warn or error; anything else means info.
func SetLevel(lvl string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(lvl))); err != nil {
		l = slog.LevelInfo
	}
	level.Set(l)
}

// Level reports the current shared level.
func Level() slog.Level { return level.Level() }

// RedactingHandler replaces the values of credential and content
// attributes before they reach the wrapped handler.
type RedactingHandler struct {
	base slog.Handler
}

func NewRedactingHandler(base slog.Handler) *RedactingHandler {
	return &RedactingHandler{base: base}
}

func (h *RedactingHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.base.Enabled(ctx, l)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.base.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &RedactingHandler{base: h.base.WithAttrs(clean)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{base: h.base.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = redactAttr(g)
		}
		return slog.Group(a.Key, clean...)
	}
	if isSensitive(strings.ToLower(a.Key)) {
		return slog.String(a.Key, redacted)
	}
	return a
}

func isSensitive(key string) bool {
	if sensitiveHeaders[key] || contentKeys[key] {
		return true
	}
	for _, s := range []string{"key", "token", "secret", "password", "dsn"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// RequestLogger is chi middleware logging one line per request. Bodies and
// auth headers are never logged.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = middleware.GetReqID(r.Context())
			}

			next.ServeHTTP(ww, r)

			lvl := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				lvl = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), lvl, "http_request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", reqID),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
