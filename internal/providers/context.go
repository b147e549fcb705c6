package providers

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	taskTypeKey
)

// WithRequestID returns a context carrying the inbound request ID, which is
// forwarded to vendors as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTaskType tags outbound provider spans with the routed task type.
func WithTaskType(ctx context.Context, taskType string) context.Context {
	return context.WithValue(ctx, taskTypeKey, taskType)
}

// TaskType extracts the task type set by WithTaskType.
func TaskType(ctx context.Context) string {
	t, _ := ctx.Value(taskTypeKey).(string)
	return t
}
