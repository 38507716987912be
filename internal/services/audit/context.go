package audit

import "context"

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID stores the id that correlates client calls with server log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
