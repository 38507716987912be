package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapObserver logs every event: failures at warn, the rest at info.
func ZapObserver(l *zap.Logger) Observer {
	if l == nil {
		l = zap.NewNop()
	}
	return ObserverFunc(func(_ context.Context, evt Event) error {
		fields := []zap.Field{
			zap.String("op", evt.Operation),
			zap.String("method", evt.Method),
			zap.String("url", evt.URL),
			zap.String("request_id", evt.RequestID),
			zap.Int("status", evt.Status),
			zap.Int("attempts", evt.Attempts),
			zap.Int64("duration_ms", evt.DurationMs),
		}
		if evt.Error != "" {
			l.Warn("call failed", append(fields, zap.String("kind", evt.Kind), zap.String("error", evt.Error))...)
			return nil
		}
		l.Info("call", fields...)
		return nil
	})
}
