package audit

import (
	"go.uber.org/zap"

	"github.com/vshulcz/fitmetrics/pkg/observer"
)

// Observer receives audit events.
type Observer = observer.Observer[Event]

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc = observer.ObserverFunc[Event]

// Publisher is what the metrics client publishes call events to.
type Publisher = observer.Publisher[Event]

// Subject fans out call events to registered observers.
type Subject = observer.Subject[Event]

// NewSubject creates a subject whose observer failures are logged at warn.
func NewSubject(l *zap.Logger, observers ...Observer) *Subject {
	if l == nil {
		l = zap.NewNop()
	}
	s := observer.NewSubject[Event](observers...)
	s.SetErrorHandler(func(err error) {
		l.Warn("audit observer failed", zap.Error(err))
	})
	return s
}
