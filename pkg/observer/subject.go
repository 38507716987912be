package observer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrObserverPanic wraps a value recovered from a panicking observer.
var ErrObserverPanic = errors.New("observer panicked")

// Observer defines the callback contract for receiving published events of type T.
type Observer[T any] interface {
	Notify(context.Context, T) error
}

// ObserverFunc adapts a standalone function into an Observer.
//
//revive:disable-next-line:exported
type ObserverFunc[T any] func(context.Context, T) error

// Notify executes the wrapped function.
func (f ObserverFunc[T]) Notify(ctx context.Context, evt T) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// Publisher publishes events to downstream observers.
type Publisher[T any] interface {
	Publish(context.Context, T)
}

// Subject coordinates observer registrations and event fan-out.
type Subject[T any] struct {
	mu        sync.RWMutex
	observers []Observer[T]
	onError   func(error)
}

// NewSubject constructs a Subject with optional initial observers.
func NewSubject[T any](observers ...Observer[T]) *Subject[T] {
	cp := append([]Observer[T](nil), observers...)
	return &Subject[T]{observers: cp}
}

// Publish invokes every observer with the provided event, in registration order.
// An observer that fails or panics does not stop the others; both are reported to the error handler.
func (s *Subject[T]) Publish(ctx context.Context, evt T) {
	if s == nil {
		return
	}

	s.mu.RLock()
	observers := append([]Observer[T](nil), s.observers...)
	errHandler := s.onError
	s.mu.RUnlock()

	for _, obs := range observers {
		if obs == nil {
			continue
		}
		if err := notify(ctx, obs, evt); err != nil && errHandler != nil {
			errHandler(err)
		}
	}
}

func notify[T any](ctx context.Context, obs Observer[T], evt T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrObserverPanic, r)
		}
	}()
	return obs.Notify(ctx, evt)
}

// Attach registers additional observers to the subject.
func (s *Subject[T]) Attach(observers ...Observer[T]) {
	if s == nil || len(observers) == 0 {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, observers...)
	s.mu.Unlock()
}

// SetErrorHandler configures a callback for observer failures.
func (s *Subject[T]) SetErrorHandler(fn func(error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}
