package httpjson

import (
	"context"
	"sync"
)

// Callback receives the outcome of an asynchronous call on a dispatcher goroutine.
type Callback[T any] func(T, error)

// Future is the completion handle of a submitted call.
type Future[T any] struct {
	val  T
	err  error
	done chan struct{}
	op   string
	once sync.Once
}

func newFuture[T any](op string) *Future[T] {
	return &Future[T]{op: op, done: make(chan struct{})}
}

func resolved[T any](op string, v T, err error) *Future[T] {
	f := newFuture[T](op)
	f.resolve(v, err)
	return f
}

func (f *Future[T]) resolve(v T, err error) bool {
	ok := false
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
		ok = true
	})
	return ok
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call completes or ctx is done, whichever happens first.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, &Error{Op: f.op, Kind: KindTimeout, Err: ctx.Err()}
	}
}
