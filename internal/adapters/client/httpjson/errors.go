package httpjson

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vshulcz/fitmetrics/internal/domain"
)

// Kind tells callers why a call failed.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindInvalidArgument means a required input was missing; no request was sent.
	KindInvalidArgument
	// KindNetwork covers connection failures, non-2xx responses and a stopped dispatcher.
	KindNetwork
	// KindTimeout means the call's context expired or was cancelled before a response arrived.
	KindTimeout
	// KindDecode covers request body encoding and response body decoding failures.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidArgument = domain.ErrInvalidArgument
	ErrNetwork         = errors.New("network error")
	ErrTimeout         = errors.New("timeout")
	ErrDecode          = errors.New("decode error")
)

// Error is returned by every client operation.
type Error struct {
	Err        error
	Op         string
	StatusCode int
	Kind       Kind
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels, and domain.ErrNotFound / domain.ErrConflict by status code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrDecode:
		return e.Kind == KindDecode
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrConflict:
		return e.StatusCode == http.StatusConflict
	default:
		return false
	}
}

// KindOf extracts the failure kind from err, KindUnknown if err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

type httpStatusError struct {
	code int
	msg  string
}

func (e *httpStatusError) Error() string {
	return e.msg
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }

// classify turns a transport-level error into a tagged *Error.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	var de *decodeError
	if errors.As(err, &de) {
		return &Error{Op: op, Kind: KindDecode, Err: de.err}
	}
	var se *httpStatusError
	if errors.As(err, &se) {
		return &Error{Op: op, Kind: KindNetwork, StatusCode: se.code, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Op: op, Kind: KindTimeout, Err: err}
	}
	return &Error{Op: op, Kind: KindNetwork, Err: err}
}
