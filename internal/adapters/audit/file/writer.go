// Package file records metrics client calls as newline-delimited JSON.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vshulcz/fitmetrics/internal/services/audit"
)

// Writer appends one JSON line per audit event. It is safe for concurrent use by dispatcher workers.
type Writer struct {
	w   io.Writer
	c   io.Closer
	enc *json.Encoder
	mu  sync.Mutex
}

var _ audit.Observer = (*Writer)(nil)

// Open creates or appends to the trail file at path.
func Open(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("mkdir audit dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	w := NewWriter(f)
	w.c = f
	return w, nil
}

// NewWriter writes events to w, e.g. os.Stderr.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, enc: json.NewEncoder(w)}
}

// Notify encodes evt as a single line.
func (w *Writer) Notify(_ context.Context, evt audit.Event) error {
	if w == nil || w.enc == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(evt); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// Close closes the underlying file when the writer owns one.
func (w *Writer) Close() error {
	if w == nil || w.c == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.c.Close()
	w.c, w.enc = nil, nil
	if err != nil {
		return fmt.Errorf("close audit file: %w", err)
	}
	return nil
}
