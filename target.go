package tplmgr

import (
	"io"
	"sync"
)

// Target receives rendered output. See package domtarget for an HTML document target.
type Target interface {
	Append(html string) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(html string) error

// Append calls f(html).
func (f TargetFunc) Append(html string) error { return f(html) }

// WriterTarget appends rendered output to an io.Writer. Appends are serialised.
type WriterTarget struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterTarget returns a Target writing to w.
func NewWriterTarget(w io.Writer) *WriterTarget {
	return &WriterTarget{w: w}
}

// Append writes html to the underlying writer.
func (t *WriterTarget) Append(html string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, html)
	return err
}

var (
	_ Target = TargetFunc(nil)
	_ Target = (*WriterTarget)(nil)
)
