package tplmgr

import (
	"errors"
	"fmt"
)

// Sentinel errors for manager operations.
// All use prefix "tplmgr:" for identification. Callers should use errors.Is/errors.As.
var (
	ErrMissingArgument  = errors.New("tplmgr: missing required argument")
	ErrTemplateNotFound = errors.New("tplmgr: template not registered")
	ErrTemplateParse    = errors.New("tplmgr: template parsing failed")
	ErrTemplateRender   = errors.New("tplmgr: template rendering failed")
	ErrNotCached        = errors.New("tplmgr: template not cached yet, fetch scheduled")
	ErrClosed           = errors.New("tplmgr: manager is closed")
)

// ArgumentError reports a mandatory constructor argument that was omitted.
// errors.Is(err, ErrMissingArgument) holds for every ArgumentError.
type ArgumentError struct {
	Param string
}

// Error implements error.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tplmgr: missing required argument %q", e.Param)
}

// Unwrap returns ErrMissingArgument.
func (e *ArgumentError) Unwrap() error { return ErrMissingArgument }

// TemplateError wraps a sentinel error with the template name.
// Use errors.Is(err, ErrTemplateParse) and errors.As(err, &templateErr) to inspect.
type TemplateError struct {
	Name string
	Err  error
}

// Error implements error.
func (e *TemplateError) Error() string {
	return fmt.Sprintf("tplmgr: template %q: %v", e.Name, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/errors.As.
func (e *TemplateError) Unwrap() error { return e.Err }

var (
	_ error = (*ArgumentError)(nil)
	_ error = (*TemplateError)(nil)
)
