package tplmgr

import (
	"log/slog"
	"text/template"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager (functional options pattern).
type Option func(*Manager)

// WithOnLoaded sets the callback invoked exactly once, after every registered template is cached.
// Without it the manager logs "all templates loaded" at info level.
func WithOnLoaded(fn func()) Option {
	return func(m *Manager) {
		m.onLoaded = fn
	}
}

// WithOnError sets a callback for failures of background work (fetch, compile, render, append).
// The failed template stays uncached.
func WithOnError(fn func(name string, err error)) Option {
	return func(m *Manager) {
		m.onError = fn
	}
}

// WithLogger sets the logger. Default is slog.Default(). If l is nil, the default is left unchanged.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDelims sets the interpolation delimiters for this manager only. Default is {{ and }}.
// Ignored when WithCompiler is used.
func WithDelims(left, right string) Option {
	return func(m *Manager) {
		m.compilerOpts = append(m.compilerOpts, WithCompilerDelims(left, right))
	}
}

// WithFuncs adds template functions for native actions. Ignored when WithCompiler is used.
func WithFuncs(funcs template.FuncMap) Option {
	return func(m *Manager) {
		m.compilerOpts = append(m.compilerOpts, WithCompilerFuncs(funcs))
	}
}

// WithCompiler replaces the default TextCompiler.
func WithCompiler(c Compiler) Option {
	return func(m *Manager) {
		m.compiler = c
	}
}

// WithDeduplication collapses concurrent fetches of the same template into one request.
// Off by default: overlapping cache misses each fetch, and the first compiled result is kept.
func WithDeduplication() Option {
	return func(m *Manager) {
		m.dedup = true
	}
}

// WithConcurrency limits how many templates the initial load fetches at once. n <= 0 means no limit.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		m.concurrency = n
	}
}

// WithMetrics registers fetch, render and cache collectors with reg.
// Registration failures are logged and metrics are disabled.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		m.registerer = reg
	}
}
