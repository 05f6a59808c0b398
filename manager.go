package tplmgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/skosovsky/tplmgr/fetcher"
	"github.com/skosovsky/tplmgr/internal/metrics"
)

// Manager maps template names to locations, fetches and compiles their sources,
// caches the compiled renderers and renders them on demand.
//
// The registry is fixed at construction. Cache entries are added on the first
// successful fetch of a name and are never replaced or removed. Safe for concurrent use.
type Manager struct {
	registry map[string]string
	fetcher  fetcher.Fetcher
	compiler Compiler

	compilerOpts []CompilerOption
	logger       *slog.Logger
	onLoaded     func()
	onError      func(name string, err error)
	dedup        bool
	concurrency  int
	registerer   prometheus.Registerer
	metrics      *metrics.Collector

	mu     sync.RWMutex
	cached map[string]Renderer

	pending  atomic.Int64 // registered names not cached yet
	loadOnce sync.Once
	loaded   chan struct{}

	sf singleflight.Group

	ctx       context.Context
	cancel    context.CancelFunc
	lifecycle sync.Mutex // guards closed and wg.Add against Close
	closed    bool
	wg        sync.WaitGroup
}

// Result is the outcome of an asynchronous render.
type Result struct {
	Output string
	Err    error
}

// New creates a Manager for paths (template name -> location) and starts fetching every
// template in the background. paths and f are mandatory; omitting either returns an
// *ArgumentError naming the parameter.
//
// With an empty paths map nothing is fetched and the load callback never fires.
func New(paths map[string]string, f fetcher.Fetcher, opts ...Option) (*Manager, error) {
	if paths == nil {
		return nil, &ArgumentError{Param: "paths"}
	}
	if f == nil {
		return nil, &ArgumentError{Param: "fetcher"}
	}
	m := &Manager{
		registry: maps.Clone(paths),
		fetcher:  f,
		logger:   slog.Default(),
		cached:   make(map[string]Renderer, len(paths)),
		loaded:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.compiler == nil {
		m.compiler = NewCompiler(m.compilerOpts...)
	}
	if m.registerer != nil {
		c, err := metrics.New(m.registerer)
		if err != nil {
			m.logger.Warn("tplmgr: metrics disabled", "err", err)
		} else {
			m.metrics = c
		}
	}
	if m.onLoaded == nil {
		logger, n := m.logger, len(m.registry)
		m.onLoaded = func() {
			logger.Info("all templates loaded", "count", n)
		}
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.pending.Store(int64(len(m.registry)))
	if len(m.registry) == 0 {
		m.logger.Warn("empty template registry: load completion will never be signalled")
		return m, nil
	}
	m.loadAll()
	return m, nil
}

// loadAll fetches every registered template in the background.
func (m *Manager) loadAll() {
	names := m.Names()
	m.goAsync(func(ctx context.Context) {
		var g errgroup.Group
		if m.concurrency > 0 {
			g.SetLimit(m.concurrency)
		}
		for _, name := range names {
			g.Go(func() error {
				if err := m.load(ctx, name); err != nil {
					m.reportError(name, err)
				}
				return nil
			})
		}
		_ = g.Wait()
	})
}

// Loaded returns a channel closed once every registered template is cached and the load callback has returned.
func (m *Manager) Loaded() <-chan struct{} {
	return m.loaded
}

// Wait blocks until every registered template is cached or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Render returns the rendered template when it is cached. Otherwise it schedules a
// background fetch and returns an error wrapping ErrNotCached; the output of that
// later render is not delivered (use RenderAsync or RenderInTarget for that).
// nil vars is treated as an empty map.
func (m *Manager) Render(name string, vars map[string]any) (string, error) {
	if _, ok := m.registry[name]; !ok {
		return "", &TemplateError{Name: name, Err: ErrTemplateNotFound}
	}
	if r, ok := m.renderer(name); ok {
		return m.execute(r, vars)
	}
	m.metrics.Render(metrics.ResultMiss)
	if !m.goAsync(func(ctx context.Context) {
		if err := m.load(ctx, name); err != nil {
			m.reportError(name, err)
			return
		}
		if _, err := m.Render(name, vars); err != nil {
			m.reportError(name, err)
		}
	}) {
		return "", ErrClosed
	}
	return "", &TemplateError{Name: name, Err: ErrNotCached}
}

// RenderAsync renders name once it is cached and delivers exactly one Result on the
// returned channel. A cached template is rendered before RenderAsync returns.
func (m *Manager) RenderAsync(name string, vars map[string]any) <-chan Result {
	out := make(chan Result, 1)
	if _, ok := m.registry[name]; !ok {
		out <- Result{Err: &TemplateError{Name: name, Err: ErrTemplateNotFound}}
		return out
	}
	if r, ok := m.renderer(name); ok {
		s, err := m.execute(r, vars)
		out <- Result{Output: s, Err: err}
		return out
	}
	m.metrics.Render(metrics.ResultMiss)
	if !m.goAsync(func(ctx context.Context) {
		if err := m.load(ctx, name); err != nil {
			m.reportError(name, err)
			out <- Result{Err: err}
			return
		}
		r, _ := m.renderer(name)
		s, err := m.execute(r, vars)
		out <- Result{Output: s, Err: err}
	}) {
		out <- Result{Err: ErrClosed}
	}
	return out
}

// RenderInTarget appends the rendered template to target. When the template is cached the
// append happens before returning and its error is returned. Otherwise the append happens
// after a background fetch and failures go to the WithOnError callback and the log.
func (m *Manager) RenderInTarget(name string, vars map[string]any, target Target) error {
	if target == nil {
		return &ArgumentError{Param: "target"}
	}
	if _, ok := m.registry[name]; !ok {
		return &TemplateError{Name: name, Err: ErrTemplateNotFound}
	}
	if r, ok := m.renderer(name); ok {
		return m.appendTo(name, r, vars, target)
	}
	m.metrics.Render(metrics.ResultMiss)
	if !m.goAsync(func(ctx context.Context) {
		if err := m.load(ctx, name); err != nil {
			m.reportError(name, err)
			return
		}
		r, _ := m.renderer(name)
		if err := m.appendTo(name, r, vars, target); err != nil {
			m.reportError(name, err)
		}
	}) {
		return ErrClosed
	}
	return nil
}

func (m *Manager) appendTo(name string, r Renderer, vars map[string]any, target Target) error {
	s, err := m.execute(r, vars)
	if err != nil {
		return err
	}
	if err := target.Append(s); err != nil {
		return &TemplateError{Name: name, Err: fmt.Errorf("append to target: %w", err)}
	}
	return nil
}

// RenderSync fetches name if needed, blocking until the fetch completes, then renders it
// with no variables: every interpolation renders as the empty string.
// Meant for initialisation code; prefer Fetch or Wait followed by Render elsewhere.
func (m *Manager) RenderSync(ctx context.Context, name string) (string, error) {
	if err := m.Fetch(ctx, name); err != nil {
		return "", err
	}
	return m.Render(name, nil)
}

// Prefetch fetches and caches name in the background. Nothing is reported back to the caller.
func (m *Manager) Prefetch(name string) {
	m.goAsync(func(ctx context.Context) {
		if err := m.load(ctx, name); err != nil {
			m.reportError(name, err)
		}
	})
}

// Fetch fetches and caches name, blocking until done. No-op if name is already cached.
func (m *Manager) Fetch(ctx context.Context, name string) error {
	if _, ok := m.registry[name]; !ok {
		return &TemplateError{Name: name, Err: ErrTemplateNotFound}
	}
	if m.IsCached(name) {
		return nil
	}
	m.lifecycle.Lock()
	closed := m.closed
	m.lifecycle.Unlock()
	if closed {
		return ErrClosed
	}
	return m.load(ctx, name)
}

// IsCached reports whether a compiled template exists for name.
func (m *Manager) IsCached(name string) bool {
	_, ok := m.renderer(name)
	return ok
}

// Store compiles raw and caches it under name. The first compiled entry for a name wins;
// later stores of a cached name are no-ops. Malformed syntax returns a *TemplateError
// wrapping ErrTemplateParse and leaves the cache untouched. name must be registered.
func (m *Manager) Store(name, raw string) error {
	if _, ok := m.registry[name]; !ok {
		return &TemplateError{Name: name, Err: ErrTemplateNotFound}
	}
	r, err := m.compiler.Compile(name, raw)
	if err != nil {
		if !errors.Is(err, ErrTemplateParse) {
			err = &TemplateError{Name: name, Err: fmt.Errorf("%w: %w", ErrTemplateParse, err)}
		}
		return err
	}
	m.mu.Lock()
	if _, ok := m.cached[name]; ok {
		m.mu.Unlock()
		return nil
	}
	m.cached[name] = r
	m.mu.Unlock()
	m.metrics.CompiledInc()
	m.logger.Debug("template cached", "name", name)
	if m.pending.Add(-1) == 0 {
		m.loadOnce.Do(func() {
			m.onLoaded()
			close(m.loaded)
		})
	}
	return nil
}

// URLFor returns the registered location for name.
func (m *Manager) URLFor(name string) (string, bool) {
	loc, ok := m.registry[name]
	return loc, ok
}

// Names returns the registered template names, sorted.
func (m *Manager) Names() []string {
	return slices.Sorted(maps.Keys(m.registry))
}

// Variables returns the placeholder paths used by a cached template.
func (m *Manager) Variables(name string) ([]string, bool) {
	r, ok := m.renderer(name)
	if !ok {
		return nil, false
	}
	return r.Variables(), true
}

// Close cancels background fetches and waits for them to return.
// Afterwards asynchronous calls do nothing and blocking fetches return ErrClosed.
// Cached templates can still be rendered.
func (m *Manager) Close() error {
	m.lifecycle.Lock()
	if m.closed {
		m.lifecycle.Unlock()
		return nil
	}
	m.closed = true
	m.lifecycle.Unlock()
	m.cancel()
	m.wg.Wait()
	return nil
}

func (m *Manager) renderer(name string) (Renderer, bool) {
	m.mu.RLock()
	r, ok := m.cached[name]
	m.mu.RUnlock()
	return r, ok
}

func (m *Manager) execute(r Renderer, vars map[string]any) (string, error) {
	s, err := r.Render(vars)
	if err != nil {
		m.metrics.Render(metrics.ResultError)
		return "", err
	}
	m.metrics.Render(metrics.ResultOK)
	return s, nil
}

// load fetches the source of name and stores it. Another caller may store first; that is not an error.
func (m *Manager) load(ctx context.Context, name string) error {
	loc, ok := m.registry[name]
	if !ok {
		return &TemplateError{Name: name, Err: ErrTemplateNotFound}
	}
	raw, err := m.fetchSource(ctx, name, loc)
	if err != nil {
		m.metrics.Fetch(metrics.ResultError)
		return &TemplateError{Name: name, Err: err}
	}
	m.metrics.Fetch(metrics.ResultOK)
	return m.Store(name, string(raw))
}

func (m *Manager) fetchSource(ctx context.Context, name, loc string) ([]byte, error) {
	if !m.dedup {
		return m.fetcher.Fetch(ctx, loc)
	}
	// The shared fetch runs on the manager context so one caller giving up does not fail the others.
	ch := m.sf.DoChan(name, func() (any, error) {
		return m.fetcher.Fetch(m.ctx, loc)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// goAsync runs fn on a tracked goroutine. Returns false once the manager is closed.
func (m *Manager) goAsync(fn func(ctx context.Context)) bool {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.closed {
		return false
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn(m.ctx)
	}()
	return true
}

func (m *Manager) reportError(name string, err error) {
	if m.ctx.Err() != nil && errors.Is(err, context.Canceled) {
		m.logger.Debug("template load cancelled", "name", name)
		return
	}
	m.logger.Error("template load failed", "name", name, "err", err)
	if m.onError != nil {
		m.onError(name, err)
	}
}
