// Package shadow runs the sampled dual-execution state machine: the primary
// implementation answers the caller, the shadow implementation runs detached
// and reports divergence, latency, and failures to the metrics sink only.
//
// The one hard invariant: primary-path latency and success are never a
// function of shadow-path behavior. Shadow failures, panics, timeouts, and
// pool exhaustion are absorbed here and observable solely through metrics.
package shadow

import (
	"context"
	stderrs "errors"
	"math/rand/v2"
	"sync"
	"time"

	"cutover/internal/core/diff"
	"cutover/internal/core/flags"
	"cutover/internal/core/metrics"
	"cutover/internal/modkit/scope"
	perr "cutover/internal/platform/errors"
	"cutover/internal/platform/logger"
)

// Defaults for the detached shadow task pool.
const (
	DefaultTimeout = 5 * time.Second
	DefaultWorkers = 16
)

// Config is the per-module shadow setting. Enabled=false means no shadow
// calls happen for the module at all; the sample rate is never consulted.
type Config struct {
	Enabled    bool    `json:"enabled"`
	SampleRate float64 `json:"sample_rate"`
}

// clamped returns the config with the rate forced into [0,1]. Out-of-range
// rates are an operator typo, not an error condition.
func (c Config) clamped() Config {
	if c.SampleRate < 0 {
		c.SampleRate = 0
	}
	if c.SampleRate > 1 {
		c.SampleRate = 1
	}
	return c
}

// Fn is the callable shape both implementations share for one operation.
type Fn[T any] func(context.Context) (T, error)

// Executor owns the shadow task pool and the per-module shadow configs.
// Construct one per Gate with NewExecutor; zero value is not usable.
type Executor struct {
	sink *metrics.Sink
	log  *logger.Logger

	mu      sync.RWMutex
	configs map[flags.Module]Config

	timeout time.Duration
	slots   chan struct{}
	wg      sync.WaitGroup

	randFloat func() float64
	differ    *diff.Differ
}

// Option mutates an Executor during NewExecutor.
type Option func(*Executor)

// WithTimeout caps each detached shadow call.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithWorkers bounds concurrently in-flight shadow tasks.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.slots = make(chan struct{}, n)
		}
	}
}

// WithRand injects the sampling draw, for tests.
func WithRand(fn func() float64) Option {
	return func(e *Executor) { e.randFloat = fn }
}

// WithDiffer replaces the result comparator (e.g. other numeric precision).
func WithDiffer(d *diff.Differ) Option {
	return func(e *Executor) { e.differ = d }
}

// NewExecutor builds an Executor reporting into sink.
func NewExecutor(sink *metrics.Sink, configs map[flags.Module]Config, opts ...Option) *Executor {
	e := &Executor{
		sink:      sink,
		log:       logger.Named("shadow"),
		timeout:   DefaultTimeout,
		slots:     make(chan struct{}, DefaultWorkers),
		randFloat: rand.Float64,
		differ:    diff.New(),
	}
	for _, o := range opts {
		o(e)
	}
	e.ReplaceConfigs(configs)
	return e
}

// ConfigFor returns the effective (clamped) config for m.
func (e *Executor) ConfigFor(m flags.Module) Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.configs[m]
}

// SetConfig updates one module's shadow setting at runtime.
func (e *Executor) SetConfig(m flags.Module, c Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configs[m] = c.clamped()
}

// ReplaceConfigs swaps the whole table, clamping rates. Used by reload.
func (e *Executor) ReplaceConfigs(configs map[flags.Module]Config) {
	next := make(map[flags.Module]Config, len(configs))
	for m, c := range configs {
		next[m] = c.clamped()
	}
	e.mu.Lock()
	e.configs = next
	e.mu.Unlock()
}

// Configs returns a copy of the table for the operator surface.
func (e *Executor) Configs() map[flags.Module]Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[flags.Module]Config, len(e.configs))
	for m, c := range e.configs {
		out[m] = c
	}
	return out
}

// Wait blocks until all in-flight shadow tasks finish. Used on shutdown and
// by tests that need shadow-side metrics to have landed.
func (e *Executor) Wait() { e.wg.Wait() }

// Run executes primary, returning its result and error exactly as if the
// control plane were absent, and conditionally launches shadow as a
// detached comparison task.
//
// Per call: primary is timed and recorded before returning; a failed
// primary propagates immediately and shadow is never attempted (there is
// nothing to compare against). Otherwise the sampling gate decides whether
// shadow runs; a disabled module skips the draw entirely.
func Run[T any](ctx context.Context, e *Executor, m flags.Module, op string, primary, shadow Fn[T]) (T, error) {
	start := time.Now()
	v, err := primary(ctx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	e.sink.RecordInvocation(string(m), op, metrics.SidePrimary)
	e.sink.RecordLatency(string(m), op, elapsed, metrics.SidePrimary)
	if err != nil {
		e.sink.RecordError(string(m), op, metrics.SidePrimary, kindOf(err))
		return v, err
	}

	cfg := e.ConfigFor(m)
	if !cfg.Enabled {
		return v, nil
	}
	if cfg.SampleRate <= 0 {
		// exact zero-overhead guarantee, not a probabilistic one
		return v, nil
	}
	if cfg.SampleRate < 1 && e.randFloat() >= cfg.SampleRate {
		return v, nil
	}

	e.spawn(ctx, m, op, v, func(sctx context.Context) (any, error) {
		return shadow(sctx)
	})
	return v, nil
}

// spawn launches the detached comparison task. The caller has already been
// answered; nothing in here may surface to it.
func (e *Executor) spawn(ctx context.Context, m flags.Module, op string, primaryVal any, shadow Fn[any]) {
	select {
	case e.slots <- struct{}{}:
	default:
		// pool exhausted: counts as a shadow failure so a slow new path
		// cannot pile up unbounded goroutines
		e.sink.RecordError(string(m), op, metrics.SideShadow, "capacity")
		e.log.Warn().Str("module", string(m)).Str("operation", op).
			Err(perr.ShadowErrf("shadow pool exhausted")).Msg("shadow call dropped")
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() { <-e.slots }()
		defer func() {
			if r := recover(); r != nil {
				e.sink.RecordError(string(m), op, metrics.SideShadow, "panic")
				e.log.Error().Str("module", string(m)).Str("operation", op).
					Err(perr.ShadowErrf("shadow call panicked: %v", r)).Msg("shadow call panicked")
			}
		}()

		// detach from the caller's cancellation but keep its values, and
		// apply our own cap so an unbounded shadow call cannot hold a slot
		// forever
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		// tag the detached context so shadow-side logging and tracing can
		// correlate back to the originating call
		sctx = scope.With(sctx, map[string]string{
			"module":    string(m),
			"operation": op,
		})

		start := time.Now()
		sv, err := shadow(sctx)
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		e.sink.RecordInvocation(string(m), op, metrics.SideShadow)
		if err != nil {
			e.sink.RecordError(string(m), op, metrics.SideShadow, kindOf(err))
			e.log.Debug().Str("module", string(m)).Str("operation", op).
				Err(err).Msg("shadow call failed")
			return
		}
		e.sink.RecordLatency(string(m), op, elapsed, metrics.SideShadow)

		if paths := e.differ.Compare(primaryVal, sv); len(paths) > 0 {
			for _, path := range paths {
				e.sink.RecordMismatch(string(m), op, path)
			}
			e.log.Debug().Str("module", string(m)).Str("operation", op).
				Err(perr.ComparisonErrf("results diverged at %d path(s)", len(paths))).
				Msg("shadow comparison mismatch")
		}
	}()
}

// kindOf classifies an error into a bounded metric label.
func kindOf(err error) string {
	switch {
	case stderrs.Is(err, context.DeadlineExceeded):
		return "timeout"
	case stderrs.Is(err, context.Canceled):
		return "canceled"
	}
	if code := perr.CodeOf(err); code != perr.ErrorCodeUnknown {
		return code.String()
	}
	return "error"
}
