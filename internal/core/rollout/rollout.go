// Package rollout is the facade the migrated services program against: one
// Gate wires the flag registry, the shadow executor, and the metrics sink,
// and Resolve/Run pick which implementation answers a call.
package rollout

import (
	"context"
	"strings"
	"time"

	"cutover/internal/core/flags"
	"cutover/internal/core/metrics"
	"cutover/internal/core/shadow"
	"cutover/internal/platform/config"
	"cutover/internal/platform/logger"
)

// Settings is the full control-plane configuration, reloadable at runtime.
type Settings struct {
	Flags  flags.Settings
	Shadow map[flags.Module]shadow.Config

	ShadowTimeout time.Duration
	ShadowWorkers int

	MetricsEnabled  bool
	MetricsCapacity int
}

// FromEnv reads Settings from a namespaced env block. Per module M it
// understands FLAG_M, FLAG_M_READ, FLAG_M_WRITE, SHADOW_M, and
// SHADOW_M_RATE; SHADOW_RATE is the default rate for modules without their
// own. Everything defaults to off.
func FromEnv(cfg config.Conf) Settings {
	s := Settings{
		Flags: flags.Settings{
			Flags:       make(map[flags.Module]bool),
			AccessFlags: make(map[flags.Module]map[flags.Access]bool),
		},
		Shadow:          make(map[flags.Module]shadow.Config),
		ShadowTimeout:   cfg.MayDuration("SHADOW_TIMEOUT", shadow.DefaultTimeout),
		ShadowWorkers:   cfg.MayInt("SHADOW_WORKERS", shadow.DefaultWorkers),
		MetricsEnabled:  cfg.MayBool("METRICS_ENABLED", false),
		MetricsCapacity: cfg.MayInt("METRICS_CAPACITY", metrics.DefaultCapacity),
	}

	defaultRate := cfg.MayFloat64("SHADOW_RATE", 0)

	for _, m := range append([]flags.Module{flags.ModuleAll}, flags.Modules...) {
		key := strings.ToUpper(string(m))
		if v := cfg.MayString("FLAG_"+key, ""); v != "" {
			s.Flags.Flags[m] = cfg.MayBool("FLAG_"+key, false)
		}
		for _, a := range []flags.Access{flags.AccessRead, flags.AccessWrite} {
			ak := "FLAG_" + key + "_" + strings.ToUpper(string(a))
			if v := cfg.MayString(ak, ""); v != "" {
				if s.Flags.AccessFlags[m] == nil {
					s.Flags.AccessFlags[m] = make(map[flags.Access]bool)
				}
				s.Flags.AccessFlags[m][a] = cfg.MayBool(ak, false)
			}
		}
		if m == flags.ModuleAll {
			continue
		}
		if cfg.MayString("SHADOW_"+key, "") != "" || cfg.MayString("SHADOW_"+key+"_RATE", "") != "" {
			s.Shadow[m] = shadow.Config{
				Enabled:    cfg.MayBool("SHADOW_"+key, false),
				SampleRate: cfg.MayFloat64("SHADOW_"+key+"_RATE", defaultRate),
			}
		}
	}
	return s
}

// Gate is the process-wide control plane handle. Construct with New; share
// one per process and hand it to every migrated service.
type Gate struct {
	registry *flags.Registry
	executor *shadow.Executor
	sink     *metrics.Sink
	log      *logger.Logger
}

// Option mutates Gate construction.
type Option func(*gateOpts)

type gateOpts struct {
	shadowOpts []shadow.Option
	sinkOpts   []metrics.Option
}

// WithShadowOptions forwards options to the shadow executor.
func WithShadowOptions(opts ...shadow.Option) Option {
	return func(o *gateOpts) { o.shadowOpts = append(o.shadowOpts, opts...) }
}

// WithSinkOptions forwards options to the metrics sink.
func WithSinkOptions(opts ...metrics.Option) Option {
	return func(o *gateOpts) { o.sinkOpts = append(o.sinkOpts, opts...) }
}

// New builds a Gate from Settings.
func New(s Settings, opts ...Option) *Gate {
	var o gateOpts
	for _, fn := range opts {
		fn(&o)
	}
	if s.MetricsCapacity > 0 {
		o.sinkOpts = append([]metrics.Option{metrics.WithCapacity(s.MetricsCapacity)}, o.sinkOpts...)
	}
	if s.ShadowTimeout > 0 {
		o.shadowOpts = append([]shadow.Option{shadow.WithTimeout(s.ShadowTimeout)}, o.shadowOpts...)
	}
	if s.ShadowWorkers > 0 {
		o.shadowOpts = append(o.shadowOpts, shadow.WithWorkers(s.ShadowWorkers))
	}

	sink := metrics.NewSink(o.sinkOpts...)
	sink.SetEnabled(s.MetricsEnabled)

	return &Gate{
		registry: flags.NewRegistry(s.Flags),
		executor: shadow.NewExecutor(sink, s.Shadow, o.shadowOpts...),
		sink:     sink,
		log:      logger.Named("rollout"),
	}
}

// Flags exposes the registry for the operator surface.
func (g *Gate) Flags() *flags.Registry { return g.registry }

// Shadow exposes the executor for the operator surface.
func (g *Gate) Shadow() *shadow.Executor { return g.executor }

// Metrics exposes the sink for the operator surface and the archive.
func (g *Gate) Metrics() *metrics.Sink { return g.sink }

// Enabled reports whether module m routes to the new implementation.
func (g *Gate) Enabled(m flags.Module, access ...flags.Access) bool {
	return g.registry.Enabled(m, access...)
}

// Reload swaps flags and shadow configs in place. Runtime overrides
// survive a reload; they are operator state, not configuration.
func (g *Gate) Reload(s Settings) {
	g.registry.Replace(s.Flags)
	g.executor.ReplaceConfigs(s.Shadow)
	g.sink.SetEnabled(s.MetricsEnabled)
	g.log.Info().Int("flags", len(s.Flags.Flags)).Int("shadow", len(s.Shadow)).
		Msg("rollout settings reloaded")
}

// Close drains in-flight shadow work, bounded by ctx.
func (g *Gate) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.executor.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resolution is a routing decision: which value answers the caller and
// which one (if any) is the shadow candidate.
type Resolution[T any] struct {
	Primary   T
	Shadow    T
	UsingNext bool
}

// Resolve picks between the legacy and next value of anything (a repo, a
// client, a function) by m's flag. The non-selected value comes back as the
// shadow candidate so dual-execution call sites need no second lookup.
func Resolve[T any](g *Gate, m flags.Module, legacy, next T, access ...flags.Access) Resolution[T] {
	if g.Enabled(m, access...) {
		return Resolution[T]{Primary: next, Shadow: legacy, UsingNext: true}
	}
	return Resolution[T]{Primary: legacy, Shadow: next, UsingNext: false}
}

// ResolveRead is Resolve with the read-path qualifier.
func ResolveRead[T any](g *Gate, m flags.Module, legacy, next T) Resolution[T] {
	return Resolve(g, m, legacy, next, flags.AccessRead)
}

// ResolveWrite is Resolve with the write-path qualifier.
func ResolveWrite[T any](g *Gate, m flags.Module, legacy, next T) Resolution[T] {
	return Resolve(g, m, legacy, next, flags.AccessWrite)
}

// Run routes one operation and dual-executes it: the flag-selected
// implementation answers the caller, the other runs as a sampled shadow.
func Run[T any](ctx context.Context, g *Gate, m flags.Module, op string, legacy, next shadow.Fn[T], access ...flags.Access) (T, error) {
	r := Resolve(g, m, legacy, next, access...)
	return shadow.Run(ctx, g.executor, m, op, r.Primary, r.Shadow)
}

// RunRead is Run with the read-path qualifier.
func RunRead[T any](ctx context.Context, g *Gate, m flags.Module, op string, legacy, next shadow.Fn[T]) (T, error) {
	return Run(ctx, g, m, op, legacy, next, flags.AccessRead)
}

// RunWrite is Run with the write-path qualifier.
func RunWrite[T any](ctx context.Context, g *Gate, m flags.Module, op string, legacy, next shadow.Fn[T]) (T, error) {
	return Run(ctx, g, m, op, legacy, next, flags.AccessWrite)
}
