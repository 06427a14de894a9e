// Package http provides the rollout operator endpoints
package http

import (
	stdhttp "net/http"

	"cutover/internal/core/flags"
	"cutover/internal/core/metrics"
	"cutover/internal/core/rollout"
	"cutover/internal/core/shadow"
	"cutover/internal/modkit/httpkit"
	perr "cutover/internal/platform/errors"
	"cutover/internal/platform/logger"
	"cutover/internal/services/api/admin/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Gate *rollout.Gate

	// Cfg re-reads rollout settings on /reload; nil disables that endpoint
	Cfg func() rollout.Settings
}

type handlers struct {
	deps Deps
	log  *logger.Logger
}

// actor names the authenticated operator for mutation logging; open
// deployments (no auth port) report anonymous
func (h *handlers) actor(r *stdhttp.Request) string {
	uid, err := httpkit.User(r)
	if err != nil {
		return "anonymous"
	}
	return uid
}

// Register mounts the operator routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, log: logger.Named("rollout.admin")}

	httpkit.Get(r, "/flags", h.flags)
	httpkit.PostJSON[domain.OverrideInput](r, "/flags/override", h.setOverride)
	httpkit.PostJSON[domain.ClearOverrideInput](r, "/flags/override/clear", h.clearOverride)
	httpkit.Post(r, "/flags/override/clear-all", h.clearOverrides)

	httpkit.Get(r, "/shadow", h.shadowConfigs)
	httpkit.PostJSON[domain.ShadowInput](r, "/shadow", h.setShadow)

	httpkit.Get(r, "/metrics", h.metricsSummary)
	httpkit.PostJSON[domain.LatencyQuery](r, "/metrics/latency", h.latency)
	httpkit.Get(r, "/metrics/export", h.export)
	httpkit.PostJSON[domain.MetricsEnabledInput](r, "/metrics/enabled", h.setMetricsEnabled)
	httpkit.Post(r, "/metrics/reset", h.reset)

	httpkit.Post(r, "/reload", h.reload)
}

// parseModule resolves a wire module name, optionally admitting the wildcard
func parseModule(name string, wildcardOK bool) (flags.Module, error) {
	m := flags.Module(name)
	if wildcardOK && m == flags.ModuleAll {
		return m, nil
	}
	for _, known := range flags.Modules {
		if m == known {
			return m, nil
		}
	}
	return "", perr.InvalidArgf("unknown module %q", name)
}

// swagger:route GET /rollout/flags Rollout rolloutFlags
// @Summary Resolved flag state and active overrides
// @Tags Rollout
// @Produce json
// @Success 200 {object} domain.FlagsResponse "ok"
// @Router /rollout/flags [get]
func (h *handlers) flags(_ *stdhttp.Request) (any, error) {
	sum := h.deps.Gate.Flags().Summary()
	out := domain.FlagsResponse{
		Enabled:   make([]string, 0, len(sum.Enabled)),
		Disabled:  make([]string, 0, len(sum.Disabled)),
		Overrides: make(map[string]bool),
	}
	for _, m := range sum.Enabled {
		out.Enabled = append(out.Enabled, string(m))
	}
	for _, m := range sum.Disabled {
		out.Disabled = append(out.Disabled, string(m))
	}
	for m, v := range h.deps.Gate.Flags().Overrides() {
		out.Overrides[string(m)] = v
	}
	return out, nil
}

// swagger:route POST /rollout/flags/override Rollout rolloutSetOverride
// @Summary Pin a module's routing, bypassing configured flags
// @Tags Rollout
// @Accept json
// @Produce json
// @Param payload body domain.OverrideInput true "Override"
// @Success 200 {object} domain.FlagsResponse "ok"
// @Router /rollout/flags/override [post]
func (h *handlers) setOverride(r *stdhttp.Request, in domain.OverrideInput) (any, error) {
	m, err := parseModule(in.Module, true)
	if err != nil {
		return nil, err
	}
	if in.Enabled == nil {
		return nil, perr.InvalidArgf("enabled is required")
	}
	h.deps.Gate.Flags().SetOverride(m, *in.Enabled)
	h.log.Info().Str("actor", h.actor(r)).Str("module", string(m)).
		Bool("enabled", *in.Enabled).Msg("flag override set")
	return h.flags(r)
}

// swagger:route POST /rollout/flags/override/clear Rollout rolloutClearOverride
// @Summary Remove one module's override
// @Tags Rollout
// @Accept json
// @Produce json
// @Param payload body domain.ClearOverrideInput true "Module"
// @Success 200 {object} domain.FlagsResponse "ok"
// @Router /rollout/flags/override/clear [post]
func (h *handlers) clearOverride(r *stdhttp.Request, in domain.ClearOverrideInput) (any, error) {
	m, err := parseModule(in.Module, true)
	if err != nil {
		return nil, err
	}
	h.deps.Gate.Flags().ClearOverride(m)
	h.log.Info().Str("actor", h.actor(r)).Str("module", string(m)).Msg("flag override cleared")
	return h.flags(r)
}

// swagger:route POST /rollout/flags/override/clear-all Rollout rolloutClearOverrides
// @Summary Remove every override
// @Tags Rollout
// @Produce json
// @Success 200 {object} domain.FlagsResponse "ok"
// @Router /rollout/flags/override/clear-all [post]
func (h *handlers) clearOverrides(r *stdhttp.Request) (any, error) {
	h.deps.Gate.Flags().ClearOverrides()
	h.log.Info().Str("actor", h.actor(r)).Msg("all flag overrides cleared")
	return h.flags(r)
}

// swagger:route GET /rollout/shadow Rollout rolloutShadow
// @Summary Per-module shadow sampling configuration
// @Tags Rollout
// @Produce json
// @Success 200 {object} map[string]shadow.Config "ok"
// @Router /rollout/shadow [get]
func (h *handlers) shadowConfigs(_ *stdhttp.Request) (any, error) {
	out := make(map[string]shadow.Config)
	for m, c := range h.deps.Gate.Shadow().Configs() {
		out[string(m)] = c
	}
	return out, nil
}

// swagger:route POST /rollout/shadow Rollout rolloutSetShadow
// @Summary Reconfigure one module's shadow sampling
// @Tags Rollout
// @Accept json
// @Produce json
// @Param payload body domain.ShadowInput true "Config"
// @Success 200 {object} shadow.Config "ok"
// @Router /rollout/shadow [post]
func (h *handlers) setShadow(r *stdhttp.Request, in domain.ShadowInput) (any, error) {
	m, err := parseModule(in.Module, false)
	if err != nil {
		return nil, err
	}
	h.deps.Gate.Shadow().SetConfig(m, shadow.Config{Enabled: in.Enabled, SampleRate: in.SampleRate})
	h.log.Info().Str("actor", h.actor(r)).Str("module", string(m)).
		Bool("enabled", in.Enabled).Float64("sample_rate", in.SampleRate).Msg("shadow config set")
	return h.deps.Gate.Shadow().ConfigFor(m), nil
}

// swagger:route GET /rollout/metrics Rollout rolloutMetrics
// @Summary Per-module invocation, error, and mismatch totals
// @Tags Rollout
// @Produce json
// @Success 200 {object} map[string]metrics.ModuleTotals "ok"
// @Router /rollout/metrics [get]
func (h *handlers) metricsSummary(_ *stdhttp.Request) (any, error) {
	return h.deps.Gate.Metrics().Summary(), nil
}

// swagger:route POST /rollout/metrics/latency Rollout rolloutLatency
// @Summary Latency percentiles for one operation
// @Tags Rollout
// @Accept json
// @Produce json
// @Param payload body domain.LatencyQuery true "Query"
// @Success 200 {object} metrics.Stats "ok"
// @Failure 404 {object} httpkit.Envelope "no samples"
// @Router /rollout/metrics/latency [post]
func (h *handlers) latency(_ *stdhttp.Request, in domain.LatencyQuery) (any, error) {
	var sides []metrics.Side
	if in.Side != "" {
		sides = append(sides, metrics.Side(in.Side))
	}
	st, ok := h.deps.Gate.Metrics().LatencyStats(in.Module, in.Operation, sides...)
	if !ok {
		return nil, perr.NotFoundf("no latency samples for %s %s", in.Module, in.Operation)
	}
	return st, nil
}

// swagger:route GET /rollout/metrics/export Rollout rolloutExport
// @Summary Full metrics snapshot for external analysis
// @Tags Rollout
// @Produce json
// @Success 200 {object} metrics.Snapshot "ok"
// @Router /rollout/metrics/export [get]
func (h *handlers) export(_ *stdhttp.Request) (any, error) {
	return h.deps.Gate.Metrics().Snapshot(), nil
}

// swagger:route POST /rollout/metrics/enabled Rollout rolloutMetricsEnabled
// @Summary Flip the metrics recording gate
// @Tags Rollout
// @Accept json
// @Produce json
// @Param payload body domain.MetricsEnabledInput true "Gate"
// @Success 200 {object} domain.MetricsEnabledInput "ok"
// @Router /rollout/metrics/enabled [post]
func (h *handlers) setMetricsEnabled(r *stdhttp.Request, in domain.MetricsEnabledInput) (any, error) {
	h.deps.Gate.Metrics().SetEnabled(in.Enabled)
	h.log.Info().Str("actor", h.actor(r)).Bool("enabled", in.Enabled).Msg("metrics gate set")
	return domain.MetricsEnabledInput{Enabled: h.deps.Gate.Metrics().Enabled()}, nil
}

// swagger:route POST /rollout/metrics/reset Rollout rolloutReset
// @Summary Clear all recorded metrics
// @Tags Rollout
// @Produce json
// @Success 204 "reset"
// @Router /rollout/metrics/reset [post]
func (h *handlers) reset(r *stdhttp.Request) (any, error) {
	h.deps.Gate.Metrics().Reset()
	h.log.Info().Str("actor", h.actor(r)).Msg("metrics reset")
	return httpkit.NoContent(), nil
}

// swagger:route POST /rollout/reload Rollout rolloutReload
// @Summary Re-read rollout settings, keeping runtime overrides
// @Tags Rollout
// @Produce json
// @Success 200 {object} domain.FlagsResponse "ok"
// @Router /rollout/reload [post]
func (h *handlers) reload(r *stdhttp.Request) (any, error) {
	if h.deps.Cfg == nil {
		return nil, perr.Unavailablef("reload source not configured")
	}
	h.deps.Gate.Reload(h.deps.Cfg())
	h.log.Info().Str("actor", h.actor(r)).Msg("rollout settings reloaded")
	return h.flags(r)
}
