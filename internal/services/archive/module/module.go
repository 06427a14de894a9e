// Package module wires the metrics archive worker as a modkit.Module
package module

import (
	"context"

	"cutover/internal/modkit"
	"cutover/internal/modkit/httpkit"
	arcrepo "cutover/internal/services/archive/repo"
	arcservice "cutover/internal/services/archive/service"
)

// RunnerPort is the worker surface the binary drives
type RunnerPort interface {
	Run(ctx context.Context) error
	FlushOnce(ctx context.Context) error
}

// Ports exported by the archive module
type Ports struct {
	Runner RunnerPort
}

// Module implements modkit.Module for the archive worker
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the archive module using deps.Cfg
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	svc := arcservice.New(
		arcrepo.NewCH(deps.CH),
		deps.Gate.Metrics(),
		arcservice.Config{Interval: opts.Interval},
	)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "archive" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module route prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op: the archive worker has no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
