// Package module wires tasks into the API using modkit
package module

import (
	"net/http"

	modkit "cutover/internal/modkit"
	"cutover/internal/modkit/httpkit"
	str "cutover/internal/platform/strings"
	taskshttp "cutover/internal/services/tasks/http"
	tasksrepo "cutover/internal/services/tasks/repo"
	taskssvc "cutover/internal/services/tasks/service"
)

// Module implements the tasks module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc taskssvc.Service
}

// New constructs the tasks module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("tasks"), modkit.WithPrefix("/tasks")}, opts...)...)

	svc := taskssvc.New(deps.PG, deps.Gate, tasksrepo.NewLegacyPG(), tasksrepo.NewNextPG())

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptTasksPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		taskshttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
