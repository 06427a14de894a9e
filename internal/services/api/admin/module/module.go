// Package module wires the rollout operator surface into the API
package module

import (
	"crypto/subtle"
	"net/http"

	"cutover/internal/core/rollout"
	modkit "cutover/internal/modkit"
	"cutover/internal/modkit/httpkit"
	perrs "cutover/internal/platform/errors"
	"cutover/internal/platform/net/middleware"
	str "cutover/internal/platform/strings"
	adminhttp "cutover/internal/services/api/admin/http"
)

// Module implements the rollout admin module
type Module struct {
	deps      modkit.Deps
	name      string
	prefix    string
	mws       []func(http.Handler) http.Handler
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// Options carry the reload source for the admin surface
type Options struct {
	// ReloadSettings re-reads rollout settings from the environment;
	// nil disables POST /rollout/reload
	ReloadSettings func() rollout.Settings

	// Token guards the operator endpoints with a static bearer token;
	// empty leaves the surface open (local/dev deployments)
	Token string
}

// tokenPort builds an auth port that admits exactly one bearer token
func tokenPort(want string) middleware.AuthPort {
	if want == "" {
		return nil
	}
	return httpkit.NewPortFunc(func(token string) (string, string, error) {
		if subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			return "", "", perrs.Unauthorizedf("invalid bearer token")
		}
		return "operator", "", nil
	})
}

// New constructs the admin module
func New(deps modkit.Deps, o Options, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("rollout"), modkit.WithPrefix("/rollout")}, opts...)...)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
	}

	external := b.Register
	port := tokenPort(o.Token)
	m.register = func(r httpkit.Router) {
		// a nil port makes Protected a pass-through group
		httpkit.Protected(r, port, func(gr httpkit.Router) {
			adminhttp.Register(gr, adminhttp.Deps{
				Gate: deps.Gate,
				Cfg:  o.ReloadSettings,
			})
			if external != nil {
				external(gr)
			}
		})
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
func (m *Module) Name() string { return str.MustString(m.name, "rollout") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return nil }
