// Package api provides the HTTP API for the application
package api

import (
	"cutover/internal/core/rollout"
	"cutover/internal/platform/config"
	"cutover/internal/platform/logger"
	phttp "cutover/internal/platform/net/http"
	"cutover/internal/platform/store"

	"cutover/internal/modkit"
	"cutover/internal/modkit/httpkit"
	"cutover/internal/modkit/module"
	"cutover/internal/modkit/swaggerkit"

	adminmod "cutover/internal/services/api/admin/module"
	metamod "cutover/internal/services/api/meta/module"
	tasksmod "cutover/internal/services/tasks/module"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger
	Gate   *rollout.Gate

	// ReloadSettings re-reads rollout settings for POST /rollout/reload;
	// nil disables the endpoint
	ReloadSettings func() rollout.Settings

	// AdminToken guards the /rollout operator surface; empty leaves it open
	AdminToken string

	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:  opt.Config,
		PG:   opt.Store.PG,
		CH:   opt.Store.CH,
		Gate: opt.Gate,
	}

	mods := []module.Module{
		metamod.New(deps),
		adminmod.New(deps, adminmod.Options{ReloadSettings: opt.ReloadSettings, Token: opt.AdminToken}),
		tasksmod.New(deps),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
