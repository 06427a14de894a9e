// @title         Cutover Admin API
// @version       0.1.0
// @description   Rollout flags, shadow execution controls, and metrics for the tasks migration

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"cutover/internal/platform/config"
	"cutover/internal/platform/logger"
	phttp "cutover/internal/platform/net/http"
	"cutover/internal/platform/store"

	"cutover/internal/core/rollout"
	"cutover/internal/modkit"
	"cutover/internal/modkit/module"
	"cutover/internal/modkit/repokit"
	"cutover/internal/services/api"
	archivemod "cutover/internal/services/archive/module"
)

func main() {
	// service-scoped config for HTTP etc (CORE_ADMIN_*)
	root := config.New()
	adminCfg := root.Prefix("CORE_ADMIN_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	rolloutCfg := root.Prefix("ROLLOUT_")       // flags, shadow, and metrics knobs

	// bring up logging early
	l := logger.Get()

	chEnabled := chCfg.MayBool("ENABLED", chCfg.MayString("DBURL", "") != "")

	// open the platform store (postgres + optional CH for the archive)
	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "cutover",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
			CH: store.CHConfig{
				Enabled: chEnabled,
				URL:     chCfg.MayString("DBURL", ""),
				Role:    "admin",
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// fail fast if a configured backend is unreachable
	if p, ok := st.PG.(store.Pinger); ok {
		repokit.MustPing(context.Background(), "postgres", p)
	}
	repokit.MustGuard(context.Background(), st)

	// rollout gate: flag registry + shadow executor + metrics sink
	reload := func() rollout.Settings { return rollout.FromEnv(rolloutCfg) }
	gate := rollout.New(reload())
	defer func() {
		// drain in-flight shadow work before the process exits
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gate.Close(dctx); err != nil {
			l.Error().Err(err).Msg("gate close timed out")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// archive worker drains the metrics sink into clickhouse when configured
	if chEnabled {
		arc := archivemod.New(modkit.Deps{Cfg: root, CH: st.CH, Gate: gate, Log: *l})
		module.Register(arc.Name(), arc.Ports())
		runner := module.MustPortsOf[archivemod.Ports](arc).Runner
		go func() {
			if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
				l.Error().Err(err).Msg("archive worker stopped")
			}
		}()
	}

	// http server (reads CORE_ADMIN_API_PORT)
	srv := phttp.NewServer(adminCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         adminCfg,
			Store:          st,
			Logger:         l,
			Gate:           gate,
			ReloadSettings: reload,
			AdminToken:     adminCfg.MayString("TOKEN", ""),
			EnableSwagger:  adminCfg.MayBool("SWAGGER", true),
			EnableProfiler: adminCfg.MayBool("PROFILER", true),
		},
	)

	// run until signaled, then shut down gracefully
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			l.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
