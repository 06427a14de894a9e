// Package modkit provides module wiring and core deps
package modkit

import (
	"cutover/internal/core/rollout"
	"cutover/internal/modkit/repokit"
	"cutover/internal/platform/config"
	"cutover/internal/platform/logger"
	"cutover/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log  logger.Logger
	Cfg  config.Conf
	PG   repokit.TxRunner
	CH   store.Clickhouse
	Gate *rollout.Gate
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional stores
func (d Deps) ZeroOK() bool { return true }
