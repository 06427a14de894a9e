package module

import (
	"time"

	"cutover/internal/platform/config"
)

// Options for the archive module
type Options struct {
	Interval time.Duration
}

// FromConfig fills options from environment
// CORE_ARCHIVE_INTERVAL (default 1m) is the snapshot flush cadence
func FromConfig(cfg config.Conf) Options {
	n := cfg.Prefix("CORE_ARCHIVE_")
	return Options{
		Interval: n.MayDuration("INTERVAL", time.Minute),
	}
}
