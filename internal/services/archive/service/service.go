// Package service runs the periodic metrics-to-ClickHouse flush
package service

import (
	"context"
	"time"

	"cutover/internal/core/metrics"
	"cutover/internal/platform/logger"
	"cutover/internal/services/archive/repo"
)

// DefaultInterval is the flush cadence when none is configured
const DefaultInterval = time.Minute

// Config tunes the archive worker
type Config struct {
	Interval time.Duration
}

// Svc flushes sink snapshots on a fixed cadence
type Svc struct {
	repo repo.Repo
	sink *metrics.Sink
	cfg  Config
	log  *logger.Logger
}

// New constructs the archive worker
func New(r repo.Repo, sink *metrics.Sink, cfg Config) *Svc {
	if r == nil {
		panic("archive.Service requires a non nil Repo")
	}
	if sink == nil {
		panic("archive.Service requires a non nil metrics sink")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Svc{repo: r, sink: sink, cfg: cfg, log: logger.Named("archive")}
}

// Run flushes until ctx is done. A failed flush is logged and retried on
// the next tick; snapshots are cumulative so nothing is lost in between
func (s *Svc) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// best-effort final flush so a clean shutdown archives the tail
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.FlushOnce(flushCtx); err != nil {
				s.log.Warn().Err(err).Msg("final metrics flush failed")
			}
			cancel()
			return ctx.Err()
		case <-ticker.C:
			if err := s.FlushOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("metrics flush failed")
			}
		}
	}
}

// FlushOnce writes one snapshot
func (s *Svc) FlushOnce(ctx context.Context) error {
	snap := s.sink.Snapshot()
	if len(snap.Latency) == 0 && len(snap.Invocations) == 0 && len(snap.Errors) == 0 && len(snap.Mismatches) == 0 {
		return nil
	}
	if err := s.repo.WriteSnapshot(ctx, snap); err != nil {
		return err
	}
	s.log.Debug().
		Int("latency", len(snap.Latency)).
		Int("counters", len(snap.Invocations)+len(snap.Errors)+len(snap.Mismatches)).
		Msg("metrics snapshot archived")
	return nil
}
