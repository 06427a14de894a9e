// Package repo persists rollout metric snapshots to ClickHouse
package repo

import (
	"context"

	"cutover/internal/core/metrics"
	"cutover/internal/platform/store"
)

// Repo is the persistence surface for metric snapshots
type Repo interface {
	WriteSnapshot(ctx context.Context, snap metrics.Snapshot) error
}

// CH writes snapshots to the rollout_latency and rollout_counters tables
type CH struct {
	ch store.Clickhouse
}

// NewCH constructs a ClickHouse-backed snapshot repo
func NewCH(ch store.Clickhouse) *CH {
	if ch == nil {
		panic("archive.Repo requires a non nil Clickhouse seam")
	}
	return &CH{ch: ch}
}

// Counter row kinds in rollout_counters
const (
	kindInvocation = "invocation"
	kindError      = "error"
	kindMismatch   = "mismatch"
)

// WriteSnapshot batches the latency ring and all counters into ClickHouse.
// Counters are cumulative as of snap.TakenAt; downstream queries diff
// consecutive snapshots for rates
func (r *CH) WriteSnapshot(ctx context.Context, snap metrics.Snapshot) error {
	if len(snap.Latency) > 0 {
		rows := make([][]any, 0, len(snap.Latency))
		for _, s := range snap.Latency {
			rows = append(rows, []any{snap.TakenAt, s.Module, s.Operation, string(s.Side), s.Millis, s.At})
		}
		if err := r.ch.Insert(ctx, "rollout_latency", rows); err != nil {
			return err
		}
	}

	rows := make([][]any, 0, len(snap.Invocations)+len(snap.Errors)+len(snap.Mismatches))
	for _, c := range snap.Invocations {
		rows = append(rows, []any{snap.TakenAt, kindInvocation, c.Module, c.Operation, string(c.Side), "", c.Count})
	}
	for _, c := range snap.Errors {
		rows = append(rows, []any{snap.TakenAt, kindError, c.Module, c.Operation, string(c.Side), c.Kind, c.Count})
	}
	for _, c := range snap.Mismatches {
		rows = append(rows, []any{snap.TakenAt, kindMismatch, c.Module, c.Operation, "", c.FieldPath, c.Count})
	}
	if len(rows) == 0 {
		return nil
	}
	return r.ch.Insert(ctx, "rollout_counters", rows)
}
