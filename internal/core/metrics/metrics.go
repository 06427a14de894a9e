// Package metrics accumulates rollout observations in bounded memory:
// counters for invocations, mismatches, and errors, plus a global FIFO ring
// of latency samples with percentiles computed on demand
package metrics

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Side tags an observation with the execution path that produced it.
type Side string

// Sides.
const (
	SidePrimary Side = "primary"
	SideShadow  Side = "shadow"
)

// DefaultCapacity bounds the global latency sample buffer. One shared bound
// rather than per-key bounds; a noisy operation can evict a quiet one's
// samples, which is the accepted memory/precision tradeoff at this scale.
const DefaultCapacity = 10000

// LatencySample is one recorded call duration.
type LatencySample struct {
	Module    string    `json:"module"`
	Operation string    `json:"operation"`
	Side      Side      `json:"side"`
	Millis    float64   `json:"ms"`
	At        time.Time `json:"at"`
}

type invocationKey struct {
	module, op string
	side       Side
}

type errorKey struct {
	module, op string
	side       Side
	kind       string
}

type mismatchKey struct {
	module, op, fieldPath string
}

// Sink owns all shared mutable metric state. Construct one per process (or
// per test) with NewSink; there is no package-level instance.
type Sink struct {
	enabled atomic.Bool

	// ring guards the latency buffer only; counter maps have their own lock
	// so latency appends never contend with counter increments
	ringMu sync.Mutex
	ring   []LatencySample
	head   int
	cap    int

	cntMu       sync.Mutex
	invocations map[invocationKey]uint64
	errors      map[errorKey]uint64
	mismatches  map[mismatchKey]uint64

	now func() time.Time
}

// Option mutates a Sink during NewSink.
type Option func(*Sink)

// WithCapacity overrides the latency ring bound.
func WithCapacity(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.cap = n
		}
	}
}

// WithClock injects the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// NewSink returns an empty, enabled Sink.
func NewSink(opts ...Option) *Sink {
	s := &Sink{
		cap:         DefaultCapacity,
		invocations: make(map[invocationKey]uint64),
		errors:      make(map[errorKey]uint64),
		mismatches:  make(map[mismatchKey]uint64),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.enabled.Store(true)
	return s
}

// SetEnabled gates all recording. Disabled sinks drop every event so a
// dormant control plane costs nothing beyond the boolean load.
func (s *Sink) SetEnabled(on bool) { s.enabled.Store(on) }

// Enabled reports the recording gate.
func (s *Sink) Enabled() bool { return s.enabled.Load() }

// RecordLatency appends one sample, evicting the oldest when full.
func (s *Sink) RecordLatency(module, operation string, millis float64, side Side) {
	if !s.enabled.Load() {
		return
	}
	sample := LatencySample{
		Module:    module,
		Operation: operation,
		Side:      side,
		Millis:    millis,
		At:        s.now(),
	}
	s.ringMu.Lock()
	if len(s.ring) < s.cap {
		s.ring = append(s.ring, sample)
	} else {
		s.ring[s.head] = sample
		s.head = (s.head + 1) % s.cap
	}
	s.ringMu.Unlock()
}

// RecordInvocation counts one call on the given side.
func (s *Sink) RecordInvocation(module, operation string, side Side) {
	if !s.enabled.Load() {
		return
	}
	s.cntMu.Lock()
	s.invocations[invocationKey{module: module, op: operation, side: side}]++
	s.cntMu.Unlock()
}

// RecordError counts one execution failure. kind is a coarse classification
// ("timeout", "capacity", "panic", an error code name) rather than the
// message, keeping counter cardinality bounded.
func (s *Sink) RecordError(module, operation string, side Side, kind string) {
	if !s.enabled.Load() {
		return
	}
	s.cntMu.Lock()
	s.errors[errorKey{module: module, op: operation, side: side, kind: kind}]++
	s.cntMu.Unlock()
}

// RecordMismatch counts one divergence at fieldPath.
func (s *Sink) RecordMismatch(module, operation, fieldPath string) {
	if !s.enabled.Load() {
		return
	}
	s.cntMu.Lock()
	s.mismatches[mismatchKey{module: module, op: operation, fieldPath: fieldPath}]++
	s.cntMu.Unlock()
}

// Stats summarizes a filtered latency sample set. Percentiles are
// nearest-rank over a sorted copy, no interpolation.
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min_ms"`
	Max   float64 `json:"max_ms"`
	Avg   float64 `json:"avg_ms"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
}

// LatencyStats filters the buffer by module+operation (and side, when given)
// and computes Stats. ok is false when nothing matched.
func (s *Sink) LatencyStats(module, operation string, side ...Side) (Stats, bool) {
	s.ringMu.Lock()
	vals := make([]float64, 0, len(s.ring))
	for _, smp := range s.ring {
		if smp.Module != module || smp.Operation != operation {
			continue
		}
		if len(side) > 0 && smp.Side != side[0] {
			continue
		}
		vals = append(vals, smp.Millis)
	}
	s.ringMu.Unlock()

	if len(vals) == 0 {
		return Stats{}, false
	}
	sort.Float64s(vals)

	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return Stats{
		Count: len(vals),
		Min:   vals[0],
		Max:   vals[len(vals)-1],
		Avg:   sum / float64(len(vals)),
		P50:   nearestRank(vals, 50),
		P95:   nearestRank(vals, 95),
		P99:   nearestRank(vals, 99),
	}, true
}

// nearestRank picks index ceil(p/100*n)-1 from sorted vals, clamped.
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// ModuleTotals is the per-module rollup returned by Summary.
type ModuleTotals struct {
	Invocations map[Side]uint64 `json:"invocations"`
	Errors      map[Side]uint64 `json:"errors"`
	Mismatches  uint64          `json:"mismatches"`
}

// Summary rolls counters up per module.
func (s *Sink) Summary() map[string]ModuleTotals {
	s.cntMu.Lock()
	defer s.cntMu.Unlock()

	out := make(map[string]ModuleTotals)
	get := func(m string) ModuleTotals {
		t, ok := out[m]
		if !ok {
			t = ModuleTotals{
				Invocations: make(map[Side]uint64),
				Errors:      make(map[Side]uint64),
			}
		}
		return t
	}
	for k, n := range s.invocations {
		t := get(k.module)
		t.Invocations[k.side] += n
		out[k.module] = t
	}
	for k, n := range s.errors {
		t := get(k.module)
		t.Errors[k.side] += n
		out[k.module] = t
	}
	for k, n := range s.mismatches {
		t := get(k.module)
		t.Mismatches += n
		out[k.module] = t
	}
	return out
}

// Counter rows for the export surface.

// InvocationCount is one invocation counter row.
type InvocationCount struct {
	Module    string `json:"module"`
	Operation string `json:"operation"`
	Side      Side   `json:"side"`
	Count     uint64 `json:"count"`
}

// ErrorCount is one error counter row.
type ErrorCount struct {
	Module    string `json:"module"`
	Operation string `json:"operation"`
	Side      Side   `json:"side"`
	Kind      string `json:"kind"`
	Count     uint64 `json:"count"`
}

// MismatchCount is one mismatch counter row.
type MismatchCount struct {
	Module    string `json:"module"`
	Operation string `json:"operation"`
	FieldPath string `json:"field_path"`
	Count     uint64 `json:"count"`
}

// Snapshot is the full export shape consumed by monitoring and the archive.
type Snapshot struct {
	TakenAt     time.Time         `json:"taken_at"`
	Latency     []LatencySample   `json:"latency"`
	Invocations []InvocationCount `json:"invocations"`
	Errors      []ErrorCount      `json:"errors"`
	Mismatches  []MismatchCount   `json:"mismatches"`
}

// Snapshot copies all counters and the latency buffer (oldest first).
func (s *Sink) Snapshot() Snapshot {
	snap := Snapshot{TakenAt: s.now()}

	s.ringMu.Lock()
	snap.Latency = make([]LatencySample, 0, len(s.ring))
	// head is the oldest entry once the ring has wrapped
	for i := 0; i < len(s.ring); i++ {
		snap.Latency = append(snap.Latency, s.ring[(s.head+i)%len(s.ring)])
	}
	s.ringMu.Unlock()

	s.cntMu.Lock()
	for k, n := range s.invocations {
		snap.Invocations = append(snap.Invocations, InvocationCount{
			Module: k.module, Operation: k.op, Side: k.side, Count: n,
		})
	}
	for k, n := range s.errors {
		snap.Errors = append(snap.Errors, ErrorCount{
			Module: k.module, Operation: k.op, Side: k.side, Kind: k.kind, Count: n,
		})
	}
	for k, n := range s.mismatches {
		snap.Mismatches = append(snap.Mismatches, MismatchCount{
			Module: k.module, Operation: k.op, FieldPath: k.fieldPath, Count: n,
		})
	}
	s.cntMu.Unlock()

	sortSnapshot(&snap)
	return snap
}

// sortSnapshot makes export ordering deterministic for consumers and tests.
func sortSnapshot(snap *Snapshot) {
	sort.Slice(snap.Invocations, func(i, j int) bool {
		a, b := snap.Invocations[i], snap.Invocations[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		return a.Side < b.Side
	})
	sort.Slice(snap.Errors, func(i, j int) bool {
		a, b := snap.Errors[i], snap.Errors[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.Kind < b.Kind
	})
	sort.Slice(snap.Mismatches, func(i, j int) bool {
		a, b := snap.Mismatches[i], snap.Mismatches[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		return a.FieldPath < b.FieldPath
	})
}

// Reset clears all counters and samples. Intended for test isolation.
func (s *Sink) Reset() {
	s.ringMu.Lock()
	s.ring = nil
	s.head = 0
	s.ringMu.Unlock()

	s.cntMu.Lock()
	s.invocations = make(map[invocationKey]uint64)
	s.errors = make(map[errorKey]uint64)
	s.mismatches = make(map[mismatchKey]uint64)
	s.cntMu.Unlock()
}
