// Package stats keeps rolling-window latency aggregates per processing stage.
package stats

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at time.Time
	ms int64
}

// Snapshot aggregates the samples of one stage still inside the window.
type Snapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Latency records stage durations (load, chunk, parse, ...) and drops
// samples older than the window.
type Latency struct {
	mu     sync.Mutex
	stages map[string][]sample
	window time.Duration
	now    func() time.Time
}

func NewLatency(window time.Duration) *Latency {
	if window <= 0 {
		window = time.Hour
	}
	return &Latency{
		stages: make(map[string][]sample),
		window: window,
		now:    time.Now,
	}
}

// Record adds one duration for stage.
func (l *Latency) Record(stage string, d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.stages[stage] = append(prune(l.stages[stage], now.Add(-l.window)), sample{at: now, ms: ms})
}

// Snapshot aggregates every stage with samples in the window.
func (l *Latency) Snapshot() map[string]Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	out := make(map[string]Snapshot, len(l.stages))
	for stage, samples := range l.stages {
		samples = prune(samples, cutoff)
		l.stages[stage] = samples
		if len(samples) == 0 {
			continue
		}
		out[stage] = aggregate(samples)
	}
	return out
}

func prune(samples []sample, cutoff time.Time) []sample {
	kept := samples[:0]
	for _, s := range samples {
		if !s.at.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}

func aggregate(samples []sample) Snapshot {
	values := make([]int64, 0, len(samples))
	var sum int64
	for _, s := range samples {
		values = append(values, s.ms)
		sum += s.ms
	}
	slices.Sort(values)

	return Snapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
