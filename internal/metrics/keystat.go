// Package metrics maintains multi-resolution typing performance aggregates
// and derives heat-map snapshots from them.
package metrics

import (
	"math"
	"time"

	"typeheat/internal/window"
)

const (
	shortHorizon = 10 * time.Second
	longHorizon  = 60 * time.Second
)

// Metric is an aggregate value that may not exist yet. OK is false until
// the first sample arrives, which is distinct from a real zero.
type Metric struct {
	Value float64
	OK    bool
}

func metricOf(v float64, ok bool) Metric {
	return Metric{Value: v, OK: ok}
}

// Snapshot is a point-in-time view of one tracked entity.
type Snapshot struct {
	Current    Metric
	Avg10s     Metric
	Avg60s     Metric
	AvgSession Metric
	GeoSession Metric
	Fastest    Metric
	Slowest    Metric
	Count      int
	ErrorCount int
}

// KeyStat aggregates latencies for one tracked entity: a character, a
// finger, or a keyboard row. Only correct keystrokes feed the timing
// aggregates; incorrect ones increment the error counter and nothing else,
// so displayed speeds are not polluted by mistakes.
type KeyStat struct {
	short *window.Rolling
	long  *window.Rolling

	count    int
	sum      float64
	sumLog   float64
	logCount int
	minMs    float64
	maxMs    float64
	current  float64

	errorCount int
}

// NewKeyStat returns an empty aggregate with 10s and 60s rolling windows.
func NewKeyStat() *KeyStat {
	return &KeyStat{
		short: window.NewRolling(shortHorizon),
		long:  window.NewRolling(longHorizon),
	}
}

// Record folds one keystroke into the aggregate. It reports false when a
// correct sample is dropped for a backwards timestamp (clock skew).
func (k *KeyStat) Record(latencyMs float64, correct bool, at time.Time) bool {
	if !correct {
		k.errorCount++
		return true
	}
	if !k.short.Insert(at, latencyMs) {
		return false
	}
	k.long.Insert(at, latencyMs)

	k.count++
	k.sum += latencyMs
	if latencyMs > 0 {
		k.sumLog += math.Log(latencyMs)
		k.logCount++
	}
	if k.count == 1 || latencyMs < k.minMs {
		k.minMs = latencyMs
	}
	if k.count == 1 || latencyMs > k.maxMs {
		k.maxMs = latencyMs
	}
	k.current = latencyMs
	return true
}

// Snapshot derives the current view, evicting expired window samples as of
// now.
func (k *KeyStat) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Count:      k.count,
		ErrorCount: k.errorCount,
	}
	if k.count > 0 {
		snap.Current = metricOf(k.current, true)
		snap.AvgSession = metricOf(k.sum/float64(k.count), true)
		snap.Fastest = metricOf(k.minMs, true)
		snap.Slowest = metricOf(k.maxMs, true)
	}
	if k.logCount > 0 {
		snap.GeoSession = metricOf(math.Exp(k.sumLog/float64(k.logCount)), true)
	}
	snap.Avg10s = metricOf(k.short.Mean(now))
	snap.Avg60s = metricOf(k.long.Mean(now))
	return snap
}

// ResetSession clears the session scalars and error counter. The rolling
// windows represent rolling rather than session-scoped performance and are
// left intact; use ResetWindows to clear them too.
func (k *KeyStat) ResetSession() {
	k.count = 0
	k.sum = 0
	k.sumLog = 0
	k.logCount = 0
	k.minMs = 0
	k.maxMs = 0
	k.current = 0
	k.errorCount = 0
}

// ResetWindows clears the rolling windows.
func (k *KeyStat) ResetWindows() {
	k.short.Reset()
	k.long.Reset()
}
