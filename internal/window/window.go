// Package window implements fixed-horizon rolling time-series accumulators.
package window

import (
	"math"
	"time"
)

type sample struct {
	at    time.Time
	value float64
}

// Rolling holds timestamped samples no older than a fixed horizon.
// Samples are appended in timestamp order and evicted lazily: every
// aggregate read evicts expired entries first, so reads stay correct
// without a background task.
type Rolling struct {
	horizon time.Duration
	samples []sample
	lastAt  time.Time
}

// NewRolling returns a rolling window with the given horizon.
// A zero or negative horizon means the window never expires samples
// (session-bounded; cleared only by Reset).
func NewRolling(horizon time.Duration) *Rolling {
	return &Rolling{horizon: horizon}
}

// Horizon returns the configured sample horizon.
func (r *Rolling) Horizon() time.Duration {
	return r.horizon
}

// Insert appends a sample. It reports false and drops the sample when the
// timestamp runs backwards relative to the previous insert (clock skew);
// the caller may log that as a data-quality event.
func (r *Rolling) Insert(at time.Time, value float64) bool {
	if !r.lastAt.IsZero() && at.Before(r.lastAt) {
		return false
	}
	r.lastAt = at
	r.samples = append(r.samples, sample{at: at, value: value})
	if r.horizon > 0 {
		r.EvictBefore(at.Add(-r.horizon))
	}
	return true
}

// EvictBefore removes all samples with a timestamp strictly before cutoff.
func (r *Rolling) EvictBefore(cutoff time.Time) {
	idx := 0
	for idx < len(r.samples) && r.samples[idx].at.Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return
	}
	n := copy(r.samples, r.samples[idx:])
	r.samples = r.samples[:n]
}

// Len returns the number of samples currently retained, after evicting
// entries older than the horizon relative to now.
func (r *Rolling) Len(now time.Time) int {
	r.evictStale(now)
	return len(r.samples)
}

// Mean returns the arithmetic mean of live samples. The second return is
// false when the window is empty.
func (r *Rolling) Mean(now time.Time) (float64, bool) {
	r.evictStale(now)
	if len(r.samples) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, s := range r.samples {
		sum += s.value
	}
	return sum / float64(len(r.samples)), true
}

// GeometricMean returns exp(mean(ln(v))) over live samples. Samples that
// are not strictly positive are excluded; if none qualify it reports false.
func (r *Rolling) GeometricMean(now time.Time) (float64, bool) {
	r.evictStale(now)
	sumLog := 0.0
	count := 0
	for _, s := range r.samples {
		if s.value <= 0 {
			continue
		}
		sumLog += math.Log(s.value)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return math.Exp(sumLog / float64(count)), true
}

// Min returns the smallest live sample value.
func (r *Rolling) Min(now time.Time) (float64, bool) {
	r.evictStale(now)
	if len(r.samples) == 0 {
		return 0, false
	}
	minV := r.samples[0].value
	for _, s := range r.samples[1:] {
		if s.value < minV {
			minV = s.value
		}
	}
	return minV, true
}

// Max returns the largest live sample value.
func (r *Rolling) Max(now time.Time) (float64, bool) {
	r.evictStale(now)
	if len(r.samples) == 0 {
		return 0, false
	}
	maxV := r.samples[0].value
	for _, s := range r.samples[1:] {
		if s.value > maxV {
			maxV = s.value
		}
	}
	return maxV, true
}

// Values returns the live sample values in insertion order, after evicting
// entries older than the horizon relative to now. The slice is a copy.
func (r *Rolling) Values(now time.Time) []float64 {
	r.evictStale(now)
	if len(r.samples) == 0 {
		return nil
	}
	out := make([]float64, len(r.samples))
	for i, s := range r.samples {
		out[i] = s.value
	}
	return out
}

// Reset discards all samples and the monotonicity watermark.
func (r *Rolling) Reset() {
	r.samples = r.samples[:0]
	r.lastAt = time.Time{}
}

func (r *Rolling) evictStale(now time.Time) {
	if r.horizon <= 0 {
		return
	}
	r.EvictBefore(now.Add(-r.horizon))
}
