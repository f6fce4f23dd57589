package metrics

import (
	"fmt"
	"time"

	"typeheat/internal/window"
)

// histogramStepMs is the bucket width of the latency distribution. Ten
// buckets cover 0 to 450ms in 50ms steps; the last bucket is open-ended.
const (
	histogramStepMs = 50
	histogramBins   = 10
)

// Bucket is one latency range of the distribution. MaxMs is negative for
// the open-ended last bucket.
type Bucket struct {
	MinMs float64
	MaxMs float64
}

// Label renders the bucket range, e.g. "100-150" or "450+".
func (b Bucket) Label() string {
	if b.MaxMs < 0 {
		return fmt.Sprintf("%.0f+", b.MinMs)
	}
	return fmt.Sprintf("%.0f-%.0f", b.MinMs, b.MaxMs)
}

// HistogramBuckets returns the fixed latency ranges every distribution is
// counted over.
func HistogramBuckets() []Bucket {
	out := make([]Bucket, histogramBins)
	for i := 0; i < histogramBins-1; i++ {
		out[i] = Bucket{MinMs: float64(i * histogramStepMs), MaxMs: float64((i + 1) * histogramStepMs)}
	}
	out[histogramBins-1] = Bucket{MinMs: float64((histogramBins - 1) * histogramStepMs), MaxMs: -1}
	return out
}

func bucketIndex(latencyMs float64) int {
	idx := int(latencyMs / histogramStepMs)
	if idx < 0 {
		idx = 0
	}
	if idx >= histogramBins {
		idx = histogramBins - 1
	}
	return idx
}

// HistogramSnapshot is a point-in-time view of the latency distribution at
// four resolutions. Each slice is indexed like HistogramBuckets.
type HistogramSnapshot struct {
	Buckets []Bucket
	Total   []int
	Session []int
	Last10s []int
	Last60s []int
}

// Samples returns the number of samples in the process-lifetime
// distribution.
func (s HistogramSnapshot) Samples() int {
	n := 0
	for _, c := range s.Total {
		n += c
	}
	return n
}

// Histogram counts correct-keystroke latencies into fixed 50ms buckets.
// The total distribution spans the process lifetime, the session
// distribution clears at quote boundaries, and the windowed distributions
// are derived from the same rolling horizons the KeyStat aggregates use.
type Histogram struct {
	short *window.Rolling
	long  *window.Rolling

	total   [histogramBins]int
	session [histogramBins]int
}

// NewHistogram returns an empty histogram with 10s and 60s windows.
func NewHistogram() *Histogram {
	return &Histogram{
		short: window.NewRolling(shortHorizon),
		long:  window.NewRolling(longHorizon),
	}
}

// Observe counts one latency sample. It reports false when the sample is
// dropped for a backwards timestamp.
func (h *Histogram) Observe(latencyMs float64, at time.Time) bool {
	if !h.short.Insert(at, latencyMs) {
		return false
	}
	h.long.Insert(at, latencyMs)
	idx := bucketIndex(latencyMs)
	h.total[idx]++
	h.session[idx]++
	return true
}

// Snapshot derives the four distributions, evicting expired window samples
// as of now.
func (h *Histogram) Snapshot(now time.Time) HistogramSnapshot {
	return HistogramSnapshot{
		Buckets: HistogramBuckets(),
		Total:   append([]int(nil), h.total[:]...),
		Session: append([]int(nil), h.session[:]...),
		Last10s: countBuckets(h.short.Values(now)),
		Last60s: countBuckets(h.long.Values(now)),
	}
}

func countBuckets(values []float64) []int {
	out := make([]int, histogramBins)
	for _, v := range values {
		out[bucketIndex(v)]++
	}
	return out
}

// ResetSession clears the session distribution. The total distribution and
// the rolling windows persist.
func (h *Histogram) ResetSession() {
	h.session = [histogramBins]int{}
}

// ResetWindows clears the rolling windows.
func (h *Histogram) ResetWindows() {
	h.short.Reset()
	h.long.Reset()
}
