package stats

import (
	"fmt"
	"io"
	"strings"

	"typeheat/internal/metrics"
)

const histogramBarWidth = 24

// RenderHistogram prints one bucketed latency distribution as horizontal
// bars scaled to the largest bucket. Buckets and counts are parallel
// slices, one row per latency range.
func RenderHistogram(w io.Writer, title string, buckets []metrics.Bucket, counts []int) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		_, err := fmt.Fprintln(w, "No samples yet.")
		return err
	}
	for i, b := range buckets {
		count := 0
		if i < len(counts) {
			count = counts[i]
		}
		width := count * histogramBarWidth / maxCount
		bar := strings.Repeat("#", width)
		if _, err := fmt.Fprintf(w, "%-9s %-*s %d\n", b.Label(), histogramBarWidth, bar, count); err != nil {
			return err
		}
	}
	return nil
}

// RenderLatencyHistogram prints the session and rolling 10s distributions
// from one snapshot.
func RenderLatencyHistogram(w io.Writer, snap metrics.HistogramSnapshot) error {
	if err := RenderHistogram(w, "Latency Distribution (session)", snap.Buckets, snap.Session); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return RenderHistogram(w, "Latency Distribution (last 10s)", snap.Buckets, snap.Last10s)
}
