package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"typeheat/internal/metrics"
)

func TestRenderHistogram(t *testing.T) {
	h := metrics.NewHistogram()
	base := time.Unix(0, 0)
	h.Observe(20, base)
	h.Observe(30, base.Add(100*time.Millisecond))
	h.Observe(175, base.Add(200*time.Millisecond))
	snap := h.Snapshot(base.Add(200 * time.Millisecond))

	var buf bytes.Buffer
	if err := RenderHistogram(&buf, "Latency Distribution (session)", snap.Buckets, snap.Session); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "Latency Distribution (session)" {
		t.Errorf("title = %q", lines[0])
	}
	// One row per bucket after the title.
	if len(lines) != 11 {
		t.Fatalf("line count = %d, want 11", len(lines))
	}
	if !strings.HasPrefix(lines[1], "0-50") || !strings.HasSuffix(lines[1], " 2") {
		t.Errorf("first bucket row = %q, want 0-50 range with count 2", lines[1])
	}
	full := strings.Repeat("#", 24)
	if !strings.Contains(lines[1], full) {
		t.Errorf("largest bucket should fill the bar: %q", lines[1])
	}
	if !strings.HasPrefix(lines[4], "150-200") || !strings.HasSuffix(lines[4], " 1") {
		t.Errorf("150-200 row = %q, want count 1", lines[4])
	}
	if !strings.HasPrefix(lines[10], "450+") || !strings.HasSuffix(lines[10], " 0") {
		t.Errorf("last row = %q, want open-ended bucket with count 0", lines[10])
	}
}

func TestRenderHistogramEmpty(t *testing.T) {
	snap := metrics.NewHistogram().Snapshot(time.Unix(0, 0))
	var buf bytes.Buffer
	if err := RenderHistogram(&buf, "Latency Distribution (session)", snap.Buckets, snap.Session); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No samples yet.") {
		t.Errorf("empty distribution output = %q", buf.String())
	}
}

func TestRenderLatencyHistogramBothScales(t *testing.T) {
	h := metrics.NewHistogram()
	h.Observe(120, time.Unix(0, 0))
	snap := h.Snapshot(time.Unix(0, 0))

	var buf bytes.Buffer
	if err := RenderLatencyHistogram(&buf, snap); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Latency Distribution (session)") ||
		!strings.Contains(out, "Latency Distribution (last 10s)") {
		t.Errorf("output missing a distribution title:\n%s", out)
	}
}
