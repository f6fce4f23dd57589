package metrics

import "testing"

func TestHistogramBuckets(t *testing.T) {
	buckets := HistogramBuckets()
	if len(buckets) != 10 {
		t.Fatalf("len(buckets) = %d, want 10", len(buckets))
	}
	if got := buckets[0].Label(); got != "0-50" {
		t.Errorf("first label = %q, want %q", got, "0-50")
	}
	if got := buckets[3].Label(); got != "150-200" {
		t.Errorf("fourth label = %q, want %q", got, "150-200")
	}
	if got := buckets[9].Label(); got != "450+" {
		t.Errorf("last label = %q, want %q", got, "450+")
	}
}

func TestHistogramObserve(t *testing.T) {
	h := NewHistogram()
	h.Observe(10, at(0))
	h.Observe(49, at(100))
	h.Observe(50, at(200))
	h.Observe(175, at(300))
	h.Observe(900, at(400))

	snap := h.Snapshot(at(400))
	want := []int{2, 1, 0, 1, 0, 0, 0, 0, 0, 1}
	for i, c := range want {
		if snap.Total[i] != c {
			t.Errorf("total[%d] = %d, want %d", i, snap.Total[i], c)
		}
		if snap.Session[i] != c {
			t.Errorf("session[%d] = %d, want %d", i, snap.Session[i], c)
		}
		if snap.Last10s[i] != c {
			t.Errorf("last10s[%d] = %d, want %d", i, snap.Last10s[i], c)
		}
	}
	if snap.Samples() != 5 {
		t.Errorf("samples = %d, want 5", snap.Samples())
	}
}

func TestHistogramResetSessionKeepsTotal(t *testing.T) {
	h := NewHistogram()
	h.Observe(75, at(0))
	h.ResetSession()
	h.Observe(75, at(100))

	snap := h.Snapshot(at(100))
	if snap.Session[1] != 1 {
		t.Errorf("session[1] = %d after reset, want 1", snap.Session[1])
	}
	if snap.Total[1] != 2 {
		t.Errorf("total[1] = %d, want 2", snap.Total[1])
	}
}

func TestHistogramWindowEviction(t *testing.T) {
	h := NewHistogram()
	h.Observe(120, at(0))
	h.Observe(220, at(15_000))

	snap := h.Snapshot(at(15_000))
	if snap.Last10s[2] != 0 {
		t.Errorf("last10s[2] = %d, want 0 after eviction", snap.Last10s[2])
	}
	if snap.Last10s[4] != 1 {
		t.Errorf("last10s[4] = %d, want 1", snap.Last10s[4])
	}
	if snap.Last60s[2] != 1 || snap.Last60s[4] != 1 {
		t.Errorf("last60s = %v, want both samples live", snap.Last60s)
	}
}

func TestHistogramDropsBackwardsTimestamps(t *testing.T) {
	h := NewHistogram()
	h.Observe(100, at(1000))
	if h.Observe(100, at(500)) {
		t.Fatalf("backwards timestamp accepted")
	}
	if got := h.Snapshot(at(1000)).Samples(); got != 1 {
		t.Errorf("samples = %d, want 1", got)
	}
}

func TestEngineFeedsHistogram(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	e.RecordKeystroke('a', 'a', at(0))
	e.RecordKeystroke('b', 'b', at(120))
	e.RecordKeystroke('c', 'x', at(240))

	snap := e.LatencyHistogram(at(240))
	// The first keystroke has no latency and the mistyped one never
	// reaches the timing aggregates, so one sample lands in 100-150.
	if snap.Samples() != 1 {
		t.Fatalf("samples = %d, want 1", snap.Samples())
	}
	if snap.Total[2] != 1 {
		t.Errorf("total[2] = %d, want 1", snap.Total[2])
	}
}
