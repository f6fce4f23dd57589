package metrics

import (
	"math"
	"testing"
	"time"
)

var epoch = time.Unix(0, 0)

func at(ms int64) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func TestKeyStatSingleSample(t *testing.T) {
	k := NewKeyStat()
	if !k.Record(120, true, at(0)) {
		t.Fatalf("record rejected")
	}
	snap := k.Snapshot(at(0))
	for name, m := range map[string]Metric{
		"current":     snap.Current,
		"avg10s":      snap.Avg10s,
		"avg60s":      snap.Avg60s,
		"avg session": snap.AvgSession,
		"fastest":     snap.Fastest,
		"slowest":     snap.Slowest,
	} {
		if !m.OK || m.Value != 120 {
			t.Errorf("%s = %+v, want 120 after a single sample", name, m)
		}
	}
	if snap.Count != 1 || snap.ErrorCount != 0 {
		t.Errorf("counts = (%d, %d), want (1, 0)", snap.Count, snap.ErrorCount)
	}
}

func TestKeyStatConstantLatency(t *testing.T) {
	k := NewKeyStat()
	for i := int64(0); i < 5; i++ {
		k.Record(80, true, at(i*100))
	}
	snap := k.Snapshot(at(400))
	if !snap.Current.OK || snap.Current.Value != 80 {
		t.Errorf("current = %+v, want 80", snap.Current)
	}
	for name, m := range map[string]Metric{
		"avg10s": snap.Avg10s, "avg60s": snap.Avg60s, "fastest": snap.Fastest, "slowest": snap.Slowest,
	} {
		if !m.OK || m.Value != 80 {
			t.Errorf("%s = %+v, want 80 for constant latency", name, m)
		}
	}
}

func TestKeyStatIncorrectDoesNotTouchTiming(t *testing.T) {
	k := NewKeyStat()
	k.Record(100, true, at(0))
	before := k.Snapshot(at(0))

	k.Record(999, false, at(50))
	after := k.Snapshot(at(50))

	if after.Avg10s != before.Avg10s || after.Avg60s != before.Avg60s {
		t.Errorf("window averages changed after incorrect keystroke")
	}
	if after.Fastest != before.Fastest || after.Slowest != before.Slowest {
		t.Errorf("min/max changed after incorrect keystroke")
	}
	if after.ErrorCount != 1 {
		t.Errorf("error count = %d, want 1", after.ErrorCount)
	}
	if after.Count != before.Count {
		t.Errorf("correct count changed after incorrect keystroke")
	}
}

func TestKeyStatGeometricMean(t *testing.T) {
	k := NewKeyStat()
	for i, v := range []float64{100, 200, 400} {
		k.Record(v, true, at(int64(i)*100))
	}
	snap := k.Snapshot(at(300))
	if !snap.GeoSession.OK || math.Abs(snap.GeoSession.Value-200) > 1e-9 {
		t.Errorf("session geomean = %+v, want 200", snap.GeoSession)
	}
	if !snap.AvgSession.OK || math.Abs(snap.AvgSession.Value-700.0/3.0) > 1e-9 {
		t.Errorf("session mean = %+v, want 700/3", snap.AvgSession)
	}
}

func TestKeyStatWindowExpiry(t *testing.T) {
	k := NewKeyStat()
	k.Record(300, true, at(0))
	k.Record(100, true, at(15_000))

	snap := k.Snapshot(at(15_000))
	if !snap.Avg10s.OK || snap.Avg10s.Value != 100 {
		t.Errorf("avg10s = %+v, want only the fresh sample", snap.Avg10s)
	}
	if !snap.Avg60s.OK || snap.Avg60s.Value != 200 {
		t.Errorf("avg60s = %+v, want 200 over both samples", snap.Avg60s)
	}
	if !snap.AvgSession.OK || snap.AvgSession.Value != 200 {
		t.Errorf("session avg = %+v, want 200", snap.AvgSession)
	}
}

func TestKeyStatResetSessionKeepsWindows(t *testing.T) {
	k := NewKeyStat()
	k.Record(150, true, at(0))
	k.Record(999, false, at(10))
	k.ResetSession()

	snap := k.Snapshot(at(20))
	if snap.Current.OK || snap.AvgSession.OK || snap.Fastest.OK {
		t.Errorf("session scalars should be cleared: %+v", snap)
	}
	if snap.ErrorCount != 0 {
		t.Errorf("error count should be cleared, got %d", snap.ErrorCount)
	}
	if !snap.Avg10s.OK || snap.Avg10s.Value != 150 {
		t.Errorf("rolling window should survive session reset, got %+v", snap.Avg10s)
	}

	k.ResetWindows()
	snap = k.Snapshot(at(20))
	if snap.Avg10s.OK || snap.Avg60s.OK {
		t.Errorf("windows should be empty after ResetWindows: %+v", snap)
	}
}
