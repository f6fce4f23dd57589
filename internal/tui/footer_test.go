package tui

import (
	"strings"
	"testing"
	"time"

	"typeheat/internal/metrics"
	"typeheat/internal/model"
	"typeheat/internal/quotes"
	"typeheat/internal/session"
)

func testModel(target string) *Model {
	return &Model{
		sess:   session.New(target, session.DefaultOptions()),
		engine: metrics.NewEngine(metrics.DefaultThresholds()),
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := testModel("abcd")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.sess.RecordKey('a', base)
	m.sess.RecordKey('b', base.Add(100*time.Millisecond))
	m.hasLast = true
	m.lastWPM = 72.4
	m.lastAcc = 0.978
	m.allWPM = 68.1
	m.allAcc = 0.969

	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Progress 50%", "Last 72.4 WPM", "97.8%", "All-time 68.1 WPM", "96.9%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterLiveAccuracy(t *testing.T) {
	m := testModel("ab")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.engine.RecordKeystroke('a', 'a', base)
	m.engine.RecordKeystroke('b', 'x', base.Add(100*time.Millisecond))

	out := m.renderFooter()
	if !strings.Contains(out, "Now 50.0%") {
		t.Fatalf("footer should show live accuracy: %s", out)
	}
}

func TestRenderHeatMapShowsBothScales(t *testing.T) {
	m := testModel("cat")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.engine.RecordKeystroke('c', 'c', base)
	m.engine.RecordKeystroke('a', 'a', base.Add(150*time.Millisecond))
	m.engine.RecordKeystroke('t', 't', base.Add(300*time.Millisecond))

	out := m.renderHeatMap()
	if !containsAll(out, []string{"absolute", "relative", "fingers", "rows"}) {
		t.Fatalf("heat map missing sections: %s", out)
	}
}

func TestRenderHistogramShowsDistributions(t *testing.T) {
	m := testModel("cat")
	base := time.Now().Add(-time.Second)
	m.engine.RecordKeystroke('c', 'c', base)
	m.engine.RecordKeystroke('a', 'a', base.Add(120*time.Millisecond))

	out := m.renderHistogram()
	if !containsAll(out, []string{"Latency Distribution (session)", "Latency Distribution (last 10s)", "100-150"}) {
		t.Fatalf("histogram missing sections: %s", out)
	}
}

func TestResetSessionKeepsRollingWindows(t *testing.T) {
	db, err := quotes.LoadEmbedded()
	if err != nil {
		t.Fatalf("load quotes: %v", err)
	}
	m := &Model{
		config: model.Config{FastMs: 100, SlowMs: 300, AdvanceOnError: true},
		db:     db,
		engine: metrics.NewEngine(metrics.DefaultThresholds()),
	}
	m.resetSession()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.engine.RecordKeystroke('a', 'a', base)
	m.engine.RecordKeystroke('b', 'b', base.Add(100*time.Millisecond))

	m.resetSession()

	snap, ok := m.engine.CharSnapshot('b', base.Add(200*time.Millisecond))
	if !ok {
		t.Fatalf("'b' aggregates should survive the quote boundary")
	}
	if !snap.Avg10s.OK || snap.Avg10s.Value != 100 {
		t.Errorf("10s window = %+v, want 100 to persist across quotes", snap.Avg10s)
	}
	if snap.Count != 0 {
		t.Errorf("session count = %d, want 0 after reset", snap.Count)
	}
	if m.engine.Totals().Keystrokes != 0 {
		t.Errorf("session totals should clear at the quote boundary")
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
