package stats

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"typeheat/internal/metrics"
	"typeheat/internal/model"
)

func TestBuildKeyStats(t *testing.T) {
	e := metrics.NewEngine(metrics.DefaultThresholds())
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e.RecordKeystroke('a', 'a', base)
	e.RecordKeystroke('b', 'b', base.Add(100*time.Millisecond))
	e.RecordKeystroke('a', 'a', base.Add(300*time.Millisecond))
	e.RecordKeystroke('b', 'x', base.Add(400*time.Millisecond))

	rows := BuildKeyStats(e, base.Add(time.Second))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Rows come out sorted by key.
	a, b := rows[0], rows[1]
	if a.Key != "a" || b.Key != "b" {
		t.Fatalf("row order = %q, %q, want a, b", a.Key, b.Key)
	}
	// The session's first keystroke has no latency and is never scored.
	if a.Correct != 1 || a.Incorrect != 0 {
		t.Errorf("a counts = %d/%d, want 1/0", a.Correct, a.Incorrect)
	}
	if b.Correct != 1 || b.Incorrect != 1 {
		t.Errorf("b counts = %d/%d, want 1/1", b.Correct, b.Incorrect)
	}
	// a got one measured latency of 200ms; the first keystroke has none.
	if a.MinMs != 200 || a.MaxMs != 200 {
		t.Errorf("a min/max = %v/%v, want 200/200", a.MinMs, a.MaxMs)
	}
	if b.MinMs != 100 || b.MaxMs != 100 {
		t.Errorf("b min/max = %v/%v, want 100/100", b.MinMs, b.MaxMs)
	}
}

func TestExportJSON(t *testing.T) {
	report := Report{
		Sessions: []model.SessionAggregate{
			{SessionID: 1, EndedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), Correct: 50, Incorrect: 5, DurationMs: 60_000},
		},
		KeyAggsAll: []model.KeyAggregate{
			{Key: "t", Correct: 9, Incorrect: 1, LatencySumMs: 900, LatencyCount: 9, MinMs: 80, MaxMs: 130},
			{Key: "a", Correct: 5, Incorrect: 0, LatencySumMs: 600, LatencyCount: 5, MinMs: 100, MaxMs: 150},
		},
	}
	var buf bytes.Buffer
	if err := ExportJSON(&buf, report); err != nil {
		t.Fatalf("export json: %v", err)
	}
	var decoded struct {
		Sessions []struct {
			SessionID int64   `json:"session_id"`
			WPM       float64 `json:"wpm"`
		} `json:"sessions"`
		Keys []struct {
			Key          string  `json:"key"`
			AvgLatencyMs float64 `json:"avg_latency_ms"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(decoded.Sessions) != 1 || decoded.Sessions[0].WPM != 10 {
		t.Fatalf("session wpm = %+v, want 10", decoded.Sessions)
	}
	if len(decoded.Keys) != 2 || decoded.Keys[0].Key != "a" {
		t.Fatalf("keys should be sorted by key, got %+v", decoded.Keys)
	}
	if decoded.Keys[1].AvgLatencyMs != 100 {
		t.Errorf("avg latency for t = %v, want 100", decoded.Keys[1].AvgLatencyMs)
	}
}

func TestTopKeysByFrequency(t *testing.T) {
	aggs := []model.KeyAggregate{
		{Key: "a", Correct: 10, Incorrect: 2},
		{Key: "b", Correct: 5, Incorrect: 1},
		{Key: "c", Correct: 20, Incorrect: 0},
	}
	got := TopKeysByFrequency(aggs, 2)
	if len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Fatalf("top keys = %v, want [c a]", got)
	}
	if got := TopKeysByFrequency(aggs, 0); got != nil {
		t.Fatalf("n=0 should return nil, got %v", got)
	}
}
