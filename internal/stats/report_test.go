package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"typeheat/internal/model"
	"typeheat/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "typeheat.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

func insertTestSession(t *testing.T, st *store.Store, endedAt time.Time, correct int, keys []model.KeyStats) int64 {
	t.Helper()
	id, err := st.InsertSession(context.Background(), model.SessionStats{
		StartedAt:  endedAt.Add(-time.Minute),
		EndedAt:    endedAt,
		QuoteText:  "the quick brown fox",
		Difficulty: "easy",
		Correct:    correct,
		Incorrect:  2,
		DurationMs: 60_000,
	}, keys)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	return id
}

func TestBuildReport(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	keys := []model.KeyStats{
		{Key: "a", Correct: 10, Incorrect: 1, LatencySumMs: 1200, LatencyCount: 10, MinMs: 90, MaxMs: 180, GeoMeanMs: 115},
		{Key: "t", Correct: 8, Incorrect: 3, LatencySumMs: 1600, LatencyCount: 8, MinMs: 110, MaxMs: 260, GeoMeanMs: 190},
	}
	for i := 0; i < 4; i++ {
		insertTestSession(t, st, base.Add(time.Duration(i)*time.Hour), 50+i, keys)
	}

	report, err := BuildReport(context.Background(), st, model.StatsConfig{CurveWindow: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 4 {
		t.Fatalf("got %d sessions, want 4", len(report.Sessions))
	}
	if len(report.WindowSessionIDs) != 2 {
		t.Fatalf("got %d window sessions, want 2", len(report.WindowSessionIDs))
	}
	// Sessions are ordered oldest first; the window covers the newest two.
	if report.WindowSessionIDs[0] != report.Sessions[2].SessionID {
		t.Errorf("window should start at the third session")
	}
	if len(report.KeyAggsAll) != 2 {
		t.Fatalf("got %d key aggregates, want 2", len(report.KeyAggsAll))
	}
	for _, agg := range report.KeyAggsAll {
		if agg.Key == "a" && agg.Correct != 40 {
			t.Errorf("key a correct = %d, want 40 across 4 sessions", agg.Correct)
		}
	}
	for _, agg := range report.KeyAggsWindow {
		if agg.Key == "a" && agg.Correct != 20 {
			t.Errorf("windowed key a correct = %d, want 20 across 2 sessions", agg.Correct)
		}
	}
}

func TestBuildReportFilters(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertTestSession(t, st, base.Add(time.Duration(i)*time.Hour), 40, nil)
	}

	since := base.Add(90 * time.Minute)
	report, err := BuildReport(context.Background(), st, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 3 {
		t.Fatalf("since filter kept %d sessions, want 3", len(report.Sessions))
	}

	report, err = BuildReport(context.Background(), st, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("last filter kept %d sessions, want 2", len(report.Sessions))
	}
	if !report.Sessions[1].EndedAt.After(report.Sessions[0].EndedAt) {
		t.Errorf("sessions should stay in chronological order")
	}
}

func TestGetWeakKeysAggregation(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	insertTestSession(t, st, base, 30, []model.KeyStats{
		{Key: "q", Correct: 2, Incorrect: 6, LatencySumMs: 800, LatencyCount: 2, MinMs: 300, MaxMs: 500, GeoMeanMs: 390},
	})
	insertTestSession(t, st, base.Add(time.Hour), 30, []model.KeyStats{
		{Key: "q", Correct: 3, Incorrect: 4, LatencySumMs: 900, LatencyCount: 3, MinMs: 250, MaxMs: 450, GeoMeanMs: 290},
	})

	aggs, err := st.GetWeakKeys(context.Background(), 5)
	if err != nil {
		t.Fatalf("get weak keys: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("got %d aggregates, want 1", len(aggs))
	}
	agg := aggs[0]
	if agg.Correct != 5 || agg.Incorrect != 10 {
		t.Errorf("counts = %d/%d, want 5/10", agg.Correct, agg.Incorrect)
	}
	if agg.MinMs != 250 || agg.MaxMs != 500 {
		t.Errorf("min/max = %v/%v, want 250/500", agg.MinMs, agg.MaxMs)
	}

	weak := SelectWeakKeys(aggs, 3)
	if _, ok := weak['q']; !ok {
		t.Errorf("q should be selected as a weak key")
	}
}
