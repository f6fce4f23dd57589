package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"typeheat/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "typeheat.db"))
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

func insertSession(t *testing.T, st *Store, endedAt time.Time, correct int, keys []model.KeyStats) int64 {
	t.Helper()
	id, err := st.InsertSession(context.Background(), model.SessionStats{
		StartedAt:  endedAt.Add(-time.Minute),
		EndedAt:    endedAt,
		QuoteText:  "the quick brown fox",
		Difficulty: "medium",
		Correct:    correct,
		Incorrect:  2,
		SkewDrops:  1,
		DurationMs: 60_000,
	}, keys)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	return id
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)

	first := insertSession(t, st, base, 100, nil)
	second := insertSession(t, st, base.Add(time.Hour), 120, nil)
	if first == second {
		t.Fatalf("session ids collide: %d", first)
	}

	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	if sessions[0].SessionID != first || sessions[1].SessionID != second {
		t.Errorf("sessions out of ended_at order: %d, %d", sessions[0].SessionID, sessions[1].SessionID)
	}
	if !sessions[0].EndedAt.Equal(base) {
		t.Errorf("ended_at = %v, want %v round-tripped", sessions[0].EndedAt, base)
	}
	if sessions[1].Correct != 120 || sessions[1].Incorrect != 2 || sessions[1].DurationMs != 60_000 {
		t.Errorf("aggregate = %+v, want stored counters", sessions[1])
	}
}

func TestListSessionsSinceFilter(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	insertSession(t, st, base, 100, nil)
	late := insertSession(t, st, base.Add(2*time.Hour), 110, nil)

	since := base.Add(time.Hour)
	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != late {
		t.Fatalf("since filter returned %+v, want only session %d", sessions, late)
	}
}

func TestKeyStatsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := insertSession(t, st, base, 100, []model.KeyStats{
		{Key: "a", Correct: 5, Incorrect: 1, LatencySumMs: 500, LatencyCount: 5, MinMs: 80, MaxMs: 140, GeoMeanMs: 98},
		{Key: "b", Correct: 3, Incorrect: 0, LatencySumMs: 600, LatencyCount: 3, MinMs: 150, MaxMs: 260, GeoMeanMs: 195},
	})

	aggs, err := st.ListKeyAggregatesForSessions(context.Background(), []int64{id})
	if err != nil {
		t.Fatalf("list key aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("len(aggs) = %d, want 2", len(aggs))
	}
	byKey := map[string]model.KeyAggregate{}
	for _, agg := range aggs {
		byKey[agg.Key] = agg
	}
	a := byKey["a"]
	if a.Correct != 5 || a.Incorrect != 1 || a.LatencySumMs != 500 || a.LatencyCount != 5 {
		t.Errorf("aggregate a = %+v, want stored values", a)
	}
	if a.MinMs != 80 || a.MaxMs != 140 {
		t.Errorf("aggregate a extremes = (%.0f, %.0f), want (80, 140)", a.MinMs, a.MaxMs)
	}

	perSession, err := st.ListKeyStatsForSessions(context.Background(), []int64{id}, []string{"b"})
	if err != nil {
		t.Fatalf("list key stats: %v", err)
	}
	b, ok := perSession[id]["b"]
	if !ok {
		t.Fatalf("key b missing from per-session stats: %+v", perSession)
	}
	if b.Correct != 3 || b.MinMs != 150 || b.MaxMs != 260 {
		t.Errorf("per-session b = %+v, want stored values", b)
	}
	if got := perSession[id]; len(got) != 1 {
		t.Errorf("unselected keys leaked into result: %+v", got)
	}
}

func TestKeyAggregatesMergeAcrossSessions(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := insertSession(t, st, base, 100, []model.KeyStats{
		{Key: "a", Correct: 2, Incorrect: 1, LatencySumMs: 200, LatencyCount: 2, MinMs: 90, MaxMs: 110, GeoMeanMs: 99},
	})
	second := insertSession(t, st, base.Add(time.Hour), 100, []model.KeyStats{
		{Key: "a", Correct: 4, Incorrect: 0, LatencySumMs: 480, LatencyCount: 4, MinMs: 70, MaxMs: 160, GeoMeanMs: 115},
	})

	aggs, err := st.ListKeyAggregatesForSessions(context.Background(), []int64{first, second})
	if err != nil {
		t.Fatalf("list key aggregates: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("len(aggs) = %d, want 1 merged key", len(aggs))
	}
	a := aggs[0]
	if a.Correct != 6 || a.Incorrect != 1 || a.LatencySumMs != 680 || a.LatencyCount != 6 {
		t.Errorf("merged aggregate = %+v, want summed counters", a)
	}
	if a.MinMs != 70 || a.MaxMs != 160 {
		t.Errorf("merged extremes = (%.0f, %.0f), want (70, 160)", a.MinMs, a.MaxMs)
	}
}

func TestGetWeakKeysWindow(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// Oldest session is the only one mentioning "z"; a window of 2 must
	// skip it.
	insertSession(t, st, base, 100, []model.KeyStats{
		{Key: "z", Correct: 1, Incorrect: 5, LatencySumMs: 400, LatencyCount: 1, MinMs: 400, MaxMs: 400, GeoMeanMs: 400},
	})
	insertSession(t, st, base.Add(time.Hour), 100, []model.KeyStats{
		{Key: "a", Correct: 3, Incorrect: 2, LatencySumMs: 300, LatencyCount: 3, MinMs: 90, MaxMs: 120, GeoMeanMs: 99},
	})
	insertSession(t, st, base.Add(2*time.Hour), 100, []model.KeyStats{
		{Key: "a", Correct: 1, Incorrect: 4, LatencySumMs: 150, LatencyCount: 1, MinMs: 150, MaxMs: 150, GeoMeanMs: 150},
	})

	aggs, err := st.GetWeakKeys(context.Background(), 2)
	if err != nil {
		t.Fatalf("get weak keys: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Key != "a" {
		t.Fatalf("weak keys = %+v, want only key a inside the window", aggs)
	}
	a := aggs[0]
	if a.Correct != 4 || a.Incorrect != 6 || a.LatencyCount != 4 {
		t.Errorf("windowed aggregate = %+v, want counters from the two newest sessions", a)
	}

	if got, err := st.GetWeakKeys(context.Background(), 0); err != nil || got != nil {
		t.Errorf("zero window = (%v, %v), want (nil, nil)", got, err)
	}
}
