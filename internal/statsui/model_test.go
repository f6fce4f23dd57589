package statsui

import (
	"testing"

	"typeheat/internal/model"
)

func TestMergeAggregate(t *testing.T) {
	a := model.KeyAggregate{Key: "a", Correct: 5, Incorrect: 1, LatencySumMs: 500, LatencyCount: 5, MinMs: 90, MaxMs: 200}
	b := model.KeyAggregate{Key: "s", Correct: 3, Incorrect: 2, LatencySumMs: 450, LatencyCount: 3, MinMs: 70, MaxMs: 180}

	merged := mergeAggregate(model.KeyAggregate{}, a)
	merged = mergeAggregate(merged, b)

	if merged.Correct != 8 || merged.Incorrect != 3 {
		t.Errorf("counts = %d/%d, want 8/3", merged.Correct, merged.Incorrect)
	}
	if merged.LatencySumMs != 950 || merged.LatencyCount != 8 {
		t.Errorf("latency = %v/%d, want 950/8", merged.LatencySumMs, merged.LatencyCount)
	}
	if merged.MinMs != 70 {
		t.Errorf("min = %v, want 70", merged.MinMs)
	}
	if merged.MaxMs != 200 {
		t.Errorf("max = %v, want 200", merged.MaxMs)
	}
}

func TestParseKeys(t *testing.T) {
	if got := parseKeys("abc"); len(got) != 3 || got[0] != "a" {
		t.Fatalf("bare input should split per rune, got %v", got)
	}
	if got := parseKeys("a, b,,c "); len(got) != 3 || got[2] != "c" {
		t.Fatalf("comma input should split on commas, got %v", got)
	}
	if got := parseKeys("  "); got != nil {
		t.Fatalf("blank input should yield nil, got %v", got)
	}
}

func TestCurveWindowStepping(t *testing.T) {
	if got := nextCurveWindow(1); got != 5 {
		t.Errorf("next(1) = %d, want 5", got)
	}
	if got := nextCurveWindow(5); got != 10 {
		t.Errorf("next(5) = %d, want 10", got)
	}
	if got := nextCurveWindow(7); got != 10 {
		t.Errorf("next(7) = %d, want 10", got)
	}
	if got := prevCurveWindow(5); got != 1 {
		t.Errorf("prev(5) = %d, want 1", got)
	}
	if got := prevCurveWindow(12); got != 10 {
		t.Errorf("prev(12) = %d, want 10", got)
	}
}
