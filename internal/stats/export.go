package stats

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"typeheat/internal/metrics"
	"typeheat/internal/model"
)

// BuildKeyStats flattens per-key engine snapshots into plain rows for
// persistence. The engine itself never touches storage.
func BuildKeyStats(e *metrics.Engine, now time.Time) []model.KeyStats {
	chars := e.Chars()
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

	out := make([]model.KeyStats, 0, len(chars))
	for _, r := range chars {
		snap, ok := e.CharSnapshot(r, now)
		if !ok {
			continue
		}
		row := model.KeyStats{
			Key:          string(r),
			Correct:      snap.Count,
			Incorrect:    snap.ErrorCount,
			LatencyCount: int64(snap.Count),
		}
		if snap.AvgSession.OK {
			row.LatencySumMs = snap.AvgSession.Value * float64(snap.Count)
		}
		if snap.Fastest.OK {
			row.MinMs = snap.Fastest.Value
		}
		if snap.Slowest.OK {
			row.MaxMs = snap.Slowest.Value
		}
		if snap.GeoSession.OK {
			row.GeoMeanMs = snap.GeoSession.Value
		}
		out = append(out, row)
	}
	return out
}

type jsonSession struct {
	SessionID int64     `json:"session_id"`
	EndedAt   time.Time `json:"ended_at"`
	WPM       float64   `json:"wpm"`
	Accuracy  float64   `json:"accuracy"`
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
}

type jsonKey struct {
	Key          string  `json:"key"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MinMs        float64 `json:"min_ms"`
	MaxMs        float64 `json:"max_ms"`
}

type jsonReport struct {
	Sessions []jsonSession `json:"sessions"`
	Keys     []jsonKey     `json:"keys"`
}

// ExportJSON writes a report as JSON for external tooling. Historical
// persistence consumes snapshots as plain data only.
func ExportJSON(w io.Writer, report Report) error {
	out := jsonReport{
		Sessions: make([]jsonSession, 0, len(report.Sessions)),
		Keys:     make([]jsonKey, 0, len(report.KeyAggsAll)),
	}
	for _, s := range report.Sessions {
		wpm, _, acc := SessionMetrics(s.Correct, s.Incorrect, s.DurationMs)
		out.Sessions = append(out.Sessions, jsonSession{
			SessionID: s.SessionID,
			EndedAt:   s.EndedAt,
			WPM:       wpm,
			Accuracy:  acc,
			Correct:   s.Correct,
			Incorrect: s.Incorrect,
		})
	}
	aggs := make([]model.KeyAggregate, len(report.KeyAggsAll))
	copy(aggs, report.KeyAggsAll)
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Key < aggs[j].Key })
	for _, agg := range aggs {
		avg := 0.0
		if agg.LatencyCount > 0 {
			avg = agg.LatencySumMs / float64(agg.LatencyCount)
		}
		out.Keys = append(out.Keys, jsonKey{
			Key:          agg.Key,
			Correct:      agg.Correct,
			Incorrect:    agg.Incorrect,
			AvgLatencyMs: avg,
			MinMs:        agg.MinMs,
			MaxMs:        agg.MaxMs,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
