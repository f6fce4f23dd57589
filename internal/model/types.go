// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Difficulty     string
	QuotesPath     string
	FastMs         float64
	SlowMs         float64
	AdvanceOnError bool
	FocusWeak      bool
	WeakTop        int
	WeakWindow     int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
	Keys        string
}

// SessionStats captures a completed typing session.
type SessionStats struct {
	StartedAt  time.Time
	EndedAt    time.Time
	QuoteText  string
	Difficulty string
	Correct    int
	Incorrect  int
	SkewDrops  int
	DurationMs int64
}

// KeyStats stores per-key stats for a session, as plain data derived from
// an engine snapshot.
type KeyStats struct {
	Key          string
	Correct      int
	Incorrect    int
	LatencySumMs float64
	LatencyCount int64
	MinMs        float64
	MaxMs        float64
	GeoMeanMs    float64
}

// KeyAggregate aggregates key stats across sessions.
type KeyAggregate struct {
	Key          string
	Correct      int
	Incorrect    int
	LatencySumMs float64
	LatencyCount int64
	MinMs        float64
	MaxMs        float64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Correct    int
	Incorrect  int
	DurationMs int64
}
