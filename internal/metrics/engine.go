package metrics

import (
	"time"

	"typeheat/internal/layout"
	"typeheat/internal/spectrum"
)

// Thresholds are the fixed millisecond breakpoints of the absolute heat
// spectrum. They come from configuration rather than compile-time
// constants so consumers can tune the color scale.
type Thresholds struct {
	FastMs float64
	SlowMs float64
}

// DefaultThresholds returns the standard breakpoints: at or under 100ms is
// fastest, at or over 300ms is slowest.
func DefaultThresholds() Thresholds {
	return Thresholds{FastMs: 100, SlowMs: 300}
}

// Keystroke is one processed keystroke observation. LatencyOK is false on
// the first keystroke of a session, which has no inter-key delta.
type Keystroke struct {
	Expected  rune
	Actual    rune
	Correct   bool
	At        time.Time
	LatencyMs float64
	LatencyOK bool
	Finger    layout.Finger
	Row       layout.Row
}

// KeyHeat is the dual heat reading for one key: the normalized 0-100 value
// plus colors on both the absolute and the relative spectrum.
type KeyHeat struct {
	Value     float64
	LatencyMs float64
	Absolute  spectrum.ColorPair
	Relative  spectrum.ColorPair
}

// Totals are the session-wide counters the engine keeps alongside the
// per-entity aggregates.
type Totals struct {
	Keystrokes int
	Correct    int
	Errors     int
	SkewDrops  int
	StartedAt  time.Time
}

// Engine owns every KeyStat for its lifetime. One explicitly constructed
// instance is passed around by the application root; there is no ambient
// singleton. All methods are synchronous and expect a single caller.
type Engine struct {
	thresholds Thresholds
	absolute   spectrum.Spectrum
	relative   spectrum.Spectrum

	chars   map[rune]*KeyStat
	fingers map[layout.Finger]*KeyStat
	rows    map[layout.Row]*KeyStat
	hist    *Histogram

	lastAt time.Time
	hasKey bool
	totals Totals
}

// NewEngine returns an engine with empty aggregates.
func NewEngine(t Thresholds) *Engine {
	return &Engine{
		thresholds: t,
		absolute:   spectrum.Absolute(t.FastMs, t.SlowMs),
		relative:   spectrum.Relative(),
		chars:      map[rune]*KeyStat{},
		fingers:    map[layout.Finger]*KeyStat{},
		rows:       map[layout.Row]*KeyStat{},
		hist:       NewHistogram(),
	}
}

// Thresholds returns the configured absolute breakpoints.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// RecordKeystroke folds one observation into the aggregates. The latency is
// the delta from the previous accepted keystroke in this session, so the
// first keystroke carries none. Each keystroke fans out to exactly three
// aggregates: the expected character, its finger, and its row; characters
// outside the layout table land in the sentinel "other" buckets.
//
// A keystroke with a timestamp behind the previous one is dropped and
// reported as (zero, false); the caller may log it as a data-quality event.
func (e *Engine) RecordKeystroke(expected, actual rune, at time.Time) (Keystroke, bool) {
	if e.hasKey && at.Before(e.lastAt) {
		e.totals.SkewDrops++
		return Keystroke{}, false
	}

	ev := Keystroke{
		Expected: expected,
		Actual:   actual,
		Correct:  expected == actual,
		At:       at,
	}
	ev.Finger, ev.Row = layout.Lookup(expected)

	if e.hasKey {
		ev.LatencyMs = float64(at.Sub(e.lastAt)) / float64(time.Millisecond)
		ev.LatencyOK = true
	} else {
		e.totals.StartedAt = at
	}
	e.lastAt = at
	e.hasKey = true

	e.totals.Keystrokes++
	if ev.Correct {
		e.totals.Correct++
	} else {
		e.totals.Errors++
	}

	// Incorrect keystrokes and the latency-less first keystroke only touch
	// the error counters, never the timing aggregates.
	for _, stat := range e.statsFor(ev) {
		if ev.Correct && !ev.LatencyOK {
			continue
		}
		stat.Record(ev.LatencyMs, ev.Correct, at)
	}
	if ev.Correct && ev.LatencyOK {
		e.hist.Observe(ev.LatencyMs, at)
	}
	return ev, true
}

func (e *Engine) statsFor(ev Keystroke) []*KeyStat {
	char, ok := e.chars[ev.Expected]
	if !ok {
		char = NewKeyStat()
		e.chars[ev.Expected] = char
	}
	finger, ok := e.fingers[ev.Finger]
	if !ok {
		finger = NewKeyStat()
		e.fingers[ev.Finger] = finger
	}
	row, ok := e.rows[ev.Row]
	if !ok {
		row = NewKeyStat()
		e.rows[ev.Row] = row
	}
	return []*KeyStat{char, finger, row}
}

// HeatMap returns the dual heat reading for every character with timing
// data. It is read-only and idempotent: without new keystrokes and for a
// fixed now, repeated calls return identical output.
func (e *Engine) HeatMap(now time.Time) map[rune]KeyHeat {
	out := map[rune]KeyHeat{}
	for r, stat := range e.chars {
		snap := stat.Snapshot(now)
		latency, ok := heatBasis(snap)
		if !ok {
			continue
		}
		value := spectrum.HeatValue(latency, e.thresholds.FastMs, e.thresholds.SlowMs)
		out[r] = KeyHeat{
			Value:     value,
			LatencyMs: latency,
			Absolute:  e.absolute.Map(latency),
			Relative:  e.relative.Map(value),
		}
	}
	return out
}

// heatBasis picks the latency a key is colored by: the 10s rolling mean
// when fresh samples exist, then the 60s mean, then the session average.
func heatBasis(snap Snapshot) (float64, bool) {
	if snap.Avg10s.OK {
		return snap.Avg10s.Value, true
	}
	if snap.Avg60s.OK {
		return snap.Avg60s.Value, true
	}
	if snap.AvgSession.OK {
		return snap.AvgSession.Value, true
	}
	return 0, false
}

// CharSnapshot returns the aggregate view for one character.
func (e *Engine) CharSnapshot(r rune, now time.Time) (Snapshot, bool) {
	stat, ok := e.chars[r]
	if !ok {
		return Snapshot{}, false
	}
	return stat.Snapshot(now), true
}

// Chars returns the characters with any recorded activity.
func (e *Engine) Chars() []rune {
	out := make([]rune, 0, len(e.chars))
	for r := range e.chars {
		out = append(out, r)
	}
	return out
}

// FingerPerformance returns a snapshot per finger with recorded activity.
func (e *Engine) FingerPerformance(now time.Time) map[layout.Finger]Snapshot {
	out := map[layout.Finger]Snapshot{}
	for f, stat := range e.fingers {
		out[f] = stat.Snapshot(now)
	}
	return out
}

// RowPerformance returns a snapshot per keyboard row with recorded activity.
func (e *Engine) RowPerformance(now time.Time) map[layout.Row]Snapshot {
	out := map[layout.Row]Snapshot{}
	for r, stat := range e.rows {
		out[r] = stat.Snapshot(now)
	}
	return out
}

// LatencyHistogram returns the bucketed latency distributions as of now.
func (e *Engine) LatencyHistogram(now time.Time) HistogramSnapshot {
	return e.hist.Snapshot(now)
}

// Totals returns the session-wide counters.
func (e *Engine) Totals() Totals {
	return e.totals
}

// ResetSession clears session scalars, error counters, and the inter-key
// watermark. Rolling windows persist across quote boundaries within one
// running process; ResetWindows clears those separately.
func (e *Engine) ResetSession() {
	for _, stat := range e.chars {
		stat.ResetSession()
	}
	for _, stat := range e.fingers {
		stat.ResetSession()
	}
	for _, stat := range e.rows {
		stat.ResetSession()
	}
	e.hist.ResetSession()
	e.lastAt = time.Time{}
	e.hasKey = false
	e.totals = Totals{}
}

// ResetWindows clears every rolling window.
func (e *Engine) ResetWindows() {
	for _, stat := range e.chars {
		stat.ResetWindows()
	}
	for _, stat := range e.fingers {
		stat.ResetWindows()
	}
	for _, stat := range e.rows {
		stat.ResetWindows()
	}
	e.hist.ResetWindows()
}
