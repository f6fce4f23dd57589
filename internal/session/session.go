// Package session validates typed input against a target text and emits
// the keystroke observations that drive the metrics engine.
package session

import "time"

// State is the lifecycle of a typing session.
type State int

const (
	StateEmpty State = iota
	StateTyping
	StateCompleted
)

// Keystroke is the observation emitted for every scored keystroke.
// Deletions are not scored and emit nothing.
type Keystroke struct {
	Expected rune
	Actual   rune
	Correct  bool
	Position int
	At       time.Time
}

// ValidationResult reports whether the typed input is an exact prefix of
// the target. ErrorPos is the first mismatching position, or -1 when OK.
type ValidationResult struct {
	OK       bool
	ErrorPos int
}

// Options tunes session behavior. AdvanceOnError is a named policy rather
// than a hardcoded assumption: when true (forgiving practice mode, the
// default) a mismatch still moves the cursor forward and the error stays
// recorded at that position; when false the cursor blocks until the right
// character is typed.
type Options struct {
	AdvanceOnError bool
}

// DefaultOptions returns the forgiving practice-mode behavior.
func DefaultOptions() Options {
	return Options{AdvanceOnError: true}
}

// Session tracks cursor position and completion for one target text. It is
// the sole writer of its own state; completion is detected here and
// nowhere else.
type Session struct {
	target         []rune
	input          []rune
	cursor         int
	state          State
	startedAt      time.Time
	advanceOnError bool
}

// New starts a session over the target text.
func New(target string, opts Options) *Session {
	return &Session{
		target:         []rune(target),
		advanceOnError: opts.AdvanceOnError,
	}
}

// RecordKey processes one typed character. It returns the scored keystroke
// event, or (zero, false) when nothing was scored: after completion, when
// the cursor is already past the end, or for a backspace (use Backspace).
func (s *Session) RecordKey(r rune, at time.Time) (Keystroke, bool) {
	if s.state == StateCompleted {
		return Keystroke{}, false
	}
	if r == '\b' || r == 0x7f {
		s.Backspace()
		return Keystroke{}, false
	}
	if s.cursor >= len(s.target) {
		return Keystroke{}, false
	}

	if s.state == StateEmpty {
		s.state = StateTyping
		s.startedAt = at
	}

	expected := s.target[s.cursor]
	ev := Keystroke{
		Expected: expected,
		Actual:   r,
		Correct:  r == expected,
		Position: s.cursor,
		At:       at,
	}

	if ev.Correct || s.advanceOnError {
		if s.cursor < len(s.input) {
			s.input[s.cursor] = r
		} else {
			s.input = append(s.input, r)
		}
		s.cursor++
	}

	if s.cursor == len(s.target) && s.Validate().OK {
		s.state = StateCompleted
	}
	return ev, true
}

// Backspace moves the cursor back one position, floored at zero. Deletions
// are not scored, so no keystroke event is emitted and the metrics engine
// never hears about them.
func (s *Session) Backspace() {
	if s.state == StateCompleted || s.cursor == 0 {
		return
	}
	s.cursor--
	s.input = s.input[:s.cursor]
}

// Validate checks the typed input against the target from position zero.
func (s *Session) Validate() ValidationResult {
	for i := 0; i < s.cursor && i < len(s.input); i++ {
		if s.input[i] != s.target[i] {
			return ValidationResult{OK: false, ErrorPos: i}
		}
	}
	return ValidationResult{OK: true, ErrorPos: -1}
}

// IsCompleted reports whether the full target has been typed correctly.
func (s *Session) IsCompleted() bool {
	return s.state == StateCompleted
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Cursor returns the current cursor position.
func (s *Session) Cursor() int {
	return s.cursor
}

// Target returns the target text runes.
func (s *Session) Target() []rune {
	return s.target
}

// Input returns the typed runes up to the cursor.
func (s *Session) Input() []rune {
	return s.input
}

// StartedAt returns the time of the first scored keystroke. The zero time
// means typing has not started.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}
