// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"typeheat/internal/metrics"
	"typeheat/internal/model"
	"typeheat/internal/quotes"
	"typeheat/internal/session"
	statsPkg "typeheat/internal/stats"
	"typeheat/internal/store"
)

// Model implements the Bubble Tea practice UI. The session state machine
// and the metrics engine do the real work; the model only routes key
// events and renders their snapshots.
type Model struct {
	config  model.Config
	store   *store.Store
	db      *quotes.DB
	logger  zerolog.Logger
	weakSet map[rune]struct{}

	width  int
	height int

	quote   quotes.Quote
	sess    *session.Session
	engine   *metrics.Engine
	showMap  bool
	showHist bool

	lastWPM float64
	lastAcc float64
	hasLast bool

	allWPM       float64
	allAcc       float64
	allCorrect   int
	allIncorrect int
	allDuration  int64
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Copy().Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	authorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Italic(true)
)

// NewModel constructs a practice TUI model.
func NewModel(cfg model.Config, st *store.Store, db *quotes.DB, weakSet map[rune]struct{}, logger zerolog.Logger) *Model {
	m := &Model{
		config:  cfg,
		store:   st,
		db:      db,
		logger:  logger,
		weakSet: weakSet,
		showMap: true,
		engine: metrics.NewEngine(metrics.Thresholds{
			FastMs: cfg.FastMs,
			SlowMs: cfg.SlowMs,
		}),
	}
	m.resetSession()
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.showMap = !m.showMap
			return m, nil
		case tea.KeyCtrlG:
			m.showHist = !m.showHist
			return m, nil
		case tea.KeyEnter:
			// Typing a period and then Enter ends the run early, saving
			// whatever was typed so far.
			input := m.sess.Input()
			if len(input) > 0 && input[len(input)-1] == '.' {
				m.finishSession()
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyBackspace, tea.KeyDelete:
			m.sess.Backspace()
			return m, nil
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	target := m.sess.Target()
	if len(target) == 0 {
		return ""
	}
	cursorIndex := -1
	if m.sess.Cursor() < len(target) {
		cursorIndex = m.sess.Cursor()
	}
	styledRunes := buildStyledRunes(target, m.sess.Input(), cursorIndex)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	text := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	if m.quote.Author != "" {
		text += "\n" + authorStyle.Render("— "+m.quote.Author)
	}

	sections := []string{text}
	if m.showMap {
		if heat := m.renderHeatMap(); heat != "" {
			sections = append(sections, heat)
		}
	}
	if m.showHist {
		if hist := m.renderHistogram(); hist != "" {
			sections = append(sections, hist)
		}
	}
	content := strings.Join(sections, "\n\n")

	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) handleRunes(runes []rune) {
	now := time.Now()
	for _, r := range runes {
		ev, ok := m.sess.RecordKey(r, now)
		if !ok {
			continue
		}
		if _, accepted := m.engine.RecordKeystroke(ev.Expected, ev.Actual, ev.At); !accepted {
			m.logger.Warn().
				Time("at", ev.At).
				Str("key", string(ev.Expected)).
				Msg("dropped keystroke with non-monotonic timestamp")
		}
		if m.sess.IsCompleted() {
			m.finishSession()
			m.resetSession()
			return
		}
	}
}

func (m *Model) loadFooterStats() {
	ctx := context.Background()
	sessions, err := m.store.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to load session stats")
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	wpm, _, acc := statsPkg.SessionMetrics(last.Correct, last.Incorrect, last.DurationMs)
	m.lastWPM = wpm
	m.lastAcc = acc
	m.hasLast = true

	for _, s := range sessions {
		m.allCorrect += s.Correct
		m.allIncorrect += s.Incorrect
		m.allDuration += s.DurationMs
	}
	m.recomputeAllTime()
}

func (m *Model) recomputeAllTime() {
	wpm, _, acc := statsPkg.SessionMetrics(m.allCorrect, m.allIncorrect, m.allDuration)
	m.allWPM = wpm
	m.allAcc = acc
}

func (m *Model) renderFooter() string {
	target := m.sess.Target()
	if len(target) == 0 {
		return ""
	}
	progress := int(float64(m.sess.Cursor()) / float64(len(target)) * 100)
	segments := []string{fmt.Sprintf("Progress %d%%", progress)}
	totals := m.engine.Totals()
	if totals.Keystrokes > 0 {
		live := float64(totals.Correct) / float64(totals.Keystrokes) * 100
		segments = append(segments, fmt.Sprintf("Now %.1f%%", live))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc*100))
	}
	segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", m.allWPM, m.allAcc*100))
	footer := strings.Join(segments, "  ")
	return footerStyle.Render(footer)
}

// resetSession starts the next quote. Session accumulators clear but the
// engine and its rolling windows live as long as the model, so the heat
// map keeps its recent history across quote boundaries.
func (m *Model) resetSession() {
	opts := session.Options{AdvanceOnError: m.config.AdvanceOnError}
	m.quote = m.pickQuote()
	m.sess = session.New(m.quote.Text, opts)
	m.engine.ResetSession()
}

func (m *Model) pickQuote() quotes.Quote {
	d := quotes.Difficulty(m.config.Difficulty)
	if m.config.FocusWeak && len(m.weakSet) > 0 {
		return m.db.PickWeighted(d, m.weakSet, weakBiasFactor)
	}
	return m.db.Pick(d)
}

// weakBiasFactor controls how strongly quote picking prefers texts that
// exercise the weakest keys.
const weakBiasFactor = 2.0

func (m *Model) finishSession() {
	totals := m.engine.Totals()
	if totals.Keystrokes == 0 {
		return
	}
	endedAt := time.Now()
	startedAt := m.sess.StartedAt()
	stats := model.SessionStats{
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		QuoteText:  m.quote.Text,
		Difficulty: string(m.quote.Difficulty),
		Correct:    totals.Correct,
		Incorrect:  totals.Errors,
		SkewDrops:  totals.SkewDrops,
		DurationMs: endedAt.Sub(startedAt).Milliseconds(),
	}
	keyStats := statsPkg.BuildKeyStats(m.engine, endedAt)

	ctx := context.Background()
	if _, err := m.store.InsertSession(ctx, stats, keyStats); err != nil {
		m.logger.Error().Err(err).Msg("failed to save session")
	}
	if totals.SkewDrops > 0 {
		m.logger.Info().Int("dropped", totals.SkewDrops).Msg("session had clock-skew drops")
	}
	wpm, _, acc := statsPkg.SessionMetrics(stats.Correct, stats.Incorrect, stats.DurationMs)
	m.lastWPM = wpm
	m.lastAcc = acc
	m.hasLast = true
	m.allCorrect += stats.Correct
	m.allIncorrect += stats.Incorrect
	m.allDuration += stats.DurationMs
	m.recomputeAllTime()

	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) refreshWeakSet() {
	ctx := context.Background()
	aggs, err := m.store.GetWeakKeys(ctx, m.config.WeakWindow)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to load weak keys")
		return
	}
	if len(aggs) == 0 {
		m.weakSet = map[rune]struct{}{}
		return
	}
	m.weakSet = statsPkg.SelectWeakKeys(aggs, m.config.WeakTop)
}
