package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"typeheat/internal/layout"
	"typeheat/internal/metrics"
	"typeheat/internal/stats"
)

var (
	coldKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	heatLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	barFillStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
)

// renderHeatMap draws the keyboard twice, absolute coloring over fixed
// latency breakpoints on top and relative coloring over the normalized
// heat scale below, followed by finger and row latency bars.
func (m *Model) renderHeatMap() string {
	now := time.Now()
	heat := m.engine.HeatMap(now)

	var b strings.Builder
	b.WriteString(heatLabelStyle.Render("absolute"))
	b.WriteString("\n")
	b.WriteString(renderKeyboard(heat, false))
	b.WriteString("\n")
	b.WriteString(heatLabelStyle.Render("relative"))
	b.WriteString("\n")
	b.WriteString(renderKeyboard(heat, true))

	if bars := m.renderPerformanceBars(now); bars != "" {
		b.WriteString("\n\n")
		b.WriteString(bars)
	}
	return b.String()
}

func renderKeyboard(heat map[rune]metrics.KeyHeat, relative bool) string {
	rows := layout.PhysicalRows()
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		line.WriteString(strings.Repeat(" ", row.Indent))
		for _, r := range row.Keys {
			line.WriteString(renderKeyCell(r, heat, relative))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func renderKeyCell(r rune, heat map[rune]metrics.KeyHeat, relative bool) string {
	label := string(r)
	if r == ' ' {
		label = "space"
	}
	h, ok := heat[r]
	if !ok {
		return coldKeyStyle.Render(" " + label + " ")
	}
	pair := h.Absolute
	if relative {
		pair = h.Relative
	}
	style := lipgloss.NewStyle().
		Background(pair.Background).
		Foreground(pair.Foreground)
	return style.Render(" " + label + " ")
}

const barWidth = 20

// renderPerformanceBars draws average-latency bars per finger and per row,
// scaled against the slow threshold.
func (m *Model) renderPerformanceBars(now time.Time) string {
	slowMs := m.engine.Thresholds().SlowMs
	var b strings.Builder

	fingers := m.engine.FingerPerformance(now)
	wrote := false
	for _, f := range layout.Fingers() {
		snap, ok := fingers[f]
		if !ok || !snap.AvgSession.OK {
			continue
		}
		if !wrote {
			b.WriteString(heatLabelStyle.Render("fingers"))
			b.WriteString("\n")
			wrote = true
		}
		b.WriteString(renderBar(f.String(), snap.AvgSession.Value, slowMs))
		b.WriteString("\n")
	}

	rows := m.engine.RowPerformance(now)
	wroteRows := false
	for _, r := range layout.Rows() {
		snap, ok := rows[r]
		if !ok || !snap.AvgSession.OK {
			continue
		}
		if !wroteRows {
			if wrote {
				b.WriteString("\n")
			}
			b.WriteString(heatLabelStyle.Render("rows"))
			b.WriteString("\n")
			wroteRows = true
		}
		b.WriteString(renderBar(r.String(), snap.AvgSession.Value, slowMs))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderHistogram draws the bucketed latency distributions, session-wide
// and rolling 10s, as horizontal count bars.
func (m *Model) renderHistogram() string {
	snap := m.engine.LatencyHistogram(time.Now())
	var b strings.Builder
	if err := stats.RenderLatencyHistogram(&b, snap); err != nil {
		return ""
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBar(name string, latencyMs, slowMs float64) string {
	frac := latencyMs / slowMs
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * barWidth)
	bar := barFillStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%-13s %s %.0fms", name, bar, latencyMs)
}
