// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"typeheat/internal/layout"
	"typeheat/internal/model"
	"typeheat/internal/spectrum"
	"typeheat/internal/stats"
	"typeheat/internal/store"
)

const (
	tabOverview = iota
	tabKeyTable
	tabKeyCurves
	tabFingersRows
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Model implements the Bubble Tea stats UI. Per-key rows carry swatches
// from the absolute latency spectrum so the historical view matches the
// live heat map's color scale.
type Model struct {
	store    *store.Store
	cfg      model.StatsConfig
	absolute spectrum.Spectrum

	report    stats.Report
	errMsg    string
	keyErrMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	keyTable  table.Model
	keyLayout tableLayout

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	keySelection       []string
	keySelectionCustom bool
	keyPerSession      map[int64]map[string]model.KeyAggregate

	keyInputMode  bool
	keyInput      textinput.Model
	keyInputError string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
	colCount int
}

// NewModel constructs a stats UI model. The absolute spectrum uses the
// same latency breakpoints as the practice heat map.
func NewModel(st *store.Store, cfg model.StatsConfig, absolute spectrum.Spectrum) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		absolute: absolute,
		tabs:     []string{"Overview", "Keys", "Key Curves", "Fingers & Rows"},
	}
	m.keySelection = parseKeys(cfg.Keys)
	if len(m.keySelection) > 0 {
		m.keySelectionCustom = true
	}
	m.initInputs()
	m.initKeyInput()
	m.initKeyTable()
	m.initViewports()
	m.refreshReport()
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabKeyTable {
			m.keyTable.Focus()
		} else {
			m.keyTable.Blur()
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.keyInputMode {
			return m.updateKeyInput(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			m.updateLayout()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			m.updateLayout()
			return m, nil
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabKeyCurves {
				return m.startKeyInput()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabKeyTable {
				m.keyTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabKeyTable {
				m.keyTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabKeyTable {
				var cmd tea.Cmd
				m.keyTable, cmd = m.keyTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.keyInputMode {
		return fitLines(m.renderKeyModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func (m *Model) initKeyTable() {
	m.keyTable = table.New(table.WithHeight(1))
	m.keyTable.SetStyles(keyTableStyles())
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) initKeyInput() {
	m.keyInput = newFilterInput("Keys: ")
	m.keyInput.Prompt = "Keys: "
	m.keyInput.Placeholder = "asdfjkl;"
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	if m.cfg.Since != nil {
		m.filterInputs[0].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[0].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[1].SetValue("")
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setKeyTableSize(m.width, vpHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
	promptWidth := lipgloss.Width(m.keyInput.Prompt)
	m.keyInput.Width = maxInt(10, modalInnerWidth(m.width)-promptWidth)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabKeyTable {
		m.keyTable.Focus()
	} else {
		m.keyTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: since=%s  last=%s  window=%d", since, last, m.cfg.CurveWindow)
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q"
	if m.activeTab == tabKeyCurves {
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Edit keys: enter  Window: -/=  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: q")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabKeyTable {
		switch {
		case len(m.report.Sessions) == 0:
			return fitLines("No sessions found.", m.width, height)
		case len(m.report.KeyAggsAll) == 0:
			return fitLines("No key stats found.", m.width, height)
		default:
			view := tableMutedStyle.Render(m.keyTable.View())
			return fitLines(view, m.width, height)
		}
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.keyErrMsg = ""
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	if !m.keySelectionCustom {
		m.keySelection = stats.TopKeysByFrequency(m.report.KeyAggsAll, 5)
	}
	m.loadKeyPerSession()
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.applyKeyTable(width, bodyHeight)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Sessions, m.cfg.CurveWindow, width))
	m.viewports[tabKeyCurves].SetContent(renderKeyCurves(m.report.Sessions, m.keySelection, m.keyPerSession, m.cfg.CurveWindow, width, m.keyErrMsg))
	m.viewports[tabFingersRows].SetContent(m.renderFingersRows())
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	summary := renderSummaryCards(sessions, width)
	curves := renderCurves(sessions, window, width)
	return strings.TrimRight(summary+"\n\n"+curves, "\n")
}

func renderSummaryCards(sessions []model.SessionAggregate, width int) string {
	var totalWPM, totalCPM, totalAcc float64
	bestWPM := 0.0
	for _, s := range sessions {
		wpm, cpm, acc := stats.SessionMetrics(s.Correct, s.Incorrect, s.DurationMs)
		totalWPM += wpm
		totalCPM += cpm
		totalAcc += acc
		if wpm > bestWPM {
			bestWPM = wpm
		}
	}
	count := float64(len(sessions))
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", len(sessions))),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", totalWPM/count)),
		metricCard("Best WPM", fmt.Sprintf("%.1f", bestWPM)),
		metricCard("Avg CPM", fmt.Sprintf("%.1f", totalCPM/count)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", (totalAcc/count)*100)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(sessions []model.SessionAggregate, window, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithWidth(&buf, sessions, window, width); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m *Model) applyKeyTable(width, height int) {
	cols, rows := m.buildKeyTableData()
	viewportHeight := maxInt(1, height-1)
	if m.keyLayout.width == width &&
		m.keyLayout.height == viewportHeight &&
		m.keyLayout.rowCount == len(rows) &&
		m.keyLayout.colCount == len(cols) {
		return
	}
	m.keyTable.SetColumns(cols)
	m.keyTable.SetRows(rows)
	m.keyLayout.rowCount = len(rows)
	m.keyLayout.colCount = len(cols)
	m.setKeyTableSize(width, height)
}

func (m *Model) setKeyTableSize(width, height int) {
	viewportHeight := maxInt(1, height-1)
	if m.keyLayout.width == width && m.keyLayout.height == viewportHeight {
		return
	}
	m.keyLayout.width = width
	m.keyLayout.height = viewportHeight
	m.keyTable.SetWidth(width)
	m.keyTable.SetHeight(viewportHeight)
}

func keyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) buildKeyTableData() ([]table.Column, []table.Row) {
	columns := []table.Column{
		{Title: "Key", Width: 7},
		{Title: "Heat", Width: 6},
		{Title: "Accuracy", Width: 9},
		{Title: "Avg Latency (ms)", Width: 17},
		{Title: "Fastest", Width: 8},
		{Title: "Slowest", Width: 8},
		{Title: "Correct", Width: 7},
		{Title: "Incorrect", Width: 9},
	}
	aggs := m.report.KeyAggsAll
	rows := make([]table.Row, 0, len(aggs))
	if len(m.report.Sessions) == 0 || len(aggs) == 0 {
		return columns, rows
	}
	sorted := sortKeyAggsByTotal(aggs)
	for _, agg := range sorted {
		total := agg.Correct + agg.Incorrect
		acc := 0.0
		if total > 0 {
			acc = float64(agg.Correct) / float64(total) * 100
		}
		lat := 0.0
		if agg.LatencyCount > 0 {
			lat = agg.LatencySumMs / float64(agg.LatencyCount)
		}
		keyLabel := agg.Key
		if keyLabel == " " {
			keyLabel = "<space>"
		}
		rows = append(rows, table.Row{
			keyLabel,
			m.heatSwatch(lat, agg.LatencyCount > 0),
			fmt.Sprintf("%.2f%%", acc),
			fmt.Sprintf("%.1f", lat),
			fmt.Sprintf("%.1f", agg.MinMs),
			fmt.Sprintf("%.1f", agg.MaxMs),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	return columns, rows
}

// heatSwatch renders a colored block on the absolute latency spectrum.
func (m *Model) heatSwatch(latencyMs float64, ok bool) string {
	if !ok {
		return ""
	}
	pair := m.absolute.Map(latencyMs)
	style := lipgloss.NewStyle().Background(pair.Background).Foreground(pair.Foreground)
	return style.Render("    ")
}

// renderFingersRows folds per-key aggregates into per-finger and per-row
// groups using the keyboard layout table.
func (m *Model) renderFingersRows() string {
	if len(m.report.Sessions) == 0 {
		return "No sessions found."
	}
	if len(m.report.KeyAggsAll) == 0 {
		return "No key stats found."
	}
	fingerAggs := map[layout.Finger]model.KeyAggregate{}
	rowAggs := map[layout.Row]model.KeyAggregate{}
	for _, agg := range m.report.KeyAggsAll {
		runes := []rune(agg.Key)
		if len(runes) == 0 {
			continue
		}
		finger, row := layout.Lookup(runes[0])
		fingerAggs[finger] = mergeAggregate(fingerAggs[finger], agg)
		rowAggs[row] = mergeAggregate(rowAggs[row], agg)
	}

	var b strings.Builder
	b.WriteString(cardValueStyle.Render("Fingers"))
	b.WriteString("\n")
	for _, f := range layout.Fingers() {
		agg, ok := fingerAggs[f]
		if !ok {
			continue
		}
		b.WriteString(m.renderGroupLine(f.String(), agg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(cardValueStyle.Render("Rows"))
	b.WriteString("\n")
	for _, r := range layout.Rows() {
		agg, ok := rowAggs[r]
		if !ok {
			continue
		}
		b.WriteString(m.renderGroupLine(r.String(), agg))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderGroupLine(name string, agg model.KeyAggregate) string {
	total := agg.Correct + agg.Incorrect
	acc := 0.0
	if total > 0 {
		acc = float64(agg.Correct) / float64(total) * 100
	}
	lat := 0.0
	hasLat := agg.LatencyCount > 0
	if hasLat {
		lat = agg.LatencySumMs / float64(agg.LatencyCount)
	}
	return fmt.Sprintf("%-13s %s  %6.2f%%  %7.1fms  %d keys",
		name, m.heatSwatch(lat, hasLat), acc, lat, total)
}

func mergeAggregate(dst, src model.KeyAggregate) model.KeyAggregate {
	first := dst.Correct+dst.Incorrect == 0 && dst.LatencyCount == 0
	dst.Correct += src.Correct
	dst.Incorrect += src.Incorrect
	dst.LatencySumMs += src.LatencySumMs
	dst.LatencyCount += src.LatencyCount
	if first || (src.LatencyCount > 0 && src.MinMs < dst.MinMs) {
		dst.MinMs = src.MinMs
	}
	if src.MaxMs > dst.MaxMs {
		dst.MaxMs = src.MaxMs
	}
	return dst
}

func renderKeyCurves(sessions []model.SessionAggregate, keys []string, perSession map[int64]map[string]model.KeyAggregate, window, width int, errMsg string) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	if errMsg != "" {
		return fmt.Sprintf("Failed to load key curves: %s", errMsg)
	}
	if len(keys) == 0 {
		return "No keys selected. Press Enter to set keys."
	}
	header := headerStyle.Render(fmt.Sprintf("Keys: %s", strings.Join(keys, ", ")))
	var buf bytes.Buffer
	if err := stats.RenderKeyCurvesWithWidth(&buf, sessions, perSession, keys, window, width); err != nil {
		return fmt.Sprintf("Failed to render key curves: %v", err)
	}
	return strings.TrimRight(header+"\n"+buf.String(), "\n")
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) startKeyInput() (tea.Model, tea.Cmd) {
	m.keyInputMode = true
	m.keyInputError = ""
	m.keyInput.SetValue(strings.Join(m.keySelection, ""))
	return m, m.keyInput.Focus()
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) updateKeyInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.keyInputMode = false
		m.keyInputError = ""
		return m, nil
	case tea.KeyEnter:
		m.applyKeyInput()
		m.keyInputMode = false
		m.keyInputError = ""
		m.loadKeyPerSession()
		m.renderTabContents()
		return m, nil
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	normalized := normalizeKeyInput(m.keyInput.Value())
	if normalized != m.keyInput.Value() {
		m.keyInput.SetValue(normalized)
	}
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	sinceInput := strings.TrimSpace(m.filterInputs[0].Value())
	var since *time.Time
	if sinceInput != "" {
		parsed, err := time.ParseInLocation("2006-01-02", sinceInput, time.Local)
		if err != nil {
			return fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}

	lastInput := strings.TrimSpace(m.filterInputs[1].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}

	windowInput := strings.TrimSpace(m.filterInputs[2].Value())
	window := 0
	if windowInput != "" {
		parsed, err := strconv.Atoi(windowInput)
		if err != nil {
			return fmt.Errorf("invalid curve window (use integer)")
		}
		if parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg = model.StatsConfig{
		Since:       since,
		Last:        last,
		CurveWindow: window,
		Keys:        m.cfg.Keys,
	}
	return nil
}

func (m *Model) applyKeyInput() {
	raw := normalizeKeyInput(m.keyInput.Value())
	if raw == "" {
		m.keySelectionCustom = false
		m.keySelection = stats.TopKeysByFrequency(m.report.KeyAggsAll, 5)
		return
	}
	keys := parseRawKeys(raw)
	if len(keys) == 0 {
		m.keySelectionCustom = false
		m.keySelection = stats.TopKeysByFrequency(m.report.KeyAggsAll, 5)
		return
	}
	m.keySelectionCustom = true
	m.keySelection = keys
}

func (m *Model) renderKeyModal() string {
	title := cardValueStyle.Render("Select Keys")
	body := []string{
		title,
		m.keyInput.View(),
		headerStyle.Render("Type keys (no commas). Spaces are ignored."),
		headerStyle.Render("Enter to apply / Esc to cancel"),
	}
	if m.keyInputError != "" {
		body = append(body, errorStyle.Render(m.keyInputError))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) loadKeyPerSession() {
	m.keyErrMsg = ""
	m.keyPerSession = nil
	if len(m.report.Sessions) == 0 || len(m.keySelection) == 0 {
		return
	}
	perSession, err := m.store.ListKeyStatsForSessions(context.Background(), sessionIDs(m.report.Sessions), m.keySelection)
	if err != nil {
		m.keyErrMsg = err.Error()
		return
	}
	m.keyPerSession = perSession
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func parseKeys(input string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if strings.Contains(input, ",") {
		parts := strings.Split(input, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		return out
	}
	out := make([]string, 0, len([]rune(input)))
	for _, r := range input {
		out = append(out, string(r))
	}
	return out
}

func parseRawKeys(input string) []string {
	out := make([]string, 0, len([]rune(input)))
	for _, r := range input {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, string(r))
	}
	return out
}

func normalizeKeyInput(input string) string {
	if input == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == ',' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func sortKeyAggsByTotal(aggs []model.KeyAggregate) []model.KeyAggregate {
	out := append([]model.KeyAggregate(nil), aggs...)
	sort.Slice(out, func(i, j int) bool {
		totalI := out[i].Correct + out[i].Incorrect
		totalJ := out[j].Correct + out[j].Incorrect
		if totalI == totalJ {
			return out[i].Key < out[j].Key
		}
		return totalI > totalJ
	})
	return out
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
