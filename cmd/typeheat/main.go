// Package main provides the CLI entrypoint for typeheat.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"typeheat/internal/config"
	"typeheat/internal/logging"
	"typeheat/internal/model"
	"typeheat/internal/quotes"
	"typeheat/internal/spectrum"
	"typeheat/internal/stats"
	"typeheat/internal/statsui"
	"typeheat/internal/store"
	"typeheat/internal/tui"
)

const (
	defaultFastMs      = 100.0
	defaultSlowMs      = 300.0
	defaultWeakTop     = 8
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
	defaultLogLevel    = "info"
)

var (
	practiceDifficulty string
	practiceQuotes     string
	practiceFastMs     float64
	practiceSlowMs     float64
	practiceAdvance    bool
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakWindow int
	logLevel           string

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsKeys        string
	statsJSON        bool
	statsInteractive bool

	quotesFile string

	configEdit bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typeheat",
		Short:         "Typing trainer with per-key latency heat maps",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", "", "quote difficulty: easy, medium, hard (default: any)")
	rootCmd.Flags().StringVar(&practiceQuotes, "quotes", "", "path to a quotes JSON file (default: built-in set)")
	rootCmd.Flags().Float64Var(&practiceFastMs, "fast-ms", defaultFastMs, "latency at or below this is the fastest heat color")
	rootCmd.Flags().Float64Var(&practiceSlowMs, "slow-ms", defaultSlowMs, "latency at or above this is the slowest heat color")
	rootCmd.Flags().BoolVar(&practiceAdvance, "advance-on-error", true, "advance the cursor on a mistyped key")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias quote picking toward weak keys")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak keys to focus on")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak keys")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "diagnostic log level: debug, info, warn, error, off")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newQuotesCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyStringConfig(cmd, "quotes", &practiceQuotes, fileCfg.Practice.Quotes)
	applyFloatConfig(cmd, "fast-ms", &practiceFastMs, fileCfg.Heat.FastMs)
	applyFloatConfig(cmd, "slow-ms", &practiceSlowMs, fileCfg.Heat.SlowMs)
	applyBoolConfig(cmd, "advance-on-error", &practiceAdvance, fileCfg.Practice.AdvanceOnError)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	cfg := model.Config{
		Difficulty:     practiceDifficulty,
		QuotesPath:     practiceQuotes,
		FastMs:         practiceFastMs,
		SlowMs:         practiceSlowMs,
		AdvanceOnError: practiceAdvance,
		FocusWeak:      practiceFocusWeak,
		WeakTop:        practiceWeakTop,
		WeakWindow:     practiceWeakWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger, closeLog := logging.Setup(config.DefaultLogPath(), logLevel)
	defer closeLog()

	db, err := quotes.Load(resolveQuotesPath(cfg.QuotesPath))
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("failed to close db")
		}
	}()

	weakSet := map[rune]struct{}{}
	if cfg.FocusWeak {
		aggs, err := st.GetWeakKeys(context.Background(), cfg.WeakWindow)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load weak keys")
		} else {
			weakSet = stats.SelectWeakKeys(aggs, cfg.WeakTop)
			if len(weakSet) == 0 {
				logger.Info().Msg("no stats available for weak-key focus yet")
			}
		}
	}

	m := tui.NewModel(cfg, st, db, weakSet, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveQuotesPath prefers an explicit path, then the user's quotes file
// if one exists, then the built-in set.
func resolveQuotesPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	userPath := config.DefaultQuotesPath()
	if _, err := os.Stat(userPath); err == nil {
		return userPath
	}
	return ""
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session and per-key stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsKeys, "keys", "", "keys for per-key curves")
	cmd.Flags().BoolVar(&statsJSON, "json", false, "write the report as JSON to stdout")
	cmd.Flags().BoolVar(&statsInteractive, "interactive", false, "open the interactive stats TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Keys:        statsKeys,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "failed to close db: %v\n", cerr)
		}
	}()

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fastMs, slowMs := defaultFastMs, defaultSlowMs
	if fileCfg.Heat.FastMs != nil {
		fastMs = *fileCfg.Heat.FastMs
	}
	if fileCfg.Heat.SlowMs != nil {
		slowMs = *fileCfg.Heat.SlowMs
	}

	if statsInteractive {
		m := statsui.NewModel(st, cfg, spectrum.Absolute(fastMs, slowMs))
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if statsJSON {
		return stats.ExportJSON(out, report)
	}

	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if err := stats.RenderCurves(out, report.Sessions, cfg.CurveWindow); err != nil {
		return fmt.Errorf("failed to render curves: %w", err)
	}
	if err := stats.RenderKeyTable(out, report.KeyAggsWindow); err != nil {
		return fmt.Errorf("failed to render key table: %w", err)
	}
	keys := parseStatsKeys(statsKeys)
	if len(keys) == 0 {
		keys = stats.TopKeysByFrequency(report.KeyAggsAll, 5)
	}
	perSession, err := st.ListKeyStatsForSessions(context.Background(), sessionIDs(report.Sessions), keys)
	if err != nil {
		return fmt.Errorf("failed to load per-key stats: %w", err)
	}
	if err := stats.RenderKeyCurves(out, report.Sessions, perSession, keys, cfg.CurveWindow); err != nil {
		return fmt.Errorf("failed to render key curves: %w", err)
	}
	return nil
}

func newQuotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "List and validate quote databases",
		RunE:  runQuotesCmd,
	}
	cmd.Flags().StringVar(&quotesFile, "file", "", "path to a quotes JSON file (default: built-in set)")
	return cmd
}

func runQuotesCmd(cmd *cobra.Command, _ []string) error {
	db, err := quotes.Load(quotesFile)
	if err != nil {
		return fmt.Errorf("invalid quotes file: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, q := range db.All() {
		author := q.Author
		if author == "" {
			author = "unknown"
		}
		if _, err := fmt.Fprintf(out, "[%s] %s — %s\n", q.Difficulty, q.Text, author); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(out, "%d quotes\n", db.Len()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configEdit, "edit", false, "open the config file in $EDITOR")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	if !configEdit {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	edit := exec.Command(parts[0], append(parts[1:], path)...)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typeheat configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# difficulty = "easy"       # Quote difficulty: easy, medium, hard
# quotes = ""               # Path to a quotes JSON file
# advance-on-error = true   # Advance the cursor on a mistyped key
# focus-weak = false        # Bias quote picking toward weak keys
# weak-top = %d             # Number of weak keys to focus on
# weak-window = %d          # Number of recent sessions to compute weak keys

[heat]
# fast-ms = %.0f            # Latency at or below this is the fastest color
# slow-ms = %.0f            # Latency at or above this is the slowest color

[log]
# level = %q                # debug, info, warn, error, off
`,
		defaultWeakTop,
		defaultWeakWindow,
		defaultFastMs,
		defaultSlowMs,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	switch cfg.Difficulty {
	case "", string(quotes.Easy), string(quotes.Medium), string(quotes.Hard):
	default:
		return fmt.Errorf("--difficulty must be easy, medium, or hard")
	}
	if cfg.FastMs <= 0 {
		return fmt.Errorf("--fast-ms must be > 0")
	}
	if cfg.SlowMs <= cfg.FastMs {
		return fmt.Errorf("--slow-ms must be greater than --fast-ms")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func parseStatsKeys(input string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	out := make([]string, 0, len([]rune(input)))
	for _, r := range input {
		if r == ',' || r == ' ' {
			continue
		}
		out = append(out, string(r))
	}
	return out
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
