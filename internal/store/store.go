// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"typeheat/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			quote_text TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			skew_drops INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_key_stats (
			session_id INTEGER NOT NULL,
			key TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			latency_sum_ms REAL NOT NULL,
			latency_count INTEGER NOT NULL,
			min_ms REAL NOT NULL,
			max_ms REAL NOT NULL,
			geo_mean_ms REAL NOT NULL,
			PRIMARY KEY (session_id, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_key_stats_key ON session_key_stats(key);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and its per-key stats.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats, keys []model.KeyStats) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, quote_text, difficulty, correct, incorrect, skew_drops, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.QuoteText,
		stats.Difficulty,
		stats.Correct,
		stats.Incorrect,
		stats.SkewDrops,
		stats.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(keys) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_key_stats (session_id, key, correct, incorrect, latency_sum_ms, latency_count, min_ms, max_ms, geo_mean_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ks := range keys {
			if _, err := stmt.ExecContext(ctx, id, ks.Key, ks.Correct, ks.Incorrect, ks.LatencySumMs, ks.LatencyCount, ks.MinMs, ks.MaxMs, ks.GeoMeanMs); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakKeys aggregates key stats over the most recent sessions.
func (s *Store) GetWeakKeys(ctx context.Context, window int) ([]model.KeyAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ks.key, SUM(ks.correct) AS correct, SUM(ks.incorrect) AS incorrect,
		SUM(ks.latency_sum_ms) AS latency_sum_ms, SUM(ks.latency_count) AS latency_count,
		MIN(ks.min_ms) AS min_ms, MAX(ks.max_ms) AS max_ms
	FROM session_key_stats ks
	JOIN recent_sessions r ON r.id = ks.session_id
	GROUP BY ks.key`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Key, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount, &agg.MinMs, &agg.MaxMs); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSessions returns session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, correct, incorrect, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Correct, &agg.Incorrect, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListKeyAggregatesForSessions aggregates per-key stats across sessions.
func (s *Store) ListKeyAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.KeyAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT key, SUM(correct) AS correct, SUM(incorrect) AS incorrect,
		SUM(latency_sum_ms) AS latency_sum_ms, SUM(latency_count) AS latency_count,
		MIN(min_ms) AS min_ms, MAX(max_ms) AS max_ms
		FROM session_key_stats
		WHERE session_id IN (%s)
		GROUP BY key`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Key, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount, &agg.MinMs, &agg.MaxMs); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListKeyStatsForSessions returns per-session stats for selected keys.
func (s *Store) ListKeyStatsForSessions(ctx context.Context, sessionIDs []int64, keys []string) (map[int64]map[string]model.KeyAggregate, error) {
	if len(sessionIDs) == 0 || len(keys) == 0 {
		return map[int64]map[string]model.KeyAggregate{}, nil
	}
	idPlaceholders := make([]string, len(sessionIDs))
	args := make([]any, 0, len(sessionIDs)+len(keys))
	for i, id := range sessionIDs {
		idPlaceholders[i] = "?"
		args = append(args, id)
	}
	keyPlaceholders := make([]string, len(keys))
	for i, key := range keys {
		keyPlaceholders[i] = "?"
		args = append(args, key)
	}

	query := fmt.Sprintf(`SELECT session_id, key, correct, incorrect, latency_sum_ms, latency_count, min_ms, max_ms
		FROM session_key_stats
		WHERE session_id IN (%s) AND key IN (%s)`, strings.Join(idPlaceholders, ","), strings.Join(keyPlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[int64]map[string]model.KeyAggregate{}
	for rows.Next() {
		var sessionID int64
		var agg model.KeyAggregate
		if err := rows.Scan(&sessionID, &agg.Key, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount, &agg.MinMs, &agg.MaxMs); err != nil {
			return nil, err
		}
		if _, ok := result[sessionID]; !ok {
			result[sessionID] = map[string]model.KeyAggregate{}
		}
		result[sessionID][agg.Key] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
