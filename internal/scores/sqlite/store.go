// Package sqlite persists race results and the cumulative leaderboard.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/capesail/vendeeglobe/internal/platform/storage/sqlitemigrate"
	"github.com/capesail/vendeeglobe/internal/scores"
	"github.com/capesail/vendeeglobe/internal/scores/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store implements scores persistence over SQLite.
//
// A single SQLite file backs race history, cumulative scores and fastest
// finishes so one transaction covers a whole race record.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a scores SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// DB returns the raw database handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

// RecordRace stores a finished race and folds its results into the
// cumulative leaderboard in one transaction.
func (s *Store) RecordRace(ctx context.Context, record scores.RaceRecord) error {
	if strings.TrimSpace(record.RaceID) == "" {
		return fmt.Errorf("race id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO races (id, played_at) VALUES (?, ?)",
		record.RaceID, record.PlayedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert race %s: %w", record.RaceID, err)
	}

	for _, result := range record.Results {
		finish := sql.NullFloat64{}
		if result.FinishSeconds != nil {
			finish = sql.NullFloat64{Float64: *result.FinishSeconds, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO race_results (race_id, team, points, checkpoints_reached, distance_km, finish_seconds)
VALUES (?, ?, ?, ?, ?, ?)`,
			record.RaceID, result.Team, result.Points,
			result.CheckpointsReached, result.DistanceKm, finish,
		); err != nil {
			return fmt.Errorf("insert result for %s: %w", result.Team, err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO team_scores (team, total_points, races_played, fastest_seconds)
VALUES (?, ?, 1, ?)
ON CONFLICT(team) DO UPDATE SET
    total_points = total_points + excluded.total_points,
    races_played = races_played + 1,
    fastest_seconds = CASE
        WHEN excluded.fastest_seconds IS NULL THEN fastest_seconds
        WHEN fastest_seconds IS NULL THEN excluded.fastest_seconds
        ELSE MIN(fastest_seconds, excluded.fastest_seconds)
    END`,
			result.Team, result.Points, finish,
		); err != nil {
			return fmt.Errorf("update score for %s: %w", result.Team, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit race %s: %w", record.RaceID, err)
	}
	return nil
}

// FastestTimes returns the best recorded finish in seconds for each of
// the given teams. Teams without a recorded finish are absent from the
// result.
func (s *Store) FastestTimes(ctx context.Context, teams []string) (map[string]float64, error) {
	out := make(map[string]float64, len(teams))
	if len(teams) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(teams))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(teams))
	for i, team := range teams {
		args[i] = team
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT team, fastest_seconds FROM team_scores WHERE fastest_seconds IS NOT NULL AND team IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query fastest times: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var team string
		var seconds float64
		if err := rows.Scan(&team, &seconds); err != nil {
			return nil, fmt.Errorf("scan fastest time: %w", err)
		}
		out[team] = seconds
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fastest times: %w", err)
	}
	return out, nil
}

// Leaderboard returns the cumulative standings, highest score first.
// A non-positive limit returns every team.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]scores.TeamScore, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT team, total_points, races_played
FROM team_scores
ORDER BY total_points DESC, team ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []scores.TeamScore
	for rows.Next() {
		var row scores.TeamScore
		if err := rows.Scan(&row.Team, &row.Points, &row.RacesPlayed); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return out, nil
}

// FastestFinishes returns the best finish per team, quickest first.
// A non-positive limit returns every team with a recorded finish.
func (s *Store) FastestFinishes(ctx context.Context, limit int) ([]scores.FastestTime, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT team, fastest_seconds
FROM team_scores
WHERE fastest_seconds IS NOT NULL
ORDER BY fastest_seconds ASC, team ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query fastest finishes: %w", err)
	}
	defer rows.Close()

	var out []scores.FastestTime
	for rows.Next() {
		var row scores.FastestTime
		if err := rows.Scan(&row.Team, &row.Seconds); err != nil {
			return nil, fmt.Errorf("scan fastest finish: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fastest finishes: %w", err)
	}
	return out, nil
}
