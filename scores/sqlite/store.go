// Package sqlite provides a SQLite-backed score repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"candy-rush/scores"
	"candy-rush/scores/sqlite/migrations"
)

var tracer = otel.Tracer("candy-rush/scores/sqlite")

// Store persists leaderboard rows in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ scores.Repository = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite score store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordSingle inserts one single-player result and returns its level.
func (s *Store) RecordSingle(ctx context.Context, name string, score int) (level int, err error) {
	ctx, span := tracer.Start(ctx, "scores.RecordSingle", trace.WithAttributes(attribute.Int("score", score)))
	defer func() { finish(span, err) }()

	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.Join(scores.ErrInvalidRecord, errors.New("player name is required"))
	}
	level = scores.Level(score)
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO single_scores (player_name, score, level, created_at) VALUES (?, ?, ?, ?)`,
		name, score, level, toMillis(s.now()),
	); err != nil {
		return 0, fmt.Errorf("record single score: %w", err)
	}
	return level, nil
}

// RecordMatch inserts one multiplayer result.
func (s *Store) RecordMatch(ctx context.Context, match scores.MatchRecord) (err error) {
	ctx, span := tracer.Start(ctx, "scores.RecordMatch", trace.WithAttributes(attribute.String("winner", match.Winner)))
	defer func() { finish(span, err) }()

	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := match.Validate(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO multiplayer_scores (
		   player1_name, player2_name, player1_score, player2_score, winner, game_mode, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		match.Player1Name,
		nullString(match.Player2Name),
		match.Player1Score,
		nullInt(match.Player2Score),
		match.Winner,
		"multiplayer",
		toMillis(s.now()),
	); err != nil {
		return fmt.Errorf("record match: %w", err)
	}
	return nil
}

// ListSingle returns the best single-player scores, newest first on ties.
func (s *Store) ListSingle(ctx context.Context, limit int) (out []scores.SingleScore, err error) {
	ctx, span := tracer.Start(ctx, "scores.ListSingle")
	defer func() { finish(span, err) }()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, player_name, score, level, created_at
		   FROM single_scores
		  ORDER BY score DESC, created_at DESC, id DESC
		  LIMIT ?`,
		scores.ClampLimit(limit, scores.DefaultSingleLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("list single scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row scores.SingleScore
		var createdAt int64
		if err := rows.Scan(&row.ID, &row.PlayerName, &row.Score, &row.Level, &createdAt); err != nil {
			return nil, fmt.Errorf("scan single score: %w", err)
		}
		row.CreatedAt = fromMillis(createdAt)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate single scores: %w", err)
	}
	return out, nil
}

// ListMatches returns the most recent multiplayer results.
func (s *Store) ListMatches(ctx context.Context, limit int) (out []scores.MatchScore, err error) {
	ctx, span := tracer.Start(ctx, "scores.ListMatches")
	defer func() { finish(span, err) }()

	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, player1_name, player2_name, player1_score, player2_score, winner, game_mode, created_at
		   FROM multiplayer_scores
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		scores.ClampLimit(limit, scores.DefaultMatchLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row scores.MatchScore
		var p2Name sql.NullString
		var p2Score sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&row.ID, &row.Player1Name, &p2Name, &row.Player1Score, &p2Score, &row.Winner, &row.GameMode, &createdAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if p2Name.Valid {
			row.Player2Name = &p2Name.String
		}
		if p2Score.Valid {
			v := int(p2Score.Int64)
			row.Player2Score = &v
		}
		row.CreatedAt = fromMillis(createdAt)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

// Clear deletes every score row and reports what is left.
func (s *Store) Clear(ctx context.Context) (res scores.ClearResult, err error) {
	ctx, span := tracer.Start(ctx, "scores.Clear")
	defer func() { finish(span, err) }()

	if err := s.ready(ctx); err != nil {
		return res, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin clear: %w", err)
	}
	for _, table := range []string{"single_scores", "multiplayer_scores"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			_ = tx.Rollback()
			return res, fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit clear: %w", err)
	}
	// VACUUM cannot run inside a transaction.
	if _, err := s.sqlDB.ExecContext(ctx, "VACUUM"); err != nil {
		return res, fmt.Errorf("vacuum: %w", err)
	}

	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM single_scores").Scan(&res.SingleCount); err != nil {
		return res, fmt.Errorf("count single scores: %w", err)
	}
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM multiplayer_scores").Scan(&res.MultiCount); err != nil {
		return res, fmt.Errorf("count matches: %w", err)
	}
	return res, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
