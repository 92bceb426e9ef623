package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/MJE43/bowling-score-go/internal/bowling"
)

// SQLite implements Store on top of a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and runs migrations.
// An empty path opens a private in-memory database that lives as long as
// the returned store.
func NewSQLite(path string) (*SQLite, error) {
	inMemory := strings.TrimSpace(path) == ""
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite", path)
	if inMemory {
		dsn = fmt.Sprintf("file:bowling-%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite", uuid.NewString())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// SQLite is not concurrent for writes; a single connection also keeps a
	// private in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if !inMemory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: enable WAL mode: %w", err)
		}
	}

	s := &SQLite{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema if it does not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rolls (
			game_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			position INTEGER NOT NULL CHECK (position IN (1, 2)),
			pins INTEGER NOT NULL CHECK (pins BETWEEN 0 AND 10),
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (game_id, seq),
			FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			game_id INTEGER NOT NULL,
			roll_count INTEGER NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_game_created ON summaries(game_id, created_at DESC)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin migration: %w", err)
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// CreateGame inserts an empty game and returns its id.
func (s *SQLite) CreateGame(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO games(created_at) VALUES (?)`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("store: create game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: create game: %w", err)
	}
	return id, nil
}

// AppendRoll adds roll at the end of the game's history.
func (s *SQLite) AppendRoll(ctx context.Context, gameID int64, roll bowling.Roll) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin append: %w", err)
	}
	defer tx.Rollback()

	if err := gameExists(ctx, tx, gameID); err != nil {
		return err
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM rolls WHERE game_id = ?`, gameID,
	).Scan(&next); err != nil {
		return fmt.Errorf("store: next roll seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rolls(game_id, seq, position, pins, created_at) VALUES (?, ?, ?, ?, ?)`,
		gameID, next, roll.Position, roll.Pins, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("store: insert roll: %w", err)
	}
	return tx.Commit()
}

// GetRolls returns the game's history in play order.
func (s *SQLite) GetRolls(ctx context.Context, gameID int64) ([]bowling.Roll, error) {
	if err := gameExists(ctx, s.db, gameID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, pins FROM rolls WHERE game_id = ? ORDER BY seq ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("store: query rolls: %w", err)
	}
	defer rows.Close()

	out := []bowling.Roll{}
	for rows.Next() {
		var r bowling.Roll
		if err := rows.Scan(&r.Position, &r.Pins); err != nil {
			return nil, fmt.Errorf("store: scan roll: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListGames returns a page of games ordered by id with their roll counts.
func (s *SQLite) ListGames(ctx context.Context, limit, offset int) (*GamesPage, error) {
	limit, offset = NormalizePage(limit, offset)

	page := &GamesPage{Games: []Game{}, Limit: limit, Offset: offset}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&page.TotalCount); err != nil {
		return nil, fmt.Errorf("store: count games: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.created_at, COUNT(r.seq)
		FROM games g
		LEFT JOIN rolls r ON r.game_id = g.id
		GROUP BY g.id
		ORDER BY g.id ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: list games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.CreatedAt, &g.RollCount); err != nil {
			return nil, fmt.Errorf("store: scan game: %w", err)
		}
		page.Games = append(page.Games, g)
	}
	return page, rows.Err()
}

// SaveSummary records a generated summary.
func (s *SQLite) SaveSummary(ctx context.Context, rec SummaryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := gameExists(ctx, s.db, rec.GameID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries(id, game_id, roll_count, model, text, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.GameID, rec.RollCount, rec.Model, rec.Text, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: save summary: %w", err)
	}
	return nil
}

// LatestSummary returns the most recently recorded summary for a game.
func (s *SQLite) LatestSummary(ctx context.Context, gameID int64) (SummaryRecord, error) {
	if err := gameExists(ctx, s.db, gameID); err != nil {
		return SummaryRecord{}, err
	}

	var rec SummaryRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, roll_count, model, text, created_at
		FROM summaries
		WHERE game_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, gameID,
	).Scan(&rec.ID, &rec.GameID, &rec.RollCount, &rec.Model, &rec.Text, &rec.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return SummaryRecord{}, ErrSummaryNotFound
	case err != nil:
		return SummaryRecord{}, fmt.Errorf("store: latest summary: %w", err)
	}
	return rec, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func gameExists(ctx context.Context, q queryRower, gameID int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, gameID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrGameNotFound
	case err != nil:
		return fmt.Errorf("store: lookup game: %w", err)
	}
	return nil
}
