// Package gamedb persists imported game collections in sqlite and
// serves the windowed reads the tab browser needs.
package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound marks a lookup for a game id that is not in the store.
var ErrNotFound = errors.New("game not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS games (
    id INTEGER PRIMARY KEY,
    source TEXT NOT NULL,
    white TEXT NOT NULL DEFAULT '',
    black TEXT NOT NULL DEFAULT '',
    event TEXT NOT NULL DEFAULT '',
    site TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL DEFAULT '',
    pgn TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_source ON games(source, id);
CREATE INDEX IF NOT EXISTS idx_games_white ON games(white);
CREATE INDEX IF NOT EXISTS idx_games_black ON games(black);
`

// Game is one stored game: resolved headers for listing plus the full
// movetext for opening it in a tab.
type Game struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`
	White  string `json:"white"`
	Black  string `json:"black"`
	Event  string `json:"event"`
	Site   string `json:"site"`
	Date   string `json:"date"`
	Result string `json:"result"`
	PGN    string `json:"pgn"`
}

// Store is a sqlite-backed game collection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open game database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init game database schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put stores one game and returns its assigned id.
func (s *Store) Put(ctx context.Context, g Game) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO games (source, white, black, event, site, date, result, pgn)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Source, g.White, g.Black, g.Event, g.Site, g.Date, g.Result, g.PGN)
	if err != nil {
		return 0, fmt.Errorf("store game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store game: %w", err)
	}
	return id, nil
}

// Get fetches one game by id.
func (s *Store) Get(ctx context.Context, id int64) (Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, white, black, event, site, date, result, pgn
		 FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Game{}, fmt.Errorf("read game %d: %w", id, err)
	}
	return g, nil
}

// Count reports how many games a source holds. An empty source counts
// the whole store.
func (s *Store) Count(ctx context.Context, source string) (int, error) {
	query := `SELECT COUNT(*) FROM games`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}

// Read returns up to limit games from a source starting at offset, in
// insertion order. An empty source reads across the whole store.
func (s *Store) Read(ctx context.Context, source string, offset, limit int) ([]Game, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT id, source, white, black, event, site, date, result, pgn FROM games`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read games: %w", err)
	}
	defer rows.Close()
	return collectGames(rows)
}

// Search matches a substring against players, event, and site.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 50
	}
	like := "%" + term + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, white, black, event, site, date, result, pgn
		 FROM games
		 WHERE white LIKE ? OR black LIKE ? OR event LIKE ? OR site LIKE ?
		 ORDER BY id LIMIT ?`,
		like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	defer rows.Close()
	return collectGames(rows)
}

// DeleteSource drops every game imported under a source name.
func (s *Store) DeleteSource(ctx context.Context, source string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("delete source %s: %w", source, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(r rowScanner) (Game, error) {
	var g Game
	err := r.Scan(&g.ID, &g.Source, &g.White, &g.Black, &g.Event, &g.Site, &g.Date, &g.Result, &g.PGN)
	return g, err
}

func collectGames(rows *sql.Rows) ([]Game, error) {
	var games []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read games: %w", err)
	}
	return games, nil
}
