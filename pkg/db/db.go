// Package db provides the persistence layer used by the application. It wraps
// a SQLite database recording every poster that was generated so the mobile
// app can show a history list. Callers are expected to open a single DB
// instance using New and reuse it for all operations.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not
// exist it is created along with the required schema.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every new connection would otherwise see its own empty database.
		d.SetMaxOpenConns(1)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL DEFAULT '',
			theme TEXT NOT NULL DEFAULT 'Dark',
			accent INTEGER NOT NULL DEFAULT 0,
			instrumental INTEGER NOT NULL DEFAULT 0,
			path TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posters_artist ON posters(artist)`,
		`CREATE INDEX IF NOT EXISTS idx_posters_created ON posters(created_at)`,
	}
	// Errors here likely mean the database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// PosterEntry is one generated poster.
type PosterEntry struct {
	ID           int64     `json:"id"`
	Query        string    `json:"query"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	Theme        string    `json:"theme"`
	Accent       bool      `json:"accent"`
	Instrumental bool      `json:"instrumental"`
	Path         string    `json:"path"`
	CreatedAt    time.Time `json:"created_at"`
}

// AddPoster stores e and returns its new ID. A zero CreatedAt is replaced by
// the current time.
func (db *DB) AddPoster(ctx context.Context, e PosterEntry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO posters(query, title, artist, album, theme, accent, instrumental, path, created_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		e.Query, e.Title, e.Artist, e.Album, e.Theme, e.Accent, e.Instrumental, e.Path, e.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPosters returns up to limit entries, newest first. A limit of zero or
// less returns every entry.
func (db *DB) ListPosters(ctx context.Context, limit int) ([]PosterEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, query, title, artist, album, theme, accent, instrumental, path, created_at FROM posters ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PosterEntry
	for rows.Next() {
		var e PosterEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.Title, &e.Artist, &e.Album, &e.Theme, &e.Accent, &e.Instrumental, &e.Path, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	// rows.Err returns the first error encountered while iterating.
	return out, rows.Err()
}

// GetPoster returns a single entry or sql.ErrNoRows.
func (db *DB) GetPoster(ctx context.Context, id int64) (PosterEntry, error) {
	var e PosterEntry
	err := db.QueryRowContext(ctx,
		`SELECT id, query, title, artist, album, theme, accent, instrumental, path, created_at FROM posters WHERE id=?`, id).
		Scan(&e.ID, &e.Query, &e.Title, &e.Artist, &e.Album, &e.Theme, &e.Accent, &e.Instrumental, &e.Path, &e.CreatedAt)
	return e, err
}

// DeletePoster removes an entry. sql.ErrNoRows is returned when the entry
// does not exist which allows callers to respond with a 404.
func (db *DB) DeletePoster(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM posters WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArtistCount is the number of posters generated for an artist.
type ArtistCount struct {
	Artist string `json:"artist"`
	Count  int    `json:"count"`
}

// ArtistCounts returns per-artist poster totals, most frequent first.
func (db *DB) ArtistCounts(ctx context.Context) ([]ArtistCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT artist, COUNT(*) c FROM posters GROUP BY artist ORDER BY c DESC, artist ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ArtistCount
	for rows.Next() {
		var ac ArtistCount
		if err := rows.Scan(&ac.Artist, &ac.Count); err != nil {
			return nil, err
		}
		res = append(res, ac)
	}
	return res, rows.Err()
}
