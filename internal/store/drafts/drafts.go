// Package drafts keeps named date selections made in the terminal picker.
package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"rentcal/internal/domain/calendar"
)

var ErrNotFound = errors.New("drafts: not found")

// Draft is a saved selection. CheckOut is empty for a half-picked range.
type Draft struct {
	Name      string    `json:"name"`
	ListingID string    `json:"listing_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d Draft) Dates() calendar.DatesSelected {
	return calendar.DatesSelected{CheckIn: d.CheckIn, CheckOut: d.CheckOut}
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath is ~/.rentcal/drafts.sqlite, or RENTCAL_DRAFTS when set.
func DefaultPath() string {
	if p := os.Getenv("RENTCAL_DRAFTS"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "drafts.sqlite"
	}
	return filepath.Join(home, ".rentcal", "drafts.sqlite")
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS drafts (
		name       TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL,
		check_in   TEXT NOT NULL DEFAULT '',
		check_out  TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("drafts: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save inserts or replaces the draft with the same name.
func (s *Store) Save(ctx context.Context, d Draft) (Draft, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return Draft{}, errors.New("drafts: name is required")
	}
	d.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	_, err := s.db.ExecContext(ctx, `INSERT INTO drafts(name, listing_id, check_in, check_out, updated_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			listing_id = excluded.listing_id,
			check_in   = excluded.check_in,
			check_out  = excluded.check_out,
			updated_at = excluded.updated_at`,
		d.Name, d.ListingID, d.CheckIn, d.CheckOut, d.UpdatedAt.UnixMilli())
	if err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (s *Store) Get(ctx context.Context, name string) (Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, listing_id, check_in, check_out, updated_at FROM drafts WHERE name = ?`, name)
	d, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNotFound
	}
	return d, err
}

// List returns drafts, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, listing_id, check_in, check_out, updated_at FROM drafts ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Draft
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (Draft, error) {
	var (
		d  Draft
		ms int64
	)
	if err := r.Scan(&d.Name, &d.ListingID, &d.CheckIn, &d.CheckOut, &ms); err != nil {
		return Draft{}, err
	}
	d.UpdatedAt = time.UnixMilli(ms).UTC()
	return d, nil
}
