// Package briefstore persists validated briefs keyed by an opaque share
// slug. The pipeline treats it purely as a sink; persistence failures
// propagate to the caller unretried.
package briefstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/SaraAllaparthi/ai-opportunity-generator-sub001/internal/research"
)

var ErrNotFound = errors.New("brief not found")

const schema = `
CREATE TABLE IF NOT EXISTS briefs (
	id           TEXT PRIMARY KEY,
	share_slug   TEXT NOT NULL UNIQUE,
	company_name TEXT NOT NULL,
	website      TEXT NOT NULL,
	payload      TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_briefs_company ON briefs (company_name);
`

type SavedBrief struct {
	ID        string    `json:"id"`
	ShareSlug string    `json:"share_slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db *sqlx.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores a validated brief and returns its id and share slug. Slug
// collisions are resolved by regenerating, bounded to a few tries.
func (s *Store) Save(ctx context.Context, b research.Brief) (SavedBrief, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return SavedBrief{}, fmt.Errorf("marshal brief: %w", err)
	}
	saved := SavedBrief{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	for attempt := 0; attempt < 3; attempt++ {
		saved.ShareSlug = newShareSlug()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO briefs (id, share_slug, company_name, website, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			saved.ID, saved.ShareSlug, b.Company.Name, b.Company.Website, string(payload),
			saved.CreatedAt.Format(time.RFC3339Nano))
		if err == nil {
			return saved, nil
		}
		if !isUniqueViolation(err) {
			return SavedBrief{}, fmt.Errorf("insert brief: %w", err)
		}
	}
	return SavedBrief{}, fmt.Errorf("insert brief: %w", err)
}

// LoadBySlug returns the stored brief for a slug, or ErrNotFound.
func (s *Store) LoadBySlug(ctx context.Context, slug string) (research.Brief, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM briefs WHERE share_slug = ?`, strings.TrimSpace(slug)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return research.Brief{}, ErrNotFound
	}
	if err != nil {
		return research.Brief{}, fmt.Errorf("load brief: %w", err)
	}
	var b research.Brief
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		return research.Brief{}, fmt.Errorf("unmarshal brief: %w", err)
	}
	return b, nil
}

func newShareSlug() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
