package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/talentcheck/internal/domain/assessment"
)

// SQLiteStore persists results in a SQLite database, one JSON document per
// assessment.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS assessment_results (
	id           TEXT PRIMARY KEY,
	athlete_id   TEXT NOT NULL,
	test_type    TEXT NOT NULL,
	status       TEXT NOT NULL,
	submitted_at INTEGER NOT NULL,
	result       TEXT NOT NULL,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_assessment_results_athlete
	ON assessment_results(athlete_id, submitted_at, id);
`

// NewSQLiteStore opens the database at dsn, configures WAL mode and applies
// the schema.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one connection keeps the pragmas below in effect for every statement
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Put implements Store.Put as an upsert.
func (s *SQLiteStore) Put(ctx context.Context, id string, r assessment.Result) (err error) {
	start := time.Now()
	defer func() { observe("put", start, err) }()

	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("sqlite: marshal result %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO assessment_results (id, athlete_id, test_type, status, submitted_at, result, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	athlete_id   = excluded.athlete_id,
	test_type    = excluded.test_type,
	status       = excluded.status,
	submitted_at = excluded.submitted_at,
	result       = excluded.result,
	updated_at   = excluded.updated_at`,
		id, r.Record.AthleteID, string(r.Record.TestType), string(r.Status),
		r.Record.SubmittedAt.UnixNano(), string(doc), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert result %s: %w", id, err)
	}
	return nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, id string) (r assessment.Result, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	var doc string
	err = s.db.QueryRowContext(ctx, `SELECT result FROM assessment_results WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return assessment.Result{}, ErrNotFound
	}
	if err != nil {
		return assessment.Result{}, fmt.Errorf("sqlite: get result %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return assessment.Result{}, fmt.Errorf("sqlite: unmarshal result %s: %w", id, err)
	}
	return r, nil
}

// ListByAthlete implements Store.ListByAthlete.
func (s *SQLiteStore) ListByAthlete(ctx context.Context, athleteID string) (out []assessment.Result, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM assessment_results WHERE athlete_id = ? ORDER BY submitted_at, id`,
		athleteID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list results for %s: %w", athleteID, err)
	}
	defer rows.Close()

	out = []assessment.Result{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlite: scan result: %w", err)
		}
		var r assessment.Result
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate results: %w", err)
	}
	return out, nil
}

// Count implements Store.Count. Errors count as an empty store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessment_results`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
