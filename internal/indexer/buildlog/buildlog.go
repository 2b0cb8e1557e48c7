// Package buildlog records every index build run in PostgreSQL.
package buildlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/postgres"
)

// Build statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// KindCounts is the processed/skipped tally of one term kind.
type KindCounts struct {
	Kind      string `json:"kind"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
}

// Run is one build attempt.
type Run struct {
	BuildID    string
	Status     string
	Documents  int
	Terms      int
	Kinds      []KindCounts
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder persists build runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Nop discards runs.
type Nop struct{}

func (Nop) Record(context.Context, Run) error { return nil }

const schema = `
CREATE TABLE IF NOT EXISTS index_builds (
    build_id    TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    documents   INTEGER NOT NULL,
    terms       INTEGER NOT NULL,
    kinds       JSONB NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
)`

// Store writes runs to the index_builds table.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "build_log"),
	}
}

// EnsureSchema creates the index_builds table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating index_builds table: %w", err)
	}
	return nil
}

// Record inserts run, replacing an earlier row with the same build id.
func (s *Store) Record(ctx context.Context, run Run) error {
	kinds, err := json.Marshal(run.Kinds)
	if err != nil {
		return fmt.Errorf("marshaling kind counts: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO index_builds (build_id, status, documents, terms, kinds, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (build_id) DO UPDATE SET
		     status = EXCLUDED.status,
		     documents = EXCLUDED.documents,
		     terms = EXCLUDED.terms,
		     kinds = EXCLUDED.kinds,
		     error = EXCLUDED.error,
		     finished_at = EXCLUDED.finished_at`,
		run.BuildID, run.Status, run.Documents, run.Terms, kinds, run.Error,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording build %s: %w", run.BuildID, err)
	}
	s.logger.Info("build recorded", "build_id", run.BuildID, "status", run.Status)
	return nil
}

// Recent returns the last limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT build_id, status, documents, terms, kinds, error, started_at, finished_at
		 FROM index_builds ORDER BY finished_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run   Run
			kinds []byte
		)
		if err := rows.Scan(&run.BuildID, &run.Status, &run.Documents, &run.Terms,
			&kinds, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning build row: %w", err)
		}
		if err := json.Unmarshal(kinds, &run.Kinds); err != nil {
			s.logger.Warn("skipping build with corrupt kinds", "build_id", run.BuildID, "error", err)
			continue
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
