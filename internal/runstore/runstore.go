// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore archives completed discovery runs in a local SQLite
// database. Implements: prd014-run-archive (R1-R4);
//
//	docs/ARCHITECTURE § Run Archive.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/target-engine/pkg/types"
)

const dbFile = "runs.db"

// Store manages the run archive database.
type Store struct {
	db *sql.DB
}

// Run is one archived discovery run.
type Run struct {
	ID          string         `json:"id" yaml:"id"`
	Query       string         `json:"query" yaml:"query"`
	Disease     string         `json:"disease" yaml:"disease"`
	Narrative   string         `json:"narrative,omitempty" yaml:"narrative,omitempty"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	Iterations  int            `json:"iterations" yaml:"iterations"`
	Sources     []string       `json:"sources" yaml:"sources"`
	RecordCount int            `json:"record_count" yaml:"record_count"`
	Targets     []types.Target `json:"targets" yaml:"targets"`
}

// Summary is the listing view of an archived run.
type Summary struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Disease     string    `json:"disease"`
	CreatedAt   time.Time `json:"created_at"`
	Iterations  int       `json:"iterations"`
	TargetCount int       `json:"target_count"`
}

// NewStore opens or creates the run archive at dir/runs.db, creating the
// schema if it does not exist (R1.1, R1.2).
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "runs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			disease TEXT,
			narrative TEXT,
			created_at TEXT NOT NULL,
			iterations INTEGER,
			sources TEXT,
			record_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS targets (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			id TEXT NOT NULL,
			name TEXT,
			overall REAL,
			scores TEXT,
			sources TEXT,
			findings TEXT,
			pathways TEXT,
			terms TEXT,
			synthesis TEXT,
			PRIMARY KEY (run_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save archives a run and returns its identifier. A blank ID is assigned
// a fresh UUID; saving an existing ID replaces the run (R2.1, R2.2).
func (s *Store) Save(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sourcesJSON, _ := json.Marshal(run.Sources)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, disease, narrative, created_at, iterations, sources, record_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, disease=excluded.disease, narrative=excluded.narrative,
			created_at=excluded.created_at, iterations=excluded.iterations,
			sources=excluded.sources, record_count=excluded.record_count`,
		run.ID, run.Query, run.Disease, run.Narrative,
		run.CreatedAt.Format(time.RFC3339Nano), run.Iterations,
		string(sourcesJSON), run.RecordCount,
	)
	if err != nil {
		return "", fmt.Errorf("upserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM targets WHERE run_id = ?`, run.ID); err != nil {
		return "", fmt.Errorf("clearing old targets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO targets (run_id, rank, id, name, overall, scores, sources, findings, pathways, terms, synthesis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range run.Targets {
		scoresJSON, _ := json.Marshal(t.Scores)
		tSourcesJSON, _ := json.Marshal(t.Sources)
		findingsJSON, _ := json.Marshal(t.Findings)
		pathwaysJSON, _ := json.Marshal(t.Pathways)
		termsJSON, _ := json.Marshal(t.Terms)
		_, err := stmt.ExecContext(ctx,
			run.ID, i+1, t.ID, t.Name, t.Overall,
			string(scoresJSON), string(tSourcesJSON), string(findingsJSON),
			string(pathwaysJSON), string(termsJSON), t.Synthesis,
		)
		if err != nil {
			return "", fmt.Errorf("inserting target %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return run.ID, nil
}

// List returns run summaries, most recent first (R3.1).
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, r.disease, r.created_at,
			r.iterations, (SELECT count(*) FROM targets t WHERE t.run_id = r.id)
		 FROM runs r ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var created string
		if err := rows.Scan(&sum.ID, &sum.Query, &sum.Disease, &created,
			&sum.Iterations, &sum.TargetCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Get loads one archived run with its full target ranking (R3.2). It
// accepts an ID prefix so listings can be referenced by short IDs.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	var created, sourcesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, disease, narrative, created_at, iterations, sources, record_count
		 FROM runs WHERE id = ? OR id LIKE ? || '%' ORDER BY created_at DESC LIMIT 1`,
		id, id,
	).Scan(&run.ID, &run.Query, &run.Disease, &run.Narrative, &created,
		&run.Iterations, &sourcesJSON, &run.RecordCount)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run %q not found", id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	json.Unmarshal([]byte(sourcesJSON), &run.Sources)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, overall, scores, sources, findings, pathways, terms, synthesis
		 FROM targets WHERE run_id = ? ORDER BY rank`, run.ID)
	if err != nil {
		return Run{}, fmt.Errorf("querying targets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t types.Target
		var scores, tSources, findings, pathways, terms string
		if err := rows.Scan(&t.ID, &t.Name, &t.Overall,
			&scores, &tSources, &findings, &pathways, &terms, &t.Synthesis); err != nil {
			return Run{}, fmt.Errorf("scanning target: %w", err)
		}
		json.Unmarshal([]byte(scores), &t.Scores)
		json.Unmarshal([]byte(tSources), &t.Sources)
		json.Unmarshal([]byte(findings), &t.Findings)
		json.Unmarshal([]byte(pathways), &t.Pathways)
		json.Unmarshal([]byte(terms), &t.Terms)
		run.Targets = append(run.Targets, t)
	}
	return run, rows.Err()
}
