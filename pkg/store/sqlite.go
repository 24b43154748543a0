// Package store keeps a ledger of batch conversion results in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/polycube/pkg/workflow"
)

var _ workflow.Recorder = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// Row is one recorded conversion.
type Row struct {
	RunID string
	workflow.FileResult
	RecordedAt time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			input TEXT NOT NULL,
			success INTEGER NOT NULL,
			cube_count INTEGER NOT NULL,
			output TEXT NOT NULL,
			error TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS conversions_run ON conversions(run_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Record appends one result to the ledger.
func (s *SQLiteStore) Record(ctx context.Context, runID string, r workflow.FileResult) error {
	success := 0
	if r.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions(run_id,input,success,cube_count,output,error,recorded_at) VALUES(?,?,?,?,?,?,?)`,
		runID, r.Input, success, r.CubeCount, r.Output, r.Error, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record %s: %w", r.Input, err)
	}
	return nil
}

// Results returns the rows of a run in insertion order.
func (s *SQLiteStore) Results(ctx context.Context, runID string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id,input,success,cube_count,output,error,recorded_at FROM conversions WHERE run_id=? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			success int
			at      string
		)
		if err := rows.Scan(&r.RunID, &r.Input, &success, &r.CubeCount, &r.Output, &r.Error, &at); err != nil {
			return nil, err
		}
		r.Success = success != 0
		if r.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("recorded_at %q: %w", at, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists run ids, most recent first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM conversions GROUP BY run_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
