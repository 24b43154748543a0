package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/chazu/polycube/pkg/workflow"
)

func TestSQLiteStore_RecordAndResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "runs.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	ok := workflow.FileResult{Input: "a.stl", Success: true, CubeCount: 42, Output: "out/a.vtk"}
	bad := workflow.FileResult{Input: "b.stl", Error: "cannot load mesh file: missing"}
	for _, r := range []workflow.FileResult{ok, bad} {
		if err := s.Record(ctx, "run1", r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := s.Record(ctx, "run2", ok); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rows, err := s.Results(ctx, "run1")
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].FileResult != ok || rows[1].FileResult != bad {
		t.Errorf("rows mismatch: %+v", rows)
	}
	if rows[0].RunID != "run1" || rows[0].RecordedAt.IsZero() {
		t.Errorf("row metadata: %+v", rows[0])
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0] != "run2" {
		t.Errorf("runs = %v, want [run2 run1]", runs)
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Record(context.Background(), "r", workflow.FileResult{Input: "x.obj", Success: true, CubeCount: 7}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var (
		input   string
		success int
		cubes   int
	)
	row := db.QueryRow(`SELECT input,success,cube_count FROM conversions WHERE run_id='r'`)
	if err := row.Scan(&input, &success, &cubes); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if input != "x.obj" || success != 1 || cubes != 7 {
		t.Fatalf("row mismatch: input=%q success=%d cubes=%d", input, success, cubes)
	}
}

func TestSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSQLiteStore_AsRecorder(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	opts := workflow.DefaultOptions()
	opts.Recorder = s
	res := workflow.BatchConvertRun(context.Background(), "batch1",
		[]string{filepath.Join(t.TempDir(), "missing.obj")}, t.TempDir(), opts)
	if res.Failed() != 1 {
		t.Fatalf("results = %+v", res)
	}
	rows, err := s.Results(context.Background(), "batch1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Success || rows[0].Error == "" {
		t.Errorf("rows = %+v", rows)
	}
}
