package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frasertheking/toy-snowmodel/internal/storage/sqlite"
	"github.com/frasertheking/toy-snowmodel/pkg/config"
	"github.com/frasertheking/toy-snowmodel/pkg/series"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := `
scenarios:
  - name: default
  - name: short
    sweep:
      min: 0
      max: 3
      step: 1
output:
  directory: ` + filepath.Join(dir, "out") + `
  formats: [csv, parquet]
storage:
  sqlite:
    path: ` + filepath.Join(dir, "runs.db") + `
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := New(config.NewYAMLProvider(writeConfig(t, dir)), nil, Options{Workers: 2})

	results, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, expected 2", len(results))
	}
	if len(results[0].Points) != 50 || len(results[1].Points) != 4 {
		t.Errorf("points = %d, %d", len(results[0].Points), len(results[1].Points))
	}

	table, err := series.ReadFile(filepath.Join(dir, "out", "default.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if table.Len() != 50 || len(table.Names()) != 6 {
		t.Errorf("default.csv has %d series of %d values", len(table.Names()), table.Len())
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "short.parquet")); err != nil {
		t.Errorf("short.parquet: %v", err)
	}

	// Run returns after the storage manager has drained and closed
	db, err := sqlite.New(context.Background(), filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	defer db.Close()
	stored, err := db.LoadRun(context.Background(), results[1].RunID)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if stored.Scenario != "short" || len(stored.Points) != 4 {
		t.Errorf("stored run = %+v", stored)
	}
}

func TestRunSingleScenarioWithDiagnostics(t *testing.T) {
	dir := t.TempDir()
	a := New(config.NewYAMLProvider(writeConfig(t, dir)), nil, Options{
		Scenario:    "short",
		Diagnostics: true,
		OutputDir:   filepath.Join(dir, "elsewhere"),
	})
	var out bytes.Buffer
	a.SetOutput(&out)

	results, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].Name != "short" {
		t.Fatalf("results = %+v", results)
	}
	if n := strings.Count(out.String(), "OUTPUT"); n != 4 {
		t.Errorf("got %d diagnostic reports, expected 4", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "elsewhere", "short.csv")); err != nil {
		t.Errorf("short.csv: %v", err)
	}
}

func TestRunUnknownScenario(t *testing.T) {
	dir := t.TempDir()
	a := New(config.NewYAMLProvider(writeConfig(t, dir)), nil, Options{Scenario: "tundra"})
	if _, err := a.Run(context.Background()); err == nil {
		t.Error("expected an error for an unknown scenario")
	}
}
