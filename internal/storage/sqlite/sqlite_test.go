package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/google/uuid"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(t *testing.T, samples []float64) storage.Run {
	t.Helper()
	site, weather := snowmelt.DefaultSiteConfig(), snowmelt.DefaultWeatherConfig()
	points, _ := snowmelt.RunSweep(site, weather, samples)
	return storage.NewRun("default", site, weather, points)
}

func TestStoreAndLoadRun(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	run := testRun(t, []float64{-5, 0, math.NaN(), 10})
	if err := s.StoreRun(ctx, run); err != nil {
		t.Fatalf("StoreRun: %v", err)
	}

	got, err := s.LoadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}

	if got.Scenario != "default" || got.Site != run.Site || got.Weather != run.Weather {
		t.Errorf("run header = %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("CreatedAt = %v, expected %v", got.CreatedAt, run.CreatedAt)
	}
	if len(got.Points) != 4 {
		t.Fatalf("got %d points, expected 4", len(got.Points))
	}

	for _, i := range []int{0, 1, 3} {
		want := run.Points[i].Result
		p := got.Points[i]
		if p.AirTemperature != run.Points[i].AirTemperature || p.TotalMelt != want.TotalMelt ||
			p.TotalAblation != want.TotalAblation || p.TITotalMelt != want.TITotalMelt {
			t.Errorf("point %d = %+v, expected %+v", i, p, want)
		}
		if p.Error != "" {
			t.Errorf("point %d has error %q", i, p.Error)
		}
	}
	if got.Points[0].StabilityRegime != "unstable" || got.Points[3].StabilityRegime != "stable" {
		t.Errorf("regimes = %q, %q", got.Points[0].StabilityRegime, got.Points[3].StabilityRegime)
	}

	failed := got.Points[2]
	if failed.Error == "" || !math.IsNaN(failed.AirTemperature) {
		t.Errorf("failed point = %+v, expected an error and a NaN temperature", failed)
	}
}

func TestLoadRunMissing(t *testing.T) {
	s := newStorage(t)
	if _, err := s.LoadRun(context.Background(), uuid.New()); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("LoadRun error = %v, expected sql.ErrNoRows", err)
	}
}

func TestStorageEngine(t *testing.T) {
	s := newStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	runChan := s.StartStorageEngine(ctx, &wg)

	first := testRun(t, []float64{0, 1})
	second := testRun(t, []float64{2, 3, 4})
	runChan <- first
	runChan <- second
	close(runChan)
	wg.Wait()

	ids, err := s.ListRuns(ctx, "default")
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d runs, expected 2", len(ids))
	}

	got, err := s.LoadRun(ctx, second.ID)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if len(got.Points) != 3 {
		t.Errorf("got %d points, expected 3", len(got.Points))
	}

	if ids, _ := s.ListRuns(ctx, "other"); len(ids) != 0 {
		t.Errorf("ListRuns(other) = %v, expected none", ids)
	}
}

func TestStoreRunDuplicate(t *testing.T) {
	s := newStorage(t)
	run := testRun(t, []float64{0})

	if err := s.StoreRun(context.Background(), run); err != nil {
		t.Fatalf("StoreRun: %v", err)
	}
	if err := s.StoreRun(context.Background(), run); err == nil {
		t.Error("expected an error storing the same run twice")
	}
}
