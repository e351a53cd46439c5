package influxdb

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

func testRun(samples []float64) storage.Run {
	site, weather := snowmelt.DefaultSiteConfig(), snowmelt.DefaultWeatherConfig()
	points, _ := snowmelt.RunSweep(site, weather, samples)
	return storage.NewRun("meadow", site, weather, points)
}

func TestPoints(t *testing.T) {
	run := testRun([]float64{0, math.NaN(), 10})

	points := Points(run)
	if len(points) != 2 {
		t.Fatalf("got %d points, expected 2 (failed samples are skipped)", len(points))
	}

	line := write.PointToLineProtocol(points[1], time.Nanosecond)
	for _, want := range []string{
		"snowmelt,",
		"air_temperature=10,",
		"run_id=" + run.ID.String(),
		"scenario=meadow",
		"stability_regime=stable",
		"total_melt=",
		"ti_total_melt=",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q does not contain %q", line, want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(line), " "+strconv.FormatInt(run.CreatedAt.UnixNano(), 10)) {
		t.Errorf("line protocol %q does not end with the run timestamp", line)
	}
}

func TestStorageEngineWrites(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	var queries []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s, err := New(Config{URL: srv.URL, Token: "token", Org: "snow", Bucket: "melt"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	runChan := s.StartStorageEngine(ctx, &wg)
	runChan <- testRun([]float64{0, 1, 2})
	close(runChan)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("got %d write requests, expected 1", len(bodies))
	}
	if lines := strings.Split(strings.TrimSpace(bodies[0]), "\n"); len(lines) != 3 {
		t.Errorf("got %d lines, expected 3:\n%s", len(lines), bodies[0])
	}
	if !strings.Contains(queries[0], "bucket=melt") || !strings.Contains(queries[0], "org=snow") {
		t.Errorf("write query = %q", queries[0])
	}
}

func TestNewIncompleteConfig(t *testing.T) {
	if _, err := New(Config{URL: "http://localhost:8086", Org: "snow"}); err == nil {
		t.Error("expected an error without a bucket")
	}
}
