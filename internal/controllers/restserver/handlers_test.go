package restserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/internal/storage/sqlite"
	"github.com/frasertheking/toy-snowmodel/pkg/config"
	"github.com/frasertheking/toy-snowmodel/pkg/responseformat"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/google/uuid"
)

const testConfig = `
scenarios:
  - name: default
  - name: forest
    site:
      forest_cover_fraction: 1.0
    sweep:
      min: -10
      max: 10
      step: 5
`

type fakeStore struct {
	mu        sync.Mutex
	runs      []storage.Run
	healthErr error
}

func (f *fakeStore) Store(ctx context.Context, r storage.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, r)
	return nil
}

func (f *fakeStore) Health(ctx context.Context) map[string]error {
	return map[string]error{"fake": f.healthErr}
}

// readerStore also serves stored runs back by ID
type readerStore struct {
	fakeStore
	stored map[uuid.UUID]*sqlite.StoredRun
}

func (r *readerStore) LoadRun(ctx context.Context, id uuid.UUID) (*sqlite.StoredRun, error) {
	run, ok := r.stored[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return run, nil
}

func (r *readerStore) ListRuns(ctx context.Context, scenario string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, run := range r.stored {
		if run.Scenario == scenario {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func newTestServer(t *testing.T, store RunStore) http.Handler {
	t.Helper()
	cfg, err := config.ParseYAML([]byte(testConfig))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, cfg, store, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl.Server.Handler
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/evaluate", `{"air_temperature": 10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp EvaluateResponse
	decode(t, rec, &resp)
	if resp.Scenario != "default" {
		t.Errorf("scenario = %q", resp.Scenario)
	}
	if math.Abs(resp.Result.TotalMelt-18.621806) > 1e-5 {
		t.Errorf("total_melt = %v, expected 18.621806", resp.Result.TotalMelt)
	}
	if resp.Result.StabilityRegime != snowmelt.RegimeStable {
		t.Errorf("stability regime = %v", resp.Result.StabilityRegime)
	}
	if resp.Report != "" {
		t.Error("report should be empty without diagnostics")
	}
}

func TestEvaluateDiagnostics(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/evaluate", `{"air_temperature": 10, "diagnostics": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp EvaluateResponse
	decode(t, rec, &resp)
	if !strings.Contains(resp.Report, "INPUT") || !strings.Contains(resp.Report, "OUTPUT") {
		t.Errorf("report = %q", resp.Report)
	}
}

func TestEvaluateOverrides(t *testing.T) {
	h := newTestServer(t, nil)

	var base, brighter EvaluateResponse
	decode(t, do(t, h, http.MethodPost, "/evaluate", `{"air_temperature": 5}`), &base)

	rec := do(t, h, http.MethodPost, "/evaluate", `{"air_temperature": 5, "site": {"albedo": 0.9}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &brighter)

	if brighter.Result.NetSolarRad >= base.Result.NetSolarRad {
		t.Errorf("net solar with albedo 0.9 (%v) should be below the default (%v)", brighter.Result.NetSolarRad, base.Result.NetSolarRad)
	}
	// Keys left out keep the scenario's values
	if brighter.Result.AirDensity != base.Result.AirDensity {
		t.Errorf("air density changed: %v vs %v", brighter.Result.AirDensity, base.Result.AirDensity)
	}
}

func TestEvaluateErrors(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"missing temperature", `{}`, http.StatusBadRequest, ""},
		{"unknown field", `{"air_temperature": 1, "humidity": 3}`, http.StatusBadRequest, ""},
		{"unknown site key", `{"air_temperature": 1, "site": {"elevation": 3}}`, http.StatusBadRequest, ""},
		{"albedo out of range", `{"air_temperature": 1, "site": {"albedo": 2}}`, http.StatusBadRequest, "albedo"},
		{"zero wind", `{"air_temperature": 1, "weather": {"wind_speed": 0}}`, http.StatusBadRequest, "wind_speed"},
		{"temperature at the pole", `{"air_temperature": -300}`, http.StatusBadRequest, "air_temperature"},
		{"unknown scenario", `{"air_temperature": 1, "scenario": "tundra"}`, http.StatusNotFound, ""},
		{"malformed JSON", `{"air_temperature": `, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/evaluate", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, expected %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			var body responseformat.ErrorBody
			decode(t, rec, &body)
			if body.Error == "" {
				t.Error("error body is empty")
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, expected %q", body.Field, tt.wantField)
			}
		})
	}

	if rec := do(t, h, http.MethodGet, "/evaluate", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /evaluate status = %d, expected 405", rec.Code)
	}
}

func TestSweep(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/sweep", `{"workers": 4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp SweepResponse
	decode(t, rec, &resp)
	if len(resp.Points) != 50 {
		t.Fatalf("got %d points, expected 50", len(resp.Points))
	}
	for i, p := range resp.Points {
		if p.AirTemperature != float64(i) || p.Result == nil {
			t.Fatalf("point %d = %+v", i, p)
		}
	}
	if resp.Comparison.Samples != 50 || resp.Stored {
		t.Errorf("comparison = %+v, stored = %v", resp.Comparison, resp.Stored)
	}
	if resp.Comparison.TIMeltOnset == nil || *resp.Comparison.TIMeltOnset != 1 {
		t.Errorf("TI melt onset = %v, expected 1", resp.Comparison.TIMeltOnset)
	}
}

func TestSweepCSV(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/sweep?format=csv", `{"min": 0, "max": 4, "step": 1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d CSV rows, expected 6:\n%s", len(lines), rec.Body)
	}
	if lines[0] != "air_temperature,0,1,2,3,4" {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.HasPrefix(lines[4], "ti_total_melt,0,") {
		t.Errorf("fifth row = %q", lines[4])
	}
}

func TestSweepScenario(t *testing.T) {
	store := &fakeStore{}
	h := newTestServer(t, store)

	rec := do(t, h, http.MethodPost, "/scenarios/forest/sweep", `{"store": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var resp SweepResponse
	decode(t, rec, &resp)
	if resp.Scenario != "forest" || len(resp.Points) != 5 || !resp.Stored {
		t.Errorf("response = %+v", resp)
	}
	if len(store.runs) != 1 || store.runs[0].ID != resp.ID || store.runs[0].Scenario != "forest" {
		t.Fatalf("stored runs = %+v", store.runs)
	}
	if store.runs[0].Site.ForestCoverFraction != 1.0 {
		t.Errorf("stored site = %+v", store.runs[0].Site)
	}

	// An empty body runs the scenario as configured
	if rec := do(t, h, http.MethodPost, "/scenarios/forest/sweep", ""); rec.Code != http.StatusOK {
		t.Errorf("empty body status = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodPost, "/scenarios/tundra/sweep", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown scenario status = %d", rec.Code)
	}
}

func TestSweepErrors(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"zero step", `{"step": 0}`, "sweep_step"},
		{"inverted range", `{"min": 10, "max": 0}`, "sweep_max"},
		{"too many samples", `{"min": 0, "max": 1000, "step": 0.001}`, "sweep_max"},
		{"huge max", `{"max": 1e300}`, "sweep_max"},
		{"max too large to allocate", `{"max": 1e10}`, "sweep_max"},
		{"store without storage", `{"store": true}`, ""},
		{"bad weather", `{"weather": {"relative_humidity": -1}}`, "relative_humidity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/sweep", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, expected 400: %s", rec.Code, rec.Body)
			}
			var body responseformat.ErrorBody
			decode(t, rec, &body)
			if body.Field != tt.wantField {
				t.Errorf("field = %q, expected %q", body.Field, tt.wantField)
			}
		})
	}
}

func TestScenarios(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/scenarios", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []ScenarioSummary
	decode(t, rec, &list)
	if len(list) != 2 || list[0].Name != "default" || list[1].Name != "forest" || list[1].SweepMin != -10 {
		t.Errorf("scenarios = %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/scenarios/forest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sc config.ScenarioData
	decode(t, rec, &sc)
	if sc.Site.ForestCoverFraction != 1.0 {
		t.Errorf("scenario = %+v", sc)
	}

	if rec := do(t, h, http.MethodGet, "/scenarios/tundra", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown scenario status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status without storage = %d", rec.Code)
	}

	store := &fakeStore{healthErr: errors.New("connection refused")}
	rec = do(t, newTestServer(t, store), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status with failing storage = %d", rec.Code)
	}
	var resp HealthResponse
	decode(t, rec, &resp)
	if resp.Status != "degraded" || resp.Storage["fake"] != "connection refused" {
		t.Errorf("health = %+v", resp)
	}
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, nil)

	do(t, h, http.MethodPost, "/evaluate", `{"air_temperature": 3}`)
	do(t, h, http.MethodPost, "/evaluate", `{"air_temperature": -300}`)
	do(t, h, http.MethodPost, "/sweep", `{"min": 0, "max": 2, "step": 1}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`snowmodel_evaluations_total{outcome="ok"} 4`,
		`snowmodel_evaluations_total{outcome="error"} 1`,
		`snowmodel_sweeps_total 1`,
		`snowmodel_http_request_duration_seconds_count{code="200",method="POST",route="/evaluate"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output does not contain %q", want)
		}
	}
}

func TestRuns(t *testing.T) {
	id := uuid.New()
	store := &readerStore{stored: map[uuid.UUID]*sqlite.StoredRun{
		id: {
			ID:       id,
			Scenario: "forest",
			Site:     snowmelt.DefaultSiteConfig(),
			Weather:  snowmelt.DefaultWeatherConfig(),
			Points: []sqlite.StoredPoint{
				{AirTemperature: 10, TotalMelt: 18.6, StabilityRegime: "stable", VaporRegime: "condensation"},
				{AirTemperature: math.NaN(), Error: "invalid air_temperature (NaN): must be finite"},
			},
		},
	}}
	h := newTestServer(t, store)

	rec := do(t, h, http.MethodGet, "/runs/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var run RunResponse
	decode(t, rec, &run)
	if run.ID != id || run.Scenario != "forest" || len(run.Points) != 2 {
		t.Fatalf("run = %+v", run)
	}
	if run.Points[0].AirTemperature == nil || *run.Points[0].AirTemperature != 10 || run.Points[0].StabilityRegime != "stable" {
		t.Errorf("first point = %+v", run.Points[0])
	}
	if run.Points[1].AirTemperature != nil || run.Points[1].Error == "" {
		t.Errorf("failed point = %+v", run.Points[1])
	}

	rec = do(t, h, http.MethodGet, "/scenarios/forest/runs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var list RunListResponse
	decode(t, rec, &list)
	if list.Scenario != "forest" || len(list.Runs) != 1 || list.Runs[0] != id {
		t.Errorf("runs = %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/scenarios/default/runs", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"scenario":"default","runs":[]}` {
		t.Errorf("empty list = %d %s", rec.Code, rec.Body)
	}
}

func TestRunsErrors(t *testing.T) {
	withReader := newTestServer(t, &readerStore{})
	withoutReader := newTestServer(t, &fakeStore{})

	tests := []struct {
		name   string
		h      http.Handler
		target string
		status int
	}{
		{"unknown run", withReader, "/runs/" + uuid.NewString(), http.StatusNotFound},
		{"bad run id", withReader, "/runs/not-a-uuid", http.StatusBadRequest},
		{"no reader", withoutReader, "/runs/" + uuid.NewString(), http.StatusNotImplemented},
		{"no reader list", withoutReader, "/scenarios/forest/runs", http.StatusNotImplemented},
		{"no store", newTestServer(t, nil), "/scenarios/forest/runs", http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.h, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d: %s", rec.Code, tt.status, rec.Body)
			}
		})
	}
}
