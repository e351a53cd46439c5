package restserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/frasertheking/toy-snowmodel/internal/managers"
	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/pkg/config"
	"github.com/frasertheking/toy-snowmodel/pkg/responseformat"
	"github.com/frasertheking/toy-snowmodel/pkg/series"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes    = 1 << 20
	maxSweepWorkers = 64
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// Evaluate handles POST /evaluate
func (h *Handlers) Evaluate(w http.ResponseWriter, req *http.Request) {
	var body EvaluateRequest
	if err := decodeJSON(w, req, &body); err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}
	if body.AirTemperature == nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("air_temperature is required"))
		return
	}

	sc, ok := h.controller.scenario(body.Scenario)
	if !ok {
		h.writeError(w, req, http.StatusNotFound, fmt.Errorf("unknown scenario %q", body.Scenario))
		return
	}

	e, err := h.evaluator(sc, body.Site, body.Weather)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	var report bytes.Buffer
	e.SetDiagnosticSink(&report)

	result, err := e.Evaluate(*body.AirTemperature, body.Diagnostics)
	h.controller.metrics.observeEvaluation(err)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	h.write(w, req, http.StatusOK, EvaluateResponse{
		ID:       uuid.New(),
		Scenario: sc.Name,
		Result:   result,
		Report:   report.String(),
	})
}

// Sweep handles POST /sweep
func (h *Handlers) Sweep(w http.ResponseWriter, req *http.Request) {
	var body SweepRequest
	if err := decodeJSON(w, req, &body); err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}
	h.runSweep(w, req, body)
}

// SweepScenario handles POST /scenarios/{name}/sweep. The body is optional
// and takes the same overrides as POST /sweep.
func (h *Handlers) SweepScenario(w http.ResponseWriter, req *http.Request) {
	var body SweepRequest
	if err := decodeJSON(w, req, &body); err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}
	body.Scenario = mux.Vars(req)["name"]
	h.runSweep(w, req, body)
}

func (h *Handlers) runSweep(w http.ResponseWriter, req *http.Request, body SweepRequest) {
	sc, ok := h.controller.scenario(body.Scenario)
	if !ok {
		h.writeError(w, req, http.StatusNotFound, fmt.Errorf("unknown scenario %q", body.Scenario))
		return
	}
	if body.Store && h.controller.store == nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("no storage backend is configured"))
		return
	}

	sweep := sc.Sweep
	if body.Min != nil {
		sweep.Min = *body.Min
	}
	if body.Max != nil {
		sweep.Max = *body.Max
	}
	if body.Step != nil {
		sweep.Step = *body.Step
	}
	if body.Workers != 0 {
		sweep.Workers = body.Workers
	}
	if sweep.Workers > maxSweepWorkers {
		sweep.Workers = maxSweepWorkers
	}

	samples, err := snowmelt.TemperatureRange(sweep.Min, sweep.Max, sweep.Step)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	e, err := h.evaluator(sc, body.Site, body.Weather)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	s := &snowmelt.Sweep{Evaluator: e, Workers: sweep.Workers}
	points, err := s.Run(req.Context(), samples)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		h.writeError(w, req, http.StatusServiceUnavailable, err)
		return
	}

	failed := len(points) - len(snowmelt.Succeeded(points))
	h.controller.metrics.observeSweep(len(points), failed)
	if err != nil {
		h.controller.logger.Warnw("sweep had failed samples", "scenario", sc.Name, "failed", failed, "error", err)
	}

	run := storage.NewRun(sc.Name, e.Site(), e.Weather(), points)
	resp := SweepResponse{
		ID:         run.ID,
		Scenario:   sc.Name,
		Points:     make([]PointResponse, len(points)),
		Comparison: snowmelt.Compare(points),
		table:      series.FromSweep(points),
	}
	for i, p := range points {
		resp.Points[i] = PointResponse{AirTemperature: p.AirTemperature}
		if p.Err != nil {
			resp.Points[i].Error = p.Err.Error()
			continue
		}
		r := p.Result
		resp.Points[i].Result = &r
	}

	if body.Store {
		if err := h.controller.store.Store(req.Context(), run); err != nil {
			h.writeError(w, req, http.StatusInternalServerError, fmt.Errorf("could not queue run for storage: %w", err))
			return
		}
		resp.Stored = true
	}

	h.write(w, req, http.StatusOK, resp)
}

// ListScenarios handles GET /scenarios
func (h *Handlers) ListScenarios(w http.ResponseWriter, req *http.Request) {
	summaries := make([]ScenarioSummary, 0, len(h.controller.scenarios))
	for _, sc := range h.controller.scenarios {
		weather, err := sc.WeatherConfig()
		if err != nil {
			h.writeError(w, req, http.StatusInternalServerError, err)
			return
		}
		summaries = append(summaries, ScenarioSummary{
			Name:             sc.Name,
			ClearSkySolarRad: weather.ClearSkySolarRad,
			SweepMin:         sc.Sweep.Min,
			SweepMax:         sc.Sweep.Max,
			SweepStep:        sc.Sweep.Step,
		})
	}
	h.write(w, req, http.StatusOK, summaries)
}

// GetScenario handles GET /scenarios/{name}
func (h *Handlers) GetScenario(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	sc, ok := h.controller.scenario(name)
	if !ok {
		h.writeError(w, req, http.StatusNotFound, fmt.Errorf("unknown scenario %q", name))
		return
	}
	h.write(w, req, http.StatusOK, sc)
}

// ListRuns handles GET /scenarios/{name}/runs
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	if h.controller.runs == nil {
		h.writeError(w, req, http.StatusNotImplemented, managers.ErrNoRunReader)
		return
	}

	ids, err := h.controller.runs.ListRuns(req.Context(), name)
	if err != nil {
		h.writeError(w, req, runReadStatus(err), err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	h.write(w, req, http.StatusOK, RunListResponse{Scenario: name, Runs: ids})
}

// GetRun handles GET /runs/{id}
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid run id: %w", err))
		return
	}
	if h.controller.runs == nil {
		h.writeError(w, req, http.StatusNotImplemented, managers.ErrNoRunReader)
		return
	}

	run, err := h.controller.runs.LoadRun(req.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, req, http.StatusNotFound, fmt.Errorf("run %s not found", id))
		return
	}
	if err != nil {
		h.writeError(w, req, runReadStatus(err), err)
		return
	}
	h.write(w, req, http.StatusOK, newRunResponse(run))
}

func runReadStatus(err error) int {
	if errors.Is(err, managers.ErrNoRunReader) {
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if h.controller.store != nil {
		resp.Storage = make(map[string]string)
		for name, err := range h.controller.store.Health(req.Context()) {
			if err != nil {
				resp.Storage[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Storage[name] = "ok"
		}
	}

	h.write(w, req, status, resp)
}

// evaluator builds an Evaluator for sc with the request's overrides
func (h *Handlers) evaluator(sc config.ScenarioData, site, weather json.RawMessage) (*snowmelt.Evaluator, error) {
	s := sc.Site
	if err := overlay(site, &s); err != nil {
		return nil, requestError{fmt.Errorf("invalid site: %w", err)}
	}

	wc, err := sc.WeatherConfig()
	if err != nil {
		return nil, err
	}
	if err := overlay(weather, &wc); err != nil {
		return nil, requestError{fmt.Errorf("invalid weather: %w", err)}
	}

	return snowmelt.NewEvaluator(s, wc, h.controller.logger)
}

// overlay decodes raw over v, keeping the fields raw leaves out
func overlay(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Errorf("error writing response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	body := responseformat.ErrorBody{Error: err.Error()}
	var de *snowmelt.DomainError
	if errors.As(err, &de) {
		body.Field = de.Field
	}
	if werr := h.formatter.WriteError(w, req, status, body); werr != nil {
		h.controller.logger.Errorf("error writing error response: %v", werr)
	}
}

// requestError marks an error caused by the request body
type requestError struct {
	error
}

func (e requestError) Unwrap() error {
	return e.error
}

// statusFor maps model errors to HTTP status codes
func statusFor(err error) int {
	var re requestError
	if errors.Is(err, snowmelt.ErrDomain) || errors.As(err, &re) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON decodes an optional JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
