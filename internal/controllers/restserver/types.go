package restserver

import (
	"encoding/json"
	"math"
	"time"

	"github.com/frasertheking/toy-snowmodel/internal/storage/sqlite"
	"github.com/frasertheking/toy-snowmodel/pkg/series"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/google/uuid"
)

// EvaluateRequest asks for one model evaluation. Keys given in Site and
// Weather override the scenario's values.
type EvaluateRequest struct {
	Scenario       string          `json:"scenario,omitempty"`
	Site           json.RawMessage `json:"site,omitempty"`
	Weather        json.RawMessage `json:"weather,omitempty"`
	AirTemperature *float64        `json:"air_temperature"`
	Diagnostics    bool            `json:"diagnostics,omitempty"`
}

// EvaluateResponse carries one result and, with diagnostics, its report
type EvaluateResponse struct {
	ID       uuid.UUID       `json:"id"`
	Scenario string          `json:"scenario"`
	Result   snowmelt.Result `json:"result"`
	Report   string          `json:"report,omitempty"`
}

// SweepRequest asks for a temperature sweep. Unset fields come from the
// scenario.
type SweepRequest struct {
	Scenario string          `json:"scenario,omitempty"`
	Site     json.RawMessage `json:"site,omitempty"`
	Weather  json.RawMessage `json:"weather,omitempty"`
	Min      *float64        `json:"min,omitempty"`
	Max      *float64        `json:"max,omitempty"`
	Step     *float64        `json:"step,omitempty"`
	Workers  int             `json:"workers,omitempty"`
	Store    bool            `json:"store,omitempty"`
}

// PointResponse is one sweep sample; Result is absent when Error is set
type PointResponse struct {
	AirTemperature float64          `json:"air_temperature"`
	Result         *snowmelt.Result `json:"result,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// SweepResponse is a full sweep with its EB vs TI comparison
type SweepResponse struct {
	ID         uuid.UUID           `json:"id"`
	Scenario   string              `json:"scenario"`
	Stored     bool                `json:"stored"`
	Points     []PointResponse     `json:"points"`
	Comparison snowmelt.Comparison `json:"comparison"`

	table *series.Table
}

// Table lets the sweep be sent as CSV
func (r SweepResponse) Table() *series.Table {
	return r.table
}

// ScenarioSummary is a scenario as listed by GET /scenarios
type ScenarioSummary struct {
	Name             string  `json:"name"`
	ClearSkySolarRad float64 `json:"clear_sky_solar_rad"`
	SweepMin         float64 `json:"sweep_min"`
	SweepMax         float64 `json:"sweep_max"`
	SweepStep        float64 `json:"sweep_step"`
}

// HealthResponse reports the server and each storage engine
type HealthResponse struct {
	Status  string            `json:"status"`
	Storage map[string]string `json:"storage,omitempty"`
}

// RunListResponse lists the stored runs of a scenario, newest first
type RunListResponse struct {
	Scenario string      `json:"scenario"`
	Runs     []uuid.UUID `json:"runs"`
}

// StoredPointResponse is one stored sample. AirTemperature is absent when the
// sample was not a finite number.
type StoredPointResponse struct {
	AirTemperature   *float64 `json:"air_temperature,omitempty"`
	NetRad           float64  `json:"net_rad"`
	StabilityRegime  string   `json:"stability_regime,omitempty"`
	VaporRegime      string   `json:"vapor_regime,omitempty"`
	TotalMelt        float64  `json:"total_melt"`
	TotalAblation    float64  `json:"total_ablation"`
	TotalWaterOutput float64  `json:"total_water_output"`
	TITotalMelt      float64  `json:"ti_total_melt"`
	TIWaterOutput    float64  `json:"ti_total_water_output"`
	Error            string   `json:"error,omitempty"`
}

// RunResponse is a stored run as returned by GET /runs/{id}
type RunResponse struct {
	ID        uuid.UUID              `json:"id"`
	Scenario  string                 `json:"scenario"`
	CreatedAt time.Time              `json:"created_at"`
	Site      snowmelt.SiteConfig    `json:"site"`
	Weather   snowmelt.WeatherConfig `json:"weather"`
	Points    []StoredPointResponse  `json:"points"`
}

func newRunResponse(r *sqlite.StoredRun) RunResponse {
	resp := RunResponse{
		ID:        r.ID,
		Scenario:  r.Scenario,
		CreatedAt: r.CreatedAt,
		Site:      r.Site,
		Weather:   r.Weather,
		Points:    make([]StoredPointResponse, len(r.Points)),
	}
	for i, p := range r.Points {
		resp.Points[i] = StoredPointResponse{
			NetRad:           p.NetRad,
			StabilityRegime:  p.StabilityRegime,
			VaporRegime:      p.VaporRegime,
			TotalMelt:        p.TotalMelt,
			TotalAblation:    p.TotalAblation,
			TotalWaterOutput: p.TotalWaterOutput,
			TITotalMelt:      p.TITotalMelt,
			TIWaterOutput:    p.TIWaterOutput,
			Error:            p.Error,
		}
		if !math.IsNaN(p.AirTemperature) && !math.IsInf(p.AirTemperature, 0) {
			ta := p.AirTemperature
			resp.Points[i].AirTemperature = &ta
		}
	}
	return resp
}
