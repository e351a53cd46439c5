package timescaledb

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/frasertheking/toy-snowmodel/internal/storage"
)

// RunRecord is a row of snowmelt_runs
type RunRecord struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Scenario  string    `gorm:"column:scenario"`
	CreatedAt time.Time `gorm:"column:created_at"`
	Site      string    `gorm:"column:site;type:jsonb"`
	Weather   string    `gorm:"column:weather;type:jsonb"`
}

// TableName sets the table name for gorm
func (RunRecord) TableName() string {
	return "snowmelt_runs"
}

// PointRecord is a row of snowmelt_points. Pointer fields are NULL for
// points that failed to evaluate.
type PointRecord struct {
	Time             time.Time `gorm:"column:time"`
	RunID            string    `gorm:"column:run_id"`
	Scenario         string    `gorm:"column:scenario"`
	Idx              int       `gorm:"column:idx"`
	AirTemperature   *float64  `gorm:"column:air_temperature"`
	NetRad           *float64  `gorm:"column:net_rad"`
	StabilityRegime  *string   `gorm:"column:stability_regime"`
	VaporRegime      *string   `gorm:"column:vapor_regime"`
	TotalMelt        *float64  `gorm:"column:total_melt"`
	TotalAblation    *float64  `gorm:"column:total_ablation"`
	TotalWaterOutput *float64  `gorm:"column:total_water_output"`
	TITotalMelt      *float64  `gorm:"column:ti_total_melt"`
	TIWaterOutput    *float64  `gorm:"column:ti_water_output"`
	Error            *string   `gorm:"column:error"`
}

// TableName sets the table name for gorm
func (PointRecord) TableName() string {
	return "snowmelt_points"
}

// toRecords converts a run into the rows written for it
func toRecords(r storage.Run) (RunRecord, []PointRecord, error) {
	site, err := json.Marshal(r.Site)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("could not encode site: %w", err)
	}
	weather, err := json.Marshal(r.Weather)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("could not encode weather: %w", err)
	}

	run := RunRecord{
		ID:        r.ID.String(),
		Scenario:  r.Scenario,
		CreatedAt: r.CreatedAt,
		Site:      string(site),
		Weather:   string(weather),
	}

	points := make([]PointRecord, len(r.Points))
	for i, p := range r.Points {
		rec := PointRecord{
			Time:     r.CreatedAt,
			RunID:    run.ID,
			Scenario: r.Scenario,
			Idx:      i,
		}
		if !math.IsNaN(p.AirTemperature) && !math.IsInf(p.AirTemperature, 0) {
			rec.AirTemperature = ptr(p.AirTemperature)
		}

		if p.Err != nil {
			rec.Error = ptr(storage.PointError(p))
			points[i] = rec
			continue
		}

		res := p.Result
		rec.NetRad = ptr(res.NetRad)
		rec.StabilityRegime = ptr(res.StabilityRegime.String())
		rec.VaporRegime = ptr(res.VaporRegime.String())
		rec.TotalMelt = ptr(res.TotalMelt)
		rec.TotalAblation = ptr(res.TotalAblation)
		rec.TotalWaterOutput = ptr(res.TotalWaterOutput)
		rec.TITotalMelt = ptr(res.TITotalMelt)
		rec.TIWaterOutput = ptr(res.TITotalWaterOutput)
		points[i] = rec
	}

	return run, points, nil
}

func ptr[T any](v T) *T {
	return &v
}
