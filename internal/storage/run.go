package storage

import (
	"time"

	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
	"github.com/google/uuid"
)

// Run is one sweep of a scenario as handed to the storage engines
type Run struct {
	ID        uuid.UUID              `json:"id"`
	Scenario  string                 `json:"scenario"`
	CreatedAt time.Time              `json:"created_at"`
	Site      snowmelt.SiteConfig    `json:"site"`
	Weather   snowmelt.WeatherConfig `json:"weather"`
	Points    []snowmelt.Point       `json:"points"`
}

// NewRun stamps a sweep with a fresh ID and the current time
func NewRun(scenario string, site snowmelt.SiteConfig, weather snowmelt.WeatherConfig, points []snowmelt.Point) Run {
	return Run{
		ID:        uuid.New(),
		Scenario:  scenario,
		CreatedAt: time.Now().UTC(),
		Site:      site,
		Weather:   weather,
		Points:    points,
	}
}

// PointError returns the error text of a failed point, or "" on success
func PointError(p snowmelt.Point) string {
	if p.Err == nil {
		return ""
	}
	return p.Err.Error()
}
