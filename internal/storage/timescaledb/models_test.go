package timescaledb

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
)

func TestToRecords(t *testing.T) {
	site, weather := snowmelt.DefaultSiteConfig(), snowmelt.DefaultWeatherConfig()
	points, _ := snowmelt.RunSweep(site, weather, []float64{0, math.Inf(1), 10})
	run := storage.NewRun("meadow", site, weather, points)

	rec, rows, err := toRecords(run)
	if err != nil {
		t.Fatalf("toRecords: %v", err)
	}

	if rec.ID != run.ID.String() || rec.Scenario != "meadow" || !rec.CreatedAt.Equal(run.CreatedAt) {
		t.Errorf("run record = %+v", rec)
	}
	var gotSite snowmelt.SiteConfig
	if err := json.Unmarshal([]byte(rec.Site), &gotSite); err != nil || gotSite != site {
		t.Errorf("site column = %s (%v)", rec.Site, err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d point records, expected 3", len(rows))
	}
	for i, row := range rows {
		if row.Idx != i || row.RunID != rec.ID || row.Scenario != "meadow" || !row.Time.Equal(run.CreatedAt) {
			t.Errorf("point %d header = %+v", i, row)
		}
	}

	ok := rows[2]
	if ok.Error != nil || ok.TotalMelt == nil || *ok.TotalMelt != points[2].Result.TotalMelt {
		t.Errorf("point 2 = %+v", ok)
	}
	if ok.StabilityRegime == nil || *ok.StabilityRegime != "stable" {
		t.Errorf("point 2 stability regime = %v", ok.StabilityRegime)
	}

	failed := rows[1]
	if failed.Error == nil || *failed.Error == "" {
		t.Error("point 1 should carry its error")
	}
	if failed.AirTemperature != nil || failed.TotalMelt != nil || failed.NetRad != nil {
		t.Errorf("point 1 should have NULL values, got %+v", failed)
	}
}
