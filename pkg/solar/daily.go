package solar

import (
	"time"
)

// integrationStep is the sampling interval for daily integration
const integrationStep = 5 * time.Minute

// DailyClearSkyRadiation integrates clear-sky GHI over the local solar day
// containing date and returns MJ/(m² day), the unit the snowmelt model takes
// for clear-sky solar radiation. Only the calendar date of date is used.
func DailyClearSkyRadiation(date time.Time, latitude, longitude, altitude float64) float64 {
	y, m, d := date.Date()

	// Solar midnight falls longitude/15 hours before 00:00 UTC east of Greenwich
	offset := time.Duration(-longitude / 15.0 * float64(time.Hour))
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(offset)

	steps := int((24 * time.Hour) / integrationStep)
	joules := 0.0
	for i := 0; i < steps; i++ {
		// Midpoint rule
		t := start.Add(time.Duration(i)*integrationStep + integrationStep/2)
		joules += CalculateGHIIneichenPerez(t, latitude, longitude, altitude) * integrationStep.Seconds()
	}

	return joules / 1e6
}
