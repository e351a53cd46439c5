package snowmelt

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Comparison summarizes how the temperature-index model tracks the energy
// balance model across a sweep. Failed points are ignored.
type Comparison struct {
	Samples int `json:"samples"`

	MeanMelt   float64 `json:"mean_melt"`
	MeanTIMelt float64 `json:"mean_ti_melt"`
	StdMelt    float64 `json:"std_melt"`
	StdTIMelt  float64 `json:"std_ti_melt"`

	// Correlation is Pearson's r between the two melt series; zero when
	// either series is constant.
	Correlation float64 `json:"correlation"`

	// RMSE and MeanBias are TI minus energy balance, mm/day
	RMSE     float64 `json:"rmse"`
	MeanBias float64 `json:"mean_bias"`

	// MeltOnset is the coldest sampled temperature producing melt, nil when
	// no sample melts.
	MeltOnset   *float64 `json:"melt_onset,omitempty"`
	TIMeltOnset *float64 `json:"ti_melt_onset,omitempty"`
}

// Compare computes a Comparison over the successful points of a sweep
func Compare(points []Point) Comparison {
	ok := Succeeded(points)
	c := Comparison{Samples: len(ok)}
	if len(ok) == 0 {
		return c
	}

	eb := make([]float64, len(ok))
	ti := make([]float64, len(ok))
	for i, p := range ok {
		eb[i] = p.Result.TotalMelt
		ti[i] = p.Result.TITotalMelt

		if eb[i] > 0 && (c.MeltOnset == nil || p.AirTemperature < *c.MeltOnset) {
			t := p.AirTemperature
			c.MeltOnset = &t
		}
		if ti[i] > 0 && (c.TIMeltOnset == nil || p.AirTemperature < *c.TIMeltOnset) {
			t := p.AirTemperature
			c.TIMeltOnset = &t
		}
	}

	c.MeanMelt = stat.Mean(eb, nil)
	c.MeanTIMelt = stat.Mean(ti, nil)
	c.MeanBias = c.MeanTIMelt - c.MeanMelt
	c.RMSE = floats.Distance(ti, eb, 2) / math.Sqrt(float64(len(ok)))

	if len(ok) > 1 {
		c.StdMelt = stat.StdDev(eb, nil)
		c.StdTIMelt = stat.StdDev(ti, nil)
		if c.StdMelt > 0 && c.StdTIMelt > 0 {
			c.Correlation = stat.Correlation(eb, ti, nil)
		}
	}

	return c
}
