// Package series holds named numeric sequences of equal length and moves them
// in and out of CSV and Parquet files.
package series

import (
	"fmt"

	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
)

// Names of the series built from a sweep, in the order they are written.
const (
	AirTemperature  = "air_temperature"
	EBWaterOutput   = "eb_total_water_output"
	EBTotalAblation = "eb_total_ablation"
	EBTotalMelt     = "eb_total_melt"
	TITotalMelt     = "ti_total_melt"
	TIWaterOutput   = "ti_total_water_output"
)

// SweepSeries lists the series FromSweep produces
var SweepSeries = []string{
	AirTemperature,
	EBWaterOutput,
	EBTotalAblation,
	EBTotalMelt,
	TITotalMelt,
	TIWaterOutput,
}

// Series is one named sequence of values
type Series struct {
	Name   string
	Values []float64
}

// Table is an ordered set of series that all have the same length
type Table struct {
	series []Series
	index  map[string]int
}

// NewTable returns an empty table
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add appends a series. Names must be unique and every series must have the
// same length as the first one added.
func (t *Table) Add(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("series name is empty")
	}
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("duplicate series %q", name)
	}
	if len(t.series) > 0 && len(values) != t.Len() {
		return fmt.Errorf("series %q has %d values, expected %d", name, len(values), t.Len())
	}
	t.index[name] = len(t.series)
	t.series = append(t.series, Series{Name: name, Values: values})
	return nil
}

// Get returns the values of the named series
func (t *Table) Get(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.series[i].Values, true
}

// Series returns every series in insertion order
func (t *Table) Series() []Series {
	return t.series
}

// Names returns the series names in insertion order
func (t *Table) Names() []string {
	names := make([]string, len(t.series))
	for i, s := range t.series {
		names[i] = s.Name
	}
	return names
}

// Len is the number of values in each series
func (t *Table) Len() int {
	if len(t.series) == 0 {
		return 0
	}
	return len(t.series[0].Values)
}

// FromSweep builds the six sweep series from the points that evaluated
// successfully. Failed points are left out of every series.
func FromSweep(points []snowmelt.Point) *Table {
	ok := snowmelt.Succeeded(points)

	cols := make(map[string][]float64, len(SweepSeries))
	for _, name := range SweepSeries {
		cols[name] = make([]float64, len(ok))
	}
	for i, p := range ok {
		r := p.Result
		cols[AirTemperature][i] = p.AirTemperature
		cols[EBWaterOutput][i] = r.TotalWaterOutput
		cols[EBTotalAblation][i] = r.TotalAblation
		cols[EBTotalMelt][i] = r.TotalMelt
		cols[TITotalMelt][i] = r.TITotalMelt
		cols[TIWaterOutput][i] = r.TITotalWaterOutput
	}

	t := NewTable()
	for _, name := range SweepSeries {
		// Names are fixed and lengths equal, so Add cannot fail here
		_ = t.Add(name, cols[name])
	}
	return t
}
