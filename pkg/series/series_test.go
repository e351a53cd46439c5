package series

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frasertheking/toy-snowmodel/pkg/snowmelt"
)

func sweepTable(t *testing.T) *Table {
	t.Helper()
	points, err := snowmelt.RunSweep(snowmelt.DefaultSiteConfig(), snowmelt.DefaultWeatherConfig(), snowmelt.DefaultTemperatures())
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	return FromSweep(points)
}

func assertTablesEqual(t *testing.T, got, want *Table) {
	t.Helper()
	if strings.Join(got.Names(), ",") != strings.Join(want.Names(), ",") {
		t.Fatalf("series = %v, expected %v", got.Names(), want.Names())
	}
	for _, s := range want.Series() {
		values, _ := got.Get(s.Name)
		if len(values) != len(s.Values) {
			t.Fatalf("%s has %d values, expected %d", s.Name, len(values), len(s.Values))
		}
		for i := range values {
			// Exact: the encodings are lossless
			if values[i] != s.Values[i] {
				t.Errorf("%s[%d] = %v, expected %v", s.Name, i, values[i], s.Values[i])
			}
		}
	}
}

func TestFromSweep(t *testing.T) {
	table := sweepTable(t)

	if table.Len() != 50 {
		t.Fatalf("Len = %d, expected 50", table.Len())
	}
	if strings.Join(table.Names(), ",") != strings.Join(SweepSeries, ",") {
		t.Errorf("Names = %v", table.Names())
	}

	ta, _ := table.Get(AirTemperature)
	melt, _ := table.Get(EBTotalMelt)
	tiMelt, _ := table.Get(TITotalMelt)
	tiWater, _ := table.Get(TIWaterOutput)

	for i := range ta {
		if ta[i] != float64(i) {
			t.Errorf("air_temperature[%d] = %v", i, ta[i])
		}
	}

	// Each row carries the field it is named after
	if math.Abs(melt[10]-18.621806) > 1e-5 {
		t.Errorf("eb_total_melt[10] = %v, expected 18.621806", melt[10])
	}
	if math.Abs(tiMelt[25]-170.7) > 1e-9 {
		t.Errorf("ti_total_melt[25] = %v, expected 170.7", tiMelt[25])
	}
	for i := range tiMelt {
		if tiWater[i] != tiMelt[i] {
			t.Errorf("ti_total_water_output[%d] = %v, expected %v with no rain", i, tiWater[i], tiMelt[i])
		}
	}
}

func TestFromSweepSkipsFailures(t *testing.T) {
	points, err := snowmelt.RunSweep(snowmelt.DefaultSiteConfig(), snowmelt.DefaultWeatherConfig(), []float64{0, math.NaN(), 2})
	if err == nil {
		t.Fatal("expected an error for the NaN sample")
	}

	table := FromSweep(points)
	if table.Len() != 2 {
		t.Fatalf("Len = %d, expected 2", table.Len())
	}
	ta, _ := table.Get(AirTemperature)
	if ta[0] != 0 || ta[1] != 2 {
		t.Errorf("air_temperature = %v, expected [0 2]", ta)
	}
}

func TestTableAdd(t *testing.T) {
	table := NewTable()
	if err := table.Add("a", []float64{1, 2}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := table.Add("a", []float64{3, 4}); err == nil {
		t.Error("expected an error for a duplicate name")
	}
	if err := table.Add("b", []float64{1}); err == nil {
		t.Error("expected an error for a length mismatch")
	}
	if err := table.Add("", []float64{1, 2}); err == nil {
		t.Error("expected an error for an empty name")
	}
	if _, ok := table.Get("b"); ok {
		t.Error("rejected series was stored")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	want := sweepTable(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, want); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(SweepSeries) {
		t.Fatalf("got %d CSV rows, expected %d", len(lines), len(SweepSeries))
	}
	if !strings.HasPrefix(lines[0], "air_temperature,0,1,2,") {
		t.Errorf("first row = %q", lines[0][:40])
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	assertTablesEqual(t, got, want)
}

func TestCSVRoundTripAwkwardValues(t *testing.T) {
	want := NewTable()
	values := []float64{0.1, 1.0 / 3.0, -2.5e-300, 1.7976931348623157e308, math.SmallestNonzeroFloat64, math.Copysign(0, -1)}
	if err := want.Add("awkward", values); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, want); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	assertTablesEqual(t, got, want)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-numeric value", "a,1,2\nb,1,x\n"},
		{"ragged rows", "a,1,2\nb,1\n"},
		{"duplicate series", "a,1\na,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParquetRoundTrip(t *testing.T) {
	want := sweepTable(t)

	var buf bytes.Buffer
	if err := WriteParquet(&buf, want); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	data := buf.Bytes()
	got, err := ReadParquet(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadParquet: %v", err)
	}
	assertTablesEqual(t, got, want)
}

func TestWriteParquetNeedsSweepSeries(t *testing.T) {
	table := NewTable()
	if err := table.Add(AirTemperature, []float64{1}); err != nil {
		t.Fatal(err)
	}
	if err := WriteParquet(&bytes.Buffer{}, table); err == nil {
		t.Error("expected an error for a table without the sweep series")
	}
}

func TestFileRoundTrip(t *testing.T) {
	want := sweepTable(t)
	dir := t.TempDir()

	for _, f := range []Format{FormatCSV, FormatCSVGzip, FormatParquet} {
		t.Run(string(f), func(t *testing.T) {
			path := filepath.Join(dir, Filename("default", f))
			if err := WriteFile(path, want); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			assertTablesEqual(t, got, want)
		})
	}
}

func TestFormats(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out/default.csv", FormatCSV, false},
		{"out/default.CSV.GZ", FormatCSVGzip, false},
		{"default.parquet", FormatParquet, false},
		{"default.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatFromPath = %q, expected %q", got, tt.want)
			}
		})
	}

	if f, err := ParseFormat(".Parquet"); err != nil || f != FormatParquet {
		t.Errorf("ParseFormat(.Parquet) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("expected an error for xlsx")
	}
}
