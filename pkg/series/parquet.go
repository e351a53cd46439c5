package series

import (
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// Row is one air temperature sample of a sweep as stored in Parquet
type Row struct {
	AirTemperature  float64 `parquet:"air_temperature"`
	EBWaterOutput   float64 `parquet:"eb_total_water_output"`
	EBTotalAblation float64 `parquet:"eb_total_ablation"`
	EBTotalMelt     float64 `parquet:"eb_total_melt"`
	TITotalMelt     float64 `parquet:"ti_total_melt"`
	TIWaterOutput   float64 `parquet:"ti_total_water_output"`
}

const parquetBatchSize = 1000

// WriteParquet writes the sweep series of t as Parquet rows, one per sample.
// t must hold every series in SweepSeries.
func WriteParquet(w io.Writer, t *Table) error {
	cols := make([][]float64, len(SweepSeries))
	for i, name := range SweepSeries {
		values, ok := t.Get(name)
		if !ok {
			return fmt.Errorf("table has no %s series", name)
		}
		cols[i] = values
	}

	rows := make([]Row, t.Len())
	for i := range rows {
		rows[i] = Row{
			AirTemperature:  cols[0][i],
			EBWaterOutput:   cols[1][i],
			EBTotalAblation: cols[2][i],
			EBTotalMelt:     cols[3][i],
			TITotalMelt:     cols[4][i],
			TIWaterOutput:   cols[5][i],
		}
	}

	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("error writing parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("error closing parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads a file written by WriteParquet back into a table
func ReadParquet(r io.ReaderAt, size int64) (*Table, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("error opening parquet file: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	cols := make([][]float64, len(SweepSeries))
	buf := make([]Row, parquetBatchSize)
	for {
		n, err := reader.Read(buf)
		for _, row := range buf[:n] {
			cols[0] = append(cols[0], row.AirTemperature)
			cols[1] = append(cols[1], row.EBWaterOutput)
			cols[2] = append(cols[2], row.EBTotalAblation)
			cols[3] = append(cols[3], row.EBTotalMelt)
			cols[4] = append(cols[4], row.TITotalMelt)
			cols[5] = append(cols[5], row.TIWaterOutput)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading parquet rows: %w", err)
		}
	}

	t := NewTable()
	for i, name := range SweepSeries {
		values := cols[i]
		if values == nil {
			values = []float64{}
		}
		if err := t.Add(name, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}
