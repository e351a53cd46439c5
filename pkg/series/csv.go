package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes one row per series: the series name followed by its values.
// Values use the shortest representation that parses back to the same
// float64, so ReadCSV reproduces them exactly.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	for _, s := range t.Series() {
		record := make([]string, 0, len(s.Values)+1)
		record = append(record, s.Name)
		for _, v := range s.Values {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("error writing series %s: %w", s.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads series written by WriteCSV
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	// Row length is checked by Table.Add so the error names the series
	cr.FieldsPerRecord = -1

	t := NewTable()
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		values := make([]float64, len(record)-1)
		for i, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: series %s: value %d: %w", line, record[0], i+1, err)
			}
			values[i] = v
		}
		if err := t.Add(record[0], values); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return t, nil
}
