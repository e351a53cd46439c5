package series

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Format is an on-disk table encoding
type Format string

const (
	FormatCSV     Format = "csv"
	FormatCSVGzip Format = "csv.gz"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts the names used in configuration files
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatCSV, FormatCSVGzip, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unknown series format %q", s)
	}
}

// FormatFromPath picks the format from a file name's extension
func FormatFromPath(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".csv.gz"):
		return FormatCSVGzip, nil
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(name, ".parquet"):
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("cannot tell series format of %s", path)
	}
}

// Filename is the file a scenario's series are written to in format f
func Filename(scenario string, f Format) string {
	return scenario + "." + string(f)
}

// Write encodes t to w in format f
func Write(w io.Writer, t *Table, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatCSVGzip:
		gz := gzip.NewWriter(w)
		if err := WriteCSV(gz, t); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	case FormatParquet:
		return WriteParquet(w, t)
	default:
		return fmt.Errorf("unknown series format %q", f)
	}
}

// WriteFile writes t to path, choosing the format from the extension
func WriteFile(path string, t *Table) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}

	bw := bufio.NewWriter(file)
	if err := Write(bw, t, f); err != nil {
		file.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return file.Close()
}

// ReadFile reads a table from path, choosing the format from the extension
func ReadFile(path string) (*Table, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch f {
	case FormatCSV:
		return ReadCSV(bufio.NewReader(file))
	case FormatCSVGzip:
		gz, err := gzip.NewReader(bufio.NewReader(file))
		if err != nil {
			return nil, fmt.Errorf("error opening gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		return ReadCSV(gz)
	default:
		info, err := file.Stat()
		if err != nil {
			return nil, err
		}
		return ReadParquet(file, info.Size())
	}
}
