package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// CSVDecoder reads a headered CSV grid, one row per grid point, as served by
// ERDDAP griddap (.csv) requests. A units row directly under the header is skipped.
// Non-numeric cells, such as ISO timestamps, decode as NaN.
type CSVDecoder struct{}

func (CSVDecoder) Decode(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	cols := make([][]float64, len(names))
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
		if first {
			first = false
			if isUnitsRow(rec) {
				continue
			}
		}
		for i, cell := range rec {
			cols[i] = append(cols[i], parseCell(cell))
		}
	}
	for i := range cols {
		if cols[i] == nil {
			cols[i] = []float64{}
		}
	}
	return NewFrame(names, cols)
}

func isUnitsRow(rec []string) bool {
	for _, cell := range rec {
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			return false
		}
	}
	return true
}

func parseCell(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
