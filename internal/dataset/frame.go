// Package dataset holds flattened, location-indexed tables decoded from
// downloaded NOAA files, and the variable-name resolution applied to them.
package dataset

import (
	"fmt"
	"slices"
)

// Frame is a columnar table of float64 values. Missing values are NaN.
type Frame struct {
	names []string
	cols  map[string][]float64
	rows  int
}

// NewFrame builds a frame from equally sized columns. Duplicate names keep the first column.
func NewFrame(names []string, cols [][]float64) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("frame: %d names for %d columns", len(names), len(cols))
	}
	f := &Frame{cols: make(map[string][]float64, len(names))}
	for i, name := range names {
		if i == 0 {
			f.rows = len(cols[i])
		} else if len(cols[i]) != f.rows {
			return nil, fmt.Errorf("frame: column %q has %d rows, want %d", name, len(cols[i]), f.rows)
		}
		if _, dup := f.cols[name]; dup {
			continue
		}
		f.names = append(f.names, name)
		f.cols[name] = cols[i]
	}
	return f, nil
}

// Columns returns the column names in file order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.names)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Column returns the values of the named column, or nil when absent.
func (f *Frame) Column(name string) []float64 {
	return f.cols[name]
}
