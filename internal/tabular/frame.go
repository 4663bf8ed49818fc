// Package tabular holds a column-named, row-oriented view of a table or an
// aggregation, and writes it to CSV or XLSX.
package tabular

import (
	"fmt"
	"math"
	"strconv"

	"github.com/KaramelBytes/vidstats-cli/internal/analysis"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

// ColumnSize is the group size column of an aggregation frame.
const ColumnSize = "n"

// Frame is a rectangular table. Cells hold string, int64, int or float64
// values, or nil for an empty cell. NaN floats are undefined values.
type Frame struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Index returns the position of col, or -1.
func (f *Frame) Index(col string) int {
	for i, c := range f.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether col exists.
func (f *Frame) Has(col string) bool { return f.Index(col) >= 0 }

// Numeric reports whether every defined value of col is a number.
func (f *Frame) Numeric(col string) bool {
	i := f.Index(col)
	if i < 0 {
		return false
	}
	for _, row := range f.Rows {
		switch row[i].(type) {
		case nil, int, int64, float64:
		default:
			return false
		}
	}
	return true
}

// FromTable builds a frame with one column per table field. Derived
// columns are present only when the table is derived.
func FromTable(t *videos.Table) *Frame {
	fr := &Frame{Columns: t.Fields()}
	if t == nil {
		return fr
	}
	fr.Name = t.Source
	fr.Rows = make([][]any, 0, t.Len())
	for _, r := range t.Records {
		row := make([]any, len(fr.Columns))
		for i, col := range fr.Columns {
			if v, ok := r.Field(col); ok {
				row[i] = v
			}
		}
		fr.Rows = append(fr.Rows, row)
	}
	return fr
}

// ValueColumn names the reduced column of an aggregation, e.g. "sum_comments".
func ValueColumn(reducer analysis.Reducer, measure analysis.Measure) string {
	return fmt.Sprintf("%s_%s", reducer, measure)
}

// FromAggregation builds a frame with the key columns, the group size and
// the reduced value.
func FromAggregation(a *analysis.Aggregation) *Frame {
	fr := &Frame{Name: a.Label()}
	for _, k := range a.Keys {
		fr.Columns = append(fr.Columns, string(k))
	}
	fr.Columns = append(fr.Columns, ColumnSize, ValueColumn(a.Reducer, a.Measure))
	fr.Rows = make([][]any, 0, len(a.Groups))
	for _, g := range a.Groups {
		row := make([]any, 0, len(fr.Columns))
		for _, k := range g.Key {
			row = append(row, k)
		}
		row = append(row, g.Size, g.Value)
		fr.Rows = append(fr.Rows, row)
	}
	return fr
}

// Float converts a numeric cell. ok is false for nil, NaN and strings.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	}
	return 0, false
}

// Text renders a cell for CSV output. Floats keep two decimals; undefined
// values become empty strings.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
	return fmt.Sprint(v)
}

// Cell converts a value for a spreadsheet cell; undefined values become nil.
func Cell(v any) any {
	if x, ok := v.(float64); ok && math.IsNaN(x) {
		return nil
	}
	return v
}
