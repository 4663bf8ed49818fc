package chart

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/vidstats-cli/internal/tabular"
)

// XLSXRenderer writes one workbook with a sheet per chart. Each sheet holds
// the chart data and a native Excel chart with one series per color value.
type XLSXRenderer struct {
	Path string
}

var xlsxKinds = map[Kind]excelize.ChartType{
	KindScatter: excelize.Scatter,
	KindBar:     excelize.Col,
	KindLine:    excelize.Line,
	KindBubble:  excelize.Bubble,
}

// Render implements Renderer.
func (r *XLSXRenderer) Render(charts []Chart) ([]string, error) {
	if len(charts) == 0 {
		return nil, errors.New("no charts to render")
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, c := range charts {
		sheet := c.Spec.Artifact()
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("chart %q: %w", c.Spec.Name, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("chart %q: %w", c.Spec.Name, err)
		}
		if err := writeChartSheet(f, sheet, c); err != nil {
			return nil, fmt.Errorf("chart %q: %w", c.Spec.Name, err)
		}
	}
	f.SetActiveSheet(0)
	if err := tabular.SaveWorkbook(f, r.Path); err != nil {
		return nil, err
	}
	return []string{r.Path}, nil
}

func writeChartSheet(f *excelize.File, sheet string, c Chart) error {
	var (
		series  []excelize.ChartSeries
		lastCol int
		err     error
	)
	switch c.Spec.Kind {
	case KindScatter, KindBubble:
		series, lastCol, err = writePointSeries(f, sheet, c)
	default:
		series, lastCol, err = writeCategorySeries(f, sheet, c)
	}
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return nil
	}
	anchor, err := excelize.CoordinatesToCellName(lastCol+2, 1)
	if err != nil {
		return err
	}
	legend := excelize.ChartLegend{Position: "right"}
	if c.Spec.Encoding.Color == "" {
		legend.Position = "none"
	}
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:      xlsxKinds[c.Spec.Kind],
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: c.Spec.Title}},
		Legend:    legend,
		Dimension: excelize.ChartDimension{Width: 640, Height: 360},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.Spec.Encoding.X}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.Spec.Encoding.Y}}, MajorGridLines: true},
	})
}

// writePointSeries writes the frame sorted by color so every color value
// occupies a contiguous block of rows, one series per block.
func writePointSeries(f *excelize.File, sheet string, c Chart) ([]excelize.ChartSeries, int, error) {
	fr, e := c.Frame, c.Spec.Encoding
	sorted := &tabular.Frame{Name: fr.Name, Columns: fr.Columns, Rows: append([][]any(nil), fr.Rows...)}
	ci := fr.Index(e.Color)
	if ci >= 0 {
		sort.SliceStable(sorted.Rows, func(i, j int) bool {
			return tabular.Text(sorted.Rows[i][ci]) < tabular.Text(sorted.Rows[j][ci])
		})
	}
	if err := tabular.WriteSheet(f, sheet, sorted); err != nil {
		return nil, 0, err
	}

	col := func(name string) string {
		n, _ := excelize.ColumnNumberToName(fr.Index(name) + 1)
		return n
	}
	var series []excelize.ChartSeries
	for start := 0; start < len(sorted.Rows); {
		end := start + 1
		for ci >= 0 && end < len(sorted.Rows) && tabular.Text(sorted.Rows[end][ci]) == tabular.Text(sorted.Rows[start][ci]) {
			end++
		}
		first, last := start+2, end+1
		s := excelize.ChartSeries{
			Categories: rangeRef(sheet, col(e.X), first, last),
			Values:     rangeRef(sheet, col(e.Y), first, last),
			Line:       excelize.ChartLine{Type: excelize.ChartLineNone},
			Marker:     excelize.ChartMarker{Symbol: "circle", Size: 6},
		}
		if ci >= 0 {
			s.Name = cellRef(sheet, col(e.Color), first)
		} else {
			s.Name = cellRef(sheet, col(e.Y), 1)
		}
		if e.Size != "" {
			s.Sizes = rangeRef(sheet, col(e.Size), first, last)
		}
		series = append(series, s)
		start = end
	}
	return series, len(fr.Columns), nil
}

// writeCategorySeries writes the frame, then a pivot of y by x (rows) and
// color (columns) to its right. Duplicate cells are summed.
func writeCategorySeries(f *excelize.File, sheet string, c Chart) ([]excelize.ChartSeries, int, error) {
	fr, e := c.Frame, c.Spec.Encoding
	if err := tabular.WriteSheet(f, sheet, fr); err != nil {
		return nil, 0, err
	}
	xi, yi, ci := fr.Index(e.X), fr.Index(e.Y), fr.Index(e.Color)

	xs, colors := distinct(fr, xi), []string{e.Y}
	if ci >= 0 {
		colors = distinct(fr, ci)
	}
	if len(xs) == 0 {
		return nil, len(fr.Columns), nil
	}
	type cellKey struct{ x, color string }
	sums := map[cellKey]float64{}
	for _, row := range fr.Rows {
		v, ok := tabular.Float(row[yi])
		if !ok {
			continue
		}
		k := cellKey{x: tabular.Text(row[xi])}
		if ci >= 0 {
			k.color = tabular.Text(row[ci])
		} else {
			k.color = e.Y
		}
		sums[k] += v
	}

	base := len(fr.Columns) + 2
	header := []any{e.X}
	for _, name := range colors {
		header = append(header, name)
	}
	anchor, _ := excelize.CoordinatesToCellName(base, 1)
	if err := f.SetSheetRow(sheet, anchor, &header); err != nil {
		return nil, 0, err
	}
	for i, x := range xs {
		row := []any{x}
		for _, name := range colors {
			if v, ok := sums[cellKey{x, name}]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(base, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, 0, err
		}
	}

	catCol, _ := excelize.ColumnNumberToName(base)
	series := make([]excelize.ChartSeries, 0, len(colors))
	for j := range colors {
		valCol, _ := excelize.ColumnNumberToName(base + 1 + j)
		series = append(series, excelize.ChartSeries{
			Name:       cellRef(sheet, valCol, 1),
			Categories: rangeRef(sheet, catCol, 2, len(xs)+1),
			Values:     rangeRef(sheet, valCol, 2, len(xs)+1),
		})
	}
	return series, base + len(colors), nil
}

func distinct(fr *tabular.Frame, col int) []string {
	seen := map[string]bool{}
	var out []string
	for _, row := range fr.Rows {
		v := tabular.Text(row[col])
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func cellRef(sheet, col string, row int) string {
	return fmt.Sprintf("%s!$%s$%d", quoteSheet(sheet), col, row)
}

func rangeRef(sheet, col string, first, last int) string {
	return fmt.Sprintf("%s!$%s$%d:$%s$%d", quoteSheet(sheet), col, first, col, last)
}
