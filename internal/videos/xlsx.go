package videos

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the configured sheet (first sheet by default) of a workbook.
// The sheet must use the same header row as the CSV input.
func LoadXLSX(path string, opt LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Kind: ErrUnreadable, Err: err}
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, &LoadError{Path: path, Kind: ErrUnreadable, Err: errors.New("workbook has no sheets")}
		}
		sheet = list[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, &LoadError{Path: path, Kind: ErrUnreadable,
			Err: fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(f.GetSheetList(), ", "))}
	}

	// Raw values: number formats would turn counts into "98,765" and dates
	// into locale strings.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Path: path, Kind: ErrUnreadable, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Kind: ErrHeader, Err: fmt.Errorf("sheet %q is empty", sheet)}
	}
	dec, err := newDecoder(path, rows[0], opt)
	if err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	pubCol := dec.pos[ColPublishedAt]

	t := &Table{Source: filepath.Base(path)}
	row := 0
	for _, rec := range rows[1:] {
		if blankRow(rec) {
			continue
		}
		row++
		if pubCol < len(rec) {
			rec[pubCol] = serialDate(rec[pubCol], date1904)
		}
		v, err := dec.decode(row, rec)
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, v)
	}
	return t, nil
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// serialDate converts a date cell stored as an Excel serial number to
// YYYY-MM-DD (plus the time of day when it is not midnight). Text cells are
// returned unchanged.
func serialDate(v string, date1904 bool) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || serial <= 0 {
		return v
	}
	ts, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 {
		return ts.Format("2006-01-02")
	}
	return ts.Format("2006-01-02 15:04:05")
}
