package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/vidstats-cli/internal/utils"
)

// WriteCSV writes the header and rows of fr. With bom set the output starts
// with a UTF-8 byte order mark so Excel detects the encoding.
func WriteCSV(w io.Writer, fr *Frame, bom bool) error {
	if bom {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(fr.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(fr.Columns))
	for i, row := range fr.Rows {
		for j := range rec {
			rec[j] = Text(row[j])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes fr to path atomically.
func SaveCSV(path string, fr *Frame, bom bool) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, fr, bom); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// SheetName makes s usable as a worksheet name: at most 31 characters and
// none of the characters Excel rejects.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	if s == "" {
		s = "data"
	}
	if rs := []rune(s); len(rs) > 31 {
		s = string(rs[:31])
	}
	return s
}

// WriteSheet writes fr to sheet starting at A1 with a bold header row. The
// sheet must exist.
func WriteSheet(f *excelize.File, sheet string, fr *Frame) error {
	header := make([]any, len(fr.Columns))
	for i, c := range fr.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(fr.Columns) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(fr.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return fmt.Errorf("header style: %w", err)
		}
	}
	for i, row := range fr.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = Cell(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

// SaveXLSX writes fr as the only sheet of a new workbook at path.
func SaveXLSX(path string, fr *Frame, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet = SheetName(sheet)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := WriteSheet(f, sheet, fr); err != nil {
		return err
	}
	return SaveWorkbook(f, path)
}

// SaveWorkbook serializes f and writes it to path atomically.
func SaveWorkbook(f *excelize.File, path string) error {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("serialize workbook: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
