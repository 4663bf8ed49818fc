package videos

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoadOptions controls how input files are read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, ',' is used ('\t' for .tsv files).
	Delimiter rune
	// MissingMarkers are cell values treated as missing counts in addition
	// to the empty cell.
	MissingMarkers []string
	// AllowExtraColumns accepts named headers outside the schema.
	AllowExtraColumns bool
	// Sheet selects the XLSX sheet; empty means the first sheet.
	Sheet string
}

// DefaultMissingMarkers are the spellings pandas and spreadsheet exports use
// for an empty count.
func DefaultMissingMarkers() []string {
	return []string{"NA", "N/A", "NaN", "nan", "null", "None"}
}

// DefaultLoadOptions returns the options used when nothing is configured.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{MissingMarkers: DefaultMissingMarkers()}
}

// Load reads a CSV, TSV or XLSX file depending on its extension.
func Load(path string, opt LoadOptions) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited text file with a header row into a Table.
func LoadCSV(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Kind: ErrUnreadable, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delimiterFor(path, opt.Delimiter)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: path, Kind: ErrHeader, Err: errors.New("file is empty")}
		}
		return nil, &LoadError{Path: path, Kind: ErrUnreadable, Err: fmt.Errorf("read header: %w", err)}
	}
	dec, err := newDecoder(path, header, opt)
	if err != nil {
		return nil, err
	}

	t := &Table{Source: filepath.Base(path)}
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{Path: path, Row: row, Kind: ErrUnreadable, Err: err}
		}
		v, err := dec.decode(row, rec)
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, v)
	}
	return t, nil
}

func delimiterFor(path string, d rune) rune {
	if d != 0 {
		return d
	}
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// decoder maps raw string rows onto Records using a validated header.
type decoder struct {
	path    string
	width   int
	pos     map[string]int
	missing map[string]struct{}
}

func newDecoder(path string, header []string, opt LoadOptions) (*decoder, error) {
	d := &decoder{
		path:    path,
		width:   len(header),
		pos:     make(map[string]int, len(RequiredColumns)),
		missing: map[string]struct{}{"": {}},
	}
	for _, m := range opt.MissingMarkers {
		d.missing[strings.TrimSpace(m)] = struct{}{}
	}
	required := make(map[string]bool, len(RequiredColumns))
	for _, c := range RequiredColumns {
		required[c] = true
	}
	seen := map[string]bool{}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			// positional index column
			continue
		}
		if seen[name] {
			return nil, &LoadError{Path: path, Column: name, Kind: ErrHeader, Err: errors.New("duplicate column")}
		}
		seen[name] = true
		if !required[name] {
			if opt.AllowExtraColumns {
				continue
			}
			return nil, &LoadError{Path: path, Column: name, Kind: ErrHeader, Err: errors.New("unexpected column")}
		}
		d.pos[name] = i
	}
	var absent []string
	for _, c := range RequiredColumns {
		if _, ok := d.pos[c]; !ok {
			absent = append(absent, c)
		}
	}
	if len(absent) > 0 {
		return nil, &LoadError{Path: path, Kind: ErrHeader, Err: fmt.Errorf("missing columns: %s", strings.Join(absent, ", "))}
	}
	return d, nil
}

func (d *decoder) decode(row int, rec []string) (Record, error) {
	if len(rec) > d.width {
		// tolerate trailing empty cells from spreadsheet exports
		for _, v := range rec[d.width:] {
			if strings.TrimSpace(v) != "" {
				return Record{}, &LoadError{Path: d.path, Row: row, Kind: ErrRow,
					Err: fmt.Errorf("%d fields, header has %d", len(rec), d.width)}
			}
		}
	}
	cell := func(col string) string {
		i := d.pos[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	out := Record{
		Title:   cell(ColTitle),
		VideoID: cell(ColVideoID),
		Keyword: cell(ColKeyword),
	}
	raw := cell(ColPublishedAt)
	ts, err := parsePublished(raw)
	if err != nil {
		return Record{}, &LoadError{Path: d.path, Row: row, Column: ColPublishedAt, Kind: ErrCell, Err: err}
	}
	out.PublishedAt = ts
	out.PublishedRaw = raw

	for _, c := range []struct {
		col string
		dst *Count
	}{
		{ColLikes, &out.Likes},
		{ColComments, &out.Comments},
		{ColViews, &out.Views},
	} {
		v, err := d.parseCount(cell(c.col))
		if err != nil {
			return Record{}, &LoadError{Path: d.path, Row: row, Column: c.col, Kind: ErrCell, Err: err}
		}
		*c.dst = v
	}
	return out, nil
}

func (d *decoder) parseCount(s string) (Count, error) {
	if _, ok := d.missing[s]; ok {
		return Count{}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return Count{}, fmt.Errorf("negative count %d", n)
		}
		return Present(n), nil
	}
	// pandas writes integer columns holding NaN as floats ("1234.0")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Count{}, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Count{}, fmt.Errorf("not an integer: %q", s)
	}
	if f < 0 {
		return Count{}, fmt.Errorf("negative count %q", s)
	}
	if f >= math.MaxInt64 {
		return Count{}, fmt.Errorf("count out of range: %q", s)
	}
	return Present(int64(f)), nil
}

func parsePublished(s string) (time.Time, error) {
	if len(s) < 10 {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD prefix, got %q", s)
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD prefix, got %q", s)
	}
	return t, nil
}
