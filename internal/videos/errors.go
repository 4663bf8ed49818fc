package videos

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadable indicates the input file could not be opened or read.
	ErrUnreadable = errors.New("input unreadable")
	// ErrHeader indicates the header row does not match the expected schema.
	ErrHeader = errors.New("header mismatch")
	// ErrRow indicates a data row has more fields than the header.
	ErrRow = errors.New("malformed row")
	// ErrCell indicates a cell value could not be parsed for its column.
	ErrCell = errors.New("invalid cell")
	// ErrNotCleaned is returned by Derive when a record still has missing counts.
	ErrNotCleaned = errors.New("table has missing values; run Clean first")
)

// LoadError is returned by the loaders. Kind is one of ErrUnreadable,
// ErrHeader, ErrRow or ErrCell; Err carries the underlying cause, if any.
type LoadError struct {
	Path   string
	Row    int // 1-based data row, 0 for file or header problems
	Column string
	Kind   error
	Err    error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load error"
	}
	msg := fmt.Sprintf("load %s: %v", e.Path, e.Kind)
	if e.Row > 0 {
		msg += fmt.Sprintf(" at row %d", e.Row)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *LoadError) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}
