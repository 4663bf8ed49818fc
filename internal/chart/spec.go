// Package chart turns derived tables and aggregations into static chart
// artifacts. It only reads the frames it is given.
package chart

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/vidstats-cli/internal/analysis"
	"github.com/KaramelBytes/vidstats-cli/internal/tabular"
	"github.com/KaramelBytes/vidstats-cli/internal/validation"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

// ErrEncoding is returned when an encoding refers to a column the frame does
// not have, or to a text column where a number is needed.
var ErrEncoding = errors.New("invalid encoding")

// Kind is the mark type.
type Kind string

const (
	KindScatter Kind = "scatter"
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindBubble  Kind = "bubble"
)

// Encoding maps frame columns to visual channels.
type Encoding struct {
	X     string `json:"x" yaml:"x" validate:"required"`
	Y     string `json:"y" yaml:"y" validate:"required"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	Size  string `json:"size,omitempty" yaml:"size,omitempty"`
}

// Spec describes one chart.
type Spec struct {
	Name     string   `json:"name" yaml:"name" validate:"required,max=31"`
	Title    string   `json:"title" yaml:"title"`
	Kind     Kind     `json:"kind" yaml:"kind" validate:"oneof=scatter bar line bubble"`
	Encoding Encoding `json:"encoding" yaml:"encoding"`
	// Aggregation, when set, charts the aggregated frame instead of the records.
	Aggregation *analysis.AggregationSpec `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
}

// Artifact is the name used for the chart's sheet or file: Name with the
// characters Excel and file systems reject replaced.
func (s Spec) Artifact() string { return tabular.SheetName(s.Name) }

// Chart is a validated spec with its data.
type Chart struct {
	Spec  Spec
	Frame *tabular.Frame
}

// DefaultSpecs are the four standard engagement charts.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:     "views_vs_likes",
			Title:    "Views vs likes by keyword",
			Kind:     KindScatter,
			Encoding: Encoding{X: videos.FieldViews, Y: videos.FieldLikes, Color: videos.FieldKeyword},
		},
		{
			Name:        "comments_by_year",
			Title:       "Total comments per year and keyword",
			Kind:        KindBar,
			Encoding:    Encoding{X: videos.FieldPublicationYear, Y: tabular.ValueColumn(analysis.ReduceSum, analysis.MeasureComments), Color: videos.FieldKeyword},
			Aggregation: &analysis.AggregationSpec{Keys: analysis.DefaultKeys, Measure: analysis.MeasureComments, Reducer: analysis.ReduceSum},
		},
		{
			Name:        "title_length_by_year",
			Title:       "Mean title length per year and keyword",
			Kind:        KindLine,
			Encoding:    Encoding{X: videos.FieldPublicationYear, Y: tabular.ValueColumn(analysis.ReduceMean, analysis.MeasureTitleLength), Color: videos.FieldKeyword},
			Aggregation: &analysis.AggregationSpec{Keys: analysis.DefaultKeys, Measure: analysis.MeasureTitleLength, Reducer: analysis.ReduceMean},
		},
		{
			Name:     "engagement_per_1k",
			Title:    "Likes vs comments per 1k views",
			Kind:     KindBubble,
			Encoding: Encoding{X: videos.FieldLikesPer1K, Y: videos.FieldCommentsPer1K, Color: videos.FieldKeyword, Size: videos.FieldViews},
		},
	}
}

// Validate checks the spec on its own and against the columns of fr.
func (s Spec) Validate(fr *tabular.Frame) error {
	if err := validation.New().Validate(s); err != nil {
		return fmt.Errorf("chart %q: %w", s.Name, err)
	}
	e := s.Encoding
	for _, ch := range []struct{ name, col string }{{"x", e.X}, {"y", e.Y}, {"color", e.Color}, {"size", e.Size}} {
		if ch.col != "" && !fr.Has(ch.col) {
			return fmt.Errorf("chart %q: %s column %q not in [%s]: %w", s.Name, ch.name, ch.col, strings.Join(fr.Columns, ", "), ErrEncoding)
		}
	}
	if !fr.Numeric(e.Y) {
		return fmt.Errorf("chart %q: y column %q is not numeric: %w", s.Name, e.Y, ErrEncoding)
	}
	if s.Kind == KindScatter || s.Kind == KindBubble {
		if !fr.Numeric(e.X) {
			return fmt.Errorf("chart %q: x column %q is not numeric: %w", s.Name, e.X, ErrEncoding)
		}
	}
	if s.Kind == KindBubble && e.Size == "" {
		return fmt.Errorf("chart %q: bubble charts need a size column: %w", s.Name, ErrEncoding)
	}
	if e.Size != "" && !fr.Numeric(e.Size) {
		return fmt.Errorf("chart %q: size column %q is not numeric: %w", s.Name, e.Size, ErrEncoding)
	}
	return nil
}

// Build resolves the frame of every spec from t and validates the encodings.
// Aggregated specs run analysis.Aggregate; the others chart the records.
func Build(t *videos.Table, specs []Spec) ([]Chart, error) {
	if len(specs) == 0 {
		return nil, errors.New("no charts requested")
	}
	seen := map[string]string{}
	charts := make([]Chart, 0, len(specs))
	for _, s := range specs {
		// Sheet and file names are sanitized and Excel compares them case-insensitively.
		id := strings.ToLower(s.Artifact())
		if prev, ok := seen[id]; ok {
			if prev == s.Name {
				return nil, fmt.Errorf("chart name %q repeated", s.Name)
			}
			return nil, fmt.Errorf("chart names %q and %q both map to %q", prev, s.Name, s.Artifact())
		}
		seen[id] = s.Name
		var fr *tabular.Frame
		if s.Aggregation != nil {
			a, err := analysis.Aggregate(t, s.Aggregation.Keys, s.Aggregation.Measure, s.Aggregation.Reducer)
			if err != nil {
				return nil, fmt.Errorf("chart %q: %w", s.Name, err)
			}
			fr = tabular.FromAggregation(a)
		} else {
			fr = tabular.FromTable(t)
		}
		if err := s.Validate(fr); err != nil {
			return nil, err
		}
		charts = append(charts, Chart{Spec: s, Frame: fr})
	}
	return charts, nil
}

// Renderer writes charts and returns the paths of the artifacts it created.
type Renderer interface {
	Render(charts []Chart) ([]string, error)
}

// Present builds the charts of specs from t and hands them to r.
func Present(t *videos.Table, specs []Spec, r Renderer) ([]string, error) {
	charts, err := Build(t, specs)
	if err != nil {
		return nil, err
	}
	return r.Render(charts)
}

const (
	FormatXLSX     = "xlsx"
	FormatVegaLite = "vegalite"
)

// NewRenderer returns the renderer for format writing under dir.
func NewRenderer(format, dir string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXLSX, "":
		return &XLSXRenderer{Path: filepath.Join(dir, "charts.xlsx")}, nil
	case FormatVegaLite, "vega-lite", "vl":
		return &VegaLiteRenderer{Dir: dir}, nil
	}
	return nil, fmt.Errorf("unsupported chart format %q (use xlsx|vegalite)", format)
}
