package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

// Options controls report generation.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopKeywords limits the keyword frequency list.
	TopKeywords int
	// Aggregations are computed and rendered in order.
	Aggregations []AggregationSpec
	// ZeroViews is the policy the table was derived with, for the notes.
	ZeroViews videos.ZeroViewsPolicy
}

// AggregationSpec describes one Aggregate call.
type AggregationSpec struct {
	Keys    []GroupKey `json:"keys" yaml:"keys"`
	Measure Measure    `json:"measure" yaml:"measure"`
	Reducer Reducer    `json:"reducer" yaml:"reducer"`
}

// DefaultAggregations are the summaries the default charts use:
// total comments and mean title length per (publication_year, keyword).
func DefaultAggregations() []AggregationSpec {
	return []AggregationSpec{
		{Keys: DefaultKeys, Measure: MeasureComments, Reducer: ReduceSum},
		{Keys: DefaultKeys, Measure: MeasureTitleLength, Reducer: ReduceMean},
	}
}

// DefaultOptions returns reasonable defaults for the dataset report.
func DefaultOptions() Options {
	return Options{
		SampleRows:   5,
		TopKeywords:  10,
		Aggregations: DefaultAggregations(),
		ZeroViews:    videos.ZeroViewsSentinel,
	}
}

// Report is a markdown-friendly summary of a cleaned and derived dataset.
type Report struct {
	Name            string          `json:"name" yaml:"name"`
	Loaded          int             `json:"loaded" yaml:"loaded"`
	Kept            int             `json:"kept" yaml:"kept"`
	Dropped         int             `json:"dropped" yaml:"dropped"`
	MissingByColumn map[string]int  `json:"missing_by_column" yaml:"missing_by_column"`
	Rows            int             `json:"rows" yaml:"rows"`
	ZeroViews       int             `json:"zero_views" yaml:"zero_views"`
	ZeroViewsPolicy string          `json:"zero_views_policy" yaml:"zero_views_policy"`
	Cols            []ColumnSummary `json:"columns" yaml:"columns"`
	Keywords        []CategoryCount `json:"keywords" yaml:"keywords"`
	Groups          []GroupTable    `json:"groups" yaml:"groups"`
	Samples         [][]string      `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings        []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ColumnSummary captures statistics for one numeric field.
type ColumnSummary struct {
	Name    string  `json:"name" yaml:"name"`
	Count   int     `json:"count" yaml:"count"`
	Missing int     `json:"missing" yaml:"missing"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Std     float64 `json:"std" yaml:"std"`
}

type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// GroupTable is a serializable rendering of an Aggregation.
type GroupTable struct {
	Label string     `json:"label" yaml:"label"`
	Keys  []string   `json:"keys" yaml:"keys"`
	Rows  []GroupRow `json:"rows" yaml:"rows"`
	agg   *Aggregation
}

type GroupRow struct {
	Key   []string `json:"key" yaml:"key"`
	Size  int      `json:"size" yaml:"size"`
	Value *float64 `json:"value" yaml:"value"`
}

// Aggregation returns the underlying result.
func (g GroupTable) Aggregation() *Aggregation { return g.agg }

// NewGroupTable converts an aggregation for rendering and serialization.
func NewGroupTable(a *Aggregation) GroupTable {
	gt := GroupTable{Label: a.Label(), agg: a}
	for _, k := range a.Keys {
		gt.Keys = append(gt.Keys, string(k))
	}
	for _, g := range a.Groups {
		row := GroupRow{Key: g.Key, Size: g.Size}
		if !math.IsNaN(g.Value) {
			v := g.Value
			row.Value = &v
		}
		gt.Rows = append(gt.Rows, row)
	}
	return gt
}

var numericFields = []string{
	videos.FieldLikes, videos.FieldComments, videos.FieldViews,
	videos.FieldLikesPer1K, videos.FieldCommentsPer1K, videos.FieldTitleLength,
}

// Summarize computes a Report over a derived table. cs describes the cleaning
// step that produced it.
func Summarize(t *videos.Table, cs videos.CleanStats, opt Options) (*Report, error) {
	if t.Len() > 0 && !t.Derived() {
		return nil, fmt.Errorf("summarize: %w", ErrNotDerived)
	}
	rep := &Report{
		Loaded:          cs.Input,
		Kept:            cs.Kept,
		Dropped:         cs.Dropped,
		MissingByColumn: cs.MissingByColumn,
		Rows:            t.Len(),
		ZeroViewsPolicy: string(opt.ZeroViews),
	}
	if t != nil {
		rep.Name = t.Source
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}

	// Welford accumulators per numeric field
	type colAcc struct {
		n, miss  int
		mean, m2 float64
		min, max float64
	}
	accs := make([]*colAcc, len(numericFields))
	for i := range accs {
		accs[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1)}
	}
	cats := map[string]int{}

	if t != nil {
		for _, r := range t.Records {
			if r.Views.N == 0 {
				rep.ZeroViews++
			}
			cats[r.Keyword]++
			for i, name := range numericFields {
				x, ok, err := measureValue(r, Measure(name))
				if err != nil {
					return nil, err
				}
				c := accs[i]
				if !ok {
					c.miss++
					continue
				}
				c.n++
				if x < c.min {
					c.min = x
				}
				if x > c.max {
					c.max = x
				}
				delta := x - c.mean
				c.mean += delta / float64(c.n)
				c.m2 += delta * (x - c.mean)
			}
			if len(rep.Samples) < sampleRows {
				rep.Samples = append(rep.Samples, sampleRow(r))
			}
		}
	}

	for i, name := range numericFields {
		c := accs[i]
		s := ColumnSummary{Name: name, Count: c.n, Missing: c.miss}
		if c.n > 0 {
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
		}
		if c.n > 1 {
			s.Std = math.Sqrt(c.m2 / float64(c.n-1))
		}
		rep.Cols = append(rep.Cols, s)
	}

	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if opt.TopKeywords > 0 && len(tops) > opt.TopKeywords {
		tops = tops[:opt.TopKeywords]
	}
	rep.Keywords = tops

	for _, spec := range opt.Aggregations {
		a, err := Aggregate(t, spec.Keys, spec.Measure, spec.Reducer)
		if err != nil {
			return nil, err
		}
		rep.Groups = append(rep.Groups, NewGroupTable(a))
	}

	if rep.Dropped > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("dropped %d/%d rows with missing likes, comments or views", rep.Dropped, rep.Loaded))
	}
	if rep.ZeroViews > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d rows have zero views; per-1k ratios are undefined (n/a) for them", rep.ZeroViews))
	}
	if excluded := rep.Kept - rep.Rows; excluded > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("excluded %d zero-view rows from derived features", excluded))
	}
	return rep, nil
}

func sampleRow(r videos.Record) []string {
	f := r.Features
	return []string{
		r.VideoID, r.Title, r.PublishedRaw, r.Keyword,
		r.Likes.String(), r.Comments.String(), r.Views.String(),
		formatRatio(f.LikesPer1K), formatRatio(f.CommentsPer1K),
		fmt.Sprintf("%d", f.TitleLength), f.PublicationYear,
	}
}

var sampleHeader = []string{
	videos.FieldVideoID, videos.FieldTitle, videos.FieldPublishedAt, videos.FieldKeyword,
	videos.FieldLikes, videos.FieldComments, videos.FieldViews,
	videos.FieldLikesPer1K, videos.FieldCommentsPer1K, videos.FieldTitleLength, videos.FieldPublicationYear,
}

func formatRatio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(p.Sprintf("Rows: %d loaded, %d kept, %d dropped\n", r.Loaded, r.Kept, r.Dropped))
	if r.Rows != r.Kept {
		b.WriteString(p.Sprintf("Derived rows: %d\n", r.Rows))
	}
	if r.ZeroViewsPolicy != "" {
		b.WriteString(fmt.Sprintf("Zero-views policy: %s\n", r.ZeroViewsPolicy))
	}

	if len(r.MissingByColumn) > 0 {
		b.WriteString("\n[MISSING VALUES]\n")
		for _, col := range []string{videos.ColLikes, videos.ColComments, videos.ColViews} {
			if n := r.MissingByColumn[col]; n > 0 {
				b.WriteString(p.Sprintf("- %s: %d\n", col, n))
			}
		}
	}

	b.WriteString("\n[FEATURES]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: ", c.Name))
		if c.Count == 0 {
			b.WriteString("no values")
		} else {
			b.WriteString(p.Sprintf("n %d, min %.4g, max %.4g, mean %.4g, std %.4g", c.Count, c.Min, c.Max, c.Mean, c.Std))
		}
		if c.Missing > 0 {
			b.WriteString(fmt.Sprintf(" (%d undefined)", c.Missing))
		}
		b.WriteString("\n")
	}

	if len(r.Keywords) > 0 {
		b.WriteString("\n[KEYWORDS]\n")
		for i, kv := range r.Keywords {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s(%d)", safeVal(safeName(kv.Value)), kv.Count))
		}
		b.WriteString("\n")
	}

	for _, g := range r.Groups {
		b.WriteString(fmt.Sprintf("\n[GROUP-BY %s]\n", strings.ToUpper(g.Label)))
		b.WriteString(g.Markdown())
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		b.WriteString(strings.Join(sampleHeader, " | "))
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", len(sampleHeader)))
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if rs := []rune(val); len(rs) > 80 {
					val = string(rs[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders the groups as a Markdown table with n and value columns.
func (g GroupTable) Markdown() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(g.Keys, " | "))
	b.WriteString(" | n | value |\n|")
	b.WriteString(strings.Repeat(" --- |", len(g.Keys)+2))
	b.WriteString("\n")
	for _, row := range g.Rows {
		b.WriteString("| ")
		for _, k := range row.Key {
			b.WriteString(safeVal(safeName(k)))
			b.WriteString(" | ")
		}
		val := "n/a"
		if row.Value != nil {
			val = p.Sprintf("%.2f", *row.Value)
		}
		b.WriteString(fmt.Sprintf("%d | %s |\n", row.Size, val))
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(blank)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
