package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

// ErrNotDerived is returned when a key or measure needs derived features the
// table does not carry.
var ErrNotDerived = errors.New("table is not derived")

// GroupKey names a categorical field used to form groups.
type GroupKey string

const (
	KeyPublicationYear GroupKey = videos.FieldPublicationYear
	KeyKeyword         GroupKey = videos.FieldKeyword
	KeyVideoID         GroupKey = videos.FieldVideoID
)

// DefaultKeys groups by (publication_year, keyword).
var DefaultKeys = []GroupKey{KeyPublicationYear, KeyKeyword}

// Measure names the numeric field being reduced.
type Measure string

const (
	MeasureLikes         Measure = videos.FieldLikes
	MeasureComments      Measure = videos.FieldComments
	MeasureViews         Measure = videos.FieldViews
	MeasureTitleLength   Measure = videos.FieldTitleLength
	MeasureLikesPer1K    Measure = videos.FieldLikesPer1K
	MeasureCommentsPer1K Measure = videos.FieldCommentsPer1K
)

// Reducer combines the measure values of one group into a scalar.
type Reducer string

const (
	ReduceSum   Reducer = "sum"
	ReduceMean  Reducer = "mean"
	ReduceCount Reducer = "count"
	ReduceMin   Reducer = "min"
	ReduceMax   Reducer = "max"
)

var (
	groupKeys = []GroupKey{KeyPublicationYear, KeyKeyword, KeyVideoID}
	measures  = []Measure{MeasureLikes, MeasureComments, MeasureViews, MeasureTitleLength, MeasureLikesPer1K, MeasureCommentsPer1K}
	reducers  = []Reducer{ReduceSum, ReduceMean, ReduceCount, ReduceMin, ReduceMax}
)

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ParseGroupKeys validates a list of key names. An empty list yields DefaultKeys.
func ParseGroupKeys(names []string) ([]GroupKey, error) {
	if len(names) == 0 {
		return append([]GroupKey(nil), DefaultKeys...), nil
	}
	out := make([]GroupKey, 0, len(names))
	seen := map[GroupKey]bool{}
	for _, n := range names {
		k := GroupKey(normalize(n))
		ok := false
		for _, g := range groupKeys {
			if g == k {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("unsupported group key %q (use %s)", n, joinNames(groupKeys))
		}
		if seen[k] {
			return nil, fmt.Errorf("group key %q repeated", n)
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// ParseMeasure validates a measure name.
func ParseMeasure(s string) (Measure, error) {
	m := Measure(normalize(s))
	for _, v := range measures {
		if v == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported measure %q (use %s)", s, joinNames(measures))
}

// ParseReducer validates a reducer name.
func ParseReducer(s string) (Reducer, error) {
	r := Reducer(normalize(s))
	for _, v := range reducers {
		if v == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported reducer %q (use %s)", s, joinNames(reducers))
}

func joinNames[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}

// Group is one aggregation result row.
type Group struct {
	// Key holds one value per GroupKey, in the order requested.
	Key []string
	// Size is the number of records in the group.
	Size int
	// Value is the reduced measure. NaN when no record had a defined value,
	// except for count, which is 0.
	Value float64
}

// Aggregation is the per-group result of Aggregate, sorted by key.
type Aggregation struct {
	Keys    []GroupKey
	Measure Measure
	Reducer Reducer
	Groups  []Group
}

// Label describes the aggregation, e.g. "sum(comments) by publication_year, keyword".
func (a *Aggregation) Label() string {
	return fmt.Sprintf("%s(%s) by %s", a.Reducer, a.Measure, strings.ReplaceAll(joinNames(a.Keys), "|", ", "))
}

// Lookup returns the group with the given key tuple.
func (a *Aggregation) Lookup(key ...string) (Group, bool) {
	i := sort.Search(len(a.Groups), func(i int) bool { return !keyLess(a.Groups[i].Key, key) })
	if i < len(a.Groups) && equalKey(a.Groups[i].Key, key) {
		return a.Groups[i], true
	}
	return Group{}, false
}

// Total sums Value over all groups, skipping NaN.
func (a *Aggregation) Total() float64 {
	var s float64
	for _, g := range a.Groups {
		if !math.IsNaN(g.Value) {
			s += g.Value
		}
	}
	return s
}

// Size returns the number of records covered by all groups.
func (a *Aggregation) Size() int {
	n := 0
	for _, g := range a.Groups {
		n += g.Size
	}
	return n
}

// Aggregate groups the records of t by keys and reduces measure within each
// group. Every record lands in exactly one group; groups without records are
// never emitted. Per-1k measures skip NaN values.
func Aggregate(t *videos.Table, keys []GroupKey, measure Measure, reducer Reducer) (*Aggregation, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one group key is required")
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	keys, err := ParseGroupKeys(names)
	if err != nil {
		return nil, err
	}
	if measure, err = ParseMeasure(string(measure)); err != nil {
		return nil, err
	}
	if reducer, err = ParseReducer(string(reducer)); err != nil {
		return nil, err
	}
	if needsFeatures(keys, measure) && t.Len() > 0 && !t.Derived() {
		return nil, fmt.Errorf("aggregate %s(%s): %w", reducer, measure, ErrNotDerived)
	}

	type acc struct {
		key      []string
		size     int
		n        int
		sum      float64
		min, max float64
	}
	groups := map[string]*acc{}
	if t != nil {
		for i, r := range t.Records {
			key := make([]string, len(keys))
			for j, k := range keys {
				v, _ := r.Field(string(k))
				key[j], _ = v.(string)
			}
			id := strings.Join(key, "\x1f")
			g := groups[id]
			if g == nil {
				g = &acc{key: key, min: math.Inf(1), max: math.Inf(-1)}
				groups[id] = g
			}
			g.size++
			x, ok, err := measureValue(r, measure)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
			if !ok {
				continue
			}
			g.n++
			g.sum += x
			if x < g.min {
				g.min = x
			}
			if x > g.max {
				g.max = x
			}
		}
	}

	out := &Aggregation{Keys: append([]GroupKey(nil), keys...), Measure: measure, Reducer: reducer}
	out.Groups = make([]Group, 0, len(groups))
	for _, g := range groups {
		v := math.NaN()
		switch reducer {
		case ReduceCount:
			v = float64(g.n)
		case ReduceSum:
			if g.n > 0 {
				v = g.sum
			}
		case ReduceMean:
			if g.n > 0 {
				v = g.sum / float64(g.n)
			}
		case ReduceMin:
			if g.n > 0 {
				v = g.min
			}
		case ReduceMax:
			if g.n > 0 {
				v = g.max
			}
		}
		out.Groups = append(out.Groups, Group{Key: g.key, Size: g.size, Value: v})
	}
	sort.Slice(out.Groups, func(i, j int) bool { return keyLess(out.Groups[i].Key, out.Groups[j].Key) })
	return out, nil
}

func needsFeatures(keys []GroupKey, m Measure) bool {
	for _, k := range keys {
		if k == KeyPublicationYear {
			return true
		}
	}
	switch m {
	case MeasureTitleLength, MeasureLikesPer1K, MeasureCommentsPer1K:
		return true
	}
	return false
}

// measureValue extracts a float. ok is false for NaN ratios.
func measureValue(r videos.Record, m Measure) (float64, bool, error) {
	v, ok := r.Field(string(m))
	if !ok {
		return 0, false, fmt.Errorf("%s is not available; clean and derive the table first", m)
	}
	switch x := v.(type) {
	case int64:
		return float64(x), true, nil
	case int:
		return float64(x), true, nil
	case float64:
		if math.IsNaN(x) {
			return 0, false, nil
		}
		return x, true, nil
	}
	return 0, false, fmt.Errorf("%s is not numeric", m)
}

func keyLess(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func equalKey(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
