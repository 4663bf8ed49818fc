// Package pipeline runs the load, clean and derive stages in order.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/vidstats-cli/internal/logging"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

// Options configures one run.
type Options struct {
	Load   videos.LoadOptions
	Derive videos.DeriveOptions
	Logger *slog.Logger
}

// Result keeps every intermediate table. Each stage produced a new table, so
// Raw still holds the rows Clean dropped.
type Result struct {
	Raw     *videos.Table
	Cleaned *videos.Table
	Derived *videos.Table
	Clean   videos.CleanStats
}

// Excluded is the number of cleaned rows the zero-views policy removed.
func (r *Result) Excluded() int {
	return r.Cleaned.Len() - r.Derived.Len()
}

// Run loads path and returns the cleaned and derived tables.
func Run(path string, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("input", path)

	start := time.Now()
	raw, err := videos.Load(path, opt.Load)
	if err != nil {
		return nil, err
	}
	log.Debug("rows loaded", "rows", raw.Len(), "elapsed", time.Since(start))

	cleaned, st := videos.Clean(raw)
	log.Debug("rows cleaned", "kept", st.Kept, "dropped", st.Dropped)
	if st.Dropped > 0 {
		log.Info("dropped rows with missing counts",
			"dropped", st.Dropped,
			"likes", st.MissingByColumn[videos.ColLikes],
			"comments", st.MissingByColumn[videos.ColComments],
			"views", st.MissingByColumn[videos.ColViews])
	}

	derived, err := videos.DeriveWith(cleaned, opt.Derive)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	res := &Result{Raw: raw, Cleaned: cleaned, Derived: derived, Clean: st}
	log.Debug("features derived", "rows", derived.Len(), "zero_views", string(policyOf(opt.Derive)))
	if n := res.Excluded(); n > 0 {
		log.Info("excluded zero-view rows", "excluded", n)
	}
	return res, nil
}

func policyOf(o videos.DeriveOptions) videos.ZeroViewsPolicy {
	if o.ZeroViews == "" {
		return videos.ZeroViewsSentinel
	}
	return o.ZeroViews
}
