package cmd

import (
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/vidstats-cli/internal/config"
	"github.com/KaramelBytes/vidstats-cli/internal/pipeline"
	"github.com/KaramelBytes/vidstats-cli/internal/videos"
)

// inputFlags are the loader and deriver flags shared by every command that
// reads a video table. Unset flags fall back to the configuration.
type inputFlags struct {
	delimiter  string
	sheet      string
	zeroViews  string
	allowExtra bool
}

func (f *inputFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: auto|comma|semicolon|tab|pipe (or the character)")
	c.Flags().StringVar(&f.sheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	c.Flags().StringVar(&f.zeroViews, "zero-views", "", "rows with zero views: sentinel (ratios n/a) | exclude")
	c.Flags().BoolVar(&f.allowExtra, "allow-extra-columns", false, "accept named columns outside the schema")
}

// options merges the configuration with the flags set on c.
func (f *inputFlags) options(c *cobra.Command) (pipeline.Options, error) {
	base := cfg
	if base == nil {
		base = cfgpkg.Defaults()
	}
	load := base.LoadOptions()
	if c.Flags().Changed("delimiter") {
		d, err := cfgpkg.ParseDelimiter(f.delimiter)
		if err != nil {
			return pipeline.Options{}, err
		}
		load.Delimiter = d
	}
	if c.Flags().Changed("sheet") {
		load.Sheet = f.sheet
	}
	if c.Flags().Changed("allow-extra-columns") {
		load.AllowExtraColumns = f.allowExtra
	}
	derive, err := base.DeriveOptions()
	if err != nil {
		return pipeline.Options{}, err
	}
	if c.Flags().Changed("zero-views") {
		p, err := videos.ParseZeroViewsPolicy(f.zeroViews)
		if err != nil {
			return pipeline.Options{}, err
		}
		derive.ZeroViews = p
	}
	return pipeline.Options{Load: load, Derive: derive, Logger: currentLogger()}, nil
}

// run loads, cleans and derives path with the options of c.
func (f *inputFlags) run(c *cobra.Command, path string) (*pipeline.Result, pipeline.Options, error) {
	opt, err := f.options(c)
	if err != nil {
		return nil, opt, err
	}
	res, err := pipeline.Run(path, opt)
	return res, opt, err
}
