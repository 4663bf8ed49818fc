package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/vidstats-cli/internal/chart"
	"github.com/KaramelBytes/vidstats-cli/internal/run"
)

var (
	chInput  inputFlags
	chOutDir string
	chFormat string
	chSpecs  string
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Render charts of the derived table as an XLSX workbook or Vega-Lite files",
	Long: `Render the exploratory charts of a video table.

By default four charts are written: views vs likes (scatter), total comments
per year and keyword (bar), mean title length per year and keyword (line) and
per-1k engagement sized by views (bubble). Use --specs to supply a YAML list
of chart specs instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, format := chOutDir, chFormat
		if cfg != nil {
			if !cmd.Flags().Changed("out-dir") {
				outDir = cfg.OutputDir
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.ChartFormat
			}
		}
		if outDir == "" {
			return fmt.Errorf("--out-dir is required")
		}
		specs := chart.DefaultSpecs()
		if chSpecs != "" {
			s, err := readSpecs(chSpecs)
			if err != nil {
				return err
			}
			specs = s
		}
		renderer, err := chart.NewRenderer(format, outDir)
		if err != nil {
			return err
		}

		res, opt, err := chInput.run(cmd, args[0])
		if err != nil {
			return err
		}
		paths, err := chart.Present(res.Derived, specs, renderer)
		if err != nil {
			return err
		}

		m := run.New("chart", args[0], outDir)
		m.Record(res.Clean, res.Derived, opt.Derive.ZeroViews)
		for _, p := range paths {
			if err := m.AddArtifact(p, "chart"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", p)
		}
		if err := m.Save(); err != nil {
			return err
		}
		currentLogger().Info("charts rendered", "count", len(specs), "format", format, "manifest", m.ID)
		return nil
	},
}

func readSpecs(path string) ([]chart.Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart specs: %w", err)
	}
	var specs []chart.Spec
	if err := yaml.Unmarshal(b, &specs); err != nil {
		return nil, fmt.Errorf("parse chart specs: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no chart specs in %s", path)
	}
	return specs, nil
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chInput.register(chartCmd)
	chartCmd.Flags().StringVar(&chOutDir, "out-dir", "", "directory for chart artifacts (default from config output_dir)")
	chartCmd.Flags().StringVarP(&chFormat, "format", "f", "", "chart format: xlsx|vegalite (default from config chart_format)")
	chartCmd.Flags().StringVar(&chSpecs, "specs", "", "YAML file with a list of chart specs")
}
