package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/vidstats-cli/internal/analysis"
	"github.com/KaramelBytes/vidstats-cli/internal/pipeline"
	"github.com/KaramelBytes/vidstats-cli/internal/utils"
)

var (
	anaInput       inputFlags
	anaOutputPath  string
	anaFormat      string
	anaSampleRows  int
	anaTopKeywords int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Load, clean and derive a video table and print a dataset summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, opt, err := anaInput.run(cmd, args[0])
		if err != nil {
			return err
		}
		rep, err := summarize(cmd, res, opt, anaSampleRows, anaTopKeywords)
		if err != nil {
			return err
		}
		out, err := renderReport(rep, anaFormat)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
		return nil
	},
}

// summarize builds the report with sample and keyword limits taken from the
// flags when set on cmd, else from the configuration.
func summarize(cmd *cobra.Command, res *pipeline.Result, opt pipeline.Options, sampleRows, topKeywords int) (*analysis.Report, error) {
	ropt := analysis.DefaultOptions()
	ropt.ZeroViews = opt.Derive.ZeroViews
	if cfg != nil {
		ropt.SampleRows = cfg.SampleRows
		ropt.TopKeywords = cfg.TopKeywords
	}
	if cmd.Flags().Changed("sample-rows") {
		ropt.SampleRows = sampleRows
	}
	if cmd.Flags().Changed("top-keywords") {
		ropt.TopKeywords = topKeywords
	}
	return analysis.Summarize(res.Derived, res.Clean, ropt)
}

func renderReport(rep *analysis.Report, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return []byte(rep.Markdown()), nil
	case "json":
		return utils.PrettyJSON(rep)
	case "yaml", "yml":
		b, err := yaml.Marshal(rep)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported --format: %s (use md|json|yaml)", format)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "md", "report format: md|json|yaml")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	analyzeCmd.Flags().IntVar(&anaTopKeywords, "top-keywords", 10, "number of keywords to list (0 = all)")
}
