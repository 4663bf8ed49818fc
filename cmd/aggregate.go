package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/vidstats-cli/internal/analysis"
	"github.com/KaramelBytes/vidstats-cli/internal/tabular"
	"github.com/KaramelBytes/vidstats-cli/internal/utils"
)

var (
	aggInput   inputFlags
	aggGroupBy []string
	aggMeasure string
	aggReducer string
	aggFormat  string
	aggOutput  string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <file>",
	Short: "Group derived records and reduce one measure per group",
	Long: `Group the cleaned and derived records by one or more keys and reduce a measure.

Keys:     publication_year, keyword, video_id
Measures: likes, comments, views, title_length, likes_per_1k, comments_per_1k
Reducers: sum, mean, count, min, max

Undefined per-1k ratios (zero views) are skipped by every reducer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := analysis.ParseGroupKeys(aggGroupBy)
		if err != nil {
			return err
		}
		measure, err := analysis.ParseMeasure(aggMeasure)
		if err != nil {
			return err
		}
		reducer, err := analysis.ParseReducer(aggReducer)
		if err != nil {
			return err
		}
		res, _, err := aggInput.run(cmd, args[0])
		if err != nil {
			return err
		}
		agg, err := analysis.Aggregate(res.Derived, keys, measure, reducer)
		if err != nil {
			return err
		}
		currentLogger().Debug("aggregated", "label", agg.Label(), "groups", len(agg.Groups), "records", agg.Size())

		out, err := renderAggregation(agg, aggFormat)
		if err != nil {
			return err
		}
		if aggOutput != "" {
			if err := utils.SafeWriteFile(aggOutput, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d groups to %s\n", len(agg.Groups), aggOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
		return nil
	},
}

func renderAggregation(agg *analysis.Aggregation, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table", "md":
		gt := analysis.NewGroupTable(agg)
		return []byte(fmt.Sprintf("[GROUP-BY %s]\n%s", strings.ToUpper(gt.Label), gt.Markdown())), nil
	case "csv":
		var buf bytes.Buffer
		if err := tabular.WriteCSV(&buf, tabular.FromAggregation(agg), false); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "json":
		return utils.PrettyJSON(analysis.NewGroupTable(agg))
	case "yaml", "yml":
		b, err := yaml.Marshal(analysis.NewGroupTable(agg))
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported --format: %s (use table|csv|json|yaml)", format)
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggInput.register(aggregateCmd)
	aggregateCmd.Flags().StringSliceVar(&aggGroupBy, "group-by", nil, "comma-separated group keys (default publication_year,keyword)")
	aggregateCmd.Flags().StringVarP(&aggMeasure, "measure", "m", string(analysis.MeasureComments), "measure to reduce")
	aggregateCmd.Flags().StringVarP(&aggReducer, "reducer", "r", string(analysis.ReduceSum), "reducer: sum|mean|count|min|max")
	aggregateCmd.Flags().StringVarP(&aggFormat, "format", "f", "table", "output format: table|csv|json|yaml")
	aggregateCmd.Flags().StringVarP(&aggOutput, "output", "o", "", "optional path to write the result")
}
