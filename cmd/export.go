package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vidstats-cli/internal/run"
	"github.com/KaramelBytes/vidstats-cli/internal/tabular"
	"github.com/KaramelBytes/vidstats-cli/internal/utils"
)

var (
	expInput    inputFlags
	expOutput   string
	expBOM      bool
	expManifest bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the cleaned and derived table as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		if expOutput == "" {
			return fmt.Errorf("--output is required")
		}
		if utils.SameFile(input, expOutput) {
			return fmt.Errorf("refusing to overwrite input %s", input)
		}
		res, opt, err := expInput.run(cmd, input)
		if err != nil {
			return err
		}
		fr := tabular.FromTable(res.Derived)
		switch ext := strings.ToLower(filepath.Ext(expOutput)); ext {
		case ".csv":
			err = tabular.SaveCSV(expOutput, fr, expBOM)
		case ".xlsx":
			err = tabular.SaveXLSX(expOutput, fr, "derived")
		default:
			return fmt.Errorf("unsupported output extension %q (use .csv or .xlsx)", ext)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d rows to %s\n", fr.Len(), expOutput)

		if !expManifest {
			return nil
		}
		m := run.New("export", input, filepath.Dir(expOutput))
		m.Record(res.Clean, res.Derived, opt.Derive.ZeroViews)
		if err := m.AddArtifact(expOutput, "table"); err != nil {
			return err
		}
		if err := m.Save(); err != nil {
			return err
		}
		currentLogger().Debug("manifest saved", "id", m.ID, "dir", m.Dir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	expInput.register(exportCmd)
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "output path (.csv or .xlsx)")
	exportCmd.Flags().BoolVar(&expBOM, "bom", false, "CSV: prefix a UTF-8 byte order mark")
	exportCmd.Flags().BoolVar(&expManifest, "manifest", true, "write manifest.json next to the output")
}
