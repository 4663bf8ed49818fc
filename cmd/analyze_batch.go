package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/vidstats-cli/internal/utils"
)

var (
	abInput       inputFlags
	abOutDir      string
	abFormat      string
	abSampleRows  int
	abTopKeywords int
	abQuiet       bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Summarize several CSV/TSV/XLSX video tables, one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		ext := ".summary.md"
		switch strings.ToLower(abFormat) {
		case "json":
			ext = ".summary.json"
		case "yaml", "yml":
			ext = ".summary.yaml"
		}
		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			res, opt, err := abInput.run(cmd, path)
			if err != nil {
				return err
			}
			rep, err := summarize(cmd, res, opt, abSampleRows, abTopKeywords)
			if err != nil {
				return err
			}
			body, err := renderReport(rep, abFormat)
			if err != nil {
				return err
			}
			if abOutDir == "" {
				if !abQuiet {
					fmt.Fprintln(out, strings.TrimRight(string(body), "\n"))
				}
				continue
			}
			outFile := uniquePath(abOutDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), ext)
			if err := utils.SafeWriteFile(outFile, body); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", outFile)
			}
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, and drops
// duplicates. The result is sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// uniquePath returns dir/base+ext, or dir/base__N+ext for the first N >= 2
// that does not exist yet.
func uniquePath(dir, base, ext string) string {
	cand := filepath.Join(dir, base+ext)
	for idx := 2; ; idx++ {
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
		cand = filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
	}
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abInput.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for <name>.summary.<ext> files (default: print)")
	analyzeBatchCmd.Flags().StringVarP(&abFormat, "format", "f", "md", "report format: md|json|yaml")
	analyzeBatchCmd.Flags().IntVar(&abSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	analyzeBatchCmd.Flags().IntVar(&abTopKeywords, "top-keywords", 10, "number of keywords to list (0 = all)")
	analyzeBatchCmd.Flags().BoolVarP(&abQuiet, "quiet", "q", false, "suppress progress output")
}
