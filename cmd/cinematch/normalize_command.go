package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/normalize"
)

func newNormalizeCommand() *cobra.Command {
	var (
		dir        string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:         "normalize <filename>...",
		Short:       "Print the title and year extracted from filenames",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			n := normalize.New()
			queries := make([]normalize.Query, 0, len(args))
			for _, arg := range args {
				parent := strings.TrimSpace(dir)
				if parent == "" && filepath.Dir(arg) != "." {
					parent = filepath.Base(filepath.Dir(arg))
				}
				queries = append(queries, n.Normalize(filepath.Base(arg), parent))
			}
			if jsonOutput {
				return writeJSON(cmd, queries)
			}

			rows := make([][]string, 0, len(queries))
			for _, q := range queries {
				year := ""
				if q.HasYear() {
					year = fmt.Sprintf("%d", q.Year)
				}
				rows = append(rows, []string{
					q.Source,
					q.Title,
					year,
					strings.Join(q.LanguageHints, ","),
					strings.Join(q.Stripped, " "),
				})
			}
			printTable(cmd.OutOrStdout(), []column{
				textCol("Input"), textCol("Title"), numCol("Year"), textCol("Lang"), textCol("Stripped"),
			}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Parent directory name used as a fallback title source")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output queries as JSON")
	return cmd
}
