package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/audit"
	"cinematch/internal/gate"
	"cinematch/internal/pipeline"
	"cinematch/internal/scan"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var (
		dir        string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <filename>",
		Short: "Show how a single filename would be matched without touching the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()

			name := filepath.Base(args[0])
			parent := strings.TrimSpace(dir)
			if parent == "" && filepath.Dir(args[0]) != "." {
				parent = filepath.Base(filepath.Dir(args[0]))
			}

			orchestrator, err := buildOrchestrator(cfg, logger, runSettings{dryRun: true, parallelism: 1, batchCap: 1}, nil)
			if err != nil {
				return err
			}
			summary, err := orchestrator.Run(cmd.Context(), []scan.FileRecord{{
				Path:    args[0],
				Name:    name,
				Dir:     parent,
				Ext:     strings.ToLower(filepath.Ext(name)),
				IsVideo: true,
			}})
			if err != nil {
				return err
			}
			if len(summary.Results) == 0 {
				return fmt.Errorf("%s was not processed", name)
			}

			result := summary.Results[0]
			if jsonOutput {
				record := audit.FromSummary(summary)
				return writeJSON(cmd, record.Files[0])
			}
			printResolution(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Parent directory name used as a fallback title source")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the decision as JSON")
	return cmd
}

func printResolution(out io.Writer, r pipeline.Result) {
	q := r.Query
	year := "-"
	if q.HasYear() {
		year = fmt.Sprintf("%d", q.Year)
	}
	fmt.Fprintf(out, "Query:    %s (%s)\n", q.Title, year)
	fmt.Fprintf(out, "Decision: %s\n", decisionLabel(r))
	fmt.Fprintf(out, "Match:    %s\n", matchLabel(r))
	if r.Err != "" && r.Cause != nil {
		fmt.Fprintf(out, "Note:     %s: %v\n", r.Err, r.Cause)
	}

	ranked := r.Ranked()
	if auto, ok := r.Selection.(gate.AutoSelected); ok {
		fmt.Fprintf(out, "Score:    %.3f (ai %.2f)\n", auto.Score, auto.AIConfidence)
	}
	if len(ranked) == 0 {
		return
	}
	rows := make([][]string, 0, len(ranked))
	for i, sc := range ranked {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			sc.Candidate.DisplayTitle(),
			fmt.Sprintf("%d", sc.Candidate.ID),
			fmt.Sprintf("%.3f", sc.Score),
			fmt.Sprintf("%.2f", sc.Components.Title),
			fmt.Sprintf("%.2f", sc.Components.Year),
			fmt.Sprintf("%.2f", sc.Components.Popularity),
			fmt.Sprintf("%.2f", sc.Components.Language),
		})
	}
	fmt.Fprintln(out)
	printTable(out, []column{
		numCol("#"), textCol("Candidate"), numCol("TMDB"), numCol("Score"),
		numCol("Title"), numCol("Year"), numCol("Pop"), numCol("Lang"),
	}, rows)
}
