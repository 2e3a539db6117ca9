package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinematch/internal/audit"
	"cinematch/internal/logging"
	"cinematch/internal/metrics"
	"cinematch/internal/notifications"
	"cinematch/internal/pipeline"
	"cinematch/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun         bool
		nonInteractive bool
		parallel       int
		batchCap       int
		jsonOutput     bool
		noAudit        bool
	)

	cmd := &cobra.Command{
		Use:   "run <dir>",
		Short: "Match every movie file under a directory and add it to Radarr",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()

			root, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if info, err := os.Stat(root); err != nil {
				return fmt.Errorf("input directory: %w", err)
			} else if !info.IsDir() {
				return fmt.Errorf("input %s is not a directory", root)
			}

			settings := runSettings{
				dryRun:      dryRun || cfg.Run.DryRun,
				parallelism: cfg.Run.Parallelism,
				batchCap:    cfg.Run.BatchCap,
				promptIn:    cmd.InOrStdin(),
				promptOut:   cmd.ErrOrStderr(),
			}
			if cmd.Flags().Changed("parallel") {
				settings.parallelism = parallel
			}
			if cmd.Flags().Changed("cap") {
				settings.batchCap = batchCap
			}
			settings.interactive = cfg.Run.Interactive && !nonInteractive && stdinIsTerminal()
			if !settings.dryRun {
				if err := cfg.ValidateLibrary(); err != nil {
					return err
				}
			}

			check := preflight.CheckTMDB(cmd.Context(), cfg.TMDB)
			if !check.Passed {
				return fmt.Errorf("catalog unavailable, refusing to start: %s", check.Detail)
			}

			notifier := notifications.NewService(cfg.Notifications)
			observer := &runObserver{
				metrics:  metrics.New(),
				notifier: notifier,
				logger:   logger,
			}
			orchestrator, err := buildOrchestrator(cfg, logger, settings, observer)
			if err != nil {
				return err
			}

			summary, runErr := orchestrator.RunDir(cmd.Context(), root)
			// Reporting still happens after an interrupt.
			reportCtx := context.WithoutCancel(cmd.Context())
			if summary == nil {
				if err := notifier.NotifyError(reportCtx, runErr, root); err != nil {
					logger.Warn("error notification failed", logging.Error(err))
				}
				return runErr
			}

			if err := notifier.NotifyRunCompleted(reportCtx, root, runStats(summary)); err != nil {
				logger.Warn("completion notification failed", logging.Error(err))
			}

			record := audit.FromSummary(summary)
			if cfg.Audit.Enabled && !noAudit {
				path, err := audit.NewWriter(cfg.Audit.Dir).Write(reportCtx, record)
				if err != nil {
					logging.WarnWithContext(logger, "audit record not written", "audit_write_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check audit.dir permissions"),
						logging.String(logging.FieldImpact, "run outcome is only in the log"))
				} else {
					logger.Info("audit record written", logging.String("path", path))
				}
			}
			if path := cfg.Metrics.TextfilePath; path != "" {
				if err := observer.metrics.WriteTextfile(path); err != nil {
					logger.Warn("metrics textfile not written", logging.String("path", path), logging.Error(err))
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, record); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}

			if runErr != nil {
				if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
					return fmt.Errorf("run interrupted; %d file(s) not processed", summary.Unprocessed)
				}
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Match files without touching the library")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Leave uncertain matches pending instead of prompting")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Files processed concurrently (overrides run.parallelism)")
	cmd.Flags().IntVar(&batchCap, "cap", 0, "Maximum files matched in this run (overrides run.batch_cap)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run record as JSON")
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "Do not write an audit record")
	return cmd
}

// runObserver feeds metrics for every file and announces the run start.
type runObserver struct {
	metrics  *metrics.Run
	notifier notifications.Service
	logger   *slog.Logger
}

func (o *runObserver) ObserveStart(ctx context.Context, root string, files int) {
	if err := o.notifier.NotifyRunStarted(ctx, root, files); err != nil {
		o.logger.Warn("start notification failed", logging.Error(err))
	}
}

func (o *runObserver) ObserveResult(res pipeline.Result) {
	o.metrics.ObserveResult(res)
}

func (o *runObserver) ObserveRun(s *pipeline.Summary) {
	o.metrics.ObserveRun(s)
}

func runStats(s *pipeline.Summary) notifications.RunStats {
	return notifications.RunStats{
		Processed:     len(s.Results),
		Added:         s.Counts.Added,
		PendingReview: s.Counts.PendingReview,
		Failed:        s.Counts.Failed,
		Duration:      s.Duration(),
		Cancelled:     s.Cancelled,
	}
}

func printSummary(out io.Writer, s *pipeline.Summary) {
	if len(s.Results) == 0 {
		fmt.Fprintln(out, "No video files processed.")
	} else {
		rows := make([][]string, 0, len(s.Results))
		for _, r := range s.Results {
			rows = append(rows, []string{
				fmt.Sprintf("%d", r.Index+1),
				filepath.Base(r.Path),
				decisionLabel(r),
				matchLabel(r),
				libraryLabel(r),
			})
		}
		printTable(out, []column{numCol("#"), textCol("File"), textCol("Decision"), textCol("Match"), textCol("Library")}, rows)
	}

	c := s.Counts
	parts := []string{
		fmt.Sprintf("%d auto", c.MatchedAuto),
		fmt.Sprintf("%d manual", c.MatchedManual),
		fmt.Sprintf("%d pending review", c.PendingReview),
		fmt.Sprintf("%d skipped", c.Skipped),
	}
	if !s.DryRun {
		parts = append(parts,
			fmt.Sprintf("%d added", c.Added),
			fmt.Sprintf("%d already present", c.AlreadyPresent))
	}
	parts = append(parts, fmt.Sprintf("%d failed", c.Failed))
	fmt.Fprintf(out, "\n%s in %s\n", strings.Join(parts, ", "), s.Duration().Round(100*time.Millisecond))
	if s.DryRun {
		fmt.Fprintln(out, "Dry run: library not modified.")
	}
	if s.Cancelled {
		fmt.Fprintf(out, "Interrupted: %d file(s) not processed.\n", s.Unprocessed)
	}
}
