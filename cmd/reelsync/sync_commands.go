package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reelsync/internal/config"
	"reelsync/internal/publish"
	"reelsync/internal/reconcile"
)

func newWatchlistCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watchlist",
		Short: "Match the Letterboxd watchlist against the library and publish it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd.Context(), cmd.OutOrStdout(), runWatchlist)
		},
	}
}

func newRatingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rating",
		Short: "Match Letterboxd ratings against the library and push them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSingle(cmd.Context(), cmd.OutOrStdout(), runRating)
		},
	}
}

func newOwnedCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var output string

	cmd := &cobra.Command{
		Use:   "owned",
		Short: "Export library movies with IMDb ids to a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			lib, err := ctx.newLibrary(cfg, logger)
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := lib.Ping(runCtx); err != nil {
				return err
			}

			target := output
			if target == "" {
				target = cfg.ExportPath(publish.OwnedFile)
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			written, err := publish.New(lib, logger).WriteOwned(runCtx, lib, target, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d movies to %s\n", written, target)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Only export the N most recently added movies")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination CSV (defaults to owned.csv in the export directory)")
	return cmd
}

// runSingle runs one pipeline in the foreground under the run lock.
func (c *commandContext) runSingle(parent context.Context, out io.Writer, run string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	lock, err := acquireRunLock(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	runCtx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rt, err := openRuntime(runCtx, cfg, logger, c.newLibrary)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.runPipeline(runCtx, run, c.prompterFor(cfg, out, nil))
	printRunSummary(out, run, result)
	return err
}

func printRunSummary(out io.Writer, run string, result pipelineResult) {
	report := result.Report
	if len(report.Results) == 0 && report.RunID == "" {
		return
	}
	fmt.Fprintf(out, "%s: %d rows, %d matched, %d missing, %d ignored, %d skipped, %d declined\n",
		run,
		len(report.Results),
		report.Count(reconcile.OutcomeMatched),
		report.Count(reconcile.OutcomeMissing),
		report.Count(reconcile.OutcomeIgnored),
		report.Count(reconcile.OutcomeSkipped),
		report.Count(reconcile.OutcomeDeclined))
	summary := result.Publish
	if summary != (publish.Summary{}) {
		fmt.Fprintf(out, "%s: %d published, %d duplicates, %d filtered, %d skipped, %d failed\n",
			run, summary.Published, summary.Duplicates, summary.Filtered, summary.Skipped, summary.Failed)
	}
}
