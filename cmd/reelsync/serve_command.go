package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reelsync/internal/api"
	"reelsync/internal/logging"
	"reelsync/internal/selector"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var pipelines []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run pipelines with ambiguous matches answered through the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := normalizePipelines(pipelines)
			if err != nil {
				return err
			}
			return ctx.serve(cmd.Context(), cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().StringSliceVar(&pipelines, "pipelines", []string{runWatchlist, runRating}, "Pipelines to run (watchlist, rating)")
	return cmd
}

func normalizePipelines(values []string) ([]string, error) {
	seen := make(map[string]bool, len(values))
	runs := make([]string, 0, len(values))
	for _, value := range values {
		run := strings.ToLower(strings.TrimSpace(value))
		switch run {
		case runWatchlist, runRating:
		default:
			return nil, fmt.Errorf("unknown pipeline %q (want watchlist or rating)", value)
		}
		if seen[run] {
			continue
		}
		seen[run] = true
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("at least one pipeline is required")
	}
	return runs, nil
}

// serve starts the selection API, runs every pipeline concurrently with its
// own deferred session, and stops the API once all pipelines are done.
func (c *commandContext) serve(parent context.Context, out io.Writer, runs []string) error {
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

	signalCtx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(signalCtx, cfg, logger, c.newLibrary)
	if err != nil {
		return err
	}
	defer rt.Close()

	registry := selector.NewRegistry()
	sessions := make(map[string]*selector.Session, len(runs))
	for _, run := range runs {
		session := selector.NewSession(run, cfg.SelectionTimeout(), logger)
		registry.Add(session)
		sessions[run] = session
	}
	server := api.NewServer(cfg.Selection.APIBind, cfg.Selection.APIToken, registry, logger)

	group, groupCtx := errgroup.WithContext(signalCtx)
	serverCtx, stopServer := context.WithCancel(groupCtx)
	defer stopServer()

	group.Go(func() error {
		return server.Serve(serverCtx)
	})

	var mu sync.Mutex
	results := make(map[string]pipelineResult, len(runs))
	group.Go(func() error {
		defer stopServer()
		pipelines, pipelineCtx := errgroup.WithContext(groupCtx)
		for _, run := range runs {
			pipelines.Go(func() error {
				result, err := rt.runPipeline(pipelineCtx, run, sessions[run])
				mu.Lock()
				results[run] = result
				mu.Unlock()
				if err != nil {
					return fmt.Errorf("%s pipeline: %w", run, err)
				}
				return nil
			})
		}
		return pipelines.Wait()
	})

	logger.Info("serving selections",
		logging.String("bind", cfg.Selection.APIBind),
		logging.Int("pipelines", len(runs)),
		logging.Bool("auth", cfg.Selection.APIToken != ""))

	err = group.Wait()
	for _, run := range runs {
		if result, ok := results[run]; ok {
			printRunSummary(out, run, result)
		}
	}
	return err
}
