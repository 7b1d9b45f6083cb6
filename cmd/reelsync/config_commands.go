package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelsync/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: set plex.token (or PLEX_TOKEN) and point paths.export_dir at your unpacked Letterboxd export.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func resolveInitTarget(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		target, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return target, nil
	}
	target, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return target, nil
}

// newConfigValidateCommand loads the configuration and reports which parts of
// the sync are ready: the Plex connection, the export files and bridging.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration and report sync readiness",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if err := cfg.RequirePlex(); err != nil {
				fmt.Fprintf(out, "Plex: %v\n", err)
			} else {
				fmt.Fprintf(out, "Plex: %s (movies %q, shows %q)\n", cfg.Plex.URL, cfg.Plex.MoviesLibrary, cfg.Plex.TVLibrary)
			}
			reportExportFile(out, cfg, cfg.Letterboxd.WatchlistFile)
			reportExportFile(out, cfg, cfg.Letterboxd.RatingsFile)
			if cfg.Letterboxd.IncludeWatchedNotRated {
				reportExportFile(out, cfg, cfg.Letterboxd.WatchedFile)
			}
			if cfg.TMDB.Enabled {
				fmt.Fprintf(out, "TMDB bridging: enabled (region %s, release type %s)\n", cfg.TMDB.Region, cfg.TMDB.ReleaseType)
			} else {
				fmt.Fprintln(out, "TMDB bridging: disabled")
			}
			fmt.Fprintf(out, "Selection mode: %s\n", cfg.Selection.Mode)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func reportExportFile(out io.Writer, cfg *config.Config, name string) {
	path := cfg.ExportPath(name)
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "Export %s: not found at %s\n", name, filepath.Dir(path))
		return
	}
	fmt.Fprintf(out, "Export %s: ok\n", name)
}
