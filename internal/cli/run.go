package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/assetforge/assetforge/pkg/config"
	"github.com/assetforge/assetforge/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	configPath  string // config file path
	source      string // vector source override
	output      string // output directory override
	noCache     bool   // disable the render cache
	refresh     bool   // bypass the render cache for this run
	interactive bool   // show the stage progress UI
}

// runCommand creates the run command that executes the full asset pipeline.
//
// Defaults come from assetforge.toml when present, else built-in defaults:
//   - source: assets/logo.svg
//   - output: dist/
//   - hero 1200x630, thumbnail 640x640, full-size master 1400x1400
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render, convert, optimize, and bundle the asset set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.source != "" {
				cfg.Source = opts.source
			}
			if opts.output != "" {
				cfg.Output.Dir = opts.output
			}
			return c.runPipeline(cmd.Context(), cfg, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultPath, "config file")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "vector source image (overrides config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when the cache has a matching master")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "show interactive stage progress")

	return cmd
}

// runPipeline executes the pipeline and reports the results to the terminal.
func (c *CLI) runPipeline(ctx context.Context, cfg config.Config, opts *runOpts) error {
	logger := loggerFromContext(ctx)
	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Cache.Close()

	if opts.interactive {
		return runInteractive(ctx, runner, cfg, opts.refresh)
	}

	// Debug runs get the full stage log stream; otherwise a spinner fronts
	// the run and only warnings (degraded stages) break through it.
	runLogger := logger
	var spin *Spinner
	if logger.GetLevel() > charmlog.DebugLevel {
		runLogger = newLogger(os.Stderr, charmlog.WarnLevel)
		spin = newSpinnerWithContext(ctx, "Running pipeline...")
		spin.Start()
	}

	p := newProgress(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Config:  cfg,
		Refresh: opts.refresh,
		Logger:  runLogger,
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	p.done("Pipeline complete")
	for _, path := range result.Artifacts() {
		printFile(path)
	}
	printFile(result.Bundle)
	printStats(len(result.Artifacts())+1, result.CacheInfo.RenderHit)
	printNextStep("Preview assets", appName+" serve")
	return nil
}
