package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/assetforge/assetforge/internal/cli"
	aferrors "github.com/assetforge/assetforge/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		code := exitStatus(ctx, err)
		if code != aferrors.ExitInterrupted {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}

// exitStatus maps a failed run to its process exit code. Dedicated codes
// (missing source, no renderer) win even when a signal arrived; only
// cancellation itself or a generic failure during shutdown becomes 130. A
// tool killed mid-run surfaces as a wrapped exec error rather than
// context.Canceled, which is why the signal context is consulted at all.
func exitStatus(ctx context.Context, err error) int {
	if errors.Is(err, context.Canceled) {
		return aferrors.ExitInterrupted
	}
	code := aferrors.ExitCode(err)
	if code == aferrors.ExitFailure && ctx.Err() != nil {
		return aferrors.ExitInterrupted
	}
	return code
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if originalPreRun != nil {
			originalPreRun(cmd, args)
		}
	}

	return root.ExecuteContext(ctx)
}
