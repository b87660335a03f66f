package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/assetforge/assetforge/pkg/config"
)

// cleanCommand creates the clean command removing produced outputs.
func (c *CLI) cleanCommand() *cobra.Command {
	var (
		configPath string
		withCache  bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the output directory (and optionally the render cache)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if _, err := os.Stat(cfg.Output.Dir); os.IsNotExist(err) {
				printInfo("Nothing to clean: %s does not exist", cfg.Output.Dir)
			} else {
				if err := os.RemoveAll(cfg.Output.Dir); err != nil {
					return err
				}
				printSuccess("Removed %s", cfg.Output.Dir)
			}

			if withCache {
				dir, err := cacheDir()
				if err != nil {
					return err
				}
				if err := os.RemoveAll(dir); err != nil {
					return err
				}
				printSuccess("Cleared render cache")
				printDetail("Directory: %s", dir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	cmd.Flags().BoolVar(&withCache, "cache", false, "also clear the render cache")
	return cmd
}
