package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/assetforge/assetforge/pkg/config"
	"github.com/assetforge/assetforge/pkg/tools"
)

// doctorCommand creates the doctor command reporting external tool availability.
// It runs the same capability probe the pipeline uses at startup, so the
// report shows exactly which tool each stage would select.
func (c *CLI) doctorCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report which external tools are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runDoctor(cfg, tools.NewProbe())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	return cmd
}

// toolRole groups a ranked candidate list with whether the pipeline can run
// without it.
type toolRole struct {
	name       string
	candidates []string
	required   bool
}

// runDoctor probes every configured tool and prints the report.
func runDoctor(cfg config.Config, probe *tools.Probe) error {
	roles := []toolRole{
		{"SVG renderer", cfg.Tools.Renderers, true},
		{"Raster processor", cfg.Tools.Magick, true},
		{"WebP encoder", []string{cfg.Tools.WebPEncoder}, false},
		{"PNG optimizer", cfg.Tools.Optimizers, false},
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("ROLE", "TOOL", "STATUS")

	healthy := true
	for _, role := range roles {
		selected, _ := probe.FirstAvailable(role.candidates)
		found := false
		for _, name := range role.candidates {
			status := styleIconError.Render(iconError) + " missing"
			if probe.Available(name) {
				found = true
				status = styleIconSuccess.Render(iconSuccess) + " found"
				if name == selected {
					status += " " + StyleDim.Render("(selected)")
				}
			}
			t.Row(role.name, name, status)
		}
		if role.required && !found {
			healthy = false
		}
	}

	fmt.Println(t.Render())

	if !healthy {
		printError("Required tools are missing; the pipeline cannot run")
		printDetail("Install librsvg (rsvg-convert) or Inkscape, and ImageMagick")
		return nil
	}
	printSuccess("All required tools available")
	return nil
}
