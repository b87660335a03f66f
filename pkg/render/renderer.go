// Package render adapts the external image tools assetforge drives:
// vector rasterizers, the ImageMagick crop/trim commands, the WebP encoder,
// and the lossless PNG optimizers.
//
// Every adapter builds a fixed argument list for its tool and delegates
// execution to a tools.Runner, so selection and invocation stay separately
// testable. Tool choice is data-driven: ranked candidate lists come from
// configuration and the first installed command wins.
package render

import (
	"context"
	"strconv"
	"strings"

	"github.com/assetforge/assetforge/pkg/errors"
	"github.com/assetforge/assetforge/pkg/tools"
)

// Renderer rasterizes a vector source into a PNG at exact pixel dimensions.
// Implementations must produce identical geometry for identical inputs
// regardless of the underlying tool.
type Renderer interface {
	// Name returns the command name backing this renderer.
	Name() string

	// Render rasterizes src into dst at width x height pixels.
	Render(ctx context.Context, src, dst string, width, height int) error
}

// RSVG renders through rsvg-convert (librsvg).
type RSVG struct {
	Runner tools.Runner
}

// Name returns "rsvg-convert".
func (r *RSVG) Name() string { return "rsvg-convert" }

// Render invokes rsvg-convert with explicit output dimensions.
func (r *RSVG) Render(ctx context.Context, src, dst string, width, height int) error {
	args := []string{
		"-w", strconv.Itoa(width),
		"-h", strconv.Itoa(height),
		"-o", dst,
		src,
	}
	return r.Runner.Run(ctx, r.Name(), args...)
}

// Inkscape renders through the inkscape CLI export interface.
type Inkscape struct {
	Runner tools.Runner
}

// Name returns "inkscape".
func (i *Inkscape) Name() string { return "inkscape" }

// Render invokes inkscape's PNG export with a transparent background,
// matching the geometry rsvg-convert produces for the same dimensions.
func (i *Inkscape) Render(ctx context.Context, src, dst string, width, height int) error {
	args := []string{
		src,
		"--export-type", "png",
		"--export-filename", dst,
		"--export-width", strconv.Itoa(width),
		"--export-height", strconv.Itoa(height),
		"--export-background-opacity", "0",
	}
	return i.Runner.Run(ctx, i.Name(), args...)
}

// newRenderer constructs the renderer adapter for a known command name.
func newRenderer(name string, runner tools.Runner) (Renderer, bool) {
	switch name {
	case "rsvg-convert":
		return &RSVG{Runner: runner}, true
	case "inkscape":
		return &Inkscape{Runner: runner}, true
	default:
		return nil, false
	}
}

// SelectRenderer picks the first installed renderer from candidates.
// Candidate names not known to this package are rejected so a config typo
// fails loudly instead of silently shrinking the fallback chain.
//
// A fully unavailable chain is the pipeline's only non-recoverable tool
// condition and maps to its own exit code.
func SelectRenderer(probe *tools.Probe, runner tools.Runner, candidates []string) (Renderer, error) {
	for _, name := range candidates {
		r, known := newRenderer(name, runner)
		if !known {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown renderer: %s", name)
		}
		if probe.Available(name) {
			return r, nil
		}
	}
	return nil, errors.New(errors.ErrCodeRendererNotFound,
		"no SVG renderer found (tried: %s)", strings.Join(candidates, ", "))
}
