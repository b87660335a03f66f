package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/assetforge/assetforge/pkg/errors"
	"github.com/assetforge/assetforge/pkg/tools"
)

// Magick wraps an ImageMagick invocation. The same binary ships under two
// names depending on version: the all-in-one "magick" command (IM 7) and the
// legacy "convert" subcommand name (IM 6). Command carries whichever alias
// the probe resolved.
type Magick struct {
	Command string
	Runner  tools.Runner
}

// SelectMagick picks the first installed ImageMagick alias from aliases.
func SelectMagick(probe *tools.Probe, runner tools.Runner, aliases []string) (*Magick, error) {
	name, ok := probe.FirstAvailable(aliases)
	if !ok {
		return nil, errors.New(errors.ErrCodeToolNotFound,
			"ImageMagick not found (tried: %s)", strings.Join(aliases, ", "))
	}
	return &Magick{Command: name, Runner: runner}, nil
}

// CoverCrop resizes src to fully cover width x height preserving aspect
// ratio, then center-crops to the exact target dimensions. Metadata is
// stripped and the given quality applied.
func (m *Magick) CoverCrop(ctx context.Context, src, dst string, width, height, quality int) error {
	geometry := fmt.Sprintf("%dx%d", width, height)
	args := []string{
		src,
		"-resize", geometry + "^",
		"-gravity", "center",
		"-extent", geometry,
		"-strip",
		"-quality", strconv.Itoa(quality),
		dst,
	}
	return m.Runner.Run(ctx, m.Command, args...)
}

// Trim removes transparent margins from path in place.
func (m *Magick) Trim(ctx context.Context, path string) error {
	args := []string{
		path,
		"-trim",
		"+repage",
		path,
	}
	return m.Runner.Run(ctx, m.Command, args...)
}
