package render

import (
	"context"
	"strconv"

	"github.com/assetforge/assetforge/pkg/tools"
)

// WebP encodes PNG files to WebP through an external encoder (cwebp).
// The encoder is optional: callers probe for it and skip the conversion
// stage with a warning when it is missing.
type WebP struct {
	Command string
	Runner  tools.Runner
}

// Encode converts src to a WebP file at dst with the given quality.
func (w *WebP) Encode(ctx context.Context, src, dst string, quality int) error {
	args := []string{
		"-q", strconv.Itoa(quality),
		src,
		"-o", dst,
	}
	return w.Runner.Run(ctx, w.Command, args...)
}
