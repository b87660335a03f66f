package render

import (
	"context"

	"github.com/assetforge/assetforge/pkg/errors"
	"github.com/assetforge/assetforge/pkg/tools"
)

// Optimizer losslessly recompresses a PNG file in place.
type Optimizer interface {
	// Name returns the command name backing this optimizer.
	Name() string

	// Optimize recompresses path in place.
	Optimize(ctx context.Context, path string) error
}

// Oxipng drives oxipng at its maximum effort level, stripping metadata
// chunks that are safe to remove.
type Oxipng struct {
	Runner tools.Runner
}

// Name returns "oxipng".
func (o *Oxipng) Name() string { return "oxipng" }

// Optimize runs oxipng -o max --strip safe on path.
func (o *Oxipng) Optimize(ctx context.Context, path string) error {
	return o.Runner.Run(ctx, o.Name(), "-o", "max", "--strip", "safe", path)
}

// Optipng drives optipng at its highest optimization level.
type Optipng struct {
	Runner tools.Runner
}

// Name returns "optipng".
func (o *Optipng) Name() string { return "optipng" }

// Optimize runs optipng -o7 on path.
func (o *Optipng) Optimize(ctx context.Context, path string) error {
	return o.Runner.Run(ctx, o.Name(), "-o7", "-quiet", path)
}

// Pngcrush drives pngcrush with brute-force trials, overwriting in place.
// pngcrush exits non-zero on files it cannot shrink further; callers treat
// its failures as non-fatal.
type Pngcrush struct {
	Runner tools.Runner
}

// Name returns "pngcrush".
func (p *Pngcrush) Name() string { return "pngcrush" }

// Optimize runs pngcrush -brute -reduce -ow on path.
func (p *Pngcrush) Optimize(ctx context.Context, path string) error {
	return p.Runner.Run(ctx, p.Name(), "-brute", "-reduce", "-ow", path)
}

// newOptimizer constructs the optimizer adapter for a known command name.
func newOptimizer(name string, runner tools.Runner) (Optimizer, bool) {
	switch name {
	case "oxipng":
		return &Oxipng{Runner: runner}, true
	case "optipng":
		return &Optipng{Runner: runner}, true
	case "pngcrush":
		return &Pngcrush{Runner: runner}, true
	default:
		return nil, false
	}
}

// SelectOptimizer picks the first installed optimizer from candidates.
// An empty result (ok == false) is not an error: optimization is an
// optional stage and the pipeline skips it with a notice. Unknown candidate
// names still fail so config typos surface.
func SelectOptimizer(probe *tools.Probe, runner tools.Runner, candidates []string) (Optimizer, bool, error) {
	for _, name := range candidates {
		o, known := newOptimizer(name, runner)
		if !known {
			return nil, false, errors.New(errors.ErrCodeInvalidConfig, "unknown optimizer: %s", name)
		}
		if probe.Available(name) {
			return o, true, nil
		}
	}
	return nil, false, nil
}
