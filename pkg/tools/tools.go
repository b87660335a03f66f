// Package tools probes for and invokes external command-line tools.
//
// All image work in assetforge is delegated to external binaries. This
// package provides the two primitives the pipeline is built on: a capability
// probe that resolves ranked candidate lists to the first installed command,
// and a runner that executes a command and folds its stderr into the
// returned error.
//
// Both primitives are injectable so the pipeline and its tests never need
// real binaries on PATH.
package tools

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/assetforge/assetforge/pkg/errors"
)

// LookPathFunc resolves a command name to an executable path.
// exec.LookPath is the production implementation.
type LookPathFunc func(name string) (string, error)

// Probe checks which external commands are installed.
type Probe struct {
	// LookPath resolves command names. Defaults to exec.LookPath.
	LookPath LookPathFunc
}

// NewProbe creates a probe backed by the real PATH lookup.
func NewProbe() *Probe {
	return &Probe{LookPath: exec.LookPath}
}

// Available reports whether the named command is installed.
func (p *Probe) Available(name string) bool {
	lookup := p.LookPath
	if lookup == nil {
		lookup = exec.LookPath
	}
	_, err := lookup(name)
	return err == nil
}

// FirstAvailable returns the first installed command from candidates,
// which are ordered highest priority first.
func (p *Probe) FirstAvailable(candidates []string) (string, bool) {
	for _, name := range candidates {
		if p.Available(name) {
			return name, true
		}
	}
	return "", false
}

// Runner executes an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec. Stdout is discarded (every tool in
// the pipeline writes files, not streams); stderr is captured and folded
// into the error on failure.
type ExecRunner struct{}

// NewRunner creates a runner backed by os/exec.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.Wrap(errors.ErrCodeToolFailed, err, "%s: %s", name, msg)
		}
		return errors.Wrap(errors.ErrCodeToolFailed, err, "%s", name)
	}
	return nil
}

// Ensure ExecRunner implements Runner.
var _ Runner = (*ExecRunner)(nil)
