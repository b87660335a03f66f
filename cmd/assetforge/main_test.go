package main

import (
	"context"
	"fmt"
	"testing"

	aferrors "github.com/assetforge/assetforge/pkg/errors"
)

func TestExitStatus(t *testing.T) {
	live := context.Background()
	interrupted, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{
			name: "missing source",
			ctx:  live,
			err:  aferrors.New(aferrors.ErrCodeSourceNotFound, "source image not found"),
			want: aferrors.ExitSourceMissing,
		},
		{
			name: "no renderer",
			ctx:  live,
			err:  aferrors.New(aferrors.ErrCodeRendererNotFound, "no SVG renderer found"),
			want: aferrors.ExitNoRenderer,
		},
		{
			name: "generic failure",
			ctx:  live,
			err:  fmt.Errorf("boom"),
			want: aferrors.ExitFailure,
		},
		{
			name: "cancellation",
			ctx:  interrupted,
			err:  context.Canceled,
			want: aferrors.ExitInterrupted,
		},
		{
			name: "tool killed by signal",
			ctx:  interrupted,
			err:  aferrors.Wrap(aferrors.ErrCodeToolFailed, fmt.Errorf("signal: killed"), "rsvg-convert"),
			want: aferrors.ExitInterrupted,
		},
		{
			// A signal after the run already failed for its own reason must
			// not mask the dedicated exit code.
			name: "signal does not mask missing source",
			ctx:  interrupted,
			err:  aferrors.New(aferrors.ErrCodeSourceNotFound, "source image not found"),
			want: aferrors.ExitSourceMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitStatus(tt.ctx, tt.err); got != tt.want {
				t.Errorf("exitStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
