package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Info("rendered master", "tool", "rsvg-convert")

	out := buf.String()
	if out == "" {
		t.Fatal("logger wrote nothing")
	}
	if !strings.Contains(out, "rendered master") {
		t.Errorf("output %q missing message", out)
	}
}

func TestNewLoggerLevelFilter(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"info passes at info", log.InfoLevel, func(l *log.Logger) { l.Info("cropped hero") }, true},
		{"debug filtered at info", log.InfoLevel, func(l *log.Logger) { l.Debug("selected tools") }, false},
		{"debug passes at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("selected tools") }, true},
		{"info filtered at warn", log.WarnLevel, func(l *log.Logger) { l.Info("optimized outputs") }, false},
		{"warn passes at warn", log.WarnLevel, func(l *log.Logger) { l.Warn("cwebp not found") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	time.Sleep(10 * time.Millisecond)
	prog.done("Pipeline complete")

	out := buf.String()
	if !strings.Contains(out, "Pipeline complete") {
		t.Errorf("output %q missing completion message", out)
	}
	// The elapsed duration is appended in parentheses.
	if !strings.Contains(out, "(") || !strings.Contains(out, ")") {
		t.Errorf("output %q missing elapsed duration", out)
	}
}

func TestLoggerRoundTripsThroughContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), logger)
	if got := loggerFromContext(ctx); got != logger {
		t.Error("loggerFromContext returned a different logger")
	}

	loggerFromContext(ctx).Info("packaged bundle")
	if buf.Len() == 0 {
		t.Error("context logger should write to the original buffer")
	}
}

func TestLoggerFromBareContext(t *testing.T) {
	// Commands must always get a usable logger, even when PersistentPreRun
	// never attached one.
	if loggerFromContext(context.Background()) == nil {
		t.Error("expected the default logger for a bare context")
	}
}
