package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/assetforge/assetforge/pkg/archive"
	"github.com/assetforge/assetforge/pkg/cache"
	"github.com/assetforge/assetforge/pkg/config"
	"github.com/assetforge/assetforge/pkg/errors"
	"github.com/assetforge/assetforge/pkg/tools"
)

// fakeToolchain simulates a host with a given set of installed tools.
// Run records every invocation and mimics each tool's filesystem effect
// (writing the output file) without executing anything.
type fakeToolchain struct {
	installed map[string]bool
	failures  map[string]error
	calls     [][]string
}

func newFakeToolchain(installed ...string) *fakeToolchain {
	set := make(map[string]bool, len(installed))
	for _, name := range installed {
		set[name] = true
	}
	return &fakeToolchain{installed: set, failures: make(map[string]error)}
}

func (f *fakeToolchain) lookPath(name string) (string, error) {
	if f.installed[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("not found: %s", name)
}

func (f *fakeToolchain) probe() *tools.Probe {
	return &tools.Probe{LookPath: f.lookPath}
}

func (f *fakeToolchain) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	if err := f.failures[name]; err != nil {
		return err
	}

	// Mimic the tool's output file so downstream stages have something
	// to read, copy, and zip.
	var dst string
	switch name {
	case "rsvg-convert":
		dst = argAfter(args, "-o")
	case "inkscape":
		dst = argAfter(args, "--export-filename")
	case "magick", "convert":
		dst = args[len(args)-1]
	case "cwebp":
		dst = argAfter(args, "-o")
	}
	if dst != "" {
		return os.WriteFile(dst, []byte("fake output of "+name), 0644)
	}
	return nil
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// invoked returns the distinct command names in call order.
func (f *fakeToolchain) invoked() []string {
	var names []string
	for _, call := range f.calls {
		names = append(names, call[0])
	}
	return names
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Source = filepath.Join(dir, "logo.svg")
	cfg.Output.Dir = filepath.Join(dir, "dist")
	if err := os.WriteFile(cfg.Source, []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func allTools() []string {
	return []string{"rsvg-convert", "inkscape", "magick", "convert", "cwebp", "oxipng", "optipng", "pngcrush"}
}

func TestExecuteFullToolchain(t *testing.T) {
	fake := newFakeToolchain(allTools()...)
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	result, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	// All four outputs plus the WebP exist.
	for _, path := range []string{result.Hero, result.Thumbnail, result.Full, result.WebP, result.Bundle} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s: %v", path, err)
		}
	}

	// Deterministic stage order: render, two crops, trim, webp, three
	// optimizer passes.
	want := []string{
		"rsvg-convert",
		"magick", "magick", "magick", // hero crop, thumb crop, trim
		"cwebp",
		"oxipng", "oxipng", "oxipng",
	}
	if !reflect.DeepEqual(fake.invoked(), want) {
		t.Errorf("invocations = %v, want %v", fake.invoked(), want)
	}

	// Bundle is a flat listing of exactly the produced images.
	names, err := archive.List(result.Bundle)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	wantEntries := []string{"hero.png", "thumbnail.png", "full.png", "hero.webp"}
	if !reflect.DeepEqual(names, wantEntries) {
		t.Errorf("bundle entries = %v, want %v", names, wantEntries)
	}

	if result.CacheInfo.RenderHit {
		t.Error("first run should not hit the render cache")
	}

	// The scoped temp workspace is gone.
	assertNoWorkspace(t, result.RunID)
}

func assertNoWorkspace(t *testing.T, runID string) {
	t.Helper()
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	prefix := "assetforge-" + runID[:8]
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			t.Errorf("temp workspace %s still exists", e.Name())
		}
	}
}

func TestExecuteMissingSource(t *testing.T) {
	fake := newFakeToolchain(allTools()...)
	cfg := testConfig(t)
	cfg.Source = filepath.Join(filepath.Dir(cfg.Source), "absent.svg")
	runner := NewRunner(nil, fake.probe(), fake, nil)

	_, err := runner.Execute(context.Background(), Options{Config: cfg})
	if !errors.Is(err, errors.ErrCodeSourceNotFound) {
		t.Fatalf("err = %v, want SOURCE_NOT_FOUND", err)
	}
	if errors.ExitCode(err) != errors.ExitSourceMissing {
		t.Errorf("exit code = %d, want %d", errors.ExitCode(err), errors.ExitSourceMissing)
	}

	// No output directory writes occur.
	if _, err := os.Stat(cfg.Output.Dir); !os.IsNotExist(err) {
		t.Error("output dir should not have been created")
	}
	if len(fake.calls) != 0 {
		t.Errorf("no tools should run, got %v", fake.invoked())
	}
}

func TestExecuteNoRenderer(t *testing.T) {
	fake := newFakeToolchain("magick", "cwebp", "oxipng")
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	_, err := runner.Execute(context.Background(), Options{Config: cfg})
	if !errors.Is(err, errors.ErrCodeRendererNotFound) {
		t.Fatalf("err = %v, want RENDERER_NOT_FOUND", err)
	}
	if errors.ExitCode(err) != errors.ExitNoRenderer {
		t.Errorf("exit code = %d, want %d", errors.ExitCode(err), errors.ExitNoRenderer)
	}
	if _, err := os.Stat(cfg.Output.Dir); !os.IsNotExist(err) {
		t.Error("output dir should not have been created")
	}
}

func TestExecuteRendererFallback(t *testing.T) {
	fake := newFakeToolchain("inkscape", "convert")
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	result, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if fake.calls[0][0] != "inkscape" {
		t.Errorf("first call = %v, want inkscape render", fake.calls[0])
	}
	// Legacy magick alias used for crops and trim.
	if fake.calls[1][0] != "convert" {
		t.Errorf("crop call = %v, want convert", fake.calls[1])
	}
	// WebP and optimizers are missing: both optional stages degrade.
	if result.WebP != "" {
		t.Errorf("WebP = %q, want skipped", result.WebP)
	}
	names, err := archive.List(result.Bundle)
	if err != nil {
		t.Fatal(err)
	}
	wantEntries := []string{"hero.png", "thumbnail.png", "full.png"}
	if !reflect.DeepEqual(names, wantEntries) {
		t.Errorf("bundle entries = %v, want %v", names, wantEntries)
	}
}

func TestExecuteToleratedOptimizerFailure(t *testing.T) {
	fake := newFakeToolchain("rsvg-convert", "magick", "pngcrush")
	fake.failures["pngcrush"] = fmt.Errorf("pngcrush: could not shrink further")
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	result, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("tolerated optimizer failure should not abort: %v", err)
	}
	if _, err := os.Stat(result.Bundle); err != nil {
		t.Errorf("bundle missing: %v", err)
	}
}

func TestExecuteFatalOptimizerFailure(t *testing.T) {
	fake := newFakeToolchain("rsvg-convert", "magick", "oxipng")
	fake.failures["oxipng"] = fmt.Errorf("oxipng: corrupt png")
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	_, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err == nil {
		t.Fatal("oxipng failure should abort the run")
	}
}

func TestExecuteFatalCropFailure(t *testing.T) {
	fake := newFakeToolchain("rsvg-convert", "magick")
	fake.failures["magick"] = fmt.Errorf("magick: no decode delegate")
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	before := listWorkspaces(t)
	_, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err == nil {
		t.Fatal("crop failure should abort the run")
	}

	// The scoped temp workspace is removed on failure too. Execute returns
	// no Result here, so compare the workspace listing before and after.
	if after := listWorkspaces(t); !reflect.DeepEqual(after, before) {
		t.Errorf("temp workspaces after failed run = %v, want %v", after, before)
	}
}

// listWorkspaces returns the pipeline temp workspaces currently in the
// system temp directory.
func listWorkspaces(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "assetforge-") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestExecuteRenderCache(t *testing.T) {
	fake := newFakeToolchain("rsvg-convert", "magick")
	cfg := testConfig(t)

	fileCache, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fileCache, fake.probe(), fake, nil)

	first, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}

	second, err := runner.Execute(context.Background(), Options{Config: cfg})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the render cache")
	}

	// Exactly one render across both runs.
	renders := 0
	for _, name := range fake.invoked() {
		if name == "rsvg-convert" {
			renders++
		}
	}
	if renders != 1 {
		t.Errorf("renders = %d, want 1", renders)
	}

	// Refresh bypasses the cache.
	third, err := runner.Execute(context.Background(), Options{Config: cfg, Refresh: true})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh run should not hit the cache")
	}
}

func TestExecuteObserverEvents(t *testing.T) {
	fake := newFakeToolchain("rsvg-convert", "magick", "cwebp", "oxipng")
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	var events []StageEvent
	opts := Options{
		Config:   cfg,
		Observer: func(ev StageEvent) { events = append(events, ev) },
	}
	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	// Every stage completes, in pipeline order.
	var completed []Stage
	for _, ev := range events {
		if ev.Status == StageDone || ev.Status == StageSkipped {
			completed = append(completed, ev.Stage)
		}
	}
	if !reflect.DeepEqual(completed, Stages) {
		t.Errorf("completed stages = %v, want %v", completed, Stages)
	}
}

func TestExecuteObserverSkips(t *testing.T) {
	// Only required tools installed: webp and optimize must report skipped.
	fake := newFakeToolchain("rsvg-convert", "magick")
	cfg := testConfig(t)
	runner := NewRunner(nil, fake.probe(), fake, nil)

	skipped := map[Stage]bool{}
	opts := Options{
		Config: cfg,
		Observer: func(ev StageEvent) {
			if ev.Status == StageSkipped {
				skipped[ev.Stage] = true
			}
		},
	}
	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if !skipped[StageWebP] {
		t.Error("webp stage should report skipped")
	}
	if !skipped[StageOptimize] {
		t.Error("optimize stage should report skipped")
	}
}
