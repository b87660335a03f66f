// Package pipeline sequences the assetforge asset pipeline.
//
// A run is a single forward pass: validate the vector source, rasterize a
// master image, cover-crop the hero and thumbnail, trim the full-size copy,
// optionally convert the hero to WebP, optionally optimize every PNG, and
// bundle the results into a flat zip archive. There are no retries and no
// rollback; required stages fail fast, optional stages degrade with a
// warning.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Config: cfg})
//	if err != nil {
//	    os.Exit(errors.ExitCode(err))
//	}
//	fmt.Println(result.Bundle)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/assetforge/assetforge/pkg/config"
)

// Stage identifies one step of the pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageValidate Stage = "validate"
	StageRender   Stage = "render"
	StageCrop     Stage = "crop"
	StageTrim     Stage = "trim"
	StageWebP     Stage = "webp"
	StageOptimize Stage = "optimize"
	StagePackage  Stage = "package"
)

// Stages lists every stage in execution order, for progress UIs.
var Stages = []Stage{
	StageValidate,
	StageRender,
	StageCrop,
	StageTrim,
	StageWebP,
	StageOptimize,
	StagePackage,
}

// StageStatus describes what happened to a stage.
type StageStatus int

// Stage statuses reported through the Observer.
const (
	StageStarted StageStatus = iota
	StageDone
	StageSkipped
	StageFailed
)

// StageEvent is emitted before and after each stage. Skipped events carry a
// Note explaining the degradation (e.g. which tool was missing).
type StageEvent struct {
	Stage    Stage
	Status   StageStatus
	Duration time.Duration
	Note     string
}

// Observer receives stage events. Nil observers are ignored. Events are
// delivered synchronously from the single pipeline goroutine.
type Observer func(StageEvent)

// Options configures a pipeline run.
type Options struct {
	// Config carries paths, geometry, qualities, and tool priority lists.
	Config config.Config

	// Refresh bypasses the render cache and re-renders the master image.
	Refresh bool

	// Observer receives stage progress events (optional).
	Observer Observer

	// Logger overrides the runner's logger for this run (optional).
	Logger *log.Logger
}

// Result contains the outputs of a pipeline run. All paths are final
// locations under the configured output directory. WebP is empty when the
// encoder was unavailable.
type Result struct {
	Hero      string
	Thumbnail string
	Full      string
	WebP      string
	Bundle    string

	// RunID names the run's scoped temp workspace in logs.
	RunID string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains per-stage durations.
type Stats struct {
	RenderTime   time.Duration
	CropTime     time.Duration
	TrimTime     time.Duration
	ConvertTime  time.Duration
	OptimizeTime time.Duration
	PackageTime  time.Duration
}

// CacheInfo tracks cache usage for the run.
type CacheInfo struct {
	// RenderHit is true when the master render came from the cache.
	RenderHit bool
}

// Artifacts returns the produced image paths in packaging order, excluding
// the bundle itself and any artifact that was skipped.
func (r *Result) Artifacts() []string {
	paths := []string{r.Hero, r.Thumbnail, r.Full}
	if r.WebP != "" {
		paths = append(paths, r.WebP)
	}
	return paths
}
