package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/assetforge/assetforge/pkg/archive"
	"github.com/assetforge/assetforge/pkg/cache"
	"github.com/assetforge/assetforge/pkg/config"
	"github.com/assetforge/assetforge/pkg/errors"
	"github.com/assetforge/assetforge/pkg/render"
	"github.com/assetforge/assetforge/pkg/tools"
)

// Runner executes the asset pipeline. It is stateless apart from the cache
// and logger, so one Runner can serve many runs.
type Runner struct {
	Cache  cache.Cache
	Probe  *tools.Probe
	Exec   tools.Runner
	Logger *log.Logger
}

// NewRunner creates a runner. Nil arguments fall back to sensible defaults:
// NullCache, the real PATH probe, the os/exec runner, and log.Default.
func NewRunner(c cache.Cache, probe *tools.Probe, exec tools.Runner, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if probe == nil {
		probe = tools.NewProbe()
	}
	if exec == nil {
		exec = tools.NewRunner()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Probe: probe, Exec: exec, Logger: logger}
}

// toolset holds the tools selected for one run by the startup probe.
type toolset struct {
	renderer  render.Renderer
	magick    *render.Magick
	webp      *render.WebP // nil when the encoder is missing
	optimizer render.Optimizer
	tolerated map[string]bool
}

// Execute runs the complete pipeline. The scoped temp workspace is removed
// before Execute returns, success or failure. Output files written before a
// fatal failure are left in place.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}
	cfg := opts.Config

	result := &Result{RunID: uuid.NewString()}

	// Stage 1: Validate. Nothing may be written anywhere before the source
	// is known to exist.
	emit(opts.Observer, StageEvent{Stage: StageValidate, Status: StageStarted})
	source, err := r.validate(cfg.Source)
	if err != nil {
		emit(opts.Observer, StageEvent{Stage: StageValidate, Status: StageFailed})
		return nil, err
	}
	emit(opts.Observer, StageEvent{Stage: StageValidate, Status: StageDone})

	// Capability probe: required tools are resolved before any filesystem
	// side effects so a missing renderer aborts with nothing written.
	ts, err := r.selectTools(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("selected tools",
		"renderer", ts.renderer.Name(),
		"magick", ts.magick.Command)

	workdir, err := os.MkdirTemp("", "assetforge-"+result.RunID[:8]+"-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temp workspace")
	}
	defer os.RemoveAll(workdir)

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create output dir %s", cfg.Output.Dir)
	}

	// Stage 2: Render the shared master image.
	start := time.Now()
	emit(opts.Observer, StageEvent{Stage: StageRender, Status: StageStarted})
	master := filepath.Join(workdir, "master.png")
	hit, err := r.renderMaster(ctx, ts.renderer, source, master, cfg, opts.Refresh)
	result.Stats.RenderTime = time.Since(start)
	if err != nil {
		emit(opts.Observer, StageEvent{Stage: StageRender, Status: StageFailed, Duration: result.Stats.RenderTime})
		return nil, err
	}
	result.CacheInfo.RenderHit = hit
	emit(opts.Observer, StageEvent{Stage: StageRender, Status: StageDone, Duration: result.Stats.RenderTime})
	logger.Info("rendered master",
		"tool", ts.renderer.Name(),
		"size", cfg.Geometry.MasterSize,
		"cached", hit,
		"duration", result.Stats.RenderTime.Round(time.Millisecond))

	// Stage 3: Cover-crop hero and thumbnail into the output directory.
	start = time.Now()
	emit(opts.Observer, StageEvent{Stage: StageCrop, Status: StageStarted})
	result.Hero = filepath.Join(cfg.Output.Dir, cfg.Output.Hero)
	result.Thumbnail = filepath.Join(cfg.Output.Dir, cfg.Output.Thumbnail)
	if err := ts.magick.CoverCrop(ctx, master, result.Hero, cfg.Geometry.HeroWidth, cfg.Geometry.HeroHeight, cfg.Quality.Crop); err != nil {
		emit(opts.Observer, StageEvent{Stage: StageCrop, Status: StageFailed})
		return nil, err
	}
	if err := ts.magick.CoverCrop(ctx, master, result.Thumbnail, cfg.Geometry.ThumbSize, cfg.Geometry.ThumbSize, cfg.Quality.Crop); err != nil {
		emit(opts.Observer, StageEvent{Stage: StageCrop, Status: StageFailed})
		return nil, err
	}
	result.Stats.CropTime = time.Since(start)
	emit(opts.Observer, StageEvent{Stage: StageCrop, Status: StageDone, Duration: result.Stats.CropTime})
	logger.Info("cropped outputs",
		"hero", result.Hero,
		"thumbnail", result.Thumbnail,
		"duration", result.Stats.CropTime.Round(time.Millisecond))

	// Stage 4: Full-size copy, transparent margins trimmed in place.
	start = time.Now()
	emit(opts.Observer, StageEvent{Stage: StageTrim, Status: StageStarted})
	result.Full = filepath.Join(cfg.Output.Dir, cfg.Output.Full)
	if err := copyFile(master, result.Full); err != nil {
		emit(opts.Observer, StageEvent{Stage: StageTrim, Status: StageFailed})
		return nil, err
	}
	if err := ts.magick.Trim(ctx, result.Full); err != nil {
		emit(opts.Observer, StageEvent{Stage: StageTrim, Status: StageFailed})
		return nil, err
	}
	result.Stats.TrimTime = time.Since(start)
	emit(opts.Observer, StageEvent{Stage: StageTrim, Status: StageDone, Duration: result.Stats.TrimTime})

	// Stage 5: Optional WebP copy of the hero.
	start = time.Now()
	if ts.webp == nil {
		logger.Warn("cwebp not found, skipping WebP conversion")
		emit(opts.Observer, StageEvent{Stage: StageWebP, Status: StageSkipped, Note: "encoder not found"})
	} else {
		emit(opts.Observer, StageEvent{Stage: StageWebP, Status: StageStarted})
		result.WebP = filepath.Join(cfg.Output.Dir, cfg.Output.WebP)
		if err := ts.webp.Encode(ctx, result.Hero, result.WebP, cfg.Quality.WebP); err != nil {
			emit(opts.Observer, StageEvent{Stage: StageWebP, Status: StageFailed})
			return nil, err
		}
		result.Stats.ConvertTime = time.Since(start)
		emit(opts.Observer, StageEvent{Stage: StageWebP, Status: StageDone, Duration: result.Stats.ConvertTime})
	}

	// Stage 6: Optional lossless PNG optimization.
	start = time.Now()
	if ts.optimizer == nil {
		logger.Warn("no PNG optimizer found, skipping optimization",
			"tried", cfg.Tools.Optimizers)
		emit(opts.Observer, StageEvent{Stage: StageOptimize, Status: StageSkipped, Note: "no optimizer found"})
	} else {
		emit(opts.Observer, StageEvent{Stage: StageOptimize, Status: StageStarted})
		for _, path := range []string{result.Hero, result.Thumbnail, result.Full} {
			if err := ts.optimizer.Optimize(ctx, path); err != nil {
				if ts.tolerated[ts.optimizer.Name()] {
					logger.Warn("optimizer failed, continuing",
						"tool", ts.optimizer.Name(),
						"file", path,
						"err", err)
					continue
				}
				emit(opts.Observer, StageEvent{Stage: StageOptimize, Status: StageFailed})
				return nil, err
			}
		}
		result.Stats.OptimizeTime = time.Since(start)
		emit(opts.Observer, StageEvent{Stage: StageOptimize, Status: StageDone, Duration: result.Stats.OptimizeTime})
		logger.Info("optimized outputs",
			"tool", ts.optimizer.Name(),
			"duration", result.Stats.OptimizeTime.Round(time.Millisecond))
	}

	// Stage 7: Package. The zip is assembled in the workspace and moved
	// into the output directory as the final act.
	start = time.Now()
	emit(opts.Observer, StageEvent{Stage: StagePackage, Status: StageStarted})
	staged := filepath.Join(workdir, cfg.Output.Bundle)
	if err := r.pack(staged, result.Artifacts()); err != nil {
		emit(opts.Observer, StageEvent{Stage: StagePackage, Status: StageFailed})
		return nil, err
	}
	result.Bundle = filepath.Join(cfg.Output.Dir, cfg.Output.Bundle)
	if err := moveFile(staged, result.Bundle); err != nil {
		emit(opts.Observer, StageEvent{Stage: StagePackage, Status: StageFailed})
		return nil, err
	}
	result.Stats.PackageTime = time.Since(start)
	emit(opts.Observer, StageEvent{Stage: StagePackage, Status: StageDone, Duration: result.Stats.PackageTime})
	logger.Info("packaged bundle",
		"bundle", result.Bundle,
		"files", len(result.Artifacts()),
		"duration", result.Stats.PackageTime.Round(time.Millisecond))

	return result, nil
}

// validate confirms the vector source exists and returns its path.
func (r *Runner) validate(source string) (string, error) {
	info, err := os.Stat(source)
	if os.IsNotExist(err) {
		return "", errors.New(errors.ErrCodeSourceNotFound, "source image not found: %s", source)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "stat %s", source)
	}
	if info.IsDir() {
		return "", errors.New(errors.ErrCodeInvalidInput, "source is a directory: %s", source)
	}
	return source, nil
}

// selectTools resolves every ranked candidate list once, at startup.
// The renderer and the ImageMagick alias are required; the WebP encoder and
// PNG optimizer are optional and reported as nil when missing.
func (r *Runner) selectTools(cfg config.Config) (*toolset, error) {
	renderer, err := render.SelectRenderer(r.Probe, r.Exec, cfg.Tools.Renderers)
	if err != nil {
		return nil, err
	}

	magick, err := render.SelectMagick(r.Probe, r.Exec, cfg.Tools.Magick)
	if err != nil {
		return nil, err
	}

	ts := &toolset{
		renderer:  renderer,
		magick:    magick,
		tolerated: make(map[string]bool, len(cfg.Tools.TolerateFailure)),
	}
	for _, name := range cfg.Tools.TolerateFailure {
		ts.tolerated[name] = true
	}

	if r.Probe.Available(cfg.Tools.WebPEncoder) {
		ts.webp = &render.WebP{Command: cfg.Tools.WebPEncoder, Runner: r.Exec}
	}

	optimizer, ok, err := render.SelectOptimizer(r.Probe, r.Exec, cfg.Tools.Optimizers)
	if err != nil {
		return nil, err
	}
	if ok {
		ts.optimizer = optimizer
	}

	return ts, nil
}

// renderMaster produces the master PNG at dst, consulting the render cache.
// Returns whether the image came from the cache.
func (r *Runner) renderMaster(ctx context.Context, renderer render.Renderer, source, dst string, cfg config.Config, refresh bool) (bool, error) {
	size := cfg.Geometry.MasterSize

	srcData, err := os.ReadFile(source)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "read %s", source)
	}
	key := cache.RenderKey(cache.Hash(srcData), cache.RenderKeyOpts{
		Renderer: renderer.Name(),
		Width:    size,
		Height:   size,
	})

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if err := os.WriteFile(dst, data, 0644); err != nil {
				return false, errors.Wrap(errors.ErrCodeInternal, err, "write cached master")
			}
			return true, nil
		}
	}

	if err := renderer.Render(ctx, source, dst, size, size); err != nil {
		return false, err
	}

	if data, err := os.ReadFile(dst); err == nil {
		// Cache write failures are not worth failing the run over.
		_ = r.Cache.Set(ctx, key, data, time.Duration(cfg.Cache.TTLHours)*time.Hour)
	}
	return false, nil
}

// pack builds the flat bundle archive.
func (r *Runner) pack(dst string, files []string) error {
	return archive.WriteZip(dst, files)
}

// emit delivers a stage event to the observer if one is registered.
func emit(o Observer, ev StageEvent) {
	if o != nil {
		o(ev)
	}
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "copy to %s", dst)
	}
	return out.Close()
}

// moveFile renames src to dst, falling back to copy+remove when the rename
// crosses filesystems (the temp workspace usually lives on a different
// mount than the output directory).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
