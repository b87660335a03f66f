// Package config loads assetforge pipeline configuration from TOML.
//
// All settings have complete defaults; a config file is optional. The file
// makes the tool-selection data explicit and overridable: renderer priority,
// the ImageMagick command alias table, and the PNG optimizer priority order
// are configuration, not hard-coded branches.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/assetforge/assetforge/pkg/errors"
)

// DefaultPath is the config file probed when --config is not given.
const DefaultPath = "assetforge.toml"

// Config is the root configuration for a pipeline run.
type Config struct {
	// Source is the vector input image.
	Source string `toml:"source"`

	Output   Output   `toml:"output"`
	Geometry Geometry `toml:"geometry"`
	Quality  Quality  `toml:"quality"`
	Tools    Tools    `toml:"tools"`
	Cache    Cache    `toml:"cache"`
	Serve    Serve    `toml:"serve"`
}

// Output names the produced files. Bundle is the final archive; everything
// else lands next to it in Dir.
type Output struct {
	Dir       string `toml:"dir"`
	Hero      string `toml:"hero"`
	Thumbnail string `toml:"thumbnail"`
	Full      string `toml:"full"`
	WebP      string `toml:"webp"`
	Bundle    string `toml:"bundle"`
}

// Geometry holds the target pixel dimensions for each artifact.
type Geometry struct {
	// MasterSize is the square edge length for the initial render.
	MasterSize int `toml:"master_size"`

	HeroWidth  int `toml:"hero_width"`
	HeroHeight int `toml:"hero_height"`
	ThumbSize  int `toml:"thumb_size"`
}

// Quality holds the lossy quality settings applied during crop and WebP encode.
type Quality struct {
	Crop int `toml:"crop"`
	WebP int `toml:"webp"`
}

// Tools configures external tool selection. Each list is tried in order and
// the first available command wins.
type Tools struct {
	// Renderers are vector-to-raster candidates, highest priority first.
	Renderers []string `toml:"renderers"`

	// Magick lists the ImageMagick invocation aliases (all-in-one command
	// before the legacy subcommand name).
	Magick []string `toml:"magick"`

	// Optimizers are lossless PNG optimizer candidates, highest priority first.
	Optimizers []string `toml:"optimizers"`

	// TolerateFailure names optimizers whose non-zero exits are logged and
	// ignored instead of failing the run.
	TolerateFailure []string `toml:"tolerate_failure"`

	// WebPEncoder is the WebP encoder command.
	WebPEncoder string `toml:"webp_encoder"`
}

// Cache configures the render-stage content cache.
type Cache struct {
	Enabled bool `toml:"enabled"`

	// RedisAddr selects the redis backend when non-empty; otherwise a
	// file cache under the user cache directory is used.
	RedisAddr string `toml:"redis_addr"`

	TTLHours int `toml:"ttl_hours"`
}

// Serve configures the asset preview server.
type Serve struct {
	Addr string `toml:"addr"`
}

// Default returns the complete default configuration.
func Default() Config {
	return Config{
		Source: "assets/logo.svg",
		Output: Output{
			Dir:       "dist",
			Hero:      "hero.png",
			Thumbnail: "thumbnail.png",
			Full:      "full.png",
			WebP:      "hero.webp",
			Bundle:    "assets.zip",
		},
		Geometry: Geometry{
			MasterSize: 1400,
			HeroWidth:  1200,
			HeroHeight: 630,
			ThumbSize:  640,
		},
		Quality: Quality{
			Crop: 92,
			WebP: 90,
		},
		Tools: Tools{
			Renderers:       []string{"rsvg-convert", "inkscape"},
			Magick:          []string{"magick", "convert"},
			Optimizers:      []string{"oxipng", "optipng", "pngcrush"},
			TolerateFailure: []string{"pngcrush"},
			WebPEncoder:     "cwebp",
		},
		Cache: Cache{
			Enabled:  true,
			TTLHours: 720,
		},
		Serve: Serve{
			Addr: "localhost:8930",
		},
	}
}

// Load reads a TOML config file layered over the defaults. A missing file at
// DefaultPath is not an error; a missing file at an explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if path == DefaultPath {
			return cfg, nil
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "source must not be empty")
	}
	if c.Output.Dir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "output.dir must not be empty")
	}
	if c.Geometry.MasterSize <= 0 || c.Geometry.HeroWidth <= 0 || c.Geometry.HeroHeight <= 0 || c.Geometry.ThumbSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "geometry dimensions must be positive")
	}
	if c.Geometry.MasterSize < c.Geometry.HeroWidth || c.Geometry.MasterSize < c.Geometry.ThumbSize {
		return errors.New(errors.ErrCodeInvalidConfig,
			"geometry.master_size (%d) must cover the largest crop target", c.Geometry.MasterSize)
	}
	if c.Quality.Crop < 1 || c.Quality.Crop > 100 || c.Quality.WebP < 1 || c.Quality.WebP > 100 {
		return errors.New(errors.ErrCodeInvalidConfig, "quality values must be in 1..100")
	}
	if len(c.Tools.Renderers) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "tools.renderers must not be empty")
	}
	if len(c.Tools.Magick) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "tools.magick must not be empty")
	}
	return nil
}
