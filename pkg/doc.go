// Package pkg provides the core libraries for the assetforge asset pipeline.
//
// # Overview
//
// Assetforge turns a single vector source into a fixed set of promotional
// raster assets by orchestrating external command-line tools. The pkg
// directory is organized into five main areas:
//
//  1. [tools] - External tool capability probe and command execution
//  2. [render] - Adapters for renderers, ImageMagick, cwebp, and PNG optimizers
//  3. [pipeline] - Orchestration (validate → render → crop → trim → convert → optimize → package)
//  4. [cache] - Content-addressed render cache (file, redis, null backends)
//  5. [archive] - Flat zip packaging of produced assets
//
// # Architecture
//
// The typical data flow through assetforge:
//
//	SVG source
//	     ↓
//	[render] package (rsvg-convert or inkscape → master PNG)
//	     ↓
//	[render] package (ImageMagick cover-crop and trim)
//	     ↓
//	[render] package (optional cwebp / oxipng|optipng|pngcrush)
//	     ↓
//	[archive] package (flat zip bundle)
//
// Tool selection is data-driven: ranked candidate lists live in [config]
// and the first installed command wins, probed once at pipeline startup.
//
// # Quick Start
//
//	cfg := config.Default()
//	runner := pipeline.NewRunner(nil, nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Config: cfg})
package pkg
