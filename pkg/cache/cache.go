// Package cache provides content-addressed caching for rendered artifacts.
//
// Rasterizing a vector source is the slowest stage of the pipeline, so the
// runner caches rendered master PNGs keyed on the source content hash plus
// the render geometry and tool. Re-running against an unchanged source
// skips the external renderer entirely.
//
// Three backends implement the same interface: FileCache (default, under
// the user cache directory), RedisCache (shared cache for CI fleets), and
// NullCache (caching disabled).
package cache

import (
	"context"
	"time"
)

// Cache stores and retrieves byte payloads by key.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL (0 means no expiration).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// RenderKeyOpts are the parameters that change a rendered master image.
type RenderKeyOpts struct {
	Renderer string // command name that produced the render
	Width    int
	Height   int
}

// RenderKey generates a cache key for a rendered master image.
// sourceHash is the content hash of the vector source (see Hash).
func RenderKey(sourceHash string, opts RenderKeyOpts) string {
	return hashKey("render", sourceHash, opts.Renderer, opts.Width, opts.Height)
}
