package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("<svg/>"))
	h2 := Hash([]byte("<svg/>"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Different inputs produce different hashes
	h3 := Hash([]byte("<svg viewBox=\"0 0 1 1\"/>"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestRenderKey(t *testing.T) {
	src := Hash([]byte("<svg/>"))

	k1 := RenderKey(src, RenderKeyOpts{Renderer: "rsvg-convert", Width: 1400, Height: 1400})
	k2 := RenderKey(src, RenderKeyOpts{Renderer: "rsvg-convert", Width: 1400, Height: 1400})
	if k1 != k2 {
		t.Error("identical options should produce identical keys")
	}

	// Geometry changes the key
	k3 := RenderKey(src, RenderKeyOpts{Renderer: "rsvg-convert", Width: 2000, Height: 2000})
	if k1 == k3 {
		t.Error("different geometry should produce different keys")
	}

	// Tool changes the key: rsvg and inkscape output must not alias
	k4 := RenderKey(src, RenderKeyOpts{Renderer: "inkscape", Width: 1400, Height: 1400})
	if k1 == k4 {
		t.Error("different renderer should produce different keys")
	}

	// Source changes the key
	k5 := RenderKey(Hash([]byte("other")), RenderKeyOpts{Renderer: "rsvg-convert", Width: 1400, Height: 1400})
	if k1 == k5 {
		t.Error("different source should produce different keys")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")

	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Miss on unknown key
	_, hit, err := c.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss for unknown key")
	}

	// Roundtrip
	payload := []byte("png bytes")
	if err := c.Set(ctx, "render:abc", payload, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "render:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if string(data) != string(payload) {
		t.Errorf("data = %q, want %q", data, payload)
	}

	// Expired entries are treated as misses
	if err := c.Set(ctx, "render:ttl", payload, -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "render:ttl")
	if hit {
		t.Error("expired entry should be a miss")
	}

	// Delete
	if err := c.Delete(ctx, "render:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "render:abc")
	if hit {
		t.Error("expected miss after Delete")
	}

	// Deleting a missing key is fine
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}
