package archive

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/assetforge/assetforge/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWriteZipFlatListing(t *testing.T) {
	dir := t.TempDir()

	// Sources live in nested directories; the archive must flatten them.
	sub := filepath.Join(dir, "work")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	hero := writeFile(t, sub, "hero.png", "hero bytes")
	thumb := writeFile(t, sub, "thumbnail.png", "thumb bytes")
	full := writeFile(t, dir, "full.png", "full bytes")

	dst := filepath.Join(dir, "assets.zip")
	if err := WriteZip(dst, []string{hero, thumb, full}); err != nil {
		t.Fatalf("WriteZip error: %v", err)
	}

	names, err := List(dst)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	want := []string{"hero.png", "thumbnail.png", "full.png"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("entries = %v, want %v", names, want)
	}
}

func TestWriteZipMissingFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "assets.zip")

	err := WriteZip(dst, []string{filepath.Join(dir, "no-such.png")})
	if !errors.Is(err, errors.ErrCodeArchiveFailed) {
		t.Errorf("err = %v, want ARCHIVE_FAILED", err)
	}
}

func TestWriteZipEmpty(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "empty.zip")
	if err := WriteZip(dst, nil); err != nil {
		t.Fatalf("WriteZip error: %v", err)
	}

	names, err := List(dst)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("entries = %v, want none", names)
	}
}
