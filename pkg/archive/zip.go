// Package archive bundles produced assets into a flat zip file.
//
// The archive intentionally has no internal directory structure: consumers
// unzip it straight into wherever the assets are needed. Entries are written
// in the order given so the listing is deterministic across runs.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/assetforge/assetforge/pkg/errors"
)

// WriteZip creates a zip archive at dst containing the given files as a
// flat listing (base names only). Every path in files must exist; callers
// filter out optional artifacts that were skipped.
func WriteZip(dst string, files []string) error {
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchiveFailed, err, "create %s", dst)
	}

	w := zip.NewWriter(out)
	for _, path := range files {
		if err := addFile(w, path); err != nil {
			_ = w.Close()
			_ = out.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		_ = out.Close()
		return errors.Wrap(errors.ErrCodeArchiveFailed, err, "finalize %s", dst)
	}
	return out.Close()
}

// addFile streams one file into the archive under its base name, using
// deflate compression.
func addFile(w *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchiveFailed, err, "open %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchiveFailed, err, "stat %s", path)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchiveFailed, err, "header %s", path)
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate

	entry, err := w.CreateHeader(hdr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchiveFailed, err, "add %s", path)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return errors.Wrap(errors.ErrCodeArchiveFailed, err, "write %s", path)
	}
	return nil
}

// List returns the entry names of the zip archive at path, in archive order.
func List(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchiveFailed, err, "open %s", path)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}
