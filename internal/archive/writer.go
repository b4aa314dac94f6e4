package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// Writer builds a bundle in a temporary file next to its destination. Commit moves it into
// place; Abort discards it, so a failed export never leaves a partial bundle behind.
type Writer struct {
	tw      *tar.Writer
	codec   io.WriteCloser
	tmp     *os.File
	dest    string
	modTime time.Time
}

// NewWriter starts a bundle for bundlePath, creating parent directories as needed. The
// compression follows the suffix. Every entry is stamped with modTime.
func NewWriter(bundlePath string, modTime time.Time) (*Writer, error) {
	kind := compressionFor(bundlePath)
	if kind == compressionUnknown {
		return nil, fmt.Errorf("unsupported bundle format: %s", bundlePath)
	}
	dir := filepath.Dir(bundlePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bundle directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*")
	if err != nil {
		return nil, fmt.Errorf("create bundle: %w", err)
	}

	var codec io.WriteCloser
	switch kind {
	case compressionXZ:
		if codec, err = xz.NewWriter(tmp); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return nil, fmt.Errorf("xz writer: %w", err)
		}
	case compressionGzip:
		codec, _ = gzip.NewWriterLevel(tmp, gzip.BestCompression)
	}

	return &Writer{
		tw:      tar.NewWriter(codec),
		codec:   codec,
		tmp:     tmp,
		dest:    bundlePath,
		modTime: modTime.UTC(),
	}, nil
}

// WriteFile adds a regular file to the bundle.
func (w *Writer) WriteFile(name string, content []byte) error {
	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  w.modTime,
	}
	if err := w.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := w.tw.Write(content); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Commit flushes the bundle and renames it to its destination.
func (w *Writer) Commit() error {
	err := errors.Join(w.tw.Close(), w.codec.Close(), w.tmp.Close())
	if err == nil {
		err = os.Rename(w.tmp.Name(), w.dest)
	}
	if err != nil {
		os.Remove(w.tmp.Name())
		return fmt.Errorf("finish bundle %s: %w", w.dest, err)
	}
	return nil
}

// Abort discards the bundle.
func (w *Writer) Abort() {
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}
