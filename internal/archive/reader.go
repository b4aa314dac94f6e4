// Package archive reads and writes song library bundles: compressed tar archives holding a
// manifest and one JSON document per song. Bundles are .tar.xz by default; .tar.gz is
// accepted for both reading and writing.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ulikunitz/xz"
)

// maxEntrySize caps one decompressed bundle entry. Song documents are bounded by the
// lyrics limit, so anything larger is not a bundle this package wrote.
const maxEntrySize = 4 << 20

type compression int

const (
	compressionUnknown compression = iota
	compressionXZ
	compressionGzip
)

// compressionFor picks the codec from a bundle file name.
func compressionFor(name string) compression {
	switch {
	case strings.HasSuffix(name, ".tar.xz"):
		return compressionXZ
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return compressionGzip
	}
	return compressionUnknown
}

// Reader walks the regular files of a bundle.
type Reader struct {
	tr   *tar.Reader
	gz   *gzip.Reader
	file *os.File
}

// NewReader opens the bundle at bundlePath.
func NewReader(bundlePath string) (*Reader, error) {
	kind := compressionFor(bundlePath)
	if kind == compressionUnknown {
		return nil, fmt.Errorf("unsupported bundle format: %s", bundlePath)
	}

	f, err := os.Open(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}

	r := &Reader{file: f}
	var src io.Reader
	switch kind {
	case compressionXZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		src = xzr
	case compressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		r.gz = gz
		src = gz
	}
	r.tr = tar.NewReader(src)
	return r, nil
}

// Close releases the bundle file.
func (r *Reader) Close() error {
	var gzErr error
	if r.gz != nil {
		gzErr = r.gz.Close()
	}
	return errors.Join(gzErr, r.file.Close())
}

// Walk calls fn with the cleaned name and content of each regular file until fn asks to
// stop or fails. Other entry types are skipped. An entry whose name escapes the bundle
// root, or whose size exceeds maxEntrySize, fails the walk.
func (r *Reader) Walk(fn func(name string, data []byte) (stop bool, err error)) error {
	for {
		hdr, err := r.tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read bundle entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name, err := entryName(hdr.Name)
		if err != nil {
			return err
		}
		if hdr.Size > maxEntrySize {
			return fmt.Errorf("bundle entry %s is %d bytes, limit is %d", name, hdr.Size, maxEntrySize)
		}
		data, err := io.ReadAll(io.LimitReader(r.tr, maxEntrySize))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		stop, err := fn(name, data)
		if err != nil || stop {
			return err
		}
	}
}

// entryName cleans a tar entry name and rejects absolute or parent-relative names.
func entryName(raw string) (string, error) {
	name := path.Clean(strings.TrimPrefix(raw, "./"))
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("unsafe bundle entry name %q", raw)
	}
	return name, nil
}

// ReadFile returns one file from the bundle at bundlePath.
func ReadFile(bundlePath, name string) ([]byte, error) {
	r, err := NewReader(bundlePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var content []byte
	err = r.Walk(func(entry string, data []byte) (bool, error) {
		if entry != name {
			return false, nil
		}
		content = data
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("%s not found in %s", name, bundlePath)
	}
	return content, nil
}
