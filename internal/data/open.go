package data

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compressedSuffixes are tried in order after the plain file name.
var compressedSuffixes = []string{".bz2", ".gz", ".zst"}

// ResolvePath returns the first existing file among base and its
// compressed variants.
func ResolvePath(base string) (string, error) {
	candidates := append([]string{base}, withSuffixes(base)...)
	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no file found for %s: %w", base, fs.ErrNotExist)
}

func withSuffixes(base string) []string {
	out := make([]string, len(compressedSuffixes))
	for i, s := range compressedSuffixes {
		out[i] = base + s
	}
	return out
}

// Open opens a data file, transparently decompressing by extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bz2":
		return readCloser{Reader: bzip2.NewReader(f), close: f.Close}, nil
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		return readCloser{Reader: zr, close: func() error {
			return errors.Join(zr.Close(), f.Close())
		}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		return readCloser{Reader: zr, close: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }
