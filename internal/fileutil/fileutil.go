package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteResult describes a file written by WriteAtomic.
type WriteResult struct {
	Path   string
	Bytes  int64
	SHA256 string
}

// WriteAtomic streams content produced by write into path. The data goes to
// a temporary file in the same directory, is synced, and is renamed over path
// only when write succeeds, so readers never observe a partial file. The
// parent directory is created when missing.
func WriteAtomic(path string, mode os.FileMode, write func(io.Writer) error) (WriteResult, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return WriteResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(tmp, hasher)}
	if err := write(counter); err != nil {
		return WriteResult{}, err
	}
	if err := tmp.Sync(); err != nil {
		return WriteResult{}, fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return WriteResult{}, fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return WriteResult{}, fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true

	return WriteResult{
		Path:   path,
		Bytes:  counter.n,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
