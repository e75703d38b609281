package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes through a temp file in the same directory and renames
// it into place, so readers never see a half-written file.
func WriteFileAtomic(path string, r io.Reader, mode os.FileMode) error {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	fd, err := os.CreateTemp(dir, file)
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(fd.Name())
	}()
	defer func(fd *os.File) {
		_ = fd.Close()
	}(fd)
	if _, err := io.Copy(fd, r); err != nil {
		return fmt.Errorf("cannot write data to tempfile %q: %w", fd.Name(), err)
	}
	if err := fd.Sync(); err != nil {
		return fmt.Errorf("can't flush tempfile %q: %w", fd.Name(), err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("can't close tempfile %q: %w", fd.Name(), err)
	}
	if err := os.Chmod(fd.Name(), mode); err != nil {
		return fmt.Errorf("can't set filemode on tempfile %q: %w", fd.Name(), err)
	}
	if err := os.Rename(fd.Name(), path); err != nil {
		return fmt.Errorf("cannot replace %q with tempfile %q: %w", path, fd.Name(), err)
	}
	return nil
}

// WriteFileExclusive creates path with O_EXCL so exactly one of several
// concurrent callers can succeed. os.ErrExist comes back untouched for the
// rest.
func WriteFileExclusive(path string, content []byte, mode os.FileMode) error {
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	if _, err := fd.Write(content); err != nil {
		_ = fd.Close()
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	if err := fd.Sync(); err != nil {
		_ = fd.Close()
		return fmt.Errorf("can't flush %q: %w", path, err)
	}
	return fd.Close()
}
