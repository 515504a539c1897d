package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrFileTooLarge is returned by Save when the content exceeds the limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ErrInvalidFileName is returned by Save for names that do not denote a file.
var ErrInvalidFileName = errors.New("invalid file name")

// Scratch is a temporary directory whose lifetime is one request.
type Scratch struct {
	dir    string
	logger *slog.Logger

	once       sync.Once
	releaseErr error
}

// Dir returns the scratch directory path
func (s *Scratch) Dir() string {
	return s.dir
}

// Save copies r into a file named after the base of name and returns its
// path. A limit > 0 caps the number of bytes accepted.
func (s *Scratch) Save(name string, r io.Reader, limit int64) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	path := filepath.Join(s.dir, base)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("failed to write scratch file: %w", copyErr)
	case closeErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("failed to close scratch file: %w", closeErr)
	case limit > 0 && written > limit:
		os.Remove(path)
		return "", fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, limit)
	}

	s.logger.Debug("File saved to scratch",
		slog.String("file", base),
		slog.Int64("bytes", written))

	return path, nil
}

// Release removes the directory and everything in it. It is safe to call
// more than once.
func (s *Scratch) Release() error {
	s.once.Do(func() {
		if err := os.RemoveAll(s.dir); err != nil {
			s.releaseErr = fmt.Errorf("failed to remove scratch directory: %w", err)
			s.logger.Warn("Scratch cleanup failed",
				slog.String("path", s.dir),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Debug("Scratch directory released", slog.String("path", s.dir))
	})
	return s.releaseErr
}
