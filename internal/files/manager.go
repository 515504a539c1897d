package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Manager owns the root directory under which per-request scratch
// directories are created.
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// NewManager creates a new file manager rooted at baseDir.
// An empty baseDir falls back to the OS temp directory.
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "files")),
	}
}

// BaseDir returns the root scratch directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// EnsureBaseDir creates the root directory if it doesn't exist
func (m *Manager) EnsureBaseDir() error {
	m.logger.Debug("Ensuring scratch root exists",
		slog.String("path", m.baseDir))

	if err := os.MkdirAll(m.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch root %s: %w", m.baseDir, err)
	}
	return nil
}

// NewScratch creates a fresh, uniquely named directory for one request.
// The caller owns it and must call Release.
func (m *Manager) NewScratch() (*Scratch, error) {
	if err := m.EnsureBaseDir(); err != nil {
		return nil, err
	}

	dir := filepath.Join(m.baseDir, "upload-"+uuid.NewString())
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	m.logger.Debug("Scratch directory created", slog.String("path", dir))

	return &Scratch{dir: dir, logger: m.logger}, nil
}

// WithScratch runs fn with a new scratch directory and releases it
// afterwards, whether fn succeeds, fails or panics.
func (m *Manager) WithScratch(fn func(*Scratch) error) (err error) {
	scratch, err := m.NewScratch()
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := scratch.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	return fn(scratch)
}
