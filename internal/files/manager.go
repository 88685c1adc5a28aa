package files

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salespulse/internal/errors"
)

// Manager reads and writes artifacts relative to a base directory
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// NewManager creates a new file manager instance rooted at baseDir
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "file_manager")),
	}
}

// ResolvePath returns path unchanged when absolute, otherwise joined to the base directory
func (m *Manager) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(m.baseDir, path)
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.ResolvePath(path)
	_, err := os.Stat(fullPath)
	exists := err == nil

	m.logger.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// ReadFile reads the entire content of a file. A missing file yields a
// NOT_FOUND AppError that still matches os.ErrNotExist.
func (m *Manager) ReadFile(path string) ([]byte, error) {
	fullPath := m.ResolvePath(path)

	m.logger.Debug("Reading file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	data, err := os.ReadFile(fullPath)
	switch {
	case err == nil:
		return data, nil
	case stderrors.Is(err, os.ErrNotExist):
		return nil, errors.NewNotFoundError(fullPath, err)
	case stderrors.Is(err, os.ErrPermission):
		return nil, errors.NewPermissionError(fmt.Sprintf("read %s", fullPath), err)
	default:
		return nil, errors.NewStorageError(fmt.Sprintf("read %s", fullPath), err)
	}
}

// WriteFileAtomic replaces path with data. The bytes go to a temporary file
// in the same directory which is synced and renamed over the target, so a
// reader sees either the previous content or the new one.
func (m *Manager) WriteFileAtomic(path string, data []byte) (err error) {
	fullPath := m.ResolvePath(path)
	dir := filepath.Dir(fullPath)

	m.logger.Info("Writing file",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Int("size_bytes", len(data)))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("dir", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return errors.NewStorageError("failed to create temporary file", err).WithContext("dir", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.NewStorageError("failed to write temporary file", err).WithContext("path", tmpName)
	}
	if err = tmp.Sync(); err != nil {
		return errors.NewStorageError("failed to sync temporary file", err).WithContext("path", tmpName)
	}
	if err = tmp.Close(); err != nil {
		return errors.NewStorageError("failed to close temporary file", err).WithContext("path", tmpName)
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		return errors.NewStorageError("failed to set file mode", err).WithContext("path", tmpName)
	}
	if err = os.Rename(tmpName, fullPath); err != nil {
		return errors.NewStorageError("failed to replace file", err).WithContext("path", fullPath)
	}
	return nil
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	fullPath := m.ResolvePath(path)

	m.logger.Debug("Ensuring directory exists",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	return os.MkdirAll(fullPath, 0755)
}
