package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MorMundHS-MA/GDV/internal/config"
)

// Manager writes generated artifacts such as exports below the application paths
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	return &Manager{
		paths:  paths,
		logger: logger.With(slog.String("component", "file_manager")),
	}
}

// WriteFile streams write into path. The content goes to a temporary file in
// the same directory first and replaces path only when write succeeded.
func (m *Manager) WriteFile(path string, write func(io.Writer) error) (string, error) {
	fullPath := m.resolvePath(path)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	m.logger.Info("file written", slog.String("path", fullPath))
	return fullPath, nil
}

// ExportPath returns the location of an export file name
func (m *Manager) ExportPath(name string) string {
	return m.paths.GetExportPath(name)
}

// resolvePath leaves absolute paths untouched and anchors relative ones at
// the executable directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) || m.paths == nil {
		return filepath.Clean(path)
	}
	return filepath.Join(m.paths.ExecutableDir, path)
}
