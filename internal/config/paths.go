package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the directories the service reads from and writes to.
// Relative directories are resolved against the executable, never the
// working directory, so the binary behaves the same wherever it is started.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportsDir    string
	LogsDir       string
}

// GetPaths resolves the layout next to the running executable. dataDir may
// be absolute; empty selects the default.
func GetPaths(dataDir string) (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe), dataDir), nil
}

// NewPaths builds a layout rooted at baseDir. dataDir may be absolute.
//
//	<base>/
//	  data/      indicator tables and country metadata
//	  exports/   workbook and csv exports
//	  logs/
func NewPaths(baseDir, dataDir string) *Paths {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(baseDir, dataDir)
	}
	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		ExportsDir:    filepath.Join(baseDir, DefaultExportsDir),
		LogsDir:       filepath.Join(baseDir, DefaultLogsDir),
	}
}

// EnsureDirectories creates every directory of the layout
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetExportPath returns a file path inside the exports directory
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetLogPath returns a file path inside the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution writes the resolved layout at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("resolved paths",
		slog.String("executable_dir", p.ExecutableDir),
		slog.String("data_dir", p.DataDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("logs_dir", p.LogsDir),
	)
}

// ApplyPaths anchors the relative data directory and log file of c at p.
// A relative log file keeps only its base name and moves into the logs
// directory.
func (c *Config) ApplyPaths(p *Paths) {
	c.Sources.DataDir = p.DataDir
	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = p.GetLogPath(filepath.Base(c.Logging.FilePath))
	}
}

// MissingSources lists the local source files that do not exist.
// Remote locators are skipped.
func (s SourcesConfig) MissingSources() []string {
	locators := []string{s.GDP, s.IneqComb, s.IneqEdu, s.IneqInc, s.IneqLife, s.Countries}
	var missing []string
	for _, l := range locators {
		if IsRemoteLocator(l) {
			continue
		}
		if !FileExists(s.ResolveLocator(l)) {
			missing = append(missing, l)
		}
	}
	return missing
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
