package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()

	p := NewPaths(base, "")
	assert.Equal(t, filepath.Join(base, "data"), p.DataDir)
	assert.Equal(t, filepath.Join(base, "exports"), p.ExportsDir)
	assert.Equal(t, filepath.Join(base, "logs", "gdv.log"), p.GetLogPath("gdv.log"))

	abs := filepath.Join(base, "elsewhere")
	assert.Equal(t, abs, NewPaths(base, abs).DataDir)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	p := NewPaths(t.TempDir(), "data")
	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestGetPaths(t *testing.T) {
	p, err := GetPaths("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p.ExecutableDir))
	assert.Equal(t, filepath.Join(p.ExecutableDir, "data"), p.DataDir)

	p, err = GetPaths("sources")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.ExecutableDir, "sources"), p.DataDir)
}

func TestConfig_ApplyPaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "custom.log")

	tests := []struct {
		name    string
		logFile string
		want    string
	}{
		{name: "default log file", logFile: DefaultLogFile, want: filepath.Join(base, "logs", "gdv.log")},
		{name: "relative log file", logFile: "out/server.log", want: filepath.Join(base, "logs", "server.log")},
		{name: "absolute log file", logFile: abs, want: abs},
		{name: "console only", logFile: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Logging.FilePath = tt.logFile
			cfg.ApplyPaths(NewPaths(base, "data"))

			assert.Equal(t, filepath.Join(base, "data"), cfg.Sources.DataDir)
			assert.Equal(t, tt.want, cfg.Logging.FilePath)
		})
	}
}

func TestPaths_LogPathResolution(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewPaths(t.TempDir(), "")
	p.LogPathResolution(logger)

	assert.Contains(t, buf.String(), "resolved paths")
	assert.Contains(t, buf.String(), "data_dir="+p.DataDir)
	assert.Contains(t, buf.String(), "logs_dir="+p.LogsDir)
}

func TestSourcesConfig_MissingSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gdp.csv"), []byte("Country;2017\n"), 0o600))

	s := Default().Sources
	s.DataDir = dir
	s.IneqComb = "https://example.org/inequality.csv"

	missing := s.MissingSources()
	assert.NotContains(t, missing, "gdp.csv")
	assert.NotContains(t, missing, "https://example.org/inequality.csv")
	assert.Contains(t, missing, "countries-unescaped.json")
	assert.Len(t, missing, 4)
}
