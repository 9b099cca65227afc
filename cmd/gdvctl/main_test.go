package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/files"
	"github.com/MorMundHS-MA/GDV/internal/shared/testutil"
)

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := config.Default()
	cfg.Storage.DatabaseURL = ""
	return &cli{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		fetcher: files.NewMapFetcher(testutil.WorldSources()),
		paths:   config.NewPaths(t.TempDir(), ""),
		out:     out,
		errOut:  io.Discard,
	}, out
}

func run(c *cli, args ...string) error {
	root := newRootCmd(c)
	root.SetArgs(args)
	return root.Execute()
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
		wantErr  string
	}{
		{
			name:     "all countries",
			args:     []string{"show", "countries"},
			contains: []string{"DEU", "FRA", "CIV", "COD", "COG"},
		},
		{
			name:     "countries of one region",
			args:     []string{"show", "countries", "--region", "europe"},
			contains: []string{"DEU", "FRA"},
			excludes: []string{"CIV", "COD"},
		},
		{
			name:     "country by alternate name",
			args:     []string{"show", "country", "Congo"},
			contains: []string{"(COD)"},
		},
		{
			name:    "unknown country",
			args:    []string{"show", "country", "Atlantis"},
			wantErr: `country "Atlantis" not found`,
		},
		{
			name:     "limits",
			args:     []string{"show", "limits"},
			contains: []string{"48000"},
		},
		{
			name:     "snapshot",
			args:     []string{"snapshot", "2017", "--indicator", "ineqComb"},
			contains: []string{"DEU", "FRA"},
		},
		{
			name:    "snapshot of unknown year",
			args:    []string{"snapshot", "1999"},
			wantErr: "year",
		},
		{
			name:    "snapshot of unknown indicator",
			args:    []string{"snapshot", "2017", "-i", "happiness"},
			wantErr: "indicator",
		},
		{
			name:     "validate",
			args:     []string{"validate"},
			contains: []string{"countries:     5", "regions:       2"},
		},
		{
			name:     "version",
			args:     []string{"version"},
			contains: []string{"gdv dev", "api v1"},
		},
		{
			name:    "persist without database",
			args:    []string{"persist"},
			wantErr: "no database configured",
		},
		{
			name:    "export in unknown format",
			args:    []string{"export", "--format", "pdf"},
			wantErr: "want one of xlsx, csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestCLI(t)

			err := run(c, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestExportCommand(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		c, out := newTestCLI(t)
		target := filepath.Join(t.TempDir(), "world.csv")

		require.NoError(t, run(c, "export", "-f", "csv", "-o", target))
		assert.Equal(t, target, strings.TrimSpace(out.String()))

		content, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "code;name;region;year;indicator;value"))
	})

	t.Run("exports directory", func(t *testing.T) {
		c, out := newTestCLI(t)

		require.NoError(t, run(c, "export"))
		written := strings.TrimSpace(out.String())
		assert.Equal(t, c.paths.ExportsDir, filepath.Dir(written))
		assert.True(t, strings.HasPrefix(filepath.Base(written), "gdv-"))
		assert.Equal(t, ".xlsx", filepath.Ext(written))
		assert.FileExists(t, written)
	})
}

func TestSourcesCommand(t *testing.T) {
	c, out := newTestCLI(t)
	dataDir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "gdp.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "notes.txt"), []byte("x"), 0o644))
	c.cfg.Sources.DataDir = dataDir

	require.NoError(t, run(c, "sources"))

	got := out.String()
	assert.Contains(t, got, "gdp.csv")
	assert.NotContains(t, got, "notes.txt")
	assert.Contains(t, got, "latest: gdp.csv")
	assert.Contains(t, got, "missing: "+c.cfg.Sources.IneqComb)
	assert.NotContains(t, got, "missing: "+c.cfg.Sources.GDP)
}

func TestSourcesCommand_Pattern(t *testing.T) {
	c, out := newTestCLI(t)
	dataDir := t.TempDir()
	now := time.Now()
	for i, name := range []string{"inequality.csv", "inequality_income.csv", "gdp.csv"} {
		path := filepath.Join(dataDir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		stamp := now.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}
	c.cfg.Sources.DataDir = dataDir

	require.NoError(t, run(c, "sources", "--pattern", "inequality*"))

	got := out.String()
	assert.Contains(t, got, "inequality.csv")
	assert.Contains(t, got, "latest: inequality_income.csv")
	assert.NotContains(t, got, "gdp.csv")
	assert.NotContains(t, got, "missing:")

	assert.Error(t, run(c, "sources", "--pattern", "["))
}
