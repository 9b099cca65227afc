package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/shared/testutil"
)

func newTestManager(t *testing.T) (*Manager, *config.Paths) {
	paths := config.NewPaths(t.TempDir(), "")
	logger, _ := testutil.NewTestLogger(t)
	return NewManager(paths, logger), paths
}

func TestManager_WriteFile(t *testing.T) {
	m, paths := newTestManager(t)

	full, err := m.WriteFile("exports/countries.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "code;name\n")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "exports", "countries.csv"), full)

	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "code;name\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(full))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestManager_WriteFileFailureKeepsOriginal(t *testing.T) {
	m, paths := newTestManager(t)
	target := paths.GetExportPath("data.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))

	boom := errors.New("boom")
	_, err := m.WriteFile(target, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestManager_ExportPath(t *testing.T) {
	m, paths := newTestManager(t)
	assert.Equal(t, filepath.Join(paths.ExportsDir, "x.xlsx"), m.ExportPath("x.xlsx"))
}
