package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/files"
	"github.com/MorMundHS-MA/GDV/internal/shared/testutil"
)

func TestTableLoader_Parse(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	loader := NewTableLoader(files.NewMapFetcher(nil), logger)

	text := "\ufeff Country ;2016;2017\n" +
		"Germany;47000;48000\n" +
		" France ;41000\n" +
		";1;2\n" +
		"\n" +
		"Germany;47001;48001\n" +
		"\"Korea, Republic of\";27000;28000\n"

	table, err := loader.Parse(context.Background(), "gdp", strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, "gdp", table.ID)
	assert.Equal(t, []string{"Country", "2016", "2017"}, table.Header)
	assert.Equal(t, []string{"Germany", "France", "Korea, Republic of"}, table.Names)
	assert.Equal(t, 3, table.Len())

	row, ok := table.Row("Germany")
	require.True(t, ok)
	assert.Equal(t, "48001", row["2017"], "the later duplicate wins")

	row, ok = table.Row("France")
	require.True(t, ok)
	assert.Equal(t, "41000", row["2016"])
	_, present := row["2017"]
	assert.False(t, present, "short rows leave columns absent")

	_, ok = table.Row(" France ")
	assert.False(t, ok, "rows are keyed by trimmed name")

	warns := logs.FindByMessage("duplicate country row")
	require.Len(t, warns, 1)
	assert.Equal(t, slog.LevelWarn, warns[0].Level)
	assert.Equal(t, "Germany", warns[0].Attrs["country"])
	assert.Equal(t, "gdp", warns[0].Attrs["table"])
	assert.Equal(t, int64(6), warns[0].Attrs["line"])

	skipped := logs.FindByMessage("row without country skipped")
	require.Len(t, skipped, 1)
	assert.Equal(t, slog.LevelDebug, skipped[0].Level)
}

func TestTableLoader_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "empty", text: "", want: "table is empty"},
		{name: "no country column", text: "Land;2017\nGermany;1\n", want: `missing "Country" column`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			loader := NewTableLoader(files.NewMapFetcher(nil), logger)

			_, err := loader.Parse(context.Background(), "ineq_comb", strings.NewReader(tt.text))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTableLoader_Load(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	fetcher := files.NewMapFetcher(testutil.WorldSources())
	loader := NewTableLoader(fetcher, logger)

	table, err := loader.Load(context.Background(), "gdp", testutil.GDPLocator)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, "Country", table.Header[0], "BOM is stripped")
	assert.True(t, logs.ContainsMessage("table loaded"))

	_, err = loader.Load(context.Background(), "gdp", "missing.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "gdp", appErr.Context["table"])
}

func TestTable_NilSafe(t *testing.T) {
	var table *Table
	_, ok := table.Row("Germany")
	assert.False(t, ok)
	assert.Zero(t, table.Len())
}
