package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	apperrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/files"
)

// CountryColumn is the header every indicator table must carry
const CountryColumn = "Country"

// Row maps a column header to its raw cell
type Row map[string]string

// Table is one parsed indicator resource keyed by trimmed country name
type Table struct {
	ID     string
	Header []string
	Rows   map[string]Row
	// Names lists row keys in order of first appearance
	Names []string
}

// Row returns the row of a country name
func (t *Table) Row(name string) (Row, bool) {
	if t == nil {
		return nil, false
	}
	row, ok := t.Rows[name]
	return row, ok
}

// Len returns the number of distinct countries
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Names)
}

// Tables holds loaded tables by resource id
type Tables map[string]*Table

// TableLoader fetches and parses semicolon separated indicator tables
type TableLoader struct {
	fetcher files.Fetcher
	logger  *slog.Logger
}

// NewTableLoader creates a loader reading through fetcher
func NewTableLoader(fetcher files.Fetcher, logger *slog.Logger) *TableLoader {
	return &TableLoader{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "table_loader")),
	}
}

// Load fetches the resource at locator and parses it as table id
func (l *TableLoader) Load(ctx context.Context, id, locator string) (*Table, error) {
	text, err := l.fetcher.FetchText(ctx, locator)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr.WithContext("table", id)
		}
		return nil, apperrors.NewStorageError("fetch table", err).
			WithContext("table", id).
			WithContext("locator", locator)
	}

	table, err := l.Parse(ctx, id, strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "table loaded",
		slog.String("table", id),
		slog.String("locator", locator),
		slog.Int("rows", table.Len()))
	return table, nil
}

// Parse reads a table from r. The first record is the header.
func (l *TableLoader) Parse(ctx context.Context, id string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("table is empty", nil).WithContext("table", id)
		}
		return nil, apperrors.NewParsingError("read header", err).WithContext("table", id)
	}

	countryIdx := -1
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		}
		header[i] = h
		if h == CountryColumn && countryIdx < 0 {
			countryIdx = i
		}
	}
	if countryIdx < 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("missing %q column", CountryColumn), nil).
			WithContext("table", id).
			WithContext("header", strings.Join(header, ";"))
	}

	table := &Table{
		ID:     id,
		Header: header,
		Rows:   make(map[string]Row),
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read record", err).WithContext("table", id)
		}
		line, _ := reader.FieldPos(0)

		if countryIdx >= len(record) || strings.TrimSpace(record[countryIdx]) == "" {
			l.logger.DebugContext(ctx, "row without country skipped",
				slog.String("table", id),
				slog.Int("line", line))
			continue
		}
		name := strings.TrimSpace(record[countryIdx])

		row := make(Row, len(record))
		for i, cell := range record {
			if i < len(header) {
				row[header[i]] = cell
			}
		}

		if _, dup := table.Rows[name]; dup {
			l.logger.WarnContext(ctx, "duplicate country row, keeping the later one",
				slog.String("table", id),
				slog.String("country", name),
				slog.Int("line", line))
		} else {
			table.Names = append(table.Names, name)
		}
		table.Rows[name] = row
	}

	return table, nil
}
