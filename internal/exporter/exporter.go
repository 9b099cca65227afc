package exporter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// Format names an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned by New for unknown format names
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Dataset is the read side of a loaded dataset
type Dataset interface {
	GetCountries() []domain.Country
	GetStatLimits() *domain.StatLimits
	Fingerprint() string
}

// Exporter writes a dataset in one file format
type Exporter interface {
	Write(w io.Writer, ds Dataset) error
	ContentType() string
	Extension() string
}

// Options configures the exporters built by New
type Options struct {
	// BOM prefixes CSV output with a UTF-8 byte order mark
	BOM    bool
	Logger *slog.Logger
}

// Formats lists the supported format names
func Formats() []Format {
	return []Format{FormatXLSX, FormatCSV}
}

// FormatList joins the supported format names for help and error texts
func FormatList() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// New returns the exporter for a format name
func New(format string, opts Options) (Exporter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatXLSX:
		return NewWorkbookExporter(logger), nil
	case FormatCSV:
		return NewCSVExporter(opts.BOM, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q, want one of %s", ErrUnsupportedFormat, format, FormatList())
	}
}

// FileName derives a download name that changes with the dataset content
func FileName(e Exporter, ds Dataset) string {
	fp := ds.Fingerprint()
	if len(fp) > 12 {
		fp = fp[:12]
	}
	if fp == "" {
		return "gdv." + e.Extension()
	}
	return fmt.Sprintf("gdv-%s.%s", fp, e.Extension())
}

// formatValue renders one cell. Missing values are empty and integer
// indicators carry no fraction.
func formatValue(ind domain.Indicator, v float64) string {
	if !finite(v) {
		return ""
	}
	if ind.IsInteger() {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
