package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/dataprocessing"
	"github.com/MorMundHS-MA/GDV/internal/files"
	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// MetadataResource is the resource id of the country metadata
const MetadataResource = "metadata"

const tracerName = "github.com/MorMundHS-MA/GDV/internal/services"

// Loader builds DataSources from the configured resources
type Loader struct {
	fetcher   files.Fetcher
	sources   config.SourcesConfig
	overrides dataprocessing.NameOverrides
	metrics   *infrastructure.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithLoaderMetrics records phase durations and fetches on m
func WithLoaderMetrics(m *infrastructure.Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// WithTracer replaces the global tracer
func WithTracer(t trace.Tracer) LoaderOption {
	return func(l *Loader) { l.tracer = t }
}

// WithClock replaces time.Now for the loaded_at stamp
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a loader. overrides are added to the metadata names.
func NewLoader(fetcher files.Fetcher, sources config.SourcesConfig, overrides dataprocessing.NameOverrides,
	logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		fetcher:   fetcher,
		sources:   sources,
		overrides: overrides,
		tracer:    otel.Tracer(tracerName),
		logger:    logger.With(slog.String("component", "loader")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// tableSlots fixes the fetch order, which is also the fingerprint order
var tableSlots = []domain.Indicator{
	domain.IndicatorGDP,
	domain.IndicatorIneqComb,
	domain.IndicatorIneqEdu,
	domain.IndicatorIneqInc,
	domain.IndicatorIneqLife,
}

// LoadData fetches all six resources concurrently, then resolves and merges
// them. Any failure aborts the whole load.
func (l *Loader) LoadData(ctx context.Context) (*DataSource, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.load")
	defer span.End()

	start := time.Now()
	fetcher := newRecordingFetcher(l.fetcher, l.metrics, l.resourceIDs())

	tables, records, err := l.fetchAll(ctx, fetcher)
	if err != nil {
		return nil, l.fail(ctx, span, "fetch", err)
	}

	index, err := runPhase(ctx, l, "resolve", func(context.Context) (*dataprocessing.CountryIndex, error) {
		return dataprocessing.NewResolver(l.overrides, l.logger).Build(records)
	})
	if err != nil {
		return nil, l.fail(ctx, span, "resolve", err)
	}

	limits := domain.NewStatLimits()
	result, err := runPhase(ctx, l, "merge", func(context.Context) (*dataprocessing.MergeResult, error) {
		return dataprocessing.NewMerger(l.logger).Merge(tables, index, limits)
	})
	if err != nil {
		return nil, l.fail(ctx, span, "merge", err)
	}

	fingerprint := fetcher.fingerprint(l.locators())
	ds := NewDataSource(result, index, limits, fingerprint, l.now().UTC(), l.logger)

	span.SetAttributes(
		attribute.Int("countries", ds.Len()),
		attribute.Int("collisions", index.Collisions),
		attribute.String("fingerprint", fingerprint),
	)
	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("countries", ds.Len()),
		slog.Int("collisions", index.Collisions),
		slog.String("fingerprint", fingerprint),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

func (l *Loader) fetchAll(ctx context.Context, fetcher *recordingFetcher) (dataprocessing.Tables, []dataprocessing.CountryRecord, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.fetch")
	defer span.End()
	start := time.Now()

	loader := dataprocessing.NewTableLoader(fetcher, l.logger)
	locators := l.sources.TableLocators()

	// each goroutine writes only its own slot
	slots := make([]*dataprocessing.Table, len(tableSlots))
	var records []dataprocessing.CountryRecord

	g, gctx := errgroup.WithContext(ctx)
	for i, ind := range tableSlots {
		id := ind.ResourceID()
		locator := locators[id]
		g.Go(func() error {
			table, err := loader.Load(gctx, id, locator)
			if err != nil {
				return err
			}
			slots[i] = table
			return nil
		})
	}
	g.Go(func() error {
		data, err := fetcher.fetchResource(gctx, MetadataResource, l.sources.Countries)
		if err != nil {
			return err
		}
		decoded, err := dataprocessing.DecodeRecords(data)
		if err != nil {
			return err
		}
		records = decoded
		return nil
	})

	err := g.Wait()
	l.metrics.RecordLoadPhase(ctx, "fetch", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	tables := make(dataprocessing.Tables, len(slots))
	for i, ind := range tableSlots {
		tables[ind.ResourceID()] = slots[i]
	}
	return tables, records, nil
}

// runPhase runs fn inside its own span and records its duration
func runPhase[T any](ctx context.Context, l *Loader, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := l.tracer.Start(ctx, "dataset."+name)
	defer span.End()

	start := time.Now()
	out, err := fn(ctx)
	l.metrics.RecordLoadPhase(ctx, name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (l *Loader) fail(ctx context.Context, span trace.Span, phase string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.logger.ErrorContext(ctx, "dataset load failed",
		slog.String("phase", phase),
		slog.String("error", err.Error()))
	return fmt.Errorf("load dataset (%s): %w", phase, err)
}

// resourceIDs maps each locator to the resource id used in metrics
func (l *Loader) resourceIDs() map[string]string {
	ids := make(map[string]string, len(tableSlots)+1)
	for id, locator := range l.sources.TableLocators() {
		ids[locator] = id
	}
	ids[l.sources.Countries] = MetadataResource
	return ids
}

// locators lists every resource in fingerprint order
func (l *Loader) locators() []string {
	tables := l.sources.TableLocators()
	out := make([]string, 0, len(tableSlots)+1)
	for _, ind := range tableSlots {
		out = append(out, tables[ind.ResourceID()])
	}
	return append(out, l.sources.Countries)
}

// recordingFetcher keeps the bytes of every resource of one load and counts
// the retrievals
type recordingFetcher struct {
	inner     files.Fetcher
	metrics   *infrastructure.Metrics
	resources map[string]string

	mu   sync.Mutex
	seen map[string][]byte
}

func newRecordingFetcher(inner files.Fetcher, metrics *infrastructure.Metrics, resources map[string]string) *recordingFetcher {
	return &recordingFetcher{
		inner:     inner,
		metrics:   metrics,
		resources: resources,
		seen:      make(map[string][]byte),
	}
}

func (f *recordingFetcher) fetchResource(ctx context.Context, resource, locator string) ([]byte, error) {
	data, err := f.inner.Fetch(ctx, locator)
	f.metrics.RecordFetch(ctx, resource, err)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.seen[locator] = data
	f.mu.Unlock()
	return data, nil
}

func (f *recordingFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	resource, ok := f.resources[locator]
	if !ok {
		resource = locator
	}
	return f.fetchResource(ctx, resource, locator)
}

func (f *recordingFetcher) FetchText(ctx context.Context, locator string) (string, error) {
	data, err := f.Fetch(ctx, locator)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *recordingFetcher) FetchJSON(ctx context.Context, locator string, v any) error {
	data, err := f.Fetch(ctx, locator)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// fingerprint hashes the recorded resources in the given order
func (f *recordingFetcher) fingerprint(locators []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := xxh3.New()
	for _, locator := range locators {
		_, _ = h.WriteString(locator)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(f.seen[locator])
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
