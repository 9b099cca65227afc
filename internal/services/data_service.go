package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/events"
)

// Reload triggers
const (
	TriggerStartup  = "startup"
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

// DatasetLoader builds a complete dataset
type DatasetLoader interface {
	LoadData(ctx context.Context) (*DataSource, error)
}

// Broadcaster pushes messages to connected clients
type Broadcaster interface {
	Broadcast(msg events.WebSocketMessage)
	ClientCount() int
}

// DataService owns the current dataset and swaps it on reload. Readers
// never observe a partially built dataset.
type DataService struct {
	loader      DatasetLoader
	broadcaster Broadcaster
	metrics     *infrastructure.Metrics
	logger      *slog.Logger
	onSwap      []func(context.Context, *DataSource)

	mu        sync.RWMutex
	current   *DataSource
	reloading atomic.Bool
}

// DataServiceOption configures a DataService
type DataServiceOption func(*DataService)

// WithBroadcaster announces reloads through b
func WithBroadcaster(b Broadcaster) DataServiceOption {
	return func(s *DataService) { s.broadcaster = b }
}

// WithServiceMetrics records load outcomes on m
func WithServiceMetrics(m *infrastructure.Metrics) DataServiceOption {
	return func(s *DataService) { s.metrics = m }
}

// WithSwapHook runs fn after every successful swap, before clients are
// notified. Hooks run on the reloading goroutine.
func WithSwapHook(fn func(ctx context.Context, ds *DataSource)) DataServiceOption {
	return func(s *DataService) { s.onSwap = append(s.onSwap, fn) }
}

// NewDataService creates a service with no dataset loaded
func NewDataService(loader DatasetLoader, logger *slog.Logger, opts ...DataServiceOption) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DataService{
		loader: loader,
		logger: logger.With(slog.String("component", "data_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the loaded dataset
func (s *DataService) Current() (*DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrDatasetNotLoaded
	}
	return s.current, nil
}

// Loaded reports whether a dataset is available
func (s *DataService) Loaded() bool {
	_, err := s.Current()
	return err == nil
}

// Load performs the initial load
func (s *DataService) Load(ctx context.Context) error {
	_, err := s.Reload(ctx, TriggerStartup)
	return err
}

// Reload builds a fresh dataset and swaps it in. On failure the previous
// dataset stays current. Concurrent reloads are rejected.
func (s *DataService) Reload(ctx context.Context, trigger string) (*DataSource, error) {
	if !s.reloading.CompareAndSwap(false, true) {
		return nil, ErrReloadInProgress
	}
	defer s.reloading.Store(false)

	ctx = infrastructure.EnsureTraceID(ctx)
	ds, err := s.loader.LoadData(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.metrics.RecordLoad(ctx, trigger, 0, 0, err)
		s.logger.ErrorContext(ctx, "dataset reload failed",
			slog.String("trigger", trigger),
			slog.Bool("kept_previous", s.Loaded()),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.mu.Lock()
	previous := s.current
	s.current = ds
	s.mu.Unlock()

	info := ds.Info()
	s.metrics.RecordLoad(ctx, trigger, info.Countries, info.Collisions, nil)
	s.logger.InfoContext(ctx, "dataset swapped",
		slog.String("trigger", trigger),
		slog.Int("countries", info.Countries),
		slog.String("fingerprint", info.Fingerprint),
		slog.Bool("changed", previous == nil || previous.Fingerprint() != ds.Fingerprint()))

	infrastructure.AddSpanEvent(ctx, "dataset.swapped",
		attribute.String("trigger", trigger),
		attribute.String("fingerprint", info.Fingerprint))

	for _, fn := range s.onSwap {
		fn(ctx, ds)
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(events.NewMessage(events.MessageTypeDatasetReloaded, events.DatasetReloaded{
			Fingerprint: info.Fingerprint,
			Countries:   info.Countries,
			Collisions:  info.Collisions,
			LoadedAt:    info.LoadedAt,
			Trigger:     trigger,
		}))
	}
	return ds, nil
}

// RunReloader reloads every interval until ctx is done. A zero interval
// returns immediately.
func (s *DataService) RunReloader(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("periodic reload started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("periodic reload stopped")
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx, TriggerSchedule); err != nil && ctx.Err() == nil {
				s.logger.Warn("scheduled reload skipped", slog.String("error", err.Error()))
			}
		}
	}
}
