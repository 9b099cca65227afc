package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MorMundHS-MA/GDV/internal/config"
	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/events"
)

// DatasetProvider returns the current dataset
type DatasetProvider interface {
	Current() (*DataSource, error)
}

// Animator cycles through the years and broadcasts one scatter frame per
// tick while clients are connected
type Animator struct {
	source      DatasetProvider
	broadcaster Broadcaster
	interval    time.Duration
	metrics     *infrastructure.Metrics
	logger      *slog.Logger

	mu        sync.Mutex
	indicator domain.Indicator
	yearIdx   int
	sequence  uint64
}

// NewAnimator creates an animator from the animation settings
func NewAnimator(source DatasetProvider, broadcaster Broadcaster, cfg config.AnimationConfig,
	metrics *infrastructure.Metrics, logger *slog.Logger) (*Animator, error) {
	ind, err := domain.ParseIndicator(cfg.Indicator)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndicator, cfg.Indicator)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("animation interval must be positive, got %s", cfg.Interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Animator{
		source:      source,
		broadcaster: broadcaster,
		interval:    cfg.Interval,
		metrics:     metrics,
		indicator:   ind,
		logger:      logger.With(slog.String("component", "animator")),
	}, nil
}

// SetIndicator switches the x axis of subsequent frames
func (a *Animator) SetIndicator(ind domain.Indicator) error {
	if !ind.Valid() {
		return ErrUnknownIndicator
	}
	a.mu.Lock()
	a.indicator = ind
	a.mu.Unlock()
	return nil
}

// Indicator returns the current x axis
func (a *Animator) Indicator() domain.Indicator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.indicator
}

// NextFrame builds the frame for the current year and advances to the next
// one, wrapping after the last year
func (a *Animator) NextFrame() (events.SnapshotFrame, error) {
	ds, err := a.source.Current()
	if err != nil {
		return events.SnapshotFrame{}, err
	}

	a.mu.Lock()
	years := domain.Years()
	year := years[a.yearIdx]
	ind := a.indicator
	a.yearIdx = (a.yearIdx + 1) % len(years)
	a.sequence++
	seq := a.sequence
	a.mu.Unlock()

	points, err := ds.Snapshot(year, ind)
	if err != nil {
		return events.SnapshotFrame{}, err
	}

	xLimit, yLimit := ds.SnapshotLimits(ind)
	return events.SnapshotFrame{
		Year:      year,
		Indicator: ind,
		Points:    points,
		XLimit:    xLimit,
		YLimit:    yLimit,
		Sequence:  seq,
	}, nil
}

// Run broadcasts frames every interval until ctx is done. Ticks without
// connected clients or without a dataset are skipped.
func (a *Animator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("animation started",
		slog.Duration("interval", a.interval),
		slog.String("indicator", a.Indicator().String()))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("animation stopped")
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Animator) tick(ctx context.Context) {
	if a.broadcaster == nil || a.broadcaster.ClientCount() == 0 {
		return
	}
	frame, err := a.NextFrame()
	if err != nil {
		a.logger.Debug("frame skipped", slog.String("error", err.Error()))
		return
	}
	a.broadcaster.Broadcast(events.NewMessage(events.MessageTypeSnapshotFrame, frame))
	a.metrics.RecordFrame(ctx, frame.Indicator.String())
}
