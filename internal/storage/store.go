// Package storage mirrors a loaded dataset into Postgres. The database is a
// write-only copy for external tools; the service never reads it back.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MorMundHS-MA/GDV/internal/config"
	apierrors "github.com/MorMundHS-MA/GDV/internal/errors"
	"github.com/MorMundHS-MA/GDV/internal/infrastructure"
	"github.com/MorMundHS-MA/GDV/pkg/contracts/domain"
)

// Dataset is what SaveDataset persists
type Dataset interface {
	GetCountries() []domain.Country
	Fingerprint() string
	LoadedAt() time.Time
}

// SaveResult reports the rows written by SaveDataset
type SaveResult struct {
	Countries int64
	Stats     int64
}

// Store writes datasets through a connection pool
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the configured database and verifies it answers
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, apierrors.NewConfigError("invalid database URL", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to create connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apierrors.NewStorageError("database unreachable", err)
	}

	return New(pool, logger), nil
}

// New wraps an existing pool
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: infrastructure.WithComponent(logger, "storage")}
}

// Close releases the pool
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks connectivity; it backs the readiness probe
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates missing tables
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return apierrors.NewStorageError("failed to apply schema", err)
		}
	}
	s.logger.DebugContext(ctx, "schema ensured", slog.Int("statements", len(schema)))
	return nil
}

// SaveDataset replaces the stored dataset in one transaction. Readers of the
// database see either the old or the new dataset, never a mix.
func (s *Store) SaveDataset(ctx context.Context, ds Dataset) (SaveResult, error) {
	countries := ds.GetCountries()
	stats, err := statRows(countries)
	if err != nil {
		return SaveResult{}, apierrors.NewAppValidationError(err.Error())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return SaveResult{}, apierrors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	// country_stats goes first to satisfy the foreign key
	for _, table := range []string{"country_stats", "countries"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
			return SaveResult{}, apierrors.NewStorageError("failed to clear "+table, err)
		}
	}

	var result SaveResult
	result.Countries, err = tx.CopyFrom(ctx, pgx.Identifier{"countries"}, countryColumns, pgx.CopyFromRows(countryRows(countries)))
	if err != nil {
		return SaveResult{}, apierrors.NewStorageError("failed to copy countries", err)
	}
	result.Stats, err = tx.CopyFrom(ctx, pgx.Identifier{"country_stats"}, statColumns, pgx.CopyFromRows(stats))
	if err != nil {
		return SaveResult{}, apierrors.NewStorageError("failed to copy country stats", err)
	}

	if _, err := tx.Exec(ctx, upsertMeta, ds.Fingerprint(), len(countries), ds.LoadedAt()); err != nil {
		return SaveResult{}, apierrors.NewStorageError("failed to record dataset", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SaveResult{}, apierrors.NewStorageError("failed to commit transaction", err)
	}

	s.logger.InfoContext(ctx, "dataset persisted",
		slog.String("fingerprint", ds.Fingerprint()),
		slog.Int64("countries", result.Countries),
		slog.Int64("stats", result.Stats))
	return result, nil
}

// StoredFingerprint returns the fingerprint of the persisted dataset, or ""
// when nothing has been saved yet
func (s *Store) StoredFingerprint(ctx context.Context) (string, error) {
	var fp string
	err := s.pool.QueryRow(ctx, "SELECT fingerprint FROM dataset_meta WHERE id").Scan(&fp)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", apierrors.NewStorageError("failed to read dataset fingerprint", err)
	}
	return fp, nil
}

// String summarizes the written rows
func (r SaveResult) String() string {
	return fmt.Sprintf("%d countries, %d stat rows", r.Countries, r.Stats)
}
