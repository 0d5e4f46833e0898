package store

import (
	"context"
	"time"

	"catalog/internal/models"
)

// RecordStore abstracts instrument record storage.
type RecordStore interface {
	ListInstruments(ctx context.Context) ([]models.Instrument, error)
	GetInstrument(ctx context.Context, id int64) (*models.Instrument, error)
	UpsertInstrument(ctx context.Context, in *models.Instrument) (*models.Instrument, error)
	DeleteInstrument(ctx context.Context, id int64) (int64, error)
	DeleteAllInstruments(ctx context.Context) (int64, error)
	SeedInstruments(ctx context.Context, records []models.Instrument) (SeedResult, error)
	CountInstruments(ctx context.Context) (int64, error)
}

// Readiness reports whether the backing database can serve requests.
type Readiness interface {
	Ready(ctx context.Context) error
}

// MaintenanceStore exposes statistics and orphan chunk cleanup.
type MaintenanceStore interface {
	Info(ctx context.Context) (*Info, error)
	SweepOrphanChunks(ctx context.Context, olderThan time.Time, dryRun bool) (models.ChunkSweep, error)
}

// CatalogStore is everything the HTTP service needs from the database.
type CatalogStore interface {
	RecordStore
	Readiness
	MaintenanceStore
}

var _ CatalogStore = (*Store)(nil)
