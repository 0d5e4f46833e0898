package server

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/models"
	"catalog/internal/store"
)

// RecordService applies record validation and availability checks in
// front of the record store.
type RecordService struct {
	records store.RecordStore
	ready   store.Readiness
}

// NewRecordService constructs a RecordService.
func NewRecordService(records store.RecordStore, ready store.Readiness) *RecordService {
	return &RecordService{records: records, ready: ready}
}

// List returns every record ordered by id.
func (s *RecordService) List(ctx context.Context) ([]models.Instrument, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	instruments, err := s.records.ListInstruments(ctx)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if instruments == nil {
		instruments = []models.Instrument{}
	}
	return instruments, nil
}

// Upsert stores in as the complete document for its id.
func (s *RecordService) Upsert(ctx context.Context, in *models.Instrument) (*models.Instrument, error) {
	if err := in.Validate(); err != nil {
		return nil, badRequestCode(err, ErrCodeMissingRequired)
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	stored, err := s.records.UpsertInstrument(ctx, in)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return stored, nil
}

// Delete removes one record and reports how many were removed.
func (s *RecordService) Delete(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, badRequestCode(fmt.Errorf("invalid id: %d", id), ErrCodeInvalidID)
	}
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	deleted, err := s.records.DeleteInstrument(ctx, id)
	if err != nil {
		return 0, classifyStoreError(err)
	}
	return deleted, nil
}

// Seed inserts records only when the store holds none.
func (s *RecordService) Seed(ctx context.Context, records []models.Instrument) (store.SeedResult, error) {
	if err := models.ValidateSeed(records); err != nil {
		if errors.Is(err, models.ErrIDRequired) {
			return store.SeedResult{}, badRequestCode(err, ErrCodeMissingRequired)
		}
		return store.SeedResult{}, badRequestCode(err, ErrCodeDuplicateID)
	}
	if err := s.check(ctx); err != nil {
		return store.SeedResult{}, err
	}
	result, err := s.records.SeedInstruments(ctx, records)
	if err != nil {
		return store.SeedResult{}, classifyStoreError(err)
	}
	return result, nil
}

func (s *RecordService) check(ctx context.Context) error {
	if s == nil || s.records == nil {
		return internalError(fmt.Errorf("record service is not configured"))
	}
	return ensureReady(ctx, s.ready)
}
