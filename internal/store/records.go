package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalog/internal/models"
)

// SeedResult reports the outcome of a bootstrap seed.
type SeedResult struct {
	Seeded bool  `json:"seeded"`
	Count  int64 `json:"count"`
}

// ListInstruments returns every record ordered by id ascending.
func (s *Store) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, doc FROM instruments ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instruments := []models.Instrument{}
	for rows.Next() {
		in, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return instruments, nil
}

// GetInstrument returns the record with id, or nil when absent.
func (s *Store) GetInstrument(ctx context.Context, id int64) (*models.Instrument, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, doc FROM instruments WHERE id = ?", id)
	in, err := scanInstrument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return in, err
}

// UpsertInstrument replaces the whole document stored under in.ID, creating
// it when absent, and returns the stored document.
func (s *Store) UpsertInstrument(ctx context.Context, in *models.Instrument) (*models.Instrument, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode instrument %d: %w", in.ID, err)
	}

	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx, `
INSERT INTO instruments (id, doc, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		in.ID, string(doc), now, now)
	if err != nil {
		return nil, classifyWriteError(err)
	}

	stored, err := s.GetInstrument(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("instrument %d not found after upsert", in.ID)
	}
	return stored, nil
}

// DeleteInstrument removes one record and reports how many rows went away.
// An absent id is not an error.
func (s *Store) DeleteInstrument(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM instruments WHERE id = ?", id)
	if err != nil {
		return 0, classifyWriteError(err)
	}
	return res.RowsAffected()
}

// DeleteAllInstruments empties the record table.
func (s *Store) DeleteAllInstruments(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM instruments")
	if err != nil {
		return 0, classifyWriteError(err)
	}
	return res.RowsAffected()
}

// CountInstruments returns the number of stored records.
func (s *Store) CountInstruments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM instruments").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SeedInstruments inserts records only when the table is empty. The check
// and the inserts share one transaction.
func (s *Store) SeedInstruments(ctx context.Context, records []models.Instrument) (result SeedResult, err error) {
	if err := models.ValidateSeed(records); err != nil {
		return SeedResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SeedResult{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing int64
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM instruments").Scan(&existing); err != nil {
		return SeedResult{}, err
	}
	if existing > 0 {
		if err = tx.Commit(); err != nil {
			return SeedResult{}, err
		}
		return SeedResult{Seeded: false, Count: existing}, nil
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO instruments (id, doc, created_at, updated_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return SeedResult{}, err
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for i := range records {
		doc, encErr := json.Marshal(&records[i])
		if encErr != nil {
			err = fmt.Errorf("encode instrument %d: %w", records[i].ID, encErr)
			return SeedResult{}, err
		}
		if _, err = stmt.ExecContext(ctx, records[i].ID, string(doc), now, now); err != nil {
			err = classifyWriteError(err)
			return SeedResult{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = classifyWriteError(err)
		return SeedResult{}, err
	}
	return SeedResult{Seeded: true, Count: int64(len(records))}, nil
}

func scanInstrument(scanner interface{ Scan(dest ...any) error }) (*models.Instrument, error) {
	var (
		id  int64
		doc string
	)
	if err := scanner.Scan(&id, &doc); err != nil {
		return nil, err
	}
	var in models.Instrument
	if err := json.Unmarshal([]byte(doc), &in); err != nil {
		return nil, fmt.Errorf("decode instrument %d: %w", id, err)
	}
	in.ID = id
	return &in, nil
}
