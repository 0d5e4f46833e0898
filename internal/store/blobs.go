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

const blobFileColumns = "id, filename, content_type, original_name, length, chunk_size, chunk_count, checksum, metadata_json, uploaded_at"

// PutChunk stores chunk n of an upload in progress.
func (s *Store) PutChunk(ctx context.Context, fileID string, n int, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO blob_chunks (file_id, n, data, created_at) VALUES (?, ?, ?, ?)",
		fileID, n, data, formatTime(time.Now()),
	)
	return classifyWriteError(err)
}

// GetChunk returns chunk n of a file, or nil when it does not exist.
func (s *Store) GetChunk(ctx context.Context, fileID string, n int) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM blob_chunks WHERE file_id = ? AND n = ?", fileID, n).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// DeleteChunks removes every chunk written under fileID.
func (s *Store) DeleteChunks(ctx context.Context, fileID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blob_chunks WHERE file_id = ?", fileID)
	return err
}

// FinalizeFile inserts the file row that makes an upload visible.
func (s *Store) FinalizeFile(ctx context.Context, file models.BlobFile) error {
	var metadata any
	if len(file.Metadata) > 0 {
		encoded, err := json.Marshal(file.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", file.ID, err)
		}
		metadata = string(encoded)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO blob_files ("+blobFileColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		file.ID,
		file.Filename,
		nullIfEmpty(file.ContentType),
		nullIfEmpty(file.OriginalName),
		file.Length,
		file.ChunkSize,
		file.ChunkCount,
		nullIfEmpty(file.Checksum),
		metadata,
		formatTime(file.UploadedAt),
	)
	return classifyWriteError(err)
}

// GetFileByName returns the most recent upload stored under name, or nil.
func (s *Store) GetFileByName(ctx context.Context, name string) (*models.BlobFile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+blobFileColumns+" FROM blob_files WHERE filename = ? ORDER BY rowid DESC LIMIT 1",
		name,
	)
	file, err := scanBlobFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return file, err
}

// GetFile returns the file row with id, or nil.
func (s *Store) GetFile(ctx context.Context, id string) (*models.BlobFile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+blobFileColumns+" FROM blob_files WHERE id = ?", id)
	file, err := scanBlobFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return file, err
}

// DeleteFile removes a file row and its chunks in one transaction. It
// reports false when no file row existed.
func (s *Store) DeleteFile(ctx context.Context, id string) (deleted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "DELETE FROM blob_files WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM blob_chunks WHERE file_id = ?", id); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListFiles returns every finalized file, oldest first.
func (s *Store) ListFiles(ctx context.Context) ([]models.BlobFile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+blobFileColumns+" FROM blob_files ORDER BY rowid ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []models.BlobFile{}
	for rows.Next() {
		file, err := scanBlobFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

// SweepOrphanChunks deletes chunks that belong to no file row and were
// written before olderThan. With dryRun it only counts them.
func (s *Store) SweepOrphanChunks(ctx context.Context, olderThan time.Time, dryRun bool) (sweep models.ChunkSweep, err error) {
	const orphanFilter = `
FROM blob_chunks c
WHERE NOT EXISTS (SELECT 1 FROM blob_files f WHERE f.id = c.file_id)
  AND c.file_id NOT IN (SELECT file_id FROM blob_chunks WHERE created_at >= ?)`

	cutoff := formatTime(olderThan)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ChunkSweep{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT c.file_id), COUNT(*), COALESCE(SUM(LENGTH(c.data)), 0) "+orphanFilter,
		cutoff,
	).Scan(&sweep.Files, &sweep.Chunks, &sweep.Bytes)
	if err != nil {
		return models.ChunkSweep{}, err
	}

	if !dryRun && sweep.Chunks > 0 {
		if _, err = tx.ExecContext(ctx, "DELETE FROM blob_chunks WHERE rowid IN (SELECT c.rowid "+orphanFilter+")", cutoff); err != nil {
			return models.ChunkSweep{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.ChunkSweep{}, err
	}
	return sweep, nil
}

func scanBlobFile(scanner interface{ Scan(dest ...any) error }) (*models.BlobFile, error) {
	var (
		file         models.BlobFile
		contentType  sql.NullString
		originalName sql.NullString
		checksum     sql.NullString
		metadataJSON sql.NullString
		uploadedAt   string
	)
	err := scanner.Scan(
		&file.ID,
		&file.Filename,
		&contentType,
		&originalName,
		&file.Length,
		&file.ChunkSize,
		&file.ChunkCount,
		&checksum,
		&metadataJSON,
		&uploadedAt,
	)
	if err != nil {
		return nil, err
	}

	file.ContentType = contentType.String
	file.OriginalName = originalName.String
	file.Checksum = checksum.String
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &file.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", file.ID, err)
		}
	}
	file.UploadedAt, err = parseTime(uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded_at for %s: %w", file.ID, err)
	}
	return &file, nil
}
