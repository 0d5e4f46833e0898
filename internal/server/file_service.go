package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalog/internal/blobstore"
	"catalog/internal/models"
	"catalog/internal/store"
)

const (
	fallbackContentType = "application/octet-stream"
	pdfContentType      = "application/pdf"
	defaultOriginalName = "file"
)

// orphanSweeper is implemented by blob stores that can reclaim chunks of
// uploads that never finalized.
type orphanSweeper interface {
	SweepOrphans(ctx context.Context, grace time.Duration, dryRun bool) (models.ChunkSweep, error)
}

// FileService orchestrates blob uploads, downloads and maintenance.
type FileService struct {
	blobs   blobstore.BlobStore
	sweeper orphanSweeper
	records store.RecordStore
	ready   store.Readiness
	now     func() time.Time
	gcGrace time.Duration
}

// UploadInput describes one incoming file.
type UploadInput struct {
	OriginalName string
	ContentType  string
}

// FileContent is an open download.
type FileContent struct {
	Source      blobstore.Source
	File        models.BlobFile
	ContentType string
}

// PurgeResult reports how far a purge got.
type PurgeResult struct {
	RecordsDeleted int64
	BlobsDeleted   int
	BlobsFailed    int
	Orphans        models.ChunkSweep
}

// GCResult reports one orphan chunk sweep.
type GCResult struct {
	models.ChunkSweep
	DryRun bool
}

// NewFileService constructs a FileService.
func NewFileService(blobs blobstore.BlobStore, records store.RecordStore, ready store.Readiness) *FileService {
	svc := &FileService{
		blobs:   blobs,
		records: records,
		ready:   ready,
		now:     time.Now,
		gcGrace: defaultGCGrace,
	}
	if sweeper, ok := blobs.(orphanSweeper); ok {
		svc.sweeper = sweeper
	}
	return svc
}

// Upload stores content under a fresh storage name derived from the
// client's file name.
func (s *FileService) Upload(ctx context.Context, in UploadInput, content io.Reader) (models.BlobFile, error) {
	if content == nil {
		return models.BlobFile{}, badRequestCode(fmt.Errorf("no file uploaded"), ErrCodeMissingFile)
	}
	if err := s.check(ctx); err != nil {
		return models.BlobFile{}, err
	}

	originalName := strings.TrimSpace(in.OriginalName)
	if originalName == "" {
		originalName = defaultOriginalName
	}
	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = fallbackContentType
	}

	name := StorageName(s.now(), originalName)
	file, err := blobstore.Upload(ctx, s.blobs, name, contentType, map[string]any{"originalName": originalName}, content)
	if err != nil {
		return models.BlobFile{}, classifyStoreError(err)
	}
	return file, nil
}

// Open resolves a blob for streaming. The caller closes the Source.
func (s *FileService) Open(ctx context.Context, name string) (*FileContent, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	src, err := s.blobs.OpenDownload(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, notFoundCode(fmt.Errorf("file not found"), ErrCodeBlobNotFound)
		}
		return nil, classifyStoreError(err)
	}
	file := src.File()
	return &FileContent{Source: src, File: file, ContentType: downloadContentType(file)}, nil
}

// List returns metadata for every stored blob.
func (s *FileService) List(ctx context.Context) ([]models.BlobFile, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	files, err := s.blobs.List(ctx)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if files == nil {
		files = []models.BlobFile{}
	}
	return files, nil
}

// Delete removes one blob by id.
func (s *FileService) Delete(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, id); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return notFoundCode(fmt.Errorf("file not found"), ErrCodeBlobNotFound)
		}
		return classifyStoreError(err)
	}
	return nil
}

// Purge deletes every record, then every blob, then stale orphan chunks.
// It is not atomic; the result reports how far it got even on error.
func (s *FileService) Purge(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult
	if err := s.check(ctx); err != nil {
		return result, err
	}
	if s.records == nil {
		return result, internalError(fmt.Errorf("record store is not configured"))
	}

	deleted, err := s.records.DeleteAllInstruments(ctx)
	if err != nil {
		return result, storeFailure(fmt.Errorf("delete records: %w", err))
	}
	result.RecordsDeleted = deleted

	files, err := s.blobs.List(ctx)
	if err != nil {
		return result, storeFailure(fmt.Errorf("list blobs: %w", err))
	}

	var failures []error
	for _, file := range files {
		if err := s.blobs.Delete(ctx, file.ID); err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				continue
			}
			result.BlobsFailed++
			failures = append(failures, fmt.Errorf("delete blob %s: %w", file.ID, err))
			continue
		}
		result.BlobsDeleted++
	}

	if s.sweeper != nil {
		sweep, err := s.sweeper.SweepOrphans(ctx, s.gcGrace, false)
		if err != nil {
			failures = append(failures, fmt.Errorf("sweep orphan chunks: %w", err))
		}
		result.Orphans = sweep
	}

	if len(failures) > 0 {
		return result, makeAPIError(http.StatusInternalServerError, "internal", ErrCodePurgeFailed, errors.Join(failures...))
	}
	return result, nil
}

// GC sweeps chunks left behind by uploads that never finalized.
func (s *FileService) GC(ctx context.Context, dryRun bool) (GCResult, error) {
	result := GCResult{DryRun: dryRun}
	if err := s.check(ctx); err != nil {
		return result, err
	}
	if s.sweeper == nil {
		return result, internalError(fmt.Errorf("blob store does not support orphan sweeps"))
	}
	sweep, err := s.sweeper.SweepOrphans(ctx, s.gcGrace, dryRun)
	if err != nil {
		return result, classifyStoreError(err)
	}
	result.ChunkSweep = sweep
	return result, nil
}

func (s *FileService) check(ctx context.Context) error {
	if s == nil || s.blobs == nil {
		return internalError(fmt.Errorf("file service is not configured"))
	}
	return ensureReady(ctx, s.ready)
}

// StorageName builds the name a blob is stored and downloaded under.
func StorageName(now time.Time, originalName string) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), sanitizeFileName(originalName))
}

// sanitizeFileName replaces every rune outside [A-Za-z0-9.-] with '_'.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

func downloadContentType(file models.BlobFile) string {
	if strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return pdfContentType
	}
	if contentType := strings.TrimSpace(file.ContentType); contentType != "" {
		return contentType
	}
	return fallbackContentType
}
