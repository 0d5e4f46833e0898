package blobstore

import (
	"context"
	"errors"
	"io"
	"time"

	"catalog/internal/models"
)

// DefaultChunkSize is the canonical chunk size for stored blobs.
const DefaultChunkSize = 255 << 10

var (
	// ErrNotFound is returned for unknown blob names and ids.
	ErrNotFound = errors.New("blob not found")
	// ErrCorruptBlob is returned when stored chunks disagree with the file row.
	ErrCorruptBlob = errors.New("blob content is corrupt")
	// ErrClosed is returned by a sink or source used after Close or Abort.
	ErrClosed = errors.New("blob stream is closed")
)

// BlobStore stores named binary blobs as ordered fixed-size chunks.
type BlobStore interface {
	OpenUpload(ctx context.Context, name, contentType string, metadata map[string]any) (Sink, error)
	OpenDownload(ctx context.Context, name string) (Source, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.BlobFile, error)
}

// Sink receives the bytes of one upload. Nothing is visible to readers
// until Close returns successfully.
type Sink interface {
	io.Writer
	Close() (models.BlobFile, error)
	Abort() error
}

// Source yields the chunks of one blob in order, one per call to Next,
// and io.EOF after the last one.
type Source interface {
	File() models.BlobFile
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// ChunkBackend persists chunks and file rows for ChunkedStore.
// Lookups return nil without error when the row does not exist. Write
// failures caused by a full store must wrap store.ErrCapacityExhausted;
// callers do not inspect error text.
type ChunkBackend interface {
	PutChunk(ctx context.Context, fileID string, n int, data []byte) error
	GetChunk(ctx context.Context, fileID string, n int) ([]byte, error)
	DeleteChunks(ctx context.Context, fileID string) error
	FinalizeFile(ctx context.Context, file models.BlobFile) error
	GetFileByName(ctx context.Context, name string) (*models.BlobFile, error)
	DeleteFile(ctx context.Context, id string) (bool, error)
	ListFiles(ctx context.Context) ([]models.BlobFile, error)
	SweepOrphanChunks(ctx context.Context, olderThan time.Time, dryRun bool) (models.ChunkSweep, error)
}
