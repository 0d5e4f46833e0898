package blobstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"catalog/internal/models"
)

// ChunkedStore implements BlobStore on top of a ChunkBackend.
type ChunkedStore struct {
	backend   ChunkBackend
	chunkSize int
	logger    *slog.Logger
	now       func() time.Time
}

var _ BlobStore = (*ChunkedStore)(nil)

// NewChunkedStore creates a blob store writing chunks of chunkSize bytes.
// A non-positive chunkSize selects DefaultChunkSize.
func NewChunkedStore(backend ChunkBackend, chunkSize int) *ChunkedStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedStore{
		backend:   backend,
		chunkSize: chunkSize,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithLogger sets the logger used for cleanup failures.
func (s *ChunkedStore) WithLogger(logger *slog.Logger) *ChunkedStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// ChunkSize returns the size of every chunk except a blob's last one.
func (s *ChunkedStore) ChunkSize() int {
	return s.chunkSize
}

// OpenUpload starts a new upload stored under name. An "originalName"
// string in metadata is also recorded on the file row.
func (s *ChunkedStore) OpenUpload(ctx context.Context, name, contentType string, metadata map[string]any) (Sink, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("blob name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	originalName, _ := metadata["originalName"].(string)

	return &chunkSink{
		ctx:   ctx,
		store: s,
		file: models.BlobFile{
			ID:           uuid.NewString(),
			Filename:     name,
			ContentType:  contentType,
			OriginalName: originalName,
			ChunkSize:    s.chunkSize,
			Metadata:     metadata,
		},
		buf:  make([]byte, 0, s.chunkSize),
		hash: h,
	}, nil
}

// OpenDownload resolves the most recent blob stored under name.
func (s *ChunkedStore) OpenDownload(ctx context.Context, name string) (Source, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	file, err := s.backend.GetFileByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	return &chunkSource{backend: s.backend, file: *file, hash: h}, nil
}

// Delete removes a blob's file row and chunks.
func (s *ChunkedStore) Delete(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	deleted, err := s.backend.DeleteFile(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns every finalized blob, oldest first.
func (s *ChunkedStore) List(ctx context.Context) ([]models.BlobFile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.backend.ListFiles(ctx)
}

// SweepOrphans removes chunks left behind by uploads that never finalized
// and are older than grace.
func (s *ChunkedStore) SweepOrphans(ctx context.Context, grace time.Duration, dryRun bool) (models.ChunkSweep, error) {
	if err := s.ready(); err != nil {
		return models.ChunkSweep{}, err
	}
	return s.backend.SweepOrphanChunks(ctx, s.now().Add(-grace), dryRun)
}

func (s *ChunkedStore) ready() error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("blob store is not configured")
	}
	return nil
}

// chunkSink buffers at most one chunk. It keeps the upload's context
// because io.Writer has no place to pass one.
type chunkSink struct {
	ctx   context.Context
	store *ChunkedStore
	file  models.BlobFile
	buf   []byte
	next  int
	hash  hash.Hash
	err   error
	done  bool
}

func (w *chunkSink) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.done {
		return 0, ErrClosed
	}

	written := 0
	for len(p) > 0 {
		take := min(w.store.chunkSize-len(w.buf), len(p))
		w.buf = append(w.buf, p[:take]...)
		p = p[take:]
		written += take
		if len(w.buf) == w.store.chunkSize {
			if err := w.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (w *chunkSink) Close() (models.BlobFile, error) {
	if w.err != nil {
		return models.BlobFile{}, w.err
	}
	if w.done {
		return models.BlobFile{}, ErrClosed
	}
	if err := w.flush(); err != nil {
		return models.BlobFile{}, err
	}

	w.file.ChunkCount = w.next
	w.file.Checksum = hex.EncodeToString(w.hash.Sum(nil))
	w.file.UploadedAt = w.store.now()
	if err := w.store.backend.FinalizeFile(w.ctx, w.file); err != nil {
		w.fail(fmt.Errorf("finalize blob %s: %w", w.file.Filename, err))
		return models.BlobFile{}, w.err
	}
	w.done = true
	return w.file, nil
}

// Abort discards the upload. It is a no-op after a successful Close.
func (w *chunkSink) Abort() error {
	if w.done {
		return nil
	}
	if w.err == nil {
		w.err = ErrClosed
	}
	w.done = true
	return w.store.backend.DeleteChunks(context.WithoutCancel(w.ctx), w.file.ID)
}

func (w *chunkSink) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.store.backend.PutChunk(w.ctx, w.file.ID, w.next, w.buf); err != nil {
		w.fail(fmt.Errorf("write chunk %d of %s: %w", w.next, w.file.Filename, err))
		return w.err
	}
	_, _ = w.hash.Write(w.buf)
	w.file.Length += int64(len(w.buf))
	w.next++
	w.buf = w.buf[:0]
	return nil
}

// fail records a sticky error and removes the chunks written so far.
// Leftovers from a failed cleanup are picked up by SweepOrphans.
func (w *chunkSink) fail(err error) {
	w.err = err
	w.done = true
	if w.next == 0 {
		return
	}
	if cleanupErr := w.store.backend.DeleteChunks(context.WithoutCancel(w.ctx), w.file.ID); cleanupErr != nil {
		w.store.logger.Warn("blob upload cleanup failed", "file_id", w.file.ID, "name", w.file.Filename, "error", cleanupErr)
	}
}

type chunkSource struct {
	backend ChunkBackend
	file    models.BlobFile
	next    int
	read    int64
	hash    hash.Hash
	closed  bool
}

func (r *chunkSource) File() models.BlobFile {
	return r.file
}

func (r *chunkSource) Next(ctx context.Context) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.next >= r.file.ChunkCount {
		return nil, r.finish()
	}

	data, err := r.backend.GetChunk(ctx, r.file.ID, r.next)
	if err != nil {
		return nil, fmt.Errorf("read chunk %d of %s: %w", r.next, r.file.Filename, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s is missing chunk %d", ErrCorruptBlob, r.file.Filename, r.next)
	}
	last := r.next == r.file.ChunkCount-1
	if len(data) > r.file.ChunkSize || (!last && len(data) != r.file.ChunkSize) {
		return nil, fmt.Errorf("%w: %s chunk %d has %d bytes", ErrCorruptBlob, r.file.Filename, r.next, len(data))
	}

	_, _ = r.hash.Write(data)
	r.read += int64(len(data))
	r.next++
	return data, nil
}

func (r *chunkSource) finish() error {
	if r.read != r.file.Length {
		return fmt.Errorf("%w: %s has %d bytes, expected %d", ErrCorruptBlob, r.file.Filename, r.read, r.file.Length)
	}
	if r.file.Checksum != "" && hex.EncodeToString(r.hash.Sum(nil)) != r.file.Checksum {
		return fmt.Errorf("%w: %s checksum mismatch", ErrCorruptBlob, r.file.Filename)
	}
	return io.EOF
}

func (r *chunkSource) Close() error {
	r.closed = true
	return nil
}
