package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"catalog/internal/models"
)

// NewReader adapts a Source to io.Reader. It also implements io.WriterTo,
// so io.Copy moves the blob one chunk at a time without an extra buffer.
func NewReader(ctx context.Context, src Source) io.Reader {
	return &sourceReader{ctx: ctx, src: src}
}

type sourceReader struct {
	ctx     context.Context
	src     Source
	pending []byte
	err     error
}

func (r *sourceReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.pending, r.err = r.src.Next(r.ctx)
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *sourceReader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		if len(r.pending) == 0 {
			if r.err != nil {
				break
			}
			r.pending, r.err = r.src.Next(r.ctx)
			continue
		}
		n, err := w.Write(r.pending)
		total += int64(n)
		r.pending = r.pending[n:]
		if err != nil {
			return total, err
		}
	}
	if errors.Is(r.err, io.EOF) {
		return total, nil
	}
	return total, r.err
}

// Upload copies r into a new blob. The partial upload is discarded when
// copying fails.
func Upload(ctx context.Context, store BlobStore, name, contentType string, metadata map[string]any, r io.Reader) (models.BlobFile, error) {
	sink, err := store.OpenUpload(ctx, name, contentType, metadata)
	if err != nil {
		return models.BlobFile{}, err
	}
	if _, err := io.Copy(sink, r); err != nil {
		_ = sink.Abort()
		return models.BlobFile{}, err
	}
	file, err := sink.Close()
	if err != nil {
		_ = sink.Abort()
		return models.BlobFile{}, err
	}
	return file, nil
}

// ReadAll downloads a whole blob into memory.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, models.BlobFile, error) {
	src, err := store.OpenDownload(ctx, name)
	if err != nil {
		return nil, models.BlobFile{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(NewReader(ctx, src))
	if err != nil {
		return nil, src.File(), fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, src.File(), nil
}
