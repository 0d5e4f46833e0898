package store

import (
	"context"
	"fmt"
)

// Info summarizes what the database holds and how close it is to its quota.
type Info struct {
	SchemaVersion int   `json:"schemaVersion"`
	Instruments   int64 `json:"instruments"`
	Blobs         int64 `json:"blobs"`
	BlobBytes     int64 `json:"blobBytes"`
	PageSize      int64 `json:"pageSize"`
	PageCount     int64 `json:"pageCount"`
	MaxPageCount  int64 `json:"maxPageCount"`
	QuotaBytes    int64 `json:"quotaBytes,omitempty"`
}

// Info collects store statistics.
func (s *Store) Info(ctx context.Context) (*Info, error) {
	info := &Info{QuotaBytes: s.opts.QuotaBytes}

	queries := []struct {
		label string
		query string
		dest  any
	}{
		{"schema version", "SELECT COALESCE(MAX(version), 0) FROM schema_migrations", &info.SchemaVersion},
		{"instruments", "SELECT COUNT(*) FROM instruments", &info.Instruments},
		{"blobs", "SELECT COUNT(*) FROM blob_files", &info.Blobs},
		{"blob bytes", "SELECT COALESCE(SUM(length), 0) FROM blob_files", &info.BlobBytes},
		{"page size", "PRAGMA page_size", &info.PageSize},
		{"page count", "PRAGMA page_count", &info.PageCount},
		{"max page count", "PRAGMA max_page_count", &info.MaxPageCount},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("read %s: %w", q.label, err)
		}
	}
	return info, nil
}
