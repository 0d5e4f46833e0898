package models

import "time"

// BlobFile describes one finalized blob. Its content lives in ChunkCount
// chunks of ChunkSize bytes (the last one may be shorter).
type BlobFile struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	ContentType  string         `json:"contentType,omitempty"`
	OriginalName string         `json:"originalName,omitempty"`
	Length       int64          `json:"length"`
	ChunkSize    int            `json:"chunkSize"`
	ChunkCount   int            `json:"chunkCount"`
	Checksum     string         `json:"checksum,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	UploadedAt   time.Time      `json:"uploadDate"`
}

// ChunkSweep reports chunks whose file row does not exist.
type ChunkSweep struct {
	Files  int   `json:"files"`
	Chunks int   `json:"chunks"`
	Bytes  int64 `json:"bytes"`
}
