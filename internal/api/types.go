package api

import "catalog/internal/models"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// HealthResponse reports liveness and database readiness.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"dbConnected"`
	DBState     string `json:"dbState"`
}

// InfoResponse summarizes store contents and capacity.
type InfoResponse struct {
	SchemaVersion int   `json:"schemaVersion"`
	Instruments   int64 `json:"instruments"`
	Blobs         int64 `json:"blobs"`
	BlobBytes     int64 `json:"blobBytes"`
	PageSize      int64 `json:"pageSize"`
	PageCount     int64 `json:"pageCount"`
	MaxPageCount  int64 `json:"maxPageCount"`
	QuotaBytes    int64 `json:"quotaBytes,omitempty"`
}

// SeedResponse reports whether a bootstrap seed inserted anything.
type SeedResponse struct {
	Count  int64 `json:"count"`
	Seeded bool  `json:"seeded"`
}

// DeleteResponse acknowledges a delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Deleted *int64 `json:"deleted,omitempty"`
	ID      string `json:"id,omitempty"`
}

// PurgeResponse reports how far a purge got. On failure Success is false
// and Error is set alongside the partial counts.
type PurgeResponse struct {
	Success             bool   `json:"success"`
	Error               string `json:"error,omitempty"`
	RecordsDeleted      int64  `json:"recordsDeleted"`
	BlobsDeleted        int    `json:"blobsDeleted"`
	BlobsFailed         int    `json:"blobsFailed"`
	OrphanChunksDeleted int    `json:"orphanChunksDeleted"`
}

// UploadResponse describes a stored upload. Filename repeats Name for
// clients of the older upload route.
type UploadResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
	Checksum     string `json:"checksum"`
}

// GCRequest asks for an orphan chunk sweep.
type GCRequest struct {
	DryRun bool `json:"dry_run"`
}

// GCResponse reports one orphan chunk sweep.
type GCResponse struct {
	Files  int   `json:"files"`
	Chunks int   `json:"chunks"`
	Bytes  int64 `json:"bytes"`
	DryRun bool  `json:"dry_run"`
}

// NewUploadResponse maps a stored blob to its upload response.
func NewUploadResponse(file models.BlobFile) UploadResponse {
	return UploadResponse{
		ID:           file.ID,
		Name:         file.Filename,
		Filename:     file.Filename,
		OriginalName: file.OriginalName,
		Size:         file.Length,
		ContentType:  file.ContentType,
		Checksum:     file.Checksum,
	}
}
