package server

import (
	"net/http"

	"catalog/internal/api"
	"catalog/internal/models"
)

func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := s.records.List(r.Context())
	if err != nil {
		if status := httpStatusFromError(err); status == http.StatusServiceUnavailable {
			// existing clients render an empty table while the database is down
			s.log().Warn("database unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
			s.writeJSON(w, status, []models.Instrument{})
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, instruments)
}

func (s *Server) handleUpsertInstrument(w http.ResponseWriter, r *http.Request) {
	var in models.Instrument
	if !s.decodeJSONReq(w, r, &in) {
		return
	}

	stored, err := s.records.Upsert(r.Context(), &in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleSeedInstruments(w http.ResponseWriter, r *http.Request) {
	var records []models.Instrument
	if !s.decodeJSONReq(w, r, &records) {
		return
	}

	result, err := s.records.Seed(r.Context(), records)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SeedResponse{Count: result.Count, Seeded: result.Seeded})
}

func (s *Server) handleDeleteInstrument(w http.ResponseWriter, r *http.Request) {
	id, err := requireRecordID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	deleted, err := s.records.Delete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Success: true, Deleted: &deleted})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	result, err := s.files.Purge(r.Context())
	resp := api.PurgeResponse{
		Success:             err == nil,
		RecordsDeleted:      result.RecordsDeleted,
		BlobsDeleted:        result.BlobsDeleted,
		BlobsFailed:         result.BlobsFailed,
		OrphanChunksDeleted: result.Orphans.Chunks,
	}
	if err != nil {
		status := httpStatusFromError(err)
		if status != http.StatusInternalServerError {
			s.writeServiceError(w, r, err)
			return
		}
		s.log().Error("purge incomplete", "error", err, "records_deleted", resp.RecordsDeleted,
			"blobs_deleted", resp.BlobsDeleted, "blobs_failed", resp.BlobsFailed)
		resp.Error = err.Error()
		s.writeJSON(w, status, resp)
		return
	}
	s.log().Info("purge complete", "records_deleted", resp.RecordsDeleted, "blobs_deleted", resp.BlobsDeleted,
		"orphan_chunks_deleted", resp.OrphanChunksDeleted)
	s.writeJSON(w, http.StatusOK, resp)
}
