package server

import (
	"net/http"

	"catalog/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "online", DBState: "disconnected"}
	if s.store != nil && s.store.Ready(r.Context()) == nil {
		resp.DBConnected = true
		resp.DBState = "connected"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if err := ensureReady(r.Context(), s.store); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	info, err := s.store.Info(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := api.InfoResponse{
		SchemaVersion: info.SchemaVersion,
		Instruments:   info.Instruments,
		Blobs:         info.Blobs,
		BlobBytes:     info.BlobBytes,
		PageSize:      info.PageSize,
		PageCount:     info.PageCount,
		MaxPageCount:  info.MaxPageCount,
		QuotaBytes:    info.QuotaBytes,
	}
	s.writeJSON(w, http.StatusOK, resp)
}
