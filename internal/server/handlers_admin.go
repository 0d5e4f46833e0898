package server

import (
	"fmt"
	"net/http"

	"catalog/internal/api"
)

func (s *Server) handleAdminGC(w http.ResponseWriter, r *http.Request) {
	var req api.GCRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if !req.DryRun && r.Header.Get("X-Confirm") != "true" {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("non-dry-run requires X-Confirm: true header"), ErrCodeMissingRequired))
		return
	}

	result, err := s.files.GC(r.Context(), req.DryRun)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !result.DryRun && result.Chunks > 0 {
		s.log().Info("orphan chunks swept", "files", result.Files, "chunks", result.Chunks, "bytes", result.Bytes)
	}

	resp := api.GCResponse{
		Files:  result.Files,
		Chunks: result.Chunks,
		Bytes:  result.Bytes,
		DryRun: result.DryRun,
	}
	s.writeJSON(w, http.StatusOK, resp)
}
