package server

import (
	"net/http"
)

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/info", s.handleInfo)

	// Instrument records.
	mux.HandleFunc("GET /api/instruments", s.handleListInstruments)
	mux.HandleFunc("POST /api/instruments", s.handleUpsertInstrument)
	mux.HandleFunc("POST /api/instruments/seed", s.handleSeedInstruments)
	mux.HandleFunc("DELETE /api/instruments/{id}", s.handleDeleteInstrument)

	// Purge; /purge is kept for older clients.
	mux.HandleFunc("DELETE /api/instruments", s.handlePurge)
	mux.HandleFunc("DELETE /api/instruments/purge", s.handlePurge)

	// Files; /api/upload is kept for older clients.
	mux.HandleFunc("POST /api/files", s.handleUploadFile)
	mux.HandleFunc("POST /api/upload", s.handleUploadFile)
	mux.HandleFunc("GET /api/files", s.handleListFiles)
	mux.HandleFunc("GET /api/files/{name}", s.handleDownloadFile)
	mux.HandleFunc("DELETE /api/files/{id}", s.handleDeleteFile)

	// Admin.
	mux.HandleFunc("POST /api/admin/gc", s.handleAdminGC)

	return mux
}

// handler wraps the routes with CORS and request logging.
func (s *Server) handler() http.Handler {
	return s.withRequestLogging(withCORS(s.routes()))
}
