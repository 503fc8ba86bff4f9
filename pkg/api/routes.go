package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/providers", s.HandleProviders)
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/categories", s.HandleCategories)
	mux.HandleFunc("GET /api/export", s.HandleExport)
	mux.HandleFunc("GET /api/events", s.HandleEvents)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
