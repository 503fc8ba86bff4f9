package api

import (
	"encoding/json"
	"net/http"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/realtime"
	"github.com/rubiojr/carefinder/pkg/warehouse"
)

// DatasetProvider hands out the dataset currently being served.
type DatasetProvider interface {
	Current() *warehouse.Dataset
}

type Options struct {
	PageSize      int
	TopCategories int
}

type Server struct {
	data DatasetProvider
	hub  *realtime.Hub
	opts Options
}

// NewServer creates the API server. hub may be nil, in which case the events
// endpoint only sends the initial state.
func NewServer(data DatasetProvider, hub *realtime.Hub, opts Options) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = config.DefaultPageSize
	}
	if opts.TopCategories <= 0 {
		opts.TopCategories = config.DefaultTopCategories
	}
	return &Server{
		data: data,
		hub:  hub,
		opts: opts,
	}
}

func (s *Server) dataset() *warehouse.Dataset {
	if s.data == nil {
		return &warehouse.Dataset{}
	}
	return s.data.Current()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.ForService("api").Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
