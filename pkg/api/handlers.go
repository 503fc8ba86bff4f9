package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/export"
	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/query"
	"github.com/rubiojr/carefinder/pkg/search"
	"github.com/rubiojr/carefinder/pkg/version"
)

// HandleProviders returns every record as a JSON array keyed by the sheet
// headers.
func (s *Server) HandleProviders(w http.ResponseWriter, r *http.Request) {
	records := s.dataset().Providers()
	if records == nil {
		records = []provider.Provider{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// parseState reads a QueryState from the request, using the configured page
// size unless page_size is given.
func (s *Server) parseState(r *http.Request) (search.QueryState, error) {
	params := r.URL.Query()
	state, err := search.ParseSearchParams(params)
	if err != nil {
		return state, err
	}
	if !params.Has("page_size") {
		state.PageSize = s.opts.PageSize
	}
	return state, nil
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	state, err := s.parseState(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid search parameters", err.Error())
		return
	}

	ds := s.dataset()
	results, err := search.NewSearchService(ds).Search(state)
	if err != nil {
		s.writeError(w, statusFor(err), "Search failed", err.Error())
		return
	}

	rows := make([]ProviderRow, len(results.Page.Items))
	for i, p := range results.Page.Items {
		rows[i] = newProviderRow(p)
	}
	cols := make([]ColumnInfo, 0, len(results.Columns))
	for _, id := range results.Columns {
		if c, err := columns.Lookup(string(id)); err == nil {
			cols = append(cols, newColumnInfo(c))
		}
	}

	response := SearchResponse{
		Query:      results.Query,
		Heading:    results.Heading,
		Providers:  rows,
		Count:      len(rows),
		Matched:    results.Matched,
		Total:      results.Total,
		Page:       results.Page.PageIndex + 1,
		Limit:      results.Page.PageSize,
		TotalPages: results.Page.PageCount,
		HasMore:    results.Page.CanNext,
		Sort:       results.Sort.String(),
		Columns:    cols,
		SyncedAt:   ds.SyncedAt,
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleCategories(w http.ResponseWriter, r *http.Request) {
	records := s.dataset().Providers()
	counts := query.CountCategories(records)
	if counts == nil {
		counts = []query.CategoryCount{}
	}
	s.writeJSON(w, http.StatusOK, CategoriesResponse{
		Categories: counts,
		Top:        query.TopCategories(records, s.opts.TopCategories),
		Chips:      query.QuickChips(records, s.opts.TopCategories),
	})
}

// HandleExport streams the records matching the request's query and column
// filters as CSV, in source order. Sorting and paging parameters are ignored.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	state, err := s.parseState(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid search parameters", err.Error())
		return
	}

	filtered, err := search.NewSearchService(s.dataset()).Filter(state)
	if err != nil {
		s.writeError(w, statusFor(err), "Export failed", err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.Serialize(&buf, filtered); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Export failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.ForService("api").Warnf("writing export: %v", err)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset()
	status := "ok"
	if ds.SyncedAt.IsZero() {
		status = "empty"
	}
	health := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Providers: len(ds.Records),
		SyncedAt:  ds.SyncedAt,
		Stale:     ds.FromSnapshot,
	}

	s.writeJSON(w, http.StatusOK, health)
}

func statusFor(err error) int {
	if errors.Is(err, columns.ErrUnknownColumn) || errors.Is(err, search.ErrInvalidParam) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
