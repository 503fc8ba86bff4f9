package search

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/paging"
	"github.com/rubiojr/carefinder/pkg/provider"
)

// MaxPageSize bounds the page_size parameter.
const MaxPageSize = 100

// FilterParamPrefix prefixes per-column filter parameters, as in
// filter.categories=counseling.
const FilterParamPrefix = "filter."

// ErrInvalidParam wraps malformed URL parameters.
var ErrInvalidParam = errors.New("invalid search parameter")

// QueryState is the complete, serializable description of a search.
type QueryState struct {
	// GlobalQuery is matched against every searchable field of a record.
	GlobalQuery string `json:"query"`

	// ColumnFilters holds one filter value per column. Blank values are
	// inactive.
	ColumnFilters map[columns.ID]string `json:"column_filters,omitempty"`

	Sort columns.Sort `json:"sort"`

	// PageIndex is zero-based. It is clamped when the search runs.
	PageIndex int `json:"page_index"`

	PageSize int `json:"page_size"`

	// VisibleColumns lists the columns to render, in order.
	VisibleColumns []columns.ID `json:"visible_columns"`
}

// DefaultQueryState shows every provider, best rated first, ten per page.
func DefaultQueryState() QueryState {
	return QueryState{
		ColumnFilters:  map[columns.ID]string{},
		Sort:           columns.DefaultSort(),
		PageSize:       paging.DefaultPageSize,
		VisibleColumns: columns.DefaultVisible(),
	}
}

// EffectiveQuery joins the trimmed, non-empty parts with single spaces. The
// what/where navigation pair goes through here.
func EffectiveQuery(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// Heading is the results caption for a query.
func Heading(query string) string {
	if q := strings.TrimSpace(query); q != "" {
		return "Results for " + q
	}
	return "Showing all providers"
}

// ParseSearchParams parses HTTP query parameters into a QueryState. Missing
// or unparseable page numbers fall back to defaults the way the API always
// has; unknown columns and malformed sort directives are errors.
//
// Supported parameters:
//   - q, what, where: joined into the global query
//   - category: filter on the categories column
//   - filter.<column>: filter on any filterable column
//   - sort: column or column:asc|desc
//   - desc: true/false, overrides the sort direction
//   - page: 1-based page number
//   - page_size: results per page, at most MaxPageSize
//   - columns: comma-separated visible columns, may be repeated
func ParseSearchParams(queryParams map[string][]string) (QueryState, error) {
	state := DefaultQueryState()
	get := func(key string) string {
		if v := queryParams[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	state.GlobalQuery = EffectiveQuery(get("q"), get("what"), get("where"))

	if cat := strings.TrimSpace(get("category")); cat != "" {
		state.ColumnFilters[columns.Categories] = cat
	}
	for key, values := range queryParams {
		name, ok := strings.CutPrefix(key, FilterParamPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		c, err := columns.Lookup(name)
		if err != nil {
			return state, fmt.Errorf("%w: %s: %w", ErrInvalidParam, key, err)
		}
		if v := strings.TrimSpace(values[0]); v != "" {
			state.ColumnFilters[c.ID] = v
		}
	}

	if s := get("sort"); s != "" {
		sort, err := columns.ParseSort(s)
		if err != nil {
			return state, fmt.Errorf("%w: sort: %w", ErrInvalidParam, err)
		}
		state.Sort = sort
	}
	if d := get("desc"); d != "" {
		desc, err := strconv.ParseBool(d)
		if err != nil {
			return state, fmt.Errorf("%w: desc: %q", ErrInvalidParam, d)
		}
		state.Sort.Desc = desc
	}

	if s := get("page_size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			state.PageSize = min(parsed, MaxPageSize)
		}
	}
	if s := get("page"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			state.PageIndex = parsed - 1
		}
	}

	if s := strings.Join(queryParams["columns"], ","); strings.TrimSpace(s) != "" {
		var visible []columns.ID
		for _, name := range strings.Split(s, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			c, err := columns.Lookup(name)
			if err != nil {
				return state, fmt.Errorf("%w: columns: %w", ErrInvalidParam, err)
			}
			if !slices.Contains(visible, c.ID) {
				visible = append(visible, c.ID)
			}
		}
		state.VisibleColumns = visible
	}

	return state, nil
}

// Encode renders the state as URL parameters understood by
// ParseSearchParams. Defaults are left out to keep links short.
func (s QueryState) Encode() url.Values {
	v := url.Values{}
	if s.GlobalQuery != "" {
		v["q"] = []string{s.GlobalQuery}
	}
	for _, id := range slices.Sorted(maps.Keys(s.ColumnFilters)) {
		if value := strings.TrimSpace(s.ColumnFilters[id]); value != "" {
			v[FilterParamPrefix+string(id)] = []string{value}
		}
	}
	if s.Sort != columns.DefaultSort() && s.Sort.Column != "" {
		dir := "asc"
		if s.Sort.Desc {
			dir = "desc"
		}
		v["sort"] = []string{string(s.Sort.Column) + ":" + dir}
	}
	if s.PageIndex > 0 {
		v["page"] = []string{strconv.Itoa(s.PageIndex + 1)}
	}
	if s.PageSize > 0 && s.PageSize != paging.DefaultPageSize {
		v["page_size"] = []string{strconv.Itoa(s.PageSize)}
	}
	if len(s.VisibleColumns) > 0 && !slices.Equal(s.VisibleColumns, columns.DefaultVisible()) {
		ids := make([]string, len(s.VisibleColumns))
		for i, id := range s.VisibleColumns {
			ids[i] = string(id)
		}
		v["columns"] = []string{strings.Join(ids, ",")}
	}
	return v
}

// WithPage returns a copy of the state pointing at pageIndex.
func (s QueryState) WithPage(pageIndex int) QueryState {
	s.ColumnFilters = maps.Clone(s.ColumnFilters)
	s.VisibleColumns = slices.Clone(s.VisibleColumns)
	s.PageIndex = pageIndex
	return s
}

// Dataset supplies the records a search runs over. Implementations return an
// immutable snapshot; callers never modify it.
type Dataset interface {
	Providers() []provider.Provider
}

// Records adapts a plain slice to Dataset.
type Records []provider.Provider

func (r Records) Providers() []provider.Provider { return r }

// SearchResults contains one page of results and the metadata around it.
type SearchResults struct {
	// Query is the effective global query.
	Query string `json:"query"`

	// Heading is "Results for <query>" or "Showing all providers".
	Heading string `json:"heading"`

	// Page holds the visible records and pagination metadata.
	Page paging.Page[provider.Provider] `json:"page"`

	// Matched is the number of records that passed the filters.
	Matched int `json:"matched"`

	// Total is the size of the whole dataset.
	Total int `json:"total"`

	Sort    columns.Sort `json:"sort"`
	Columns []columns.ID `json:"columns"`
	State   QueryState   `json:"-"`

	// Filtered is the filtered set in source order, before sorting and
	// paging. Exports serialize this.
	Filtered []provider.Provider `json:"-"`
}

// SearchService runs QueryStates against a dataset.
type SearchService struct {
	dataset Dataset
}

// NewSearchService creates a new search service over the given dataset.
func NewSearchService(dataset Dataset) *SearchService {
	return &SearchService{
		dataset: dataset,
	}
}

func (s *SearchService) records() []provider.Provider {
	if s.dataset == nil {
		return nil
	}
	return s.dataset.Providers()
}

// Filter returns the records matching the state's query and column filters,
// in source order.
func (s *SearchService) Filter(state QueryState) ([]provider.Provider, error) {
	fs, err := columns.NewFilterSet(state.GlobalQuery, state.ColumnFilters)
	if err != nil {
		return nil, err
	}
	return fs.Apply(s.records()), nil
}

// Search filters, sorts and paginates the dataset.
//
// Example:
//
//	state := DefaultQueryState()
//	state.GlobalQuery = "telehealth boston"
//	results, err := searchService.Search(state)
func (s *SearchService) Search(state QueryState) (*SearchResults, error) {
	all := s.records()
	fs, err := columns.NewFilterSet(state.GlobalQuery, state.ColumnFilters)
	if err != nil {
		return nil, err
	}
	filtered := fs.Apply(all)
	sorted := state.Sort.Apply(filtered)
	page := paging.Paginate(sorted, state.PageIndex, state.PageSize)

	visible := state.VisibleColumns
	if len(visible) == 0 {
		visible = columns.DefaultVisible()
	}
	state.PageIndex = page.PageIndex
	state.PageSize = page.PageSize

	return &SearchResults{
		Query:    state.GlobalQuery,
		Heading:  Heading(state.GlobalQuery),
		Page:     page,
		Matched:  len(filtered),
		Total:    len(all),
		Sort:     state.Sort,
		Columns:  visible,
		State:    state,
		Filtered: filtered,
	}, nil
}
