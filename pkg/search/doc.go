// Package search runs the provider directory's query pipeline.
//
// # Overview
//
// A search is fully described by a QueryState value: the global query, the
// per-column filters, the sort directive, the page and the visible columns.
// Nothing else influences the result, so the same state always yields the same
// page, which keeps the REST API, the web pages and the CLI consistent.
//
// # Pipeline
//
// SearchService.Search evaluates a state against the current dataset in three
// steps, each producing a fresh slice:
//
//   - filter: the global query ANDed with every active column filter
//   - sort: a stable sort on one column, source order breaking ties
//   - paginate: the requested page, clamped to the valid range
//
// The filtered set, before sorting and paging, is kept on the results so
// exports contain logical rows rather than the visible page.
//
// # Usage Examples
//
// Parsing HTTP parameters:
//
//	state, err := search.ParseSearchParams(r.URL.Query())
//	if err != nil {
//		// unknown column or malformed sort
//		return
//	}
//	results, err := service.Search(state)
//
// Building a state programmatically:
//
//	state := search.DefaultQueryState()
//	state.GlobalQuery = search.EffectiveQuery("therapy", "boston")
//	state.ColumnFilters[columns.Categories] = "counseling"
//	results, err := service.Search(state)
//
// Supported URL parameters are q, what, where, category, filter.<column>,
// sort, desc, page (1-based), page_size and columns. Encode produces the same
// parameters back, which the web pages use for pagination links.
package search
