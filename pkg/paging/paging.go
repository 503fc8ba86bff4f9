// Package paging slices an ordered sequence into fixed-size pages.
//
// The paginator keeps no state. Every call re-clamps the requested page index
// against the sequence it is given, so a stale index left over from a larger
// result set lands on the last valid page instead of an empty one.
package paging

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one slice of a sequence plus the navigation metadata the views need.
type Page[T any] struct {
	// Items holds the records on this page. Never nil.
	Items []T `json:"items"`

	// PageIndex is the zero-based index actually served, after clamping.
	PageIndex int `json:"page_index"`

	// PageSize is the effective page size.
	PageSize int `json:"page_size"`

	// PageCount is max(1, ceil(Total/PageSize)).
	PageCount int `json:"page_count"`

	// Total is the length of the whole sequence.
	Total int `json:"total"`

	CanPrevious bool `json:"can_previous"`
	CanNext     bool `json:"can_next"`
}

// PageCount returns max(1, ceil(length/pageSize)).
func PageCount(length, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if length <= 0 {
		return 1
	}
	return (length-1)/pageSize + 1
}

// Clamp bounds pageIndex to [0, PageCount(length, pageSize)-1].
func Clamp(pageIndex, length, pageSize int) int {
	last := PageCount(length, pageSize) - 1
	if pageIndex > last {
		pageIndex = last
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	return pageIndex
}

// Paginate returns the page at pageIndex. The returned Items are a copy, so
// callers may keep the page without aliasing seq.
func Paginate[T any](seq []T, pageIndex, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(seq)
	count := PageCount(total, pageSize)
	idx := Clamp(pageIndex, total, pageSize)

	start := idx * pageSize
	end := start + min(pageSize, total-start)
	items := make([]T, 0, end-start)
	items = append(items, seq[start:end]...)

	return Page[T]{
		Items:       items,
		PageIndex:   idx,
		PageSize:    pageSize,
		PageCount:   count,
		Total:       total,
		CanPrevious: idx > 0,
		CanNext:     idx < count-1,
	}
}

// First is the 1-based position of the first item on the page, 0 when empty.
func (p Page[T]) First() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.PageIndex*p.PageSize + 1
}

// Last is the 1-based position of the last item on the page, 0 when empty.
func (p Page[T]) Last() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.PageIndex*p.PageSize + len(p.Items)
}
