package api

import (
	"time"

	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/query"
)

// ProviderRow is a record plus the values derived from it for display.
type ProviderRow struct {
	Provider   provider.Provider `json:"provider"`
	Rating     *float64          `json:"rating"`
	Categories []string          `json:"categories"`
	Access     []AccessBadge     `json:"access"`
	Links      columns.Links     `json:"links"`
}

type AccessBadge struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Tone  string `json:"tone"`
}

type ColumnInfo struct {
	ID       columns.ID `json:"id"`
	Header   string     `json:"header"`
	Kind     string     `json:"kind"`
	Sortable bool       `json:"sortable"`
}

type SearchResponse struct {
	Query      string        `json:"query"`
	Heading    string        `json:"heading"`
	Providers  []ProviderRow `json:"providers"`
	Count      int           `json:"count"`
	Matched    int           `json:"matched"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
	HasMore    bool          `json:"has_more"`
	Sort       string        `json:"sort"`
	Columns    []ColumnInfo  `json:"columns"`
	SyncedAt   time.Time     `json:"synced_at"`
}

type CategoriesResponse struct {
	Categories []query.CategoryCount `json:"categories"`
	Top        []string              `json:"top"`
	Chips      []string              `json:"chips"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Providers int       `json:"providers"`
	SyncedAt  time.Time `json:"synced_at"`
	// Stale is true while the directory is served from a stored snapshot.
	Stale bool `json:"stale"`
}

func newProviderRow(p provider.Provider) ProviderRow {
	row := ProviderRow{
		Provider:   p,
		Categories: p.CategoryList(),
		Links:      columns.ActionLinks(p),
	}
	if row.Categories == nil {
		row.Categories = []string{}
	}
	if r, ok := p.Rating(); ok {
		row.Rating = &r
	}
	for _, a := range p.Access() {
		row.Access = append(row.Access, AccessBadge{Label: a.Label, Value: a.Value, Tone: a.Tone.String()})
	}
	return row
}

func newColumnInfo(c columns.Column) ColumnInfo {
	return ColumnInfo{
		ID:       c.ID,
		Header:   c.Header,
		Kind:     c.Kind.String(),
		Sortable: c.Sortable(),
	}
}
