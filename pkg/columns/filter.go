package columns

import (
	"slices"
	"strconv"
	"strings"

	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/query"
)

// Match reports whether a record passes this column's filter. An empty or
// blank value is no filter at all.
func (c Column) Match(p provider.Provider, value string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}
	switch c.Kind {
	case KindText, KindCategoryList:
		return query.MatchesText(c.Value(p), value)
	case KindRating:
		return matchRating(p.Get(c.Field), value)
	case KindFlag:
		if c.ID == Access {
			return matchAccess(p, value)
		}
		return matchFlag(p.Get(c.Field), value)
	case KindActionLinks:
		return true
	}
	return true
}

// matchRating treats a numeric filter as a minimum rating. Unrated records
// never pass a minimum. Anything else falls back to token matching.
func matchRating(cell, value string) bool {
	floor, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return query.MatchesText(cell, value)
	}
	r, ok := provider.ExtractRating(cell)
	return ok && r >= floor
}

func parseFlagFilter(value string) (provider.Flag, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "true":
		return provider.FlagAffirmative, true
	case "n", "no", "false":
		return provider.FlagNegative, true
	case "unknown", "?":
		return provider.FlagUnknown, true
	}
	return 0, false
}

func matchFlag(cell, value string) bool {
	want, ok := parseFlagFilter(value)
	if !ok {
		return query.MatchesText(cell, value)
	}
	return provider.ClassifyFlag(cell) == want
}

// matchAccess requires every token to name an access flag the record offers,
// so "telehealth interpreters" keeps providers with both set to Y.
func matchAccess(p provider.Provider, value string) bool {
	var offered []string
	for _, a := range p.Access() {
		if a.Tone == provider.FlagAffirmative {
			offered = append(offered, strings.ToLower(a.Label))
		}
	}
	return query.MatchesText(strings.Join(offered, "\x00"), value)
}

// MatchesColumn looks up a column and applies its filter. Unknown columns
// never match.
func MatchesColumn(p provider.Provider, id ID, value string) bool {
	c, err := Lookup(string(id))
	if err != nil {
		return false
	}
	return c.Match(p, value)
}

type activeFilter struct {
	column Column
	value  string
}

// FilterSet is the global query ANDed with every active column filter.
type FilterSet struct {
	global  query.Query
	filters []activeFilter
}

// NewFilterSet validates the column ids and drops blank filter values.
func NewFilterSet(globalQuery string, columnFilters map[ID]string) (FilterSet, error) {
	fs := FilterSet{global: query.Compile(globalQuery)}
	ids := make([]ID, 0, len(columnFilters))
	for id := range columnFilters {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		value := columnFilters[id]
		c, err := Lookup(string(id))
		if err != nil {
			return FilterSet{}, err
		}
		if strings.TrimSpace(value) == "" || !c.Filterable() {
			continue
		}
		fs.filters = append(fs.filters, activeFilter{column: c, value: value})
	}
	return fs, nil
}

// Active reports whether any predicate is in effect.
func (fs FilterSet) Active() bool {
	return !fs.global.Empty() || len(fs.filters) > 0
}

// Match reports whether a record passes the global query and every column
// filter.
func (fs FilterSet) Match(p provider.Provider) bool {
	if !fs.global.Match(p) {
		return false
	}
	for _, f := range fs.filters {
		if !f.column.Match(p, f.value) {
			return false
		}
	}
	return true
}

// Apply returns the matching records in their original order as a new slice.
func (fs FilterSet) Apply(records []provider.Provider) []provider.Provider {
	out := make([]provider.Provider, 0, len(records))
	for _, p := range records {
		if fs.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
