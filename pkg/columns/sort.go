package columns

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rubiojr/carefinder/pkg/provider"
)

// NoRating is the sort key used for records without a parseable rating. Real
// ratings are never negative, so unrated records sort below every rated one.
const NoRating = -1.0

// Sort is a sort directive.
type Sort struct {
	Column ID   `json:"column"`
	Desc   bool `json:"desc"`
}

// DefaultSort orders by rating, best first.
func DefaultSort() Sort {
	return Sort{Column: Rating, Desc: true}
}

func (s Sort) String() string {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s %s", s.Column, dir)
}

// RatingKey reduces a rating cell to its sort key.
func RatingKey(cell string) float64 {
	if r, ok := provider.ExtractRating(cell); ok {
		return r
	}
	return NoRating
}

// Compare orders two records ascending by this column.
func (c Column) Compare(a, b provider.Provider) int {
	switch c.Kind {
	case KindRating:
		ra, rb := RatingKey(a.Get(c.Field)), RatingKey(b.Get(c.Field))
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		}
		return 0
	case KindFlag:
		if c.ID == Access {
			return affirmativeCount(a) - affirmativeCount(b)
		}
	case KindActionLinks:
		return 0
	}
	return strings.Compare(c.Value(a), c.Value(b))
}

func affirmativeCount(p provider.Provider) int {
	n := 0
	for _, a := range p.Access() {
		if a.Tone == provider.FlagAffirmative {
			n++
		}
	}
	return n
}

// Compare orders a and b by the given column and direction.
func Compare(a, b provider.Provider, s Sort) int {
	c, err := Lookup(string(s.Column))
	if err != nil {
		return 0
	}
	cmp := c.Compare(a, b)
	if s.Desc {
		return -cmp
	}
	return cmp
}

// Apply returns a stably sorted copy of records. Records that compare equal
// keep their relative input order. An unknown or unsortable column leaves the
// order unchanged.
func (s Sort) Apply(records []provider.Provider) []provider.Provider {
	out := slices.Clone(records)
	if out == nil {
		out = []provider.Provider{}
	}
	c, err := Lookup(string(s.Column))
	if err != nil || !c.Sortable() {
		return out
	}
	slices.SortStableFunc(out, func(a, b provider.Provider) int {
		cmp := c.Compare(a, b)
		if s.Desc {
			return -cmp
		}
		return cmp
	})
	return out
}

// ParseSort reads "column" or "column:desc"/"column:asc".
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort(), nil
	}
	name, dir, _ := strings.Cut(s, ":")
	c, err := Lookup(name)
	if err != nil {
		return Sort{}, err
	}
	if !c.Sortable() {
		return Sort{}, fmt.Errorf("column %q is not sortable", c.ID)
	}
	out := Sort{Column: c.ID}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		out.Desc = true
	default:
		return Sort{}, fmt.Errorf("invalid sort direction %q", dir)
	}
	return out, nil
}
