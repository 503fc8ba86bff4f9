// Package columns describes the provider table's columns. Each column is one of
// a closed set of kinds, and the kind decides how the column reads a cell,
// filters rows and compares two rows. Renderers switch on the kind as well.
package columns

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/carefinder/pkg/provider"
)

// Kind is the closed set of column variants.
type Kind int

const (
	KindText Kind = iota
	KindCategoryList
	KindRating
	KindFlag
	KindActionLinks
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCategoryList:
		return "categoryList"
	case KindRating:
		return "rating"
	case KindFlag:
		return "flag"
	case KindActionLinks:
		return "actionLinks"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ID identifies a column. Data columns reuse the provider field id.
type ID string

const (
	// Access combines the four Y/N access flags in one cell.
	Access ID = "access"
	// Actions holds the website and phone links.
	Actions ID = "actions"
)

// Rating is the id of the review rating column, the default sort key.
const Rating = ID(provider.FieldCustomerReviewRating)

// Categories is the id of the category column.
const Categories = ID(provider.FieldCategories)

var ErrUnknownColumn = errors.New("unknown column")

// Column is a table column definition.
type Column struct {
	ID     ID
	Header string
	Kind   Kind
	// Field is the backing provider field; empty for composite columns.
	Field provider.Field
}

var all = buildColumns()

func buildColumns() []Column {
	cols := make([]Column, 0, len(provider.Fields)+2)
	for _, f := range provider.Fields {
		cols = append(cols, Column{
			ID:     ID(f),
			Header: displayHeader(f),
			Kind:   kindFor(f),
			Field:  f,
		})
	}
	cols = append(cols,
		Column{ID: Access, Header: "Access", Kind: KindFlag},
		Column{ID: Actions, Header: "", Kind: KindActionLinks},
	)
	return cols
}

func kindFor(f provider.Field) Kind {
	switch f {
	case provider.FieldCategories:
		return KindCategoryList
	case provider.FieldCustomerReviewRating:
		return KindRating
	case provider.FieldInterpretersAvailable, provider.FieldTelehealth,
		provider.FieldFinancialAssistance, provider.FieldTransportation:
		return KindFlag
	}
	return KindText
}

func displayHeader(f provider.Field) string {
	switch f {
	case provider.FieldProviderName:
		return "Provider"
	case provider.FieldOrganizationType:
		return "Type"
	case provider.FieldAddress:
		return "Location"
	case provider.FieldCustomerReviewRating:
		return "Rating"
	}
	return f.Header()
}

// All returns every column definition in table order.
func All() []Column {
	return append([]Column(nil), all...)
}

// Lookup finds a column by id. Source header text and the display header
// ("Rating", "Location") are accepted as well.
func Lookup(id string) (Column, error) {
	id = strings.TrimSpace(id)
	for _, c := range all {
		if string(c.ID) == strings.ToLower(id) {
			return c, nil
		}
	}
	for _, c := range all {
		if c.Header != "" && strings.EqualFold(c.Header, id) {
			return c, nil
		}
	}
	if f, ok := provider.FieldForHeader(id); ok {
		return Lookup(string(f))
	}
	return Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, id)
}

// MustLookup is Lookup for ids known at compile time.
func MustLookup(id ID) Column {
	c, err := Lookup(string(id))
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultVisible lists the columns shown when nothing else was chosen.
func DefaultVisible() []ID {
	return []ID{
		ID(provider.FieldProviderName),
		Categories,
		ID(provider.FieldOrganizationType),
		ID(provider.FieldAddress),
		Rating,
		Access,
		Actions,
	}
}

// Sortable reports whether rows can be ordered by this column.
func (c Column) Sortable() bool {
	return c.Kind != KindActionLinks
}

// Filterable reports whether the column accepts a filter value.
func (c Column) Filterable() bool {
	return c.Kind != KindActionLinks
}

// Value returns the raw cell text the column reads from a record.
func (c Column) Value(p provider.Provider) string {
	if c.Field != "" {
		return p.Get(c.Field)
	}
	switch c.ID {
	case Access:
		parts := make([]string, 0, 4)
		for _, a := range p.Access() {
			parts = append(parts, a.Label+": "+a.Value)
		}
		return strings.Join(parts, ", ")
	case Actions:
		return strings.TrimSpace(p.WebsiteURL + " " + p.PhoneNumber)
	}
	return ""
}

// Links holds the action targets for a record.
type Links struct {
	Website string `json:"website"`
	Phone   string `json:"phone"`
	Call    bool   `json:"call"`
	Maps    string `json:"maps"`
}

// ActionLinks builds the link targets rendered by the actions column.
func ActionLinks(p provider.Provider) Links {
	return Links{
		Website: strings.TrimSpace(p.WebsiteURL),
		Phone:   provider.PhoneHref(p.PhoneNumber),
		Call:    p.HasPhone(),
		Maps:    provider.MapsURL(p.Address),
	}
}

// CategoryPreview returns the first n categories and how many were left out.
func CategoryPreview(p provider.Provider, n int) (shown []string, extra int) {
	cats := p.CategoryList()
	if len(cats) <= n {
		return cats, 0
	}
	return cats[:n], len(cats) - n
}
