// Package viewmode coordinates the directory's two views, the search form
// (Entry) and the results table (Results), with the navigation parameters
// that own the active search.
//
// The what/where navigation parameters are the source of truth. Submitting the
// form does not change the active query directly: it starts a navigation and
// moves the controller to Pending, during which inputs are disabled and
// further submissions are ignored. The query only changes when Sync delivers
// the new parameters, which settles the controller.
//
// A Controller belongs to one view session and is not safe for concurrent use.
package viewmode

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/search"
)

// Mode is the visible view.
type Mode int

const (
	Entry Mode = iota
	Results
)

func (m Mode) String() string {
	switch m {
	case Entry:
		return "entry"
	case Results:
		return "results"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Phase tracks ownership of the navigation parameters.
type Phase int

const (
	// Idle: no navigation has been requested yet.
	Idle Phase = iota
	// Pending: a navigation was emitted and its parameters have not arrived.
	Pending
	// Settled: the last requested navigation has been delivered.
	Settled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Settled:
		return "settled"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Params are the navigation parameters.
type Params struct {
	What  string `json:"what"`
	Where string `json:"where"`
}

// ParamsFromValues reads what/where from URL parameters.
func ParamsFromValues(v url.Values) Params {
	return Params{What: v.Get("what"), Where: v.Get("where")}
}

// Trimmed returns the params with surrounding whitespace removed.
func (p Params) Trimmed() Params {
	return Params{What: strings.TrimSpace(p.What), Where: strings.TrimSpace(p.Where)}
}

// Empty reports whether both halves are blank, meaning "show all".
func (p Params) Empty() bool {
	return p.Trimmed() == Params{}
}

// Query is the effective global query.
func (p Params) Query() string {
	return search.EffectiveQuery(p.What, p.Where)
}

// Values encodes the non-empty halves.
func (p Params) Values() url.Values {
	v := url.Values{}
	t := p.Trimmed()
	if t.What != "" {
		v.Set("what", t.What)
	}
	if t.Where != "" {
		v.Set("where", t.Where)
	}
	return v
}

// Href is the results page location for these params.
func (p Params) Href() string {
	if q := p.Values().Encode(); q != "" {
		return "/search?" + q
	}
	return "/search"
}

// Controller is the view-mode state machine.
type Controller struct {
	mode    Mode
	phase   Phase
	params  Params
	form    Params
	pending Params
	state   search.QueryState
}

// New starts a controller from the parameters present when the view loads.
// Non-empty parameters open straight into Results.
func New(params Params, pageSize int) *Controller {
	state := search.DefaultQueryState()
	if pageSize > 0 {
		state.PageSize = pageSize
	}
	params = params.Trimmed()
	state.GlobalQuery = params.Query()

	c := &Controller{
		mode:   Entry,
		phase:  Idle,
		params: params,
		form:   params,
		state:  state,
	}
	if !params.Empty() {
		c.mode = Results
	}
	return c
}

func (c *Controller) Mode() Mode     { return c.mode }
func (c *Controller) Phase() Phase   { return c.phase }
func (c *Controller) Params() Params { return c.params }
func (c *Controller) Form() Params   { return c.form }

// Pending returns the navigation in flight, if any.
func (c *Controller) Pending() (Params, bool) {
	return c.pending, c.phase == Pending
}

// InputsDisabled is true exactly while a navigation is pending.
func (c *Controller) InputsDisabled() bool {
	return c.phase == Pending
}

// State returns a copy of the active query state.
func (c *Controller) State() search.QueryState {
	return c.state.WithPage(c.state.PageIndex)
}

// SetWhat edits the form's service field. Edits are rejected while inputs are
// disabled.
func (c *Controller) SetWhat(what string) bool {
	if c.InputsDisabled() {
		return false
	}
	c.form.What = what
	return true
}

// SetWhere edits the form's location field.
func (c *Controller) SetWhere(where string) bool {
	if c.InputsDisabled() {
		return false
	}
	c.form.Where = where
	return true
}

// Submit requests navigation to the form's parameters and shows the results
// view. It returns the parameters to navigate to and true when a navigation
// must be pushed. Submitting while Pending is ignored, and submitting the
// current parameters pushes nothing.
func (c *Controller) Submit() (Params, bool) {
	if c.phase == Pending {
		return Params{}, false
	}
	c.mode = Results
	next := c.form.Trimmed()
	if next == c.params {
		return Params{}, false
	}
	c.pending = next
	c.phase = Pending
	return next, true
}

// Chip searches for a quick-filter chip label.
func (c *Controller) Chip(label string) (Params, bool) {
	if c.phase == Pending {
		return Params{}, false
	}
	c.form = Params{What: label}
	return c.Submit()
}

// BrowseAll clears the query and shows every provider.
func (c *Controller) BrowseAll() (Params, bool) {
	if c.phase == Pending {
		return Params{}, false
	}
	c.form = Params{}
	return c.Submit()
}

// Back returns from Results to Entry. It is the only way back.
func (c *Controller) Back() bool {
	if c.mode != Results {
		return false
	}
	c.mode = Entry
	return true
}

// Sync delivers externally owned parameters. They replace the form fields
// and the active query, and settle any pending navigation. Parameters equal
// to the current ones leave an idle controller untouched.
func (c *Controller) Sync(params Params) {
	params = params.Trimmed()
	if params == c.params && c.phase != Pending {
		return
	}
	c.params = params
	c.form = params
	c.pending = Params{}
	c.phase = Settled
	c.state.GlobalQuery = params.Query()
	c.state.PageIndex = 0
	if !params.Empty() {
		c.mode = Results
	}
}

// SetColumnFilter sets or clears one column filter and returns to the first
// page.
func (c *Controller) SetColumnFilter(id columns.ID, value string) error {
	col, err := columns.Lookup(string(id))
	if err != nil {
		return err
	}
	c.state = c.state.WithPage(0)
	if strings.TrimSpace(value) == "" {
		delete(c.state.ColumnFilters, col.ID)
		return nil
	}
	if c.state.ColumnFilters == nil {
		c.state.ColumnFilters = map[columns.ID]string{}
	}
	c.state.ColumnFilters[col.ID] = value
	return nil
}

// SetSort changes the sort directive and returns to the first page.
func (c *Controller) SetSort(s columns.Sort) error {
	col, err := columns.Lookup(string(s.Column))
	if err != nil {
		return err
	}
	if !col.Sortable() {
		return fmt.Errorf("column %q is not sortable", col.ID)
	}
	c.state = c.state.WithPage(0)
	c.state.Sort = columns.Sort{Column: col.ID, Desc: s.Desc}
	return nil
}

// SetVisibleColumns chooses the table columns, in order. Duplicates are
// dropped and an empty list restores the default columns.
func (c *Controller) SetVisibleColumns(ids []columns.ID) error {
	if len(ids) == 0 {
		c.state.VisibleColumns = columns.DefaultVisible()
		return nil
	}
	visible := make([]columns.ID, 0, len(ids))
	for _, id := range ids {
		col, err := columns.Lookup(string(id))
		if err != nil {
			return err
		}
		if !slices.Contains(visible, col.ID) {
			visible = append(visible, col.ID)
		}
	}
	c.state.VisibleColumns = visible
	return nil
}

// SetPage moves to pageIndex. The search clamps it.
func (c *Controller) SetPage(pageIndex int) {
	c.state = c.state.WithPage(max(pageIndex, 0))
}
