package types

// PageData represents data passed to templates
type PageData struct {
	Title   string
	Version string

	// Mode is "entry", "results" or "detail".
	Mode string

	Form Form

	// Chips are the quick-search links shown under the form.
	Chips []Link

	// ProviderCount and SyncedLabel feed the "N providers • Last synced" line.
	ProviderCount int
	SyncedLabel   string
	FromSnapshot  bool

	Results *Results
	Detail  *Detail
	Error   string
}

// Form is the what/where search form.
type Form struct {
	What     string
	Where    string
	Disabled bool
}

// Link is an anchor with a label.
type Link struct {
	Label  string
	Href   string
	Active bool
}

// Results is everything the results view renders below the form.
type Results struct {
	Heading string
	Matched int
	Total   int

	Headers []Header
	Filters []FilterInput
	// Hidden are carried by the column filter form so a filter submit keeps
	// the query and sort.
	Hidden []Hidden
	Rows   []Row

	Pager      Pager
	ExportHref string
	ClearHref  string

	// Columns feeds the column picker. ColumnsHidden carries the rest of the
	// state through a picker submit.
	Columns          []ColumnOption
	ColumnsHidden    []Hidden
	ColumnsResetHref string
}

type ColumnOption struct {
	ID      string
	Label   string
	Checked bool
}

// Detail is the full record of one provider.
type Detail struct {
	Name     string
	BackHref string
	// Fields lists every record field in sheet order.
	Fields []DetailField
	Links  Cell
}

type DetailField struct {
	Label string
	Cell  Cell
}

// Header is one table header cell. Href toggles the sort on that column.
type Header struct {
	ID       string
	Label    string
	Href     string
	Sortable bool
	Sorted   bool
	Desc     bool
}

// FilterInput is a per-column filter field.
type FilterInput struct {
	Name  string
	Label string
	Value string
}

type Hidden struct {
	Name  string
	Value string
}

type Row struct {
	Cells []Cell
}

// Cell is a rendered table cell. Kind selects which fields are used.
type Cell struct {
	Kind string
	Text string
	// Href links the text, for the provider name.
	Href string

	// categoryList
	Items []string
	Extra int

	// rating
	Rating string
	Rated  bool

	// flag and access
	Badges []Badge

	// actionLinks
	Website string
	Phone   string
	Call    bool
	Maps    string
}

type Badge struct {
	Label string
	Tone  string
}

// Pager describes the pagination links.
type Pager struct {
	Page      int
	PageCount int
	First     int
	Last      int
	PrevHref  string
	NextHref  string
}

// SyncedLine is the footer freshness note.
func (p PageData) SyncedLine() string {
	line := "Last synced " + p.SyncedLabel
	if p.FromSnapshot {
		line += " (stored snapshot)"
	}
	return line
}
