package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/rubiojr/carefinder/cmd/web/components/types"
)

// Results is the results view: compact form, heading, column filters, the
// provider table and pagination.
func Results(data types.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(w)
		res := data.Results

		h.raw(`<section class="results">` + "\n")
		h.raw(`<div class="toolbar"><a class="back" href="/">&larr; New search</a>`)
		h.raw(`<a class="export"`)
		h.href(res.ExportHref)
		h.raw(` download>Export CSV</a></div>` + "\n")
		errorBox(h, data.Error)
		searchForm(h, data.Form, true)
		chips(h, data.Chips)

		h.raw("<h1>")
		h.text(res.Heading)
		h.raw("</h1>\n")
		h.raw(`<p class="meta">`)
		h.text(strconv.Itoa(res.Matched) + " of " + strconv.Itoa(res.Total) + " " + Plural(res.Total, "provider"))
		h.raw("</p>\n")

		filterForm(h, res)
		columnForm(h, res)

		if len(res.Rows) == 0 {
			h.raw(`<p class="empty">No providers match. Try fewer words or <a href="/search">browse all providers</a>.</p>` + "\n")
			h.raw("</section>\n")
			return h.err
		}

		h.raw("<table class=\"providers\">\n<thead><tr>")
		for _, hd := range res.Headers {
			header(h, hd)
		}
		h.raw("</tr></thead>\n<tbody>\n")
		for _, row := range res.Rows {
			h.raw("<tr>")
			for _, c := range row.Cells {
				cell(h, c)
			}
			h.raw("</tr>\n")
		}
		h.raw("</tbody>\n</table>\n")

		pager(h, res.Pager, res.Matched)
		h.raw("</section>\n")
		return h.err
	})
}

func filterForm(h *htmlWriter, res *types.Results) {
	if len(res.Filters) == 0 {
		return
	}
	h.raw(`<details class="filters"><summary>Filter columns</summary>` + "\n")
	h.raw(`<form method="get" action="/search">` + "\n")
	for _, hid := range res.Hidden {
		h.raw(`<input type="hidden"`)
		h.attr("name", hid.Name)
		h.attr("value", hid.Value)
		h.raw(">\n")
	}
	for _, f := range res.Filters {
		h.raw("<label>")
		h.text(f.Label)
		h.raw(` <input type="text"`)
		h.attr("name", f.Name)
		h.attr("value", f.Value)
		h.raw("></label>\n")
	}
	h.raw(`<button type="submit">Apply</button> <a`)
	h.href(res.ClearHref)
	h.raw(">Clear filters</a>\n</form></details>\n")
}

func columnForm(h *htmlWriter, res *types.Results) {
	if len(res.Columns) == 0 {
		return
	}
	h.raw(`<details class="columns"><summary>Manage columns</summary>` + "\n")
	h.raw(`<form method="get" action="/search">` + "\n")
	for _, hid := range res.ColumnsHidden {
		h.raw(`<input type="hidden"`)
		h.attr("name", hid.Name)
		h.attr("value", hid.Value)
		h.raw(">\n")
	}
	for _, opt := range res.Columns {
		h.raw(`<label><input type="checkbox" name="columns"`)
		h.attr("value", opt.ID)
		if opt.Checked {
			h.raw(" checked")
		}
		h.raw("> ")
		h.text(opt.Label)
		h.raw("</label>\n")
	}
	h.raw(`<button type="submit">Show columns</button> <a`)
	h.href(res.ColumnsResetHref)
	h.raw(">Default columns</a>\n</form></details>\n")
}

func header(h *htmlWriter, hd types.Header) {
	h.raw("<th")
	h.attr("data-column", hd.ID)
	if hd.Sorted {
		if hd.Desc {
			h.attr("aria-sort", "descending")
		} else {
			h.attr("aria-sort", "ascending")
		}
	}
	h.raw(">")
	if !hd.Sortable {
		h.text(hd.Label)
		h.raw("</th>")
		return
	}
	h.raw("<a")
	h.href(hd.Href)
	h.raw(">")
	h.text(hd.Label)
	if hd.Sorted {
		if hd.Desc {
			h.raw(" &darr;")
		} else {
			h.raw(" &uarr;")
		}
	}
	h.raw("</a></th>")
}

func cell(h *htmlWriter, c types.Cell) {
	h.raw("<td")
	h.attr("class", c.Kind)
	h.raw(">")
	cellContent(h, c)
	h.raw("</td>")
}

// cellContent writes the inside of a table or detail cell.
func cellContent(h *htmlWriter, c types.Cell) {
	switch c.Kind {
	case "categoryList":
		for _, item := range c.Items {
			h.raw(`<span class="tag">`)
			h.text(item)
			h.raw("</span>")
		}
		if c.Extra > 0 {
			h.raw(`<span class="more">+`)
			h.text(strconv.Itoa(c.Extra))
			h.raw("</span>")
		}
	case "rating":
		if c.Rated {
			h.raw(`<span class="rating">`)
			h.text(c.Rating)
			h.raw(" &#9733;</span>")
		} else {
			h.raw(`<span class="rating none">&mdash;</span>`)
		}
	case "flag":
		for _, b := range c.Badges {
			h.raw("<span")
			h.attr("class", ToneClass(b.Tone))
			h.raw(">")
			h.text(b.Label)
			h.raw("</span>")
		}
	case "actionLinks":
		if c.Website != "" {
			h.raw(`<a class="website" target="_blank" rel="noopener"`)
			h.href(c.Website)
			h.raw(">Website</a> ")
		}
		if c.Call {
			h.raw(`<a class="call"`)
			h.href(c.Phone)
			h.raw(">Call</a> ")
		}
		if c.Maps != "#" && c.Maps != "" {
			h.raw(`<a class="maps" target="_blank" rel="noopener"`)
			h.href(c.Maps)
			h.raw(">Map</a>")
		}
	default:
		if c.Href != "" {
			h.raw("<a")
			h.href(c.Href)
			h.raw(">")
			h.text(c.Text)
			h.raw("</a>")
			break
		}
		h.text(c.Text)
	}
}

func pager(h *htmlWriter, p types.Pager, matched int) {
	if p.PageCount <= 1 {
		return
	}
	h.raw(`<nav class="pager">`)
	if p.PrevHref != "" {
		h.raw(`<a rel="prev"`)
		h.href(p.PrevHref)
		h.raw(">&larr; Previous</a>")
	}
	h.raw(`<span class="position">`)
	h.text("Page " + strconv.Itoa(p.Page) + " of " + strconv.Itoa(p.PageCount) +
		" (" + strconv.Itoa(p.First) + "–" + strconv.Itoa(p.Last) + " of " + strconv.Itoa(matched) + ")")
	h.raw("</span>")
	if p.NextHref != "" {
		h.raw(`<a rel="next"`)
		h.href(p.NextHref)
		h.raw(">Next &rarr;</a>")
	}
	h.raw("</nav>\n")
}
