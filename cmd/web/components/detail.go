package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/rubiojr/carefinder/cmd/web/components/types"
)

// Detail shows one provider's full record.
func Detail(data types.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(w)
		d := data.Detail

		h.raw(`<section class="detail">` + "\n")
		h.raw(`<div class="toolbar"><a class="back"`)
		h.href(d.BackHref)
		h.raw(">&larr; Back to results</a></div>\n")
		errorBox(h, data.Error)
		if len(d.Fields) == 0 {
			h.raw("</section>\n")
			return h.err
		}

		h.raw("<h1>")
		h.text(d.Name)
		h.raw("</h1>\n")
		h.raw(`<p class="actions">`)
		cellContent(h, d.Links)
		h.raw("</p>\n")

		h.raw(`<dl class="fields">` + "\n")
		for _, f := range d.Fields {
			h.raw("<dt>")
			h.text(f.Label)
			h.raw("</dt><dd")
			h.attr("class", f.Cell.Kind)
			h.raw(">")
			if empty(f.Cell) {
				h.raw(`<span class="none">Not listed</span>`)
			} else {
				cellContent(h, f.Cell)
			}
			h.raw("</dd>\n")
		}
		h.raw("</dl>\n</section>\n")
		return h.err
	})
}

func empty(c types.Cell) bool {
	switch c.Kind {
	case "categoryList":
		return len(c.Items) == 0
	case "text":
		return c.Text == ""
	}
	return false
}
