package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/rubiojr/carefinder/cmd/web/components/types"
)

// Layout wraps body in the page chrome shared by every view.
func Layout(data types.PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(w)
		h.raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
		h.raw("<title>")
		h.text(data.Title)
		h.raw("</title>\n")
		h.raw(`<link rel="stylesheet" href="/static/style.css">` + "\n")
		h.raw(`<script src="/static/app.js" defer></script>` + "\n")
		h.raw("</head>\n<body>\n")
		h.raw(`<header class="site-header"><a class="brand" href="/">carefinder</a></header>` + "\n")
		h.raw(`<div id="refresh-banner" class="banner" hidden>The directory was updated. <a href="">Reload</a></div>` + "\n")
		h.raw("<main>\n")
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw("</main>\n<footer>")
		h.raw(`<span class="meta">`)
		h.text(data.SyncedLine())
		h.raw("</span>")
		if data.Version != "" {
			h.raw(` <span class="version">v`)
			h.text(data.Version)
			h.raw("</span>")
		}
		h.raw("</footer>\n</body>\n</html>\n")
		return h.err
	})
}

// Page renders the view selected by data.Mode inside the layout.
func Page(data types.PageData) templ.Component {
	if data.Mode == "results" && data.Results != nil {
		return Layout(data, Results(data))
	}
	if data.Mode == "detail" && data.Detail != nil {
		return Layout(data, Detail(data))
	}
	return Layout(data, Entry(data))
}

func searchForm(h *htmlWriter, form types.Form, compact bool) {
	class := "search-form"
	if compact {
		class += " compact"
	}
	h.raw(`<form method="get" action="/search"`)
	h.attr("class", class)
	h.raw(">\n")
	disabled := ""
	if form.Disabled {
		disabled = " disabled"
	}
	h.raw(`<label>What <input type="search" name="what" placeholder="Service, specialty or provider"`)
	h.attr("value", form.What)
	h.raw(disabled + "></label>\n")
	h.raw(`<label>Where <input type="search" name="where" placeholder="City or neighborhood"`)
	h.attr("value", form.Where)
	h.raw(disabled + "></label>\n")
	h.raw(`<button type="submit"` + disabled + ">Search</button>\n")
	h.raw("</form>\n")
}

func chips(h *htmlWriter, chips []types.Link) {
	if len(chips) == 0 {
		return
	}
	h.raw(`<nav class="chips">`)
	for _, c := range chips {
		class := "chip"
		if c.Active {
			class += " active"
		}
		h.raw("<a")
		h.attr("class", class)
		h.href(c.Href)
		h.raw(">")
		h.text(c.Label)
		h.raw("</a>")
	}
	h.raw("</nav>\n")
}

func errorBox(h *htmlWriter, msg string) {
	if msg == "" {
		return
	}
	h.raw(`<div class="error">`)
	h.text(msg)
	h.raw("</div>\n")
}
