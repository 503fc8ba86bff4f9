package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/rubiojr/carefinder/cmd/web/components/types"
)

// Entry is the landing view: the search form, quick chips and a link to
// browse everything.
func Entry(data types.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(w)
		h.raw(`<section class="entry">` + "\n")
		h.raw("<h1>Find a provider</h1>\n")
		errorBox(h, data.Error)
		searchForm(h, data.Form, false)
		chips(h, data.Chips)
		h.raw(`<p class="browse"><a href="/search">Browse all providers</a></p>` + "\n")
		h.raw(`<p class="meta">`)
		h.text(fmt.Sprintf("%d %s • Last synced %s", data.ProviderCount, Plural(data.ProviderCount, "provider"), data.SyncedLabel))
		h.raw("</p>\n</section>\n")
		return h.err
	})
}
