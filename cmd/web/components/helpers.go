package components

import (
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter writes markup and remembers the first write error, so the
// components can render without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func newWriter(w io.Writer) *htmlWriter {
	return &htmlWriter{w: w}
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// text writes s as escaped character data.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// href writes an href attribute. Unsafe schemes are replaced by templ's
// sanitization marker.
func (h *htmlWriter) href(url string) {
	h.attr("href", string(SafeHref(url)))
}

// SafeHref sanitizes a link target with templ.URL. Relative targets and the
// schemes templ allows, such as http(s), mailto: and tel:, survive. Anything
// else becomes templ's failed sanitization marker.
func SafeHref(url string) templ.SafeURL {
	return templ.URL(url)
}

// ToneClass maps an access flag tone to its badge class.
func ToneClass(tone string) string {
	switch tone {
	case "affirmative":
		return "badge badge-yes"
	case "negative":
		return "badge badge-no"
	default:
		return "badge badge-unknown"
	}
}

// Plural returns word with an s appended unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
