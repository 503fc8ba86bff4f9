package provider

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// Flag is the presentation tone of a Y/N access field.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagAffirmative
	FlagNegative
)

func (f Flag) String() string {
	switch f {
	case FlagAffirmative:
		return "affirmative"
	case FlagNegative:
		return "negative"
	}
	return "unknown"
}

// ClassifyFlag maps a Y/N cell to a tone. Anything other than Y or N,
// including the empty string, is unknown rather than negative.
func ClassifyFlag(text string) Flag {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "Y":
		return FlagAffirmative
	case "N":
		return FlagNegative
	}
	return FlagUnknown
}

// ExtractRating returns the first number found in a rating cell, so
// "4.5 (312 reviews)" yields 4.5. The number is the first maximal run of
// digits containing at most one decimal point. ok is false when the text holds
// no digits at all.
func ExtractRating(text string) (rating float64, ok bool) {
	start := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isDigit(c) || (c == '.' && i+1 < len(text) && isDigit(text[i+1])) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	end := start
	seenDot := false
	for end < len(text) {
		c := text[end]
		if isDigit(c) {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}

	num := strings.TrimSuffix(text[start:end], ".")
	v, err := strconv.ParseFloat(num, 64)
	// Runs too long for a float64 still count, as +Inf.
	if errors.Is(err, strconv.ErrRange) {
		return v, true
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Rating is ExtractRating bound to the record's rating column.
func (p Provider) Rating() (float64, bool) {
	return ExtractRating(p.CustomerReviewRating)
}

// SplitCategories splits a comma-separated category cell. Entries are trimmed
// and empty ones dropped; order and duplicates are preserved.
func SplitCategories(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if c := strings.TrimSpace(part); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// CategoryList is SplitCategories bound to the record's category column.
func (p Provider) CategoryList() []string {
	return SplitCategories(p.Categories)
}

// NoLink is the target used when a link cannot be built.
const NoLink = "#"

// PhoneHref builds a tel: link keeping only digits and a leading '+'.
func PhoneHref(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "+" {
		return NoLink
	}
	return "tel:" + cleaned
}

// HasPhone reports whether the record carries a callable phone number.
func (p Provider) HasPhone() bool {
	phone := strings.TrimSpace(p.PhoneNumber)
	if phone == "" || strings.EqualFold(phone, "N/A") {
		return false
	}
	return PhoneHref(phone) != NoLink
}

const mapsSearchURL = "https://www.google.com/maps/search/"

// MapsURL builds a map search link for an address.
func MapsURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return NoLink
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", address)
	return mapsSearchURL + "?" + q.Encode()
}

// AccessFlag pairs a display label with an access field.
type AccessFlag struct {
	Label string
	Field Field
	Value string
	Tone  Flag
}

// Access returns the four access flags in display order.
func (p Provider) Access() []AccessFlag {
	pairs := []struct {
		label string
		field Field
	}{
		{"Interpreters", FieldInterpretersAvailable},
		{"Telehealth", FieldTelehealth},
		{"Financial Aid", FieldFinancialAssistance},
		{"Transportation", FieldTransportation},
	}
	out := make([]AccessFlag, len(pairs))
	for i, pair := range pairs {
		v := p.Get(pair.field)
		out[i] = AccessFlag{Label: pair.label, Field: pair.field, Value: v, Tone: ClassifyFlag(v)}
	}
	return out
}
