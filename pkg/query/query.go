// Package query implements the free-text matching used by the provider
// directory: a query is split into lowercase tokens and a record matches when
// every token occurs somewhere in its searchable text. There is no ranking,
// stemming or fuzzy matching, and token order never matters.
package query

import (
	"strings"
	"unicode"

	"github.com/rubiojr/carefinder/pkg/provider"
)

// HaystackFields are the columns searched by the global query, in the order
// they are concatenated.
var HaystackFields = []provider.Field{
	provider.FieldProviderName,
	provider.FieldSystemNetworkName,
	provider.FieldOrganizationType,
	provider.FieldAddress,
	provider.FieldCategories,
	provider.FieldServicesOffered,
	provider.FieldPrimaryAudience,
	provider.FieldNotesForPatients,
}

// haystackSep joins haystack fields. Tokenize treats it as a delimiter, so no
// token can contain it and a match can never straddle two fields.
const haystackSep = "\x00"

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == 0
}

// Query is a tokenized search string.
type Query struct {
	raw    string
	tokens []string
}

// Compile lowercases and tokenizes q. Repeated tokens are kept once.
func Compile(q string) Query {
	return Query{raw: q, tokens: Tokenize(q)}
}

// Tokenize lowercases q and splits it on whitespace into distinct tokens,
// keeping first-seen order.
func Tokenize(q string) []string {
	fields := strings.FieldsFunc(strings.ToLower(q), isDelimiter)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	tokens := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// String returns the query as it was given.
func (q Query) String() string { return q.raw }

// Tokens returns a copy of the query tokens.
func (q Query) Tokens() []string {
	return append([]string(nil), q.tokens...)
}

// Empty reports whether the query has no tokens and therefore matches
// everything.
func (q Query) Empty() bool { return len(q.tokens) == 0 }

// Match reports whether every token occurs in the record's haystack.
func (q Query) Match(p provider.Provider) bool {
	if q.Empty() {
		return true
	}
	return q.matchLowered(Haystack(p))
}

// MatchText applies the query to a single piece of text, such as one column.
func (q Query) MatchText(text string) bool {
	if q.Empty() {
		return true
	}
	return q.matchLowered(strings.ToLower(text))
}

func (q Query) matchLowered(hay string) bool {
	for _, tok := range q.tokens {
		if !strings.Contains(hay, tok) {
			return false
		}
	}
	return true
}

// Matches is the one-shot form of Compile(q).Match(p).
func Matches(p provider.Provider, q string) bool {
	return Compile(q).Match(p)
}

// MatchesText is the one-shot form of Compile(q).MatchText(text).
func MatchesText(text, q string) bool {
	return Compile(q).MatchText(text)
}

// Haystack builds the lowercase searchable text for a record. Empty fields are
// skipped.
func Haystack(p provider.Provider) string {
	var b strings.Builder
	for _, f := range HaystackFields {
		v := p.Get(f)
		if v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(haystackSep)
		}
		b.WriteString(strings.ToLower(v))
	}
	return b.String()
}

// Filter returns the records matching q, preserving their order. The input
// slice is never modified.
func Filter(records []provider.Provider, q string) []provider.Provider {
	compiled := Compile(q)
	out := make([]provider.Provider, 0, len(records))
	for _, p := range records {
		if compiled.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
