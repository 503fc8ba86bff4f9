package query

import (
	"slices"

	"github.com/rubiojr/carefinder/pkg/provider"
)

// DefaultTopCategories is the number of category chips offered on the entry page.
const DefaultTopCategories = 10

// MaxQuickChips caps the merged chip list.
const MaxQuickChips = 14

// AccessChips are always offered after the most frequent categories.
var AccessChips = []string{
	"Telehealth",
	"Financial Assistance",
	"Transportation",
	"Interpreters",
}

// CategoryCount is a category label and the number of records listing it.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountCategories counts every category occurrence across records, ordered by
// descending count. Ties keep the order in which each label was first seen in
// the record sequence.
func CountCategories(records []provider.Provider) []CategoryCount {
	index := make(map[string]int)
	var counts []CategoryCount
	for _, p := range records {
		for _, c := range provider.SplitCategories(p.Categories) {
			if i, ok := index[c]; ok {
				counts[i].Count++
				continue
			}
			index[c] = len(counts)
			counts = append(counts, CategoryCount{Label: c, Count: 1})
		}
	}
	slices.SortStableFunc(counts, func(a, b CategoryCount) int {
		return b.Count - a.Count
	})
	return counts
}

// TopCategories returns the n most frequent category labels. A non-positive n
// returns every label.
func TopCategories(records []provider.Provider, n int) []string {
	counts := CountCategories(records)
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	labels := make([]string, len(counts))
	for i, c := range counts {
		labels[i] = c.Label
	}
	return labels
}

// QuickChips merges the top categories with AccessChips, dropping duplicates
// and keeping at most MaxQuickChips labels. Selecting a chip sets the global
// query to exactly its label.
func QuickChips(records []provider.Provider, top int) []string {
	merged := append(TopCategories(records, top), AccessChips...)
	seen := make(map[string]struct{}, len(merged))
	out := make([]string, 0, len(merged))
	for _, label := range merged {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
		if len(out) == MaxQuickChips {
			break
		}
	}
	return out
}
