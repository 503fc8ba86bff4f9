package columns

import (
	"errors"
	"testing"

	"github.com/rubiojr/carefinder/pkg/provider"
)

func TestCategoryFilterScenario(t *testing.T) {
	financial := provider.Provider{Categories: "Financial Assistance"}
	mental := provider.Provider{Categories: "Mental Health Counseling"}

	if MatchesColumn(financial, Categories, "mental health") {
		t.Error("Financial Assistance should be excluded")
	}
	if !MatchesColumn(mental, Categories, "mental health") {
		t.Error("Mental Health Counseling should be included")
	}
	if !MatchesColumn(mental, Categories, "health MENTAL") {
		t.Error("token order and case should not matter")
	}
}

func TestColumnMatch(t *testing.T) {
	p := provider.Provider{
		ProviderName:          "Harbor Clinic",
		CustomerReviewRating:  "4.2 (30 reviews)",
		Telehealth:            "Y",
		InterpretersAvailable: "N",
		FinancialAssistance:   "",
		Transportation:        "Y",
	}

	tests := []struct {
		column ID
		value  string
		want   bool
	}{
		{ID(provider.FieldProviderName), "", true},
		{ID(provider.FieldProviderName), "   ", true},
		{ID(provider.FieldProviderName), "harbor", true},
		{ID(provider.FieldProviderName), "lake", false},
		{Rating, "4", true},
		{Rating, "4.5", false},
		{Rating, "reviews", true},
		{ID(provider.FieldTelehealth), "Y", true},
		{ID(provider.FieldTelehealth), "no", false},
		{ID(provider.FieldInterpretersAvailable), "n", true},
		{ID(provider.FieldFinancialAssistance), "unknown", true},
		{ID(provider.FieldFinancialAssistance), "y", false},
		{Access, "telehealth", true},
		{Access, "transportation telehealth", true},
		{Access, "interpreters", false},
		{Actions, "anything", true},
		{"bogus", "x", false},
	}
	for _, tt := range tests {
		if got := MatchesColumn(p, tt.column, tt.value); got != tt.want {
			t.Errorf("MatchesColumn(%s, %q) = %v, want %v", tt.column, tt.value, got, tt.want)
		}
	}
}

func TestRatingFilterExcludesUnrated(t *testing.T) {
	if MatchesColumn(provider.Provider{CustomerReviewRating: "not yet rated"}, Rating, "0") {
		t.Error("unrated record should not satisfy a minimum rating")
	}
}

func TestFilterSetComposesWithAnd(t *testing.T) {
	records := []provider.Provider{
		{ProviderName: "A", Address: "Boston", Categories: "Counseling"},
		{ProviderName: "B", Address: "Boston", Categories: "Support Group"},
		{ProviderName: "C", Address: "Chicago", Categories: "Counseling"},
	}

	fs, err := NewFilterSet("boston", map[ID]string{Categories: "counseling"})
	if err != nil {
		t.Fatalf("NewFilterSet: %v", err)
	}
	got := fs.Apply(records)
	if len(got) != 1 || got[0].ProviderName != "A" {
		t.Fatalf("expected only A, got %+v", got)
	}
}

func TestFilterSetEmptyMatchesAll(t *testing.T) {
	fs, err := NewFilterSet("  ", map[ID]string{Categories: ""})
	if err != nil {
		t.Fatalf("NewFilterSet: %v", err)
	}
	if fs.Active() {
		t.Error("blank filters should be inactive")
	}
	records := []provider.Provider{{}, {ProviderName: "x"}}
	if got := fs.Apply(records); len(got) != 2 {
		t.Errorf("expected all records, got %d", len(got))
	}
}

func TestFilterSetNoMatchesIsEmptyNotError(t *testing.T) {
	fs, err := NewFilterSet("", map[ID]string{Categories: "nothing like this"})
	if err != nil {
		t.Fatalf("NewFilterSet: %v", err)
	}
	got := fs.Apply([]provider.Provider{{Categories: "Counseling"}})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

func TestFilterSetUnknownColumn(t *testing.T) {
	_, err := NewFilterSet("", map[ID]string{"shoe_size": "9"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}
