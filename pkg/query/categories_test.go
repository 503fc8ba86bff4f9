package query

import (
	"reflect"
	"testing"

	"github.com/rubiojr/carefinder/pkg/provider"
)

func TestCountCategories(t *testing.T) {
	records := []provider.Provider{
		{Categories: "Counseling, Telehealth"},
		{Categories: "Telehealth, Support Group, Telehealth"},
		{Categories: "Support Group"},
		{Categories: ""},
	}

	got := CountCategories(records)
	want := []CategoryCount{
		{Label: "Telehealth", Count: 3},
		{Label: "Support Group", Count: 2},
		{Label: "Counseling", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CountCategories = %+v, want %+v", got, want)
	}
}

func TestTopCategoriesTieBreakFirstSeen(t *testing.T) {
	records := []provider.Provider{
		{Categories: "Zeta, Alpha"},
		{Categories: "Mid"},
		{Categories: "Alpha, Zeta, Mid"},
	}

	got := TopCategories(records, 2)
	want := []string{"Zeta", "Alpha"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopCategories = %v, want %v", got, want)
	}

	if all := TopCategories(records, 0); len(all) != 3 {
		t.Errorf("expected all 3 labels, got %v", all)
	}
}

func TestQuickChips(t *testing.T) {
	records := []provider.Provider{
		{Categories: "Counseling, Telehealth"},
		{Categories: "Telehealth"},
	}
	got := QuickChips(records, DefaultTopCategories)
	want := []string{"Telehealth", "Counseling", "Financial Assistance", "Transportation", "Interpreters"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("QuickChips = %v, want %v", got, want)
	}
}

func TestQuickChipsCapped(t *testing.T) {
	var records []provider.Provider
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		records = append(records, provider.Provider{Categories: c})
	}
	got := QuickChips(records, 12)
	if len(got) != MaxQuickChips {
		t.Fatalf("expected %d chips, got %d: %v", MaxQuickChips, len(got), got)
	}
	if got[12] != "Telehealth" || got[13] != "Financial Assistance" {
		t.Errorf("unexpected tail: %v", got[12:])
	}
}

func TestQuickChipsEmptyDataset(t *testing.T) {
	got := QuickChips(nil, DefaultTopCategories)
	if !reflect.DeepEqual(got, AccessChips) {
		t.Errorf("QuickChips(nil) = %v, want %v", got, AccessChips)
	}
}
