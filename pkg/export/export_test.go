package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/rubiojr/carefinder/pkg/provider"
)

func roundTrip(t *testing.T, records []provider.Provider) []provider.Provider {
	t.Helper()
	data, err := Marshal(records)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, data)
	}
	return got
}

func sameRecords(a, b []provider.Provider) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSerializeEmptyIsHeaderOnly(t *testing.T) {
	data, err := Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only a header row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Provider Name,System / Network Name,Website URL,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], ",Customer review rating") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		records []provider.Provider
	}{
		{"empty", []provider.Provider{}},
		{"comma in address", []provider.Provider{{ProviderName: "Harbor", Address: "123 Main St, Boston, MA"}}},
		{"quote in notes", []provider.Provider{{ProviderName: "Lake", NotesForPatients: `Ask for "Dr. Rao" at the desk`}}},
		{"line breaks", []provider.Provider{{ServicesOffered: "Therapy\nGroups\r\nIntake\r"}}},
		{"all empty", []provider.Provider{{}, {ProviderName: "after"}}},
		{"leading space and unicode", []provider.Provider{{ProviderName: "  Clínica ✓", Telehealth: "Y"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.records)
			if !sameRecords(got, tt.records) {
				t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", got, tt.records)
			}
		})
	}
}

func TestSerializeQuoting(t *testing.T) {
	data, err := Marshal([]provider.Provider{{ProviderName: `A "B", C`}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"A ""B"", C"`) {
		t.Errorf("value not quoted per RFC 4180:\n%s", data)
	}
}

func TestParseSourceSheet(t *testing.T) {
	input := "\xEF\xBB\xBFProvider Name , Address,Telehealth (Y/N),Extra\r\n" +
		"Harbor Clinic,\"1 Main St, Boston\",Y,ignored\r\n" +
		"\r\n" +
		"Short row\r\n"

	got, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %#v", len(got), got)
	}
	first := got[0]
	if first.ProviderName != "Harbor Clinic" || first.Address != "1 Main St, Boston" || first.Telehealth != "Y" {
		t.Errorf("unexpected first record %#v", first)
	}
	if first.Categories != "" || first.CustomerReviewRating != "" {
		t.Error("missing columns should default to empty strings")
	}
	if got[1].ProviderName != "Short row" || got[1].Address != "" {
		t.Errorf("unexpected short record %#v", got[1])
	}
}

func TestParseNoHeader(t *testing.T) {
	got, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestParseMalformedQuotes(t *testing.T) {
	tests := []string{
		"Provider Name\n\"unterminated\n",
		"Provider Name\n\"closed\"junk\n",
	}
	for _, input := range tests {
		_, err := Parse(strings.NewReader(input))
		if !errors.Is(err, ErrQuote) {
			t.Errorf("Parse(%q) = %v, want ErrQuote", input, err)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) || perr.Line != 2 {
			t.Errorf("Parse(%q) error line = %v", input, err)
		}
	}
}

func TestParseLazyQuoteInUnquotedField(t *testing.T) {
	got, err := Parse(strings.NewReader("Provider Name,Address\nThe 5\" Clinic,Here\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0].ProviderName != `The 5" Clinic` || got[0].Address != "Here" {
		t.Errorf("unexpected records %#v", got)
	}
}

var cellAlphabet = []string{"a", "B", "7", " ", ",", `"`, "\n", "\r", "é", "•"}

func genCell() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(cellAlphabet)-1)).Map(func(idx []int) string {
		var b strings.Builder
		for _, i := range idx {
			b.WriteString(cellAlphabet[i])
		}
		return b.String()
	})
}

func genRecord() gopter.Gen {
	return gen.SliceOfN(len(provider.Fields), genCell()).Map(func(cells []string) provider.Provider {
		var p provider.Provider
		for i, f := range provider.Fields {
			p = p.With(f, cells[i])
		}
		return p
	})
}

func TestPropertyRoundTrip(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	params.MaxSize = 20
	props := gopter.NewProperties(params)

	props.Property("Parse(Serialize(records)) == records", prop.ForAll(
		func(records []provider.Provider) bool {
			data, err := Marshal(records)
			if err != nil {
				return false
			}
			got, err := Parse(bytes.NewReader(data))
			if err != nil {
				return false
			}
			return sameRecords(got, records)
		},
		gen.SliceOf(genRecord()),
	))

	props.TestingRun(t)
}
