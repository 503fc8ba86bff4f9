package integration_tests

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/export"
	"github.com/rubiojr/carefinder/pkg/provider"
)

// TestProviders returns a small directory covering the record shapes the
// engine cares about: unrated rows, quoted fields and unusable phones.
func TestProviders() []provider.Provider {
	return []provider.Provider{
		{
			ProviderName:          "Boston Telehealth Clinic",
			WebsiteURL:            "https://bostonclinic.example.org",
			OrganizationType:      "clinic",
			Address:               "1 Main St, Boston, MA",
			PhoneNumber:           "(617) 555-0100",
			Categories:            "Primary Care, Counseling",
			Telehealth:            "Y",
			InterpretersAvailable: "Yes - Hindi, Tamil",
			CustomerReviewRating:  "4.2",
		},
		{
			ProviderName:         "Cambridge Mental Health",
			Address:              "2 Elm St, Cambridge, MA",
			PhoneNumber:          "N/A",
			Categories:           "Mental Health, Counseling",
			Telehealth:           "N",
			FinancialAssistance:  "Sliding scale",
			CustomerReviewRating: "4.8 stars",
		},
		{
			ProviderName:     "Worcester Family Practice",
			Address:          "3 Oak St, Worcester, MA",
			Categories:       "Primary Care",
			NotesForPatients: "Says \"namaste\",\nspeaks Hindi",
		},
	}
}

// CreateTestConfig creates a configuration reading sourceFile and storing
// snapshots under tempDir.
func CreateTestConfig(tempDir, sourceFile string) *config.Config {
	return &config.Config{
		SourceFile:      sourceFile,
		SnapshotPath:    filepath.Join(tempDir, "snapshots.db"),
		SnapshotKeep:    3,
		RefreshInterval: config.Duration{Duration: time.Hour},
		PageSize:        10,
		TopCategories:   10,
		Web:             config.WebConfig{Host: "127.0.0.1", Port: 8080},
	}
}

// WriteProvidersCSV writes records to path in the sheet's CSV format.
func WriteProvidersCSV(t *testing.T, path string, records []provider.Provider) {
	t.Helper()
	data, err := export.Marshal(records)
	if err != nil {
		t.Fatalf("Failed to marshal providers: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
