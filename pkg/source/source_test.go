package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/export"
	"github.com/rubiojr/carefinder/pkg/provider"
)

const sheet = "Provider Name,Address,Categories,Customer review rating\r\n" +
	"Mass General,\"55 Fruit St, Boston, MA\",\"Cardiology, Primary Care\",4.5 stars\r\n" +
	",,,\r\n" +
	"Cambridge Health,Cambridge MA,Mental Health,\r\n"

func TestHTTPSourceLoad(t *testing.T) {
	var gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCache = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sheet))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL).WithClient(srv.Client())
	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotCache != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", gotCache)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (blank row dropped)", len(records))
	}
	if records[0].Address != "55 Fruit St, Boston, MA" {
		t.Errorf("Address = %q", records[0].Address)
	}
	if records[1].ProviderName != "Cambridge Health" {
		t.Errorf("second record = %q", records[1].ProviderName)
	}
}

func TestHTTPSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL).WithClient(srv.Client()).Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Fatalf("expected HTTP 404 error, got %v", err)
	}
}

func TestHTTPSourceMalformedCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Provider Name\n\"unterminated\n"))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL).WithClient(srv.Client()).Load(context.Background())
	if !errors.Is(err, export.ErrQuote) {
		t.Fatalf("expected ErrQuote, got %v", err)
	}
}

func TestFileSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.csv")
	if err := os.WriteFile(path, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}
	records, err := NewFileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if r, ok := records[0].Rating(); !ok || r != 4.5 {
		t.Errorf("Rating = %v, %v", r, ok)
	}
}

func TestFileSourceMissing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.csv")).Load(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestClean(t *testing.T) {
	in := []provider.Provider{
		{ProviderName: "A\x00B"},
		{Address: "  "},
		{},
		{NotesForPatients: "kept"},
	}
	out := Clean(in)
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	if out[0].ProviderName != "AB" {
		t.Errorf("NUL not stripped: %q", out[0].ProviderName)
	}
	if in[0].ProviderName != "A\x00B" {
		t.Error("input was modified")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    string
		wantErr error
	}{
		{"nil config", nil, "", ErrNoSource},
		{"nothing set", &config.Config{}, "", ErrNoSource},
		{"url", &config.Config{SourceURL: "https://example.com/pub?output=csv"}, "http", nil},
		{"file wins", &config.Config{SourceURL: "https://example.com", SourceFile: "/tmp/x.csv"}, "file", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && src.Name() != tt.want {
				t.Errorf("Name = %q, want %q", src.Name(), tt.want)
			}
		})
	}
}

func TestWatchReportsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.csv")
	if err := os.WriteFile(path, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(sheet+"Extra,,,\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchSeesFileRecreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.csv")
	if err := os.WriteFile(path, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	go func() {
		_ = Watch(ctx, path, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	// Well past the settle delay, so the removal is handled on its own.
	select {
	case <-changed:
		t.Fatal("removal alone should not report a change")
	case <-time.After(time.Second):
	}

	if err := os.WriteFile(path, []byte(sheet), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification after the file was recreated")
	}
}

func TestWatchMissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), func() {})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
