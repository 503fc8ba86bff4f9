// Package source loads the provider directory from where it is published: a
// sheet exported as CSV over HTTP, or a local CSV file.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/export"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/version"
)

// ErrNoSource is returned by New when neither source_file nor source_url is set.
var ErrNoSource = errors.New("no data source configured")

// Source yields the full provider dataset on every Load.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]provider.Provider, error)
}

// New picks the configured source. A local file wins over a URL.
func New(cfg *config.Config) (Source, error) {
	switch {
	case cfg == nil:
		return nil, ErrNoSource
	case cfg.SourceFile != "":
		return NewFileSource(cfg.SourceFile), nil
	case cfg.SourceURL != "":
		return NewHTTPSource(cfg.SourceURL), nil
	}
	return nil, ErrNoSource
}

// HTTPSource fetches a published CSV, bypassing any HTTP cache.
type HTTPSource struct {
	URL    string
	client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithClient replaces the HTTP client, mostly for tests.
func (s *HTTPSource) WithClient(c *http.Client) *HTTPSource {
	s.client = c
	return s
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Load(ctx context.Context) ([]provider.Provider, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("User-Agent", version.Name+"/"+version.Version)
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetching %s: HTTP %d: %s", s.URL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	records, err := export.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.URL, err)
	}
	return Clean(records), nil
}

// FileSource reads a CSV from disk.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) ([]provider.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening source file: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := export.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	return Clean(records), nil
}

// Clean strips NUL bytes from every field and drops rows with no values at
// all. NUL separates fields in the search haystack so it must never occur
// inside one.
func Clean(records []provider.Provider) []provider.Provider {
	out := make([]provider.Provider, 0, len(records))
	for _, p := range records {
		for _, f := range provider.Fields {
			if v := p.Get(f); strings.ContainsRune(v, 0) {
				p = p.With(f, strings.ReplaceAll(v, "\x00", ""))
			}
		}
		if p.IsEmpty() {
			continue
		}
		out = append(out, p)
	}
	return out
}
