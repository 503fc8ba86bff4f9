package cmd

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/search"
	"github.com/rubiojr/carefinder/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

type staticData struct {
	ds *warehouse.Dataset
}

func (s staticData) Current() *warehouse.Dataset { return s.ds }

var webTestProviders = []provider.Provider{
	{
		ProviderName:         "Boston Telehealth Clinic",
		WebsiteURL:           "bostonclinic.example.org",
		Address:              "1 Main St, Boston, MA",
		Categories:           "Primary Care, Counseling, Pediatrics, Nutrition",
		Telehealth:           "Y",
		PhoneNumber:          "(617) 555-0100",
		CustomerReviewRating: "4.2",
	},
	{
		ProviderName:         "Cambridge Mental Health",
		Address:              "2 Elm St, Cambridge, MA",
		Categories:           "Mental Health, Counseling",
		Telehealth:           "N",
		PhoneNumber:          "N/A",
		CustomerReviewRating: "4.8 stars",
	},
	{
		ProviderName:     "Worcester Family Practice",
		WebsiteURL:       "javascript:alert(1)",
		OrganizationType: "<script>alert('x')</script>",
		Address:          "3 Oak St, Worcester, MA",
		Categories:       "Primary Care",
	},
}

func setupTestWebServer(t *testing.T) http.Handler {
	t.Helper()
	cfg, err := config.LoadConfig(t.TempDir() + "/missing.toml")
	if err != nil {
		t.Fatal(err)
	}
	cfg.PageSize = 2
	cfg.TopCategories = 3

	data := staticData{ds: &warehouse.Dataset{
		Records:  webTestProviders,
		Source:   "file",
		SyncedAt: time.Date(2024, 3, 5, 14, 7, 0, 0, time.Local),
	}}
	return NewWebServer(data, nil, cfg).Handler()
}

func getPage(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code, w.Body.String()
}

func TestWebHomeShowsEntryView(t *testing.T) {
	h := setupTestWebServer(t)
	code, body := getPage(t, h, "/")

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	for _, want := range []string{
		"Find a provider",
		"3 providers • Last synced Mar 5, 2024, 2:07 PM",
		`href="/search?what=Primary+Care"`,
		`href="/search?what=Telehealth"`,
		`href="/search"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("entry page missing %q", want)
		}
	}
	if strings.Contains(body, "<table") {
		t.Error("entry page should not render the results table")
	}
}

func TestWebHomeWithParamsShowsResults(t *testing.T) {
	h := setupTestWebServer(t)
	code, body := getPage(t, h, "/?what=telehealth&where=boston")

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	for _, want := range []string{
		"Results for telehealth boston",
		"Boston Telehealth Clinic",
		`href="tel:6175550100"`,
		`href="https://bostonclinic.example.org"`,
		`<span class="more">+1</span>`,
		`value="telehealth"`,
		`value="boston"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("results page missing %q", want)
		}
	}
	if strings.Contains(body, "Cambridge Mental Health") {
		t.Error("non matching provider rendered")
	}
}

func TestWebSearchShowsAllProviders(t *testing.T) {
	h := setupTestWebServer(t)
	code, body := getPage(t, h, "/search")

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if !strings.Contains(body, "Showing all providers") {
		t.Error("missing show-all heading")
	}
	// Best rated first, two per page.
	first := strings.Index(body, "Cambridge Mental Health")
	second := strings.Index(body, "Boston Telehealth Clinic")
	if first < 0 || second < 0 || first > second {
		t.Errorf("unexpected order, cambridge at %d, boston at %d", first, second)
	}
	if strings.Contains(body, "Worcester Family Practice") {
		t.Error("unrated provider should be on page 2")
	}
	if !strings.Contains(body, "Page 1 of 2") {
		t.Error("missing pager position")
	}
	if !strings.Contains(body, `href="/search?page=2&amp;page_size=2"`) {
		t.Error("missing next page link")
	}

	_, body = getPage(t, h, "/search?page=7&page_size=2")
	if !strings.Contains(body, "Page 2 of 2") || !strings.Contains(body, "Worcester Family Practice") {
		t.Error("out of range page should clamp to the last page")
	}
}

func TestWebSearchNoMatches(t *testing.T) {
	h := setupTestWebServer(t)
	code, body := getPage(t, h, "/search?what=dermatology&where=alaska")

	if code != http.StatusOK {
		t.Fatalf("no matches is not an error, got %d", code)
	}
	if !strings.Contains(body, "Results for dermatology alaska") || !strings.Contains(body, "No providers match") {
		t.Error("missing empty state")
	}
}

func TestWebColumnFilter(t *testing.T) {
	h := setupTestWebServer(t)
	_, body := getPage(t, h, "/search?filter.categories=mental+health")

	if !strings.Contains(body, "Cambridge Mental Health") {
		t.Error("filtered provider missing")
	}
	if strings.Contains(body, "Boston Telehealth Clinic") {
		t.Error("provider outside the filter rendered")
	}
	if !strings.Contains(body, `name="filter.categories" value="mental health"`) {
		t.Error("filter input should keep its value")
	}
}

func TestWebExportLink(t *testing.T) {
	h := setupTestWebServer(t)
	_, body := getPage(t, h, "/search?what=telehealth&page=1&sort=provider_name:asc")

	if !strings.Contains(body, `href="/api/export?sort=provider_name%3Aasc&amp;what=telehealth"`) {
		t.Errorf("export link should carry the query and sort but not paging")
	}
}

func TestWebSortHeaders(t *testing.T) {
	h := setupTestWebServer(t)
	_, body := getPage(t, h, "/search")

	// Rating is the active sort, so its header flips to ascending.
	if !strings.Contains(body, `aria-sort="descending"><a href="/search?page_size=2&amp;sort=customer_review_rating%3Aasc">Rating`) {
		t.Error("rating header should link to the ascending sort")
	}
	if !strings.Contains(body, `href="/search?page_size=2&amp;sort=provider_name%3Aasc">Provider`) {
		t.Error("provider header should link to an ascending sort")
	}
}

func TestWebInvalidParams(t *testing.T) {
	h := setupTestWebServer(t)
	code, body := getPage(t, h, "/search?sort=bogus")

	if code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", code)
	}
	if !strings.Contains(body, "were not understood") {
		t.Error("missing error message")
	}
	if !strings.Contains(body, "Showing all providers") {
		t.Error("page should still render with defaults")
	}
}

func TestWebEscapesAndSanitizes(t *testing.T) {
	h := setupTestWebServer(t)
	_, body := getPage(t, h, "/search?what=worcester")

	if strings.Contains(body, "<script>alert") {
		t.Error("cell text was not escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("escaped notes missing")
	}
	if strings.Contains(body, `href="javascript:`) {
		t.Error("unsafe link scheme rendered")
	}
}

func TestWebProviderNamesLinkToDetail(t *testing.T) {
	h := setupTestWebServer(t)
	_, body := getPage(t, h, "/search")

	if !strings.Contains(body, `<a href="/provider?i=1&amp;page_size=2">Cambridge Mental Health</a>`) {
		t.Error("provider name should link to its detail page")
	}
}

func TestWebProviderDetail(t *testing.T) {
	h := setupTestWebServer(t)
	code, body := getPage(t, h, "/provider?i=0&what=telehealth")

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	for _, want := range []string{
		"<h1>Boston Telehealth Clinic</h1>",
		"Services offered",
		"Primary Audience",
		"Languages Offered (clinical)",
		"Academic Affiliation",
		"Notes for Indian / South Asian Patients",
		"Availability of Professional Interpreters (Y/N)",
		"Not listed",
		// The table cuts categories at three, the detail lists them all.
		"Nutrition",
		`href="tel:6175550100"`,
		`href="/search?what=telehealth"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("detail page missing %q", want)
		}
	}
}

func TestWebProviderDetailEscapes(t *testing.T) {
	h := setupTestWebServer(t)
	_, body := getPage(t, h, "/provider?i=2")

	if strings.Contains(body, "<script>alert") || !strings.Contains(body, "&lt;script&gt;") {
		t.Error("detail text was not escaped")
	}
	if strings.Contains(body, `href="javascript:`) {
		t.Error("unsafe link scheme rendered")
	}
}

func TestWebProviderDetailNotFound(t *testing.T) {
	h := setupTestWebServer(t)
	for _, target := range []string{"/provider?i=3", "/provider?i=-1", "/provider?i=boston", "/provider"} {
		code, body := getPage(t, h, target)
		if code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", target, code)
		}
		if !strings.Contains(body, "not in the directory") || !strings.Contains(body, "Back to results") {
			t.Errorf("%s: missing not-found message", target)
		}
	}

	req := httptest.NewRequest("POST", "/provider?i=0", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: expected 405, got %d", w.Code)
	}
}

func TestWebManageColumns(t *testing.T) {
	h := setupTestWebServer(t)
	code, body := getPage(t, h, "/search?columns=provider_name&columns=languages_offered_clinical")

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if !strings.Contains(body, `data-column="languages_offered_clinical"`) {
		t.Error("chosen column not rendered")
	}
	if strings.Contains(body, `data-column="access"`) {
		t.Error("column left out of the choice still rendered")
	}
	if !strings.Contains(body, "Manage columns") {
		t.Error("missing column picker")
	}
	if !strings.Contains(body, `name="columns" value="provider_name" checked>`) {
		t.Error("visible column should be checked")
	}
	if !strings.Contains(body, `name="columns" value="access">`) {
		t.Error("hidden column should be offered unchecked")
	}
	// Links built from the page keep the column choice.
	if !strings.Contains(body, "columns=provider_name%2Clanguages_offered_clinical") {
		t.Error("links should carry the visible columns")
	}

	code, _ = getPage(t, h, "/search?columns=shoe_size")
	if code != http.StatusBadRequest {
		t.Errorf("unknown column: expected 400, got %d", code)
	}
}

func TestColumnPickerHiddenFields(t *testing.T) {
	cfg := &config.Config{PageSize: 10, TopCategories: 5}
	s := NewWebServer(staticData{ds: &warehouse.Dataset{Records: webTestProviders}}, nil, cfg)

	values, _ := url.ParseQuery("what=counseling&columns=rating,provider_name&page=2")
	data, status := s.buildPage(values, false)
	if status != http.StatusOK || data.Results == nil {
		t.Fatalf("status = %d, results = %v", status, data.Results)
	}

	res := data.Results
	if len(res.Headers) != 2 || res.Headers[0].ID != "customer_review_rating" || res.Headers[1].ID != "provider_name" {
		t.Errorf("headers = %+v", res.Headers)
	}
	if res.Columns[0].ID != "customer_review_rating" || !res.Columns[0].Checked || res.Columns[2].Checked {
		t.Errorf("picker should list the visible columns first: %+v", res.Columns)
	}
	hidden := map[string]string{}
	for _, hid := range res.ColumnsHidden {
		hidden[hid.Name] = hid.Value
	}
	if _, ok := hidden["columns"]; ok {
		t.Error("picker must not resubmit the old columns")
	}
	if _, ok := hidden["page"]; ok {
		t.Error("picker should return to the first page")
	}
	if hidden["what"] != "counseling" {
		t.Errorf("picker should keep the query, got %v", hidden)
	}
	if res.ColumnsResetHref != "/search?what=counseling" {
		t.Errorf("ColumnsResetHref = %q", res.ColumnsResetHref)
	}
}

func TestWebStatic(t *testing.T) {
	h := setupTestWebServer(t)

	req := httptest.NewRequest("GET", "/static/style.css", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/css" {
		t.Errorf("Content-Type = %q", ct)
	}

	if code, _ := getPage(t, h, "/static/missing.js"); code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", code)
	}
	if code, _ := getPage(t, h, "/nope"); code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown page, got %d", code)
	}
}

func TestWebGzip(t *testing.T) {
	h := setupTestWebServer(t)
	req := httptest.NewRequest("GET", "/search", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, headers %v", w.Header())
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "Showing all providers") {
		t.Error("decompressed body incomplete")
	}
}

func TestWebMethodNotAllowed(t *testing.T) {
	h := setupTestWebServer(t)
	for _, target := range []string{"/", "/search"} {
		req := httptest.NewRequest("POST", target, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: expected 405, got %d", target, w.Code)
		}
	}
}

func TestWebMountsAPI(t *testing.T) {
	h := setupTestWebServer(t)
	req := httptest.NewRequest("GET", "/api/search?what=cambridge", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestWebsiteHref(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"example.org", "https://example.org"},
		{"http://example.org", "http://example.org"},
		{"https://example.org/x", "https://example.org/x"},
		{"javascript:alert(1)", "javascript:alert(1)"},
	}
	for _, tt := range tests {
		if got := websiteHref(tt.in); got != tt.want {
			t.Errorf("websiteHref(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildPageModes(t *testing.T) {
	cfg := &config.Config{PageSize: 10, TopCategories: 5}
	s := NewWebServer(staticData{ds: &warehouse.Dataset{Records: webTestProviders}}, nil, cfg)

	tests := []struct {
		name    string
		query   string
		results bool
		want    string
	}{
		{"home without params", "", false, "entry"},
		{"home with what", "what=counseling", false, "results"},
		{"home with legacy q", "q=counseling", false, "results"},
		{"search without params", "", true, "results"},
		{"home with blank params", "what=+&where=+", false, "entry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			data, status := s.buildPage(values, tt.results)
			if status != http.StatusOK {
				t.Fatalf("status = %d", status)
			}
			if data.Mode != tt.want {
				t.Errorf("mode = %q, want %q", data.Mode, tt.want)
			}
			if data.Form.Disabled {
				t.Error("inputs should be enabled after load")
			}
		})
	}
}

type queryFlagsResult struct {
	state search.QueryState
	err   error
}

func runWithQueryFlags(t *testing.T, args ...string) (res queryFlagsResult) {
	t.Helper()
	cmd := &cli.Command{
		Name:  "test",
		Flags: queryFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			res.state, res.err = queryStateFromFlags(c)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"test"}, args...)); err != nil {
		t.Fatalf("running command: %v", err)
	}
	return res
}

func TestQueryStateFromFlags(t *testing.T) {
	res := runWithQueryFlags(t,
		"--what", " counseling ",
		"--where", "boston",
		"--category", "Mental Health",
		"--filter", "telehealth=yes",
		"--filter", "Rating=4",
	)
	if res.err != nil {
		t.Fatal(res.err)
	}
	if res.state.GlobalQuery != "counseling boston" {
		t.Errorf("query = %q", res.state.GlobalQuery)
	}
	want := map[columns.ID]string{
		columns.Categories: "Mental Health",
		"telehealth":       "yes",
		columns.Rating:     "4",
	}
	for id, v := range want {
		if res.state.ColumnFilters[id] != v {
			t.Errorf("filter %s = %q, want %q", id, res.state.ColumnFilters[id], v)
		}
	}
}

func TestQueryStateFromFlagsErrors(t *testing.T) {
	if res := runWithQueryFlags(t, "--filter", "no-equals-sign"); res.err == nil {
		t.Error("expected error for malformed filter")
	}
	if res := runWithQueryFlags(t, "--filter", "bogus=1"); res.err == nil {
		t.Error("expected error for unknown column")
	}
}
