package cmd

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/carefinder/cmd/web/components"
	"github.com/rubiojr/carefinder/cmd/web/components/types"
	"github.com/rubiojr/carefinder/pkg/api"
	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/query"
	"github.com/rubiojr/carefinder/pkg/realtime"
	"github.com/rubiojr/carefinder/pkg/search"
	"github.com/rubiojr/carefinder/pkg/version"
	"github.com/rubiojr/carefinder/pkg/viewmode"
	"github.com/urfave/cli/v3"
)

//go:embed web/static/*
var staticFS embed.FS

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start web server with both API endpoints and HTML interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (defaults to web.port from the config)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (defaults to web.host from the config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	data          api.DatasetProvider
	hub           *realtime.Hub
	pageSize      int
	topCategories int
	apiServer     *api.Server
}

// NewWebServer builds the HTML and API handlers over data.
func NewWebServer(data api.DatasetProvider, hub *realtime.Hub, cfg *config.Config) *WebServer {
	opts := api.Options{PageSize: cfg.PageSize, TopCategories: cfg.TopCategories}
	return &WebServer{
		data:          data,
		hub:           hub,
		pageSize:      cfg.PageSize,
		topCategories: cfg.TopCategories,
		apiServer:     api.NewServer(data, hub, opts),
	}
}

// Handler returns the complete HTTP handler. Everything is gzip compressed
// except the events websocket, which must be able to hijack the connection.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	s.apiServer.RegisterRoutes(mux)

	// Web UI routes
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/provider", s.handleProvider)

	// Static assets
	mux.HandleFunc("/static/", s.handleStatic)

	root := http.NewServeMux()
	root.HandleFunc("GET /api/events", s.apiServer.HandleEvents)
	root.Handle("/", gzhttp.GzipHandler(mux))

	return api.CorsMiddleware(root)
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, configPath, host, port string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := realtime.NewHub(16)
	d, err := startDaemon(ctx, configPath, hub)
	if err != nil {
		return err
	}
	defer d.close()

	cfg := d.currentConfig()
	if host == "" {
		host = cfg.Web.Host
	}
	if port == "" {
		port = strconv.Itoa(cfg.Web.Port)
	}

	webServer := NewWebServer(d.wh, hub, cfg)
	addr := net.JoinHostPort(host, port)
	server := &http.Server{
		Addr:              addr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	l := log.ForService("web")
	waitCtx, stopWait := context.WithCancel(ctx)
	defer stopWait()
	failed := make(chan error, 1)

	// Start server in goroutine
	go func() {
		l.Infof("Starting web server on http://%s", addr)
		l.Infof("Available endpoints:")
		l.Infof("  Web UI:")
		l.Infof("    GET / - Search form with quick category chips")
		l.Infof("    GET /search?what=&where= - Provider results table")
		l.Infof("  API:")
		l.Infof("    GET /api/providers - All provider records")
		l.Infof("    GET /api/search - Search, filter, sort and paginate providers")
		l.Infof("    GET /api/categories - Category counts and quick chips")
		l.Infof("    GET /api/export - CSV export of the matching providers")
		l.Infof("    GET /api/events - Websocket with dataset refresh events")
		l.Infof("    GET /health - Health check")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
			stopWait()
		}
	}()

	d.wait(waitCtx)

	select {
	case err := <-failed:
		return fmt.Errorf("web server: %w", err)
	default:
	}

	l.Infof("Shutting down web server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// Web UI Handlers

// handleHome serves the entry view, or the results view when what/where are
// present.
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowGet(w, r) {
		return
	}
	s.renderPage(w, r, false)
}

// handleSearch always serves the results view. No parameters means every
// provider.
func (s *WebServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	s.renderPage(w, r, true)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func (s *WebServer) renderPage(w http.ResponseWriter, r *http.Request, results bool) {
	data, status := s.buildPage(r.URL.Query(), results)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := components.Page(data).Render(r.Context(), w); err != nil {
		log.ForService("web").Errorf("rendering page: %v", err)
	}
}

// buildPage drives a view-mode controller from the request parameters and
// turns the resulting search into page data.
func (s *WebServer) buildPage(values url.Values, results bool) (types.PageData, int) {
	status := http.StatusOK
	ds := s.data.Current()
	records := ds.Providers()

	params := viewmode.ParamsFromValues(values).Trimmed()
	if params.Empty() {
		params.What = strings.TrimSpace(values.Get("q"))
	}

	data := types.PageData{
		Title:         "carefinder",
		Version:       version.Version,
		Mode:          "entry",
		ProviderCount: len(records),
		SyncedLabel:   ds.SyncedLabel(),
		FromSnapshot:  ds.FromSnapshot,
	}

	parsed, err := search.ParseSearchParams(values)
	if err != nil {
		data.Error = formatSearchError(err)
		status = http.StatusBadRequest
		parsed = search.DefaultQueryState()
	}

	pageSize := s.pageSize
	if values.Has("page_size") && parsed.PageSize > 0 {
		pageSize = parsed.PageSize
	}
	ctrl := viewmode.New(params, pageSize)
	if results && ctrl.Mode() == viewmode.Entry {
		ctrl.BrowseAll()
	}

	form := ctrl.Form()
	data.Form = types.Form{What: form.What, Where: form.Where, Disabled: ctrl.InputsDisabled()}
	data.Chips = chipLinks(records, s.topCategories, ctrl.Params())

	if ctrl.Mode() != viewmode.Results {
		return data, status
	}
	data.Mode = "results"

	for id, value := range parsed.ColumnFilters {
		if err := ctrl.SetColumnFilter(id, value); err != nil {
			data.Error = formatSearchError(err)
			status = http.StatusBadRequest
		}
	}
	if values.Has("sort") && err == nil {
		if err := ctrl.SetSort(parsed.Sort); err != nil {
			data.Error = formatSearchError(err)
			status = http.StatusBadRequest
		}
	}
	if values.Has("columns") && err == nil {
		if err := ctrl.SetVisibleColumns(parsed.VisibleColumns); err != nil {
			data.Error = formatSearchError(err)
			status = http.StatusBadRequest
		}
	}
	ctrl.SetPage(parsed.PageIndex)

	state := ctrl.State()
	res, err := search.NewSearchService(ds).Search(state)
	if err != nil {
		data.Error = formatSearchError(err)
		status = http.StatusBadRequest
		state = search.DefaultQueryState()
		state.PageSize = pageSize
		if res, err = search.NewSearchService(ds).Search(state); err != nil {
			data.Mode = "entry"
			return data, http.StatusInternalServerError
		}
	}
	data.Results = buildResults(ctrl.Params(), res, records)
	data.Title = res.Heading + " - carefinder"
	return data, status
}

func chipLinks(records []provider.Provider, top int, current viewmode.Params) []types.Link {
	labels := query.QuickChips(records, top)
	links := make([]types.Link, len(labels))
	for i, label := range labels {
		p := viewmode.Params{What: label}
		links[i] = types.Link{
			Label:  label,
			Href:   p.Href(),
			Active: current == p,
		}
	}
	return links
}

// resultsHref links to the results page for params and state. what/where
// carry the query, so the state's own q parameter is dropped.
func resultsHref(params viewmode.Params, state search.QueryState) string {
	v := stateValues(params, state)
	if enc := v.Encode(); enc != "" {
		return "/search?" + enc
	}
	return "/search"
}

func stateValues(params viewmode.Params, state search.QueryState) url.Values {
	v := params.Values()
	for k, vals := range state.Encode() {
		if k == "q" {
			continue
		}
		v[k] = vals
	}
	return v
}

func buildResults(params viewmode.Params, res *search.SearchResults, records []provider.Provider) *types.Results {
	state := res.State
	page := res.Page

	out := &types.Results{
		Heading: res.Heading,
		Matched: res.Matched,
		Total:   res.Total,
		Rows:    make([]types.Row, 0, len(page.Items)),
	}

	exportState := state.WithPage(0)
	exportValues := stateValues(params, exportState)
	exportValues.Del("page_size")
	out.ExportHref = "/api/export"
	if enc := exportValues.Encode(); enc != "" {
		out.ExportHref += "?" + enc
	}

	cleared := state.WithPage(0)
	cleared.ColumnFilters = map[columns.ID]string{}
	out.ClearHref = resultsHref(params, cleared)

	for k, vals := range stateValues(params, cleared.WithPage(0)) {
		for _, v := range vals {
			out.Hidden = append(out.Hidden, types.Hidden{Name: k, Value: v})
		}
	}

	cols := make([]columns.Column, 0, len(res.Columns))
	for _, id := range res.Columns {
		col, err := columns.Lookup(string(id))
		if err != nil {
			continue
		}
		cols = append(cols, col)
	}

	for _, col := range cols {
		hd := types.Header{
			ID:       string(col.ID),
			Label:    col.Header,
			Sortable: col.Sortable(),
			Sorted:   res.Sort.Column == col.ID,
			Desc:     res.Sort.Column == col.ID && res.Sort.Desc,
		}
		if hd.Sortable {
			next := state.WithPage(0)
			if hd.Sorted {
				next.Sort = columns.Sort{Column: col.ID, Desc: !res.Sort.Desc}
			} else {
				next.Sort = columns.Sort{Column: col.ID, Desc: col.Kind == columns.KindRating}
			}
			hd.Href = resultsHref(params, next)
		}
		out.Headers = append(out.Headers, hd)

		if col.Filterable() {
			out.Filters = append(out.Filters, types.FilterInput{
				Name:  search.FilterParamPrefix + string(col.ID),
				Label: col.Header,
				Value: state.ColumnFilters[col.ID],
			})
		}
	}

	positions := make(map[provider.Provider]int, len(records))
	for i, p := range records {
		if _, seen := positions[p]; !seen {
			positions[p] = i
		}
	}
	for _, p := range page.Items {
		row := types.Row{Cells: make([]types.Cell, len(cols))}
		for i, col := range cols {
			row.Cells[i] = cellFor(col, p)
			if col.Field == provider.FieldProviderName {
				if pos, ok := positions[p]; ok {
					row.Cells[i].Href = detailHref(params, state, pos)
				}
			}
		}
		out.Rows = append(out.Rows, row)
	}

	columnPicker(out, params, state, cols)

	out.Pager = types.Pager{
		Page:      page.PageIndex + 1,
		PageCount: page.PageCount,
		First:     page.First(),
		Last:      page.Last(),
	}
	if page.CanPrevious {
		out.Pager.PrevHref = resultsHref(params, state.WithPage(page.PageIndex-1))
	}
	if page.CanNext {
		out.Pager.NextHref = resultsHref(params, state.WithPage(page.PageIndex+1))
	}
	return out
}

// columnPicker lists the visible columns in order, then the hidden ones in
// table order. Submitting the picker replaces the columns parameter.
func columnPicker(out *types.Results, params viewmode.Params, state search.QueryState, visible []columns.Column) {
	shown := make(map[columns.ID]bool, len(visible))
	for _, col := range visible {
		shown[col.ID] = true
		out.Columns = append(out.Columns, types.ColumnOption{ID: string(col.ID), Label: columnLabel(col), Checked: true})
	}
	for _, col := range columns.All() {
		if !shown[col.ID] {
			out.Columns = append(out.Columns, types.ColumnOption{ID: string(col.ID), Label: columnLabel(col)})
		}
	}

	reset := state.WithPage(0)
	reset.VisibleColumns = columns.DefaultVisible()
	out.ColumnsResetHref = resultsHref(params, reset)
	for k, vals := range stateValues(params, reset) {
		for _, v := range vals {
			out.ColumnsHidden = append(out.ColumnsHidden, types.Hidden{Name: k, Value: v})
		}
	}
}

func columnLabel(col columns.Column) string {
	if col.ID == columns.Actions {
		return "Links"
	}
	if col.Field != "" && col.Header != col.Field.Header() {
		return col.Header + " (" + col.Field.Header() + ")"
	}
	return col.Header
}

// detailHref links to one provider. The results state rides along so the
// detail page can link back to the same page of results.
func detailHref(params viewmode.Params, state search.QueryState, pos int) string {
	v := stateValues(params, state)
	v.Set("i", strconv.Itoa(pos))
	return "/provider?" + v.Encode()
}

// handleProvider shows every field of the provider at position i of the
// current dataset.
func (s *WebServer) handleProvider(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	data, status := s.buildDetailPage(r.URL.Query())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := components.Page(data).Render(r.Context(), w); err != nil {
		log.ForService("web").Errorf("rendering provider page: %v", err)
	}
}

func (s *WebServer) buildDetailPage(values url.Values) (types.PageData, int) {
	ds := s.data.Current()
	records := ds.Providers()

	back := url.Values{}
	for k, vals := range values {
		if k != "i" {
			back[k] = vals
		}
	}
	backHref := "/search"
	if enc := back.Encode(); enc != "" {
		backHref += "?" + enc
	}

	data := types.PageData{
		Title:         "Provider not found - carefinder",
		Version:       version.Version,
		Mode:          "detail",
		ProviderCount: len(records),
		SyncedLabel:   ds.SyncedLabel(),
		FromSnapshot:  ds.FromSnapshot,
	}

	pos, err := strconv.Atoi(values.Get("i"))
	if err != nil || pos < 0 || pos >= len(records) {
		data.Error = "That provider is not in the directory. It may have been removed in the last sync."
		data.Detail = &types.Detail{BackHref: backHref}
		return data, http.StatusNotFound
	}

	p := records[pos]
	data.Detail = buildDetail(p, backHref)
	data.Title = data.Detail.Name + " - carefinder"
	return data, http.StatusOK
}

// buildDetail renders every record field in sheet order, each through its
// column so flags, ratings and categories look as they do in the table.
func buildDetail(p provider.Provider, backHref string) *types.Detail {
	d := &types.Detail{
		Name:     p.ProviderName,
		BackHref: backHref,
		Fields:   make([]types.DetailField, 0, len(provider.Fields)),
		Links:    cellFor(columns.MustLookup(columns.Actions), p),
	}
	if d.Name == "" {
		d.Name = "Unnamed provider"
	}
	for _, f := range provider.Fields {
		col := columns.MustLookup(columns.ID(f))
		c := cellFor(col, p)
		switch col.Kind {
		case columns.KindCategoryList:
			c.Items, c.Extra = p.CategoryList(), 0
		case columns.KindRating:
			// The sheet's rating text often carries a review count.
			c = types.Cell{Kind: columns.KindText.String(), Text: col.Value(p)}
		}
		d.Fields = append(d.Fields, types.DetailField{Label: f.Header(), Cell: c})
	}
	return d
}

// cellFor renders one provider cell according to the column kind.
func cellFor(col columns.Column, p provider.Provider) types.Cell {
	c := types.Cell{Kind: col.Kind.String()}
	switch col.Kind {
	case columns.KindCategoryList:
		c.Items, c.Extra = columns.CategoryPreview(p, 3)
	case columns.KindRating:
		if r, ok := p.Rating(); ok {
			c.Rated = true
			c.Rating = strconv.FormatFloat(r, 'f', 1, 64)
		}
	case columns.KindFlag:
		if col.ID == columns.Access {
			for _, a := range p.Access() {
				c.Badges = append(c.Badges, types.Badge{Label: a.Label, Tone: a.Tone.String()})
			}
			break
		}
		value := strings.TrimSpace(col.Value(p))
		label := value
		if label == "" {
			label = "Unknown"
		}
		c.Badges = []types.Badge{{Label: label, Tone: provider.ClassifyFlag(value).String()}}
	case columns.KindActionLinks:
		links := columns.ActionLinks(p)
		c.Website = websiteHref(links.Website)
		c.Phone = links.Phone
		c.Call = links.Call
		c.Maps = links.Maps
	default:
		c.Text = col.Value(p)
	}
	return c
}

// websiteHref adds a scheme to bare host names so the link is not resolved
// relative to the site.
func websiteHref(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if strings.HasPrefix(site, "http://") || strings.HasPrefix(site, "https://") {
		return site
	}
	if strings.Contains(site, ":") {
		// Other schemes are left for the sanitizer to reject.
		return site
	}
	return "https://" + site
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// Remove /static/ prefix and add web/static/ prefix for embedded filesystem
	filePath := "web/static/" + strings.TrimPrefix(path, "/static/")

	// Read file from embedded filesystem
	content, err := staticFS.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Set appropriate content type
	if strings.HasSuffix(path, ".css") {
		w.Header().Set("Content-Type", "text/css")
	} else if strings.HasSuffix(path, ".js") {
		w.Header().Set("Content-Type", "application/javascript")
	} else if strings.HasSuffix(path, ".ico") {
		w.Header().Set("Content-Type", "image/x-icon")
	}

	// Set cache headers for static assets
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		log.ForService("web").Errorf("writing static content: %v", err)
	}
}

func formatSearchError(err error) string {
	msg := err.Error()
	if errors.Is(err, search.ErrInvalidParam) || errors.Is(err, columns.ErrUnknownColumn) {
		return "Some search options were not understood and were ignored: " + msg
	}
	return "Search failed: " + msg
}
