package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"chronos/internal/clock"
	"chronos/internal/config"
	"chronos/internal/convert"
	"chronos/internal/ics"
	appLog "chronos/internal/log"
	"chronos/internal/model"
	"chronos/internal/store"
	"chronos/internal/zone"
)

// maxImportBytes caps POST /api/import bodies.
const maxImportBytes = 1 << 20

// zoneCacheTTL bounds how stale the picker's offset labels may get.
const zoneCacheTTL = time.Hour

// Deps are the components the server drives.
type Deps struct {
	Catalog  *zone.Catalog
	Engine   *convert.Engine
	Book     *store.Book
	Exporter *ics.Exporter
	Clock    clock.Clock
}

// Server provides the local HTTP API and the embedded page.
type Server struct {
	cfg   *config.Config
	debug bool
	mux   *http.ServeMux

	catalog  *zone.Catalog
	engine   *convert.Engine
	book     *store.Book
	exporter *ics.Exporter
	clock    clock.Clock

	// Last instant pushed by the display refresher.
	nowMu sync.RWMutex
	now   time.Time
}

// embeddedStatic contains the single-page UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, deps Deps, debug bool) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	s := &Server{
		cfg:      cfg,
		debug:    debug,
		mux:      http.NewServeMux(),
		catalog:  deps.Catalog,
		engine:   deps.Engine,
		book:     deps.Book,
		exporter: deps.Exporter,
		clock:    deps.Clock,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SetNow records the instant shown by GET /api/now. The display refresher
// calls it on every tick.
func (s *Server) SetNow(t time.Time) {
	s.nowMu.Lock()
	s.now = t
	s.nowMu.Unlock()
}

func (s *Server) currentNow() time.Time {
	s.nowMu.RLock()
	t := s.now
	s.nowMu.RUnlock()
	if t.IsZero() {
		return s.clock.Now()
	}
	return t
}

// StartServer serves s on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "debug", s.debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/zones", s.handleZones)
	s.mux.HandleFunc("GET /api/now", s.handleNow)
	s.mux.HandleFunc("GET /api/convert", s.handleConvert)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("GET /api/events/{id}/ics", s.handleEventICS)
	s.mux.HandleFunc("POST /api/import", s.handleImport)

	// Everything else falls back to the embedded UI.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded page from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown /api/* paths must 404 rather than return HTML.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

type zonesResponse struct {
	Zones   []model.ZoneOption `json:"zones"`
	Default string             `json:"default"`
	BuiltAt time.Time          `json:"built_at"`
}

// handleZones returns the picker options. Offsets are recomputed once the
// cached list is older than zoneCacheTTL.
func (s *Server) handleZones(w http.ResponseWriter, _ *http.Request) {
	if s.clock.Now().Sub(s.catalog.BuiltAt()) >= zoneCacheTTL {
		s.catalog.Refresh()
		appLog.Debug("zone offsets refreshed", "zones", s.catalog.Len())
	}
	writeJSON(w, http.StatusOK, zonesResponse{
		Zones:   s.catalog.List(),
		Default: s.cfg.Timezone,
		BuiltAt: s.catalog.BuiltAt(),
	})
}

type nowResponse struct {
	Timezone string    `json:"timezone"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Offset   string    `json:"offset"`
	Instant  time.Time `json:"instant"`
}

// handleNow reports the refresher's current instant in ?tz (default: the
// configured zone).
func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	tz := s.zoneParam(r, "tz")
	loc, err := s.catalog.Location(tz)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	now := s.currentNow().In(loc)
	writeJSON(w, http.StatusOK, nowResponse{
		Timezone: tz,
		Date:     now.Format(convert.LongDateLayout),
		Time:     now.Format("3:04:05 PM"),
		Offset:   zone.OffsetAt(loc, now),
		Instant:  now,
	})
}

// handleConvert converts an ad-hoc civil time.
//
// GET /api/convert?date=2024-03-10&time=23:30&from=UTC&to=UTC%2B2
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.engine.Convert(q.Get("date"), q.Get("time"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCalendar exports an unsaved civil time as an .ics download.
//
// GET /api/calendar?name=Launch&date=2024-03-10&time=09:00&tz=America/New_York
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	text, err := s.exporter.CalendarText(name, q.Get("date"), q.Get("time"), q.Get("tz"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCalendar(w, name, text)
}

type eventDTO struct {
	model.Event
	DisplayName string                  `json:"displayName"`
	Conversion  *model.ConversionResult `json:"conversion,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

type eventsResponse struct {
	Timezone   string     `json:"timezone"`
	Events     []eventDTO `json:"events"`
	Diagnostic string     `json:"diagnostic,omitempty"`
}

// handleListEvents returns every stored event converted into ?tz. An event
// whose conversion fails carries its own error; the rest still render.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	tz := s.zoneParam(r, "tz")
	if !s.catalog.Contains(tz) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown timezone %q", tz))
		return
	}

	views := s.engine.ConvertAll(s.book.List(), tz)
	dtos := make([]eventDTO, 0, len(views))
	for _, v := range views {
		dto := eventDTO{Event: v.Event, DisplayName: v.Event.DisplayName()}
		if v.Err != nil {
			dto.Error = v.Err.Error()
		} else {
			conv := v.Conversion
			dto.Conversion = &conv
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Timezone:   tz,
		Events:     dtos,
		Diagnostic: s.book.Diagnostic(),
	})
}

// handleCreateEvent validates a draft against the engine before storing
// it, so a stored event always converts.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	dec := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	d.Name = strings.TrimSpace(d.Name)

	if _, _, err := s.engine.Resolve(d.Date, d.Time, d.Zone); err != nil {
		writeDomainError(w, err)
		return
	}

	ev, err := s.book.Add(r.Context(), d)
	if err != nil {
		appLog.Error("event save failed", err)
		writeError(w, http.StatusInternalServerError, "failed to save event")
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.book.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		appLog.Error("event delete failed", err)
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEventICS(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.book.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	text, err := s.exporter.EventText(ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCalendar(w, ev.Name, text)
}

type importResponse struct {
	Imported []model.Event `json:"imported"`
	Skipped  []string      `json:"skipped,omitempty"`
}

// handleImport stores the VEVENTs of an iCalendar body in one save, so a
// failed import stores nothing. Floating times use ?tz (default: the
// configured zone).
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "calendar body too large")
		return
	}

	drafts, err := ics.ParseEvents(body, s.zoneParam(r, "tz"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := importResponse{Imported: []model.Event{}}
	valid := make([]model.Draft, 0, len(drafts))
	for _, d := range drafts {
		if _, _, err := s.engine.Resolve(d.Date, d.Time, d.Zone); err != nil {
			resp.Skipped = append(resp.Skipped, err.Error())
			continue
		}
		valid = append(valid, d)
	}

	imported, err := s.book.AddAll(r.Context(), valid)
	if err != nil {
		appLog.Error("import save failed", err, "events", len(valid))
		writeError(w, http.StatusInternalServerError, "failed to save imported events")
		return
	}
	resp.Imported = imported

	appLog.Info("ics import completed", "imported", len(resp.Imported), "skipped", len(resp.Skipped))
	writeJSON(w, http.StatusOK, resp)
}

// zoneParam returns the named query parameter or the configured zone.
func (s *Server) zoneParam(r *http.Request, key string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return v
	}
	return s.cfg.Timezone
}

func writeCalendar(w http.ResponseWriter, name, text string) {
	w.Header().Set("Content-Type", ics.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ics.FileName(name)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

// writeDomainError maps engine and catalog errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, convert.ErrInvalidCivilTime),
		errors.Is(err, convert.ErrAmbiguousLocalTime),
		errors.Is(err, zone.ErrUnknownZone):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
