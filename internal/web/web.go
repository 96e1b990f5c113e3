package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"dragcal/internal/config"
	"dragcal/internal/ics"
	appLog "dragcal/internal/log"
	"dragcal/internal/model"
	"dragcal/internal/store"
	"dragcal/internal/timerange"
)

// Refresher triggers an out-of-schedule feed refresh; *refresh.Scheduler
// implements it.
type Refresher interface {
	RunNow(ctx context.Context) (bool, error)
}

// Server is the drag host: it serves the event store and runs drag
// sessions posted by the browser.
type Server struct {
	cfg   *config.Config
	store *store.Store
	loc   *time.Location
	mux   *http.ServeMux

	refresher Refresher

	sessionsMu sync.Mutex
	sessions   map[string]*dragSession
	sessionTTL time.Duration

	now func() time.Time
}

// NewServer constructs a new Server over st.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:        cfg,
		store:      st,
		loc:        cfg.Location(),
		mux:        http.NewServeMux(),
		sessions:   make(map[string]*dragSession),
		sessionTTL: 2 * time.Minute,
		now:        time.Now,
	}
	s.registerRoutes()
	return s
}

// SetRefresher enables POST /api/refresh.
func (s *Server) SetRefresher(r Refresher) {
	s.refresher = r
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="dragcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/changes", s.handleChanges)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)

	s.mux.HandleFunc("POST /api/drag", s.handleDragStart)
	s.mux.HandleFunc("POST /api/drag/{id}/move", s.handleDragMove)
	s.mux.HandleFunc("POST /api/drag/{id}/release", s.handleDragRelease)
	s.mux.HandleFunc("DELETE /api/drag/{id}", s.handleDragCancel)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events          []eventDTO `json:"events"`
	DisplayTimeZone string     `json:"display_timezone"`
	WeekStart       string     `json:"week_start"`
	DayStart        string     `json:"day_start"`
	DayEnd          string     `json:"day_end"`
}

// eventDTO is a JSON-friendly view of a store event.
type eventDTO struct {
	InstanceKey string     `json:"instance_key"`
	SourceID    string     `json:"source_id"`
	UID         string     `json:"uid"`
	Recurrence  *time.Time `json:"recurrence_id,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	AllDay      bool       `json:"all_day"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
}

func toEventDTO(ev *model.Event) eventDTO {
	return valuesDTO(ev.Key, ev.Recurrence, ev.Values())
}

func valuesDTO(key string, recurrence time.Time, v model.Values) eventDTO {
	dto := eventDTO{
		InstanceKey: key,
		SourceID:    v.SourceID,
		UID:         v.UID,
		Summary:     v.Summary,
		Description: v.Description,
		Location:    v.Location,
		AllDay:      v.AllDay,
		Start:       v.Start,
		End:         v.End,
	}
	if !recurrence.IsZero() {
		dto.Recurrence = &recurrence
	}
	return dto
}

// handleEvents lists the store.
//
// GET /api/events?from=2024-01-01&to=2024-01-08
//   - from, to: optional window in the display timezone; events that
//     overlap it are returned.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var window timerange.Range
	q := r.URL.Query()
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		rg, err := timerange.Parse(from, to, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		window = rg
	}

	events := s.store.List()
	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		if !window.IsZero() && !overlaps(ev.Range(), window) {
			continue
		}
		dtos = append(dtos, toEventDTO(ev))
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:          dtos,
		DisplayTimeZone: s.loc.String(),
		WeekStart:       s.cfg.WeekStart,
		DayStart:        s.cfg.DayStart,
		DayEnd:          s.cfg.DayEnd,
	})
}

func overlaps(a, b timerange.Range) bool {
	if a.Length() == 0 {
		return b.Contains(a.Start())
	}
	return a.Start().Before(b.End()) && b.Start().Before(a.End())
}

type changeDTO struct {
	Key    string    `json:"key"`
	Before eventDTO  `json:"before"`
	After  eventDTO  `json:"after"`
	At     time.Time `json:"at"`
}

func (s *Server) handleChanges(w http.ResponseWriter, _ *http.Request) {
	changes := s.store.Changes()
	out := make([]changeDTO, 0, len(changes))
	for _, c := range changes {
		out = append(out, changeDTO{
			Key:    c.Key,
			Before: valuesDTO(c.Key, time.Time{}, c.Before),
			After:  valuesDTO(c.Key, time.Time{}, c.After),
			At:     c.At,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusNotImplemented, "refresh not configured")
		return
	}
	ran, err := s.refresher.RunNow(r.Context())
	switch {
	case err != nil:
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case !ran:
		writeError(w, http.StatusConflict, "refresh already running")
	default:
		writeJSON(w, http.StatusOK, map[string]int{"events": s.store.Len()})
	}
}

// handleCalendar exports the store, drag results included.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	body := ics.Encode(s.store.List(), s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dragcal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
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

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

var errBadRequest = errors.New("bad request body")
