package web

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"dragcal/internal/drag"
	appLog "dragcal/internal/log"
	"dragcal/internal/store"
	"dragcal/internal/surface"
)

var (
	errSessionNotFound = errors.New("drag session not found")
	// errSessionClosed answers requests for a session that was already
	// released or cancelled.
	errSessionClosed = errors.New("drag session closed")
)

// dragSession is one browser drag. The browser posts pointer events, the
// dispatcher plays the role of the page window for the drag core.
type dragSession struct {
	id   string
	kind drag.Kind
	key  string

	// mu runs the phases of one drag strictly in order.
	mu     sync.Mutex
	window *drag.Dispatcher
	sess   *drag.Session

	lastSeen time.Time // guarded by Server.sessionsMu
}

type pointerDTO struct {
	Button drag.Button `json:"button"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Time   *time.Time  `json:"time,omitempty"`
}

type dragStartRequest struct {
	Kind    string     `json:"kind"`
	Key     string     `json:"key"`
	Pointer pointerDTO `json:"pointer"`
	Surface *drag.Data `json:"surface"`
}

type dragEventRequest struct {
	Pointer pointerDTO `json:"pointer"`
	Surface *drag.Data `json:"surface"`
}

type rangeDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type dragResponse struct {
	ID      string    `json:"id"`
	Kind    drag.Kind `json:"kind"`
	Key     string    `json:"key"`
	Active  bool      `json:"active"`
	Current *rangeDTO `json:"current,omitempty"`
	Event   *eventDTO `json:"event,omitempty"`
}

func (s *Server) pointerEvent(p pointerDTO, data *drag.Data) *drag.PointerEvent {
	ev := &drag.PointerEvent{
		Button:  p.Button,
		X:       p.X,
		Y:       p.Y,
		Time:    s.now(),
		Surface: data,
	}
	if p.Time != nil {
		ev.Time = *p.Time
	}
	return ev
}

func (ds *dragSession) response() dragResponse {
	resp := dragResponse{
		ID:     ds.id,
		Kind:   ds.kind,
		Key:    ds.key,
		Active: !ds.sess.Done(),
	}
	if cur := ds.sess.Draggable().CurrentValue(); !cur.IsZero() {
		resp.Current = &rangeDTO{Start: cur.Start(), End: cur.End()}
	}
	return resp
}

// handleDragStart is pointer-down on an event.
//
// POST /api/drag {"kind":"move_event_day","key":"...","pointer":{...},"surface":{...}}
func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	var req dragStartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDragError(w, err)
		return
	}

	kind, err := drag.ParseKind(req.Kind)
	if err != nil {
		writeDragError(w, err)
		return
	}
	ev, err := s.store.Get(req.Key)
	if err != nil {
		writeDragError(w, err)
		return
	}
	d, err := drag.New(kind, ev, s.store.Record)
	if err != nil {
		writeDragError(w, err)
		return
	}

	s.sweep()

	ds := &dragSession{
		id:     uuid.NewString(),
		kind:   kind,
		key:    ev.Key,
		window: drag.NewDispatcher(),
	}
	sess, err := drag.Start(d, s.pointerEvent(req.Pointer, req.Surface), logObserver{id: ds.id}, surface.Payload{}, ds.window)
	if err != nil {
		writeDragError(w, err)
		return
	}
	if sess == nil {
		appLog.Debug("drag ignored", "button", req.Pointer.Button.String(), "key", req.Key)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	ds.sess = sess

	s.sessionsMu.Lock()
	ds.lastSeen = s.now()
	s.sessions[ds.id] = ds
	s.sessionsMu.Unlock()

	writeJSON(w, http.StatusCreated, ds.response())
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, drag.PointerMove)
}

func (s *Server) handleDragRelease(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, drag.PointerRelease)
}

// dispatch feeds one pointer event of type t to the session's window.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, t drag.Type) {
	ds, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeDragError(w, err)
		return
	}

	var req dragEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDragError(w, err)
		return
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.sess.Done() {
		s.remove(ds.id)
		writeDragError(w, errSessionClosed)
		return
	}
	err = ds.window.Dispatch(t, s.pointerEvent(req.Pointer, req.Surface))
	if ds.sess.Done() {
		s.remove(ds.id)
	}
	if err != nil {
		appLog.Warn("drag phase failed", "id", ds.id, "type", string(t), "err", err)
		writeDragError(w, err)
		return
	}

	resp := ds.response()
	if t == drag.PointerRelease {
		if ev, err := s.store.Get(ds.key); err == nil {
			dto := toEventDTO(ev)
			resp.Event = &dto
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDragCancel ends a drag without committing it.
func (s *Server) handleDragCancel(w http.ResponseWriter, r *http.Request) {
	ds, err := s.lookup(r.PathValue("id"))
	if err != nil {
		writeDragError(w, err)
		return
	}
	ds.mu.Lock()
	ds.sess.Cancel()
	ds.mu.Unlock()
	s.remove(ds.id)

	appLog.Debug("drag cancelled", "id", ds.id, "key", ds.key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(id string) (*dragSession, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	ds, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	ds.lastSeen = s.now()
	return ds, nil
}

func (s *Server) remove(id string) {
	s.sessionsMu.Lock()
	delete(s.sessions, id)
	s.sessionsMu.Unlock()
}

// sweep cancels sessions the browser abandoned, e.g. a tab closed mid-drag.
func (s *Server) sweep() {
	cutoff := s.now().Add(-s.sessionTTL)

	var stale []*dragSession
	s.sessionsMu.Lock()
	for id, ds := range s.sessions {
		if ds.lastSeen.Before(cutoff) {
			stale = append(stale, ds)
			delete(s.sessions, id)
		}
	}
	s.sessionsMu.Unlock()

	for _, ds := range stale {
		ds.mu.Lock()
		ds.sess.Cancel()
		ds.mu.Unlock()
		appLog.Info("drag session expired", "id", ds.id, "key", ds.key)
	}
}

// ActiveDrags is the number of open drag sessions.
func (s *Server) ActiveDrags() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

func writeDragError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, drag.ErrUnknownKind):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, errSessionNotFound),
		errors.Is(err, errSessionClosed):
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}

// logObserver traces the drag lifecycle at debug level.
type logObserver struct {
	id string
}

func (o logObserver) log(phase string, ctx drag.Context) {
	kv := []any{"id", o.id, "kind", string(ctx.Draggable.Kind())}
	if cur := ctx.Draggable.CurrentValue(); !cur.IsZero() {
		kv = append(kv, "current", cur.String())
	}
	appLog.Debug("drag "+phase, kv...)
}

func (o logObserver) OnDragStart(ctx drag.Context)  { o.log("start", ctx) }
func (o logObserver) OnDragUpdate(ctx drag.Context) { o.log("update", ctx) }
func (o logObserver) OnDragEnd(ctx drag.Context)    { o.log("end", ctx) }
