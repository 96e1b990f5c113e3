// Package drag turns a stream of pointer events into snapped, clamped
// start/end changes of a scheduled event.
//
// A Draggable interprets one drag session for a specific interaction kind
// (moving along a timeline, moving within a day grid, resizing the end).
// Start wires a Draggable to a Window of pointer notifications and drives it
// through Drag, Move and Drop until the pointer is released.
package drag

import (
	"errors"
	"fmt"
	"time"

	"dragcal/internal/model"
	"dragcal/internal/timerange"
)

// Snap is the grid increment for grid moves and resizes.
const Snap = 15 * time.Minute

var (
	// ErrUnknownKind is returned by New and ParseKind for unrecognized tags.
	ErrUnknownKind = errors.New("drag: unknown draggable kind")

	// ErrNotDragging is returned by Move or Drop when Drag has not run.
	ErrNotDragging = errors.New("drag: no drag in progress")
)

// Kind tags an interaction variant.
type Kind string

const (
	KindTimelineMove Kind = "move_event_timeline"
	KindGridMove     Kind = "move_event_day"
	KindResize       Kind = "resize_event"
)

// ParseKind validates a tag received from the host.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTimelineMove, KindGridMove, KindResize:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// ChangeFunc is invoked once per completed drag, after the event has been
// updated, with the field values it held before the update.
type ChangeFunc func(ev *model.Event, prev model.Values)

// Draggable is one drag session's interpretation of pointer movement.
type Draggable interface {
	Kind() Kind

	// Drag seeds the session from the event's state and the pointer-down event.
	Drag(ev *PointerEvent, d Droppable) error
	// Move recomputes the current value from the initial value and ev.
	Move(ev *PointerEvent, d Droppable) error
	// Drop writes the current value into the event and reports the change.
	Drop(ev *PointerEvent, d Droppable) error

	// CurrentValue is the working range; zero before Drag.
	CurrentValue() timerange.Range
}

// New returns a fresh Draggable of the given kind for event.
func New(kind Kind, event *model.Event, onChange ChangeFunc) (Draggable, error) {
	if event == nil {
		return nil, errors.New("drag: nil event")
	}
	base := session{event: event, onChange: onChange}
	switch kind {
	case KindTimelineMove:
		return &TimelineMove{session: base}, nil
	case KindGridMove:
		return &GridMove{session: base}, nil
	case KindResize:
		return &Resize{session: base}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// session holds the per-drag state shared by every variant. initial is
// frozen at Drag; current is always derived from initial.
type session struct {
	event    *model.Event
	onChange ChangeFunc

	initial  timerange.Range
	current  timerange.Range
	dragging bool
}

func (s *session) begin() {
	s.initial = s.event.Range()
	s.current = s.initial
	s.dragging = true
}

func (s *session) CurrentValue() timerange.Range {
	return s.current
}

// location is the zone surface strings are interpreted in.
func (s *session) location() *time.Location {
	return s.initial.Start().Location()
}

// derive replaces the current value with a copy of initial holding start/end.
func (s *session) derive(start, end time.Time) error {
	next, err := s.initial.CloneWith(timerange.Patch{Start: &start, End: &end})
	if err != nil {
		return err
	}
	s.current = next
	return nil
}

// commit applies the current value to the event. The event is only touched
// once every read has succeeded.
func (s *session) commit() error {
	if !s.dragging {
		return ErrNotDragging
	}
	next := s.event.Values()
	next.Start = s.current.Start()
	next.End = s.current.End()

	prev := s.event.Update(next)
	s.dragging = false
	if s.onChange != nil {
		s.onChange(s.event, prev)
	}
	return nil
}

// dayWindow is the valid time window of a grid day: day+minhour .. day+maxhour.
func dayWindow(data Data, loc *time.Location) (timerange.Range, error) {
	w, err := timerange.Parse(data.Day+" "+data.MinHour, data.Day+" "+data.MaxHour, loc)
	if err != nil {
		return timerange.Range{}, fmt.Errorf("drag: day window: %w", err)
	}
	return w, nil
}

// pointerTime maps percentY linearly onto the day window.
func pointerTime(data Data, loc *time.Location) (time.Time, timerange.Range, error) {
	w, err := dayWindow(data, loc)
	if err != nil {
		return time.Time{}, timerange.Range{}, err
	}
	return w.At(data.PercentY / 100), w, nil
}

// snap floors t to the absolute Snap grid (Unix milliseconds mod 900000 == 0).
func snap(t time.Time) time.Time {
	return t.Truncate(Snap)
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}
