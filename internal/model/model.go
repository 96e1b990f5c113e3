package model

import (
	"sync"
	"time"

	"dragcal/internal/timerange"
)

// Values is the full field set of a scheduled event. Update takes a complete
// Values so callers always pass every field, not just the ones they changed.
type Values struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	Summary     string
	Description string
	Location    string

	AllDay bool

	Start time.Time
	End   time.Time
}

// Length is End - Start.
func (v Values) Length() time.Duration {
	return v.End.Sub(v.Start)
}

// Event is a single scheduled event instance owned by the host application.
// Drag strategies hold a reference and mutate it only through Update.
type Event struct {
	mu sync.RWMutex

	// Key uniquely identifies this instance, typically UID plus the original
	// start of a recurring occurrence. It never changes after creation.
	Key string

	// Recurrence is the original start of an expanded recurring instance;
	// zero for standalone events.
	Recurrence time.Time

	values Values
}

// NewEvent creates an event with the given key and initial values.
func NewEvent(key string, v Values) *Event {
	return &Event{Key: key, values: v}
}

// Values returns a copy of the current field values.
func (e *Event) Values() Values {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.values
}

// Update replaces every field and returns the values held before the call.
func (e *Event) Update(v Values) Values {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.values
	e.values = v
	return prev
}

// Range reads the current start/end as a time range.
func (e *Event) Range() timerange.Range {
	v := e.Values()
	r, err := timerange.New(v.Start, v.End)
	if err != nil {
		// An inverted event collapses to its start.
		return timerange.Must(v.Start, v.Start)
	}
	return r
}

func (e *Event) Start() time.Time { return e.Values().Start }

func (e *Event) End() time.Time { return e.Values().End }

// Length is End - Start.
func (e *Event) Length() time.Duration { return e.Values().Length() }
