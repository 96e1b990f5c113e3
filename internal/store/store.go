// Package store keeps the scheduled events the web host serves and the
// journal of changes made by completed drags.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	appLog "dragcal/internal/log"
	"dragcal/internal/model"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("store: event not found")

const defaultJournalSize = 500

// Change is one completed drag.
type Change struct {
	Key    string       `json:"key"`
	Before model.Values `json:"before"`
	After  model.Values `json:"after"`
	At     time.Time    `json:"at"`
}

// Store is an in-memory event set keyed by instance key.
//
// Events moved by a drag are remembered as local overrides: a later Replace
// that re-delivers the same instance keeps the dragged start/end instead of
// the feed's.
type Store struct {
	mu        sync.RWMutex
	events    map[string]*model.Event
	overrides map[string]model.Values
	journal   []Change
	maxJrnl   int
	now       func() time.Time
}

// New creates an empty store. journalSize bounds Changes; zero means 500.
func New(journalSize int) *Store {
	if journalSize <= 0 {
		journalSize = defaultJournalSize
	}
	return &Store{
		events:    make(map[string]*model.Event),
		overrides: make(map[string]model.Values),
		maxJrnl:   journalSize,
		now:       time.Now,
	}
}

// Put adds or replaces a single event.
func (s *Store) Put(ev *model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.Key] = ev
}

// Replace swaps the whole event set, for example after a feed refresh.
// Pending overrides are applied to instances that are still present;
// overrides for instances that disappeared are dropped.
func (s *Store) Replace(events []*model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*model.Event, len(events))
	for _, ev := range events {
		if ov, ok := s.overrides[ev.Key]; ok {
			v := ev.Values()
			v.Start, v.End = ov.Start, ov.End
			ev.Update(v)
		}
		next[ev.Key] = ev
	}
	for key := range s.overrides {
		if _, ok := next[key]; !ok {
			delete(s.overrides, key)
		}
	}
	s.events = next
	appLog.Debug("store replaced", "events", len(next), "overrides", len(s.overrides))
}

func (s *Store) Get(key string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return ev, nil
}

// List returns all events ordered by start, then key.
func (s *Store) List() []*model.Event {
	s.mu.RLock()
	out := make([]*model.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *model.Event) int {
		if c := a.Start().Compare(b.Start()); c != 0 {
			return c
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Record is the drag change callback: it journals the change and keeps the
// new start/end as an override across refreshes. A Replace that ran while
// the drag was in progress left ev detached; the instance now held under
// the same key gets the new start/end too.
func (s *Store) Record(ev *model.Event, prev model.Values) {
	after := ev.Values()

	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.events[ev.Key]; ok && held != ev {
		v := held.Values()
		v.Start, v.End = after.Start, after.End
		held.Update(v)
	}
	s.overrides[ev.Key] = after
	s.journal = append(s.journal, Change{
		Key:    ev.Key,
		Before: prev,
		After:  after,
		At:     s.now(),
	})
	if over := len(s.journal) - s.maxJrnl; over > 0 {
		s.journal = slices.Delete(s.journal, 0, over)
	}

	appLog.Info("event changed",
		"key", ev.Key,
		"from", prev.Start,
		"to", after.Start,
		"end", after.End,
	)
}

// Changes returns the journal, oldest first.
func (s *Store) Changes() []Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.journal)
}
