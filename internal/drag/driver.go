package drag

import (
	"sync"
	"sync/atomic"
)

// Listener receives pointer notifications from a Window. A returned error
// propagates to whoever dispatched the event.
type Listener func(ev *PointerEvent) error

// Window is the global source of pointer notifications a drag subscribes to
// for its lifetime. The returned cancel func unsubscribes and must be safe
// to call more than once.
type Window interface {
	Listen(t Type, fn Listener) (cancel func())
}

// Session is one running drag, from pointer-down to release or Cancel.
type Session struct {
	draggable Draggable
	observer  Observer
	droppable Droppable

	cancels []func()
	once    sync.Once
	done    atomic.Bool
}

// Start begins a drag of d for the pointer-down event ev.
//
// Events from any button other than ButtonPrimary are ignored: Start returns
// a nil Session and a nil error without notifying obs or subscribing to win.
// A Drag failure is returned and nothing is subscribed.
func Start(d Draggable, ev *PointerEvent, obs Observer, droppable Droppable, win Window) (*Session, error) {
	if ev == nil || ev.Button != ButtonPrimary {
		return nil, nil
	}
	if obs == nil {
		obs = ObserverFuncs{}
	}

	ev.PreventDefault()
	if err := d.Drag(ev, droppable); err != nil {
		return nil, err
	}

	s := &Session{
		draggable: d,
		observer:  obs,
		droppable: droppable,
	}
	obs.OnDragStart(s.context(ev))

	s.cancels = []func(){
		win.Listen(PointerMove, s.move),
		win.Listen(PointerRelease, s.release),
	}
	return s, nil
}

func (s *Session) context(ev *PointerEvent) Context {
	return Context{Event: ev, Draggable: s.draggable, Droppable: s.droppable}
}

func (s *Session) move(ev *PointerEvent) error {
	if err := s.draggable.Move(ev, s.droppable); err != nil {
		return err
	}
	s.observer.OnDragUpdate(s.context(ev))
	return nil
}

func (s *Session) release(ev *PointerEvent) error {
	defer s.cleanup()

	if err := s.draggable.Drop(ev, s.droppable); err != nil {
		return err
	}
	s.observer.OnDragEnd(s.context(ev))
	return nil
}

// Cancel ends the session without committing: listeners are removed, the
// event is left untouched and no further notification is sent.
func (s *Session) Cancel() {
	s.cleanup()
}

func (s *Session) cleanup() {
	s.once.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
		s.done.Store(true)
	})
}

// Done reports whether the session was released or cancelled.
func (s *Session) Done() bool {
	return s.done.Load()
}

// Draggable returns the strategy driven by this session.
func (s *Session) Draggable() Draggable {
	return s.draggable
}
