package drag

import (
	"errors"
	"slices"
	"sync"
)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Dispatcher is an in-process Window. Hosts feed it raw pointer events with
// Dispatch; drag sessions subscribe through Listen.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[Type][]listenerEntry
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[Type][]listenerEntry)}
}

// Listen registers fn for t. The returned cancel is idempotent.
func (d *Dispatcher) Listen(t Type, fn Listener) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners[t] = append(d.listeners[t], listenerEntry{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.listeners[t] = slices.DeleteFunc(d.listeners[t], func(e listenerEntry) bool {
			return e.id == id
		})
	}
}

// Dispatch delivers ev to every listener of t in subscription order. A
// listener removed by an earlier one during the same dispatch is skipped.
// Listener errors are joined and returned after all listeners ran.
func (d *Dispatcher) Dispatch(t Type, ev *PointerEvent) error {
	d.mu.Lock()
	snapshot := slices.Clone(d.listeners[t])
	d.mu.Unlock()

	var errs []error
	for _, e := range snapshot {
		if !d.registered(t, e.id) {
			continue
		}
		if err := e.fn(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) registered(t Type, id uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.ContainsFunc(d.listeners[t], func(e listenerEntry) bool {
		return e.id == id
	})
}

// Len is the number of listeners currently registered for t.
func (d *Dispatcher) Len(t Type) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[t])
}
