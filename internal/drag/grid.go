package drag

import "time"

// GridMove moves an event within a day grid. The start snaps down to the
// 15 minute grid and the event is kept inside the day's hour bounds with
// its duration unchanged.
type GridMove struct {
	session

	// diff is initial start minus the pointer's time at Drag, so the grab
	// point stays under the pointer.
	diff time.Duration
}

func (g *GridMove) Kind() Kind { return KindGridMove }

func (g *GridMove) Drag(ev *PointerEvent, d Droppable) error {
	data, err := d.Data(ev)
	if err != nil {
		return err
	}
	g.begin()

	at, _, err := pointerTime(data, g.location())
	if err != nil {
		g.dragging = false
		return err
	}
	g.diff = g.initial.Start().Sub(at)
	return nil
}

func (g *GridMove) Move(ev *PointerEvent, d Droppable) error {
	if !g.dragging {
		return ErrNotDragging
	}
	data, err := d.Data(ev)
	if err != nil {
		return err
	}
	// The day may change as the pointer crosses grid columns.
	at, window, err := pointerTime(data, g.location())
	if err != nil {
		return err
	}

	length := g.initial.Length()
	start := snap(at.Add(g.diff))
	if start.Before(window.Start()) {
		start = window.Start()
	}
	if start.Add(length).After(window.End()) {
		start = window.End().Add(-length)
	}

	return g.derive(start, start.Add(length))
}

func (g *GridMove) Drop(_ *PointerEvent, _ Droppable) error {
	return g.commit()
}
