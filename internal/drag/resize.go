package drag

import "dragcal/internal/timerange"

// Resize moves only the end of an event. The end snaps down to the 15
// minute grid, never passes the day bound captured at Drag, and never
// comes closer than Snap to the start.
type Resize struct {
	session

	// constraint is the day window at Drag; later Moves over another day
	// do not widen it.
	constraint timerange.Range
}

func (r *Resize) Kind() Kind { return KindResize }

func (r *Resize) Drag(ev *PointerEvent, d Droppable) error {
	data, err := d.Data(ev)
	if err != nil {
		return err
	}
	r.begin()

	constraint, err := dayWindow(data, r.location())
	if err != nil {
		r.dragging = false
		return err
	}
	r.constraint = constraint
	return nil
}

func (r *Resize) Move(ev *PointerEvent, d Droppable) error {
	if !r.dragging {
		return ErrNotDragging
	}
	data, err := d.Data(ev)
	if err != nil {
		return err
	}
	at, _, err := pointerTime(data, r.location())
	if err != nil {
		return err
	}

	end := snap(at)
	if end.After(r.constraint.End()) {
		end = r.constraint.End()
	}
	start := r.initial.Start()
	if floor := start.Add(Snap); end.Before(floor) {
		end = floor
	}

	return r.derive(start, end)
}

func (r *Resize) Drop(_ *PointerEvent, _ Droppable) error {
	return r.commit()
}

// Constraint is the day window captured at Drag.
func (r *Resize) Constraint() timerange.Range {
	return r.constraint
}
