package drag

import (
	"fmt"
	"time"

	"dragcal/internal/timerange"
)

// TimelineMove moves an event along a date axis. Only the calendar day
// changes; time of day and duration are kept exactly.
type TimelineMove struct {
	session
}

func (t *TimelineMove) Kind() Kind { return KindTimelineMove }

func (t *TimelineMove) Drag(_ *PointerEvent, _ Droppable) error {
	t.begin()
	return nil
}

func (t *TimelineMove) Move(ev *PointerEvent, d Droppable) error {
	if !t.dragging {
		return ErrNotDragging
	}
	data, err := d.Data(ev)
	if err != nil {
		return err
	}

	loc := t.location()
	axis, err := timerange.Parse(data.DateRangeStart, data.DateRangeEnd, loc)
	if err != nil {
		return fmt.Errorf("drag: timeline axis: %w", err)
	}

	day := axis.At(clampPercent(data.PercentX) / 100).In(loc)
	clock := t.initial.Start()
	start := time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc)

	return t.derive(start, start.Add(t.initial.Length()))
}

func (t *TimelineMove) Drop(_ *PointerEvent, _ Droppable) error {
	return t.commit()
}
