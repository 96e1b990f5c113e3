// Package surface implements drag.Droppable for the calendar views: a
// horizontal date timeline, a day grid with one column per day, and a
// pass-through for clients that resolve geometry themselves.
package surface

import (
	"errors"
	"math"
	"time"

	"dragcal/internal/drag"
)

const dayLayout = "2006-01-02"

var (
	// ErrNoData is returned by Payload when an event carries no surface data.
	ErrNoData = errors.New("surface: pointer event carries no surface data")
	// ErrEmptySurface is returned when the surface has no usable area.
	ErrEmptySurface = errors.New("surface: empty surface")
)

// Rect is a surface's position and size in pointer coordinates.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// percent is how far v sits between origin and origin+size, in percent.
// It is not clamped; consumers decide.
func percent(v, origin, size float64) float64 {
	return (v - origin) / size * 100
}

// Timeline is a single row whose x axis spans [Start, End).
type Timeline struct {
	Bounds Rect
	Start  time.Time
	End    time.Time
}

func (t Timeline) Data(ev *drag.PointerEvent) (drag.Data, error) {
	if t.Bounds.Width <= 0 || !t.End.After(t.Start) {
		return drag.Data{}, ErrEmptySurface
	}
	return drag.Data{
		PercentX:       percent(ev.X, t.Bounds.X, t.Bounds.Width),
		DateRangeStart: t.Start.Format(time.RFC3339),
		DateRangeEnd:   t.End.Format(time.RFC3339),
	}, nil
}

// DayGrid lays Days out as equal-width columns; the y axis of every column
// spans MinHour..MaxHour ("15:04").
type DayGrid struct {
	Bounds  Rect
	Days    []time.Time
	MinHour string
	MaxHour string
}

func (g DayGrid) Data(ev *drag.PointerEvent) (drag.Data, error) {
	if len(g.Days) == 0 || g.Bounds.Width <= 0 || g.Bounds.Height <= 0 {
		return drag.Data{}, ErrEmptySurface
	}
	return drag.Data{
		PercentY: percent(ev.Y, g.Bounds.Y, g.Bounds.Height),
		Day:      g.Days[g.column(ev.X)].Format(dayLayout),
		MinHour:  g.MinHour,
		MaxHour:  g.MaxHour,
	}, nil
}

// column is the day index under x, pinned to the first and last column
// when the pointer leaves the grid sideways.
func (g DayGrid) column(x float64) int {
	width := g.Bounds.Width / float64(len(g.Days))
	col := int(math.Floor((x - g.Bounds.X) / width))
	return min(max(col, 0), len(g.Days)-1)
}

// Payload reads the data a client attached to the pointer event.
type Payload struct{}

func (Payload) Data(ev *drag.PointerEvent) (drag.Data, error) {
	if ev == nil || ev.Surface == nil {
		return drag.Data{}, ErrNoData
	}
	return *ev.Surface, nil
}
