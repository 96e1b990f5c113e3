package drag

import "time"

// Button identifies the pointer button of an event. Values follow the DOM
// MouseEvent.button numbering so browser payloads can be decoded directly.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonMiddle:
		return "middle"
	case ButtonSecondary:
		return "secondary"
	default:
		return "other"
	}
}

// Type is the kind of pointer notification a Window delivers.
type Type string

const (
	PointerMove    Type = "pointermove"
	PointerRelease Type = "pointerup"
)

// PointerEvent is the part of a raw pointer event the drag core consumes.
type PointerEvent struct {
	Button Button
	X      float64
	Y      float64
	Time   time.Time

	// Surface carries droppable data when the event source already resolved
	// the pointer position against the surface (for example a browser that
	// posts percentages). Nil when a Droppable must compute it.
	Surface *Data

	defaultPrevented bool
}

// PreventDefault marks the event as consumed by a drag.
func (e *PointerEvent) PreventDefault() {
	e.defaultPrevented = true
}

func (e *PointerEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}
