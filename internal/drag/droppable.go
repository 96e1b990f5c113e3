package drag

// Data describes where on a droppable surface the pointer currently is.
// Timeline surfaces fill PercentX and the DateRange fields; day grid
// surfaces fill PercentY, Day, MinHour and MaxHour.
type Data struct {
	PercentX float64 `json:"percentX"`
	PercentY float64 `json:"percentY"`

	DateRangeStart string `json:"daterange_start,omitempty"`
	DateRangeEnd   string `json:"daterange_end,omitempty"`

	Day     string `json:"day,omitempty"`     // "2006-01-02"
	MinHour string `json:"minhour,omitempty"` // "15:04"
	MaxHour string `json:"maxhour,omitempty"` // "15:04"
}

// Droppable resolves a pointer event against the surface under it. It must
// be callable at any point of a drag.
type Droppable interface {
	Data(ev *PointerEvent) (Data, error)
}

// DroppableFunc adapts a plain function to Droppable.
type DroppableFunc func(ev *PointerEvent) (Data, error)

func (f DroppableFunc) Data(ev *PointerEvent) (Data, error) {
	return f(ev)
}
