package drag

import (
	"testing"
	"time"
)

func TestResize(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		day        string
		percentY   float64
		wantEnd    time.Time
	}{
		{
			name:  "snaps down to the quarter hour",
			start: at(1, 9, 0), end: at(1, 10, 0),
			day: "2024-01-01", percentY: percentFor(16, 50),
			wantEnd: at(1, 16, 45),
		},
		{
			name:  "past the window clamps to its end",
			start: at(1, 9, 0), end: at(1, 10, 0),
			day: "2024-01-01", percentY: 130,
			wantEnd: at(1, 17, 0),
		},
		{
			name:  "a later day keeps the drag-time bound",
			start: at(1, 9, 0), end: at(1, 10, 0),
			day: "2024-01-02", percentY: percentFor(11, 0),
			wantEnd: at(1, 17, 0),
		},
		{
			name:  "at the start grows to one slot",
			start: at(1, 9, 0), end: at(1, 10, 0),
			day: "2024-01-01", percentY: 0,
			wantEnd: at(1, 9, 15),
		},
		{
			name:  "above the start grows to one slot",
			start: at(1, 11, 0), end: at(1, 12, 0),
			day: "2024-01-01", percentY: percentFor(10, 0),
			wantEnd: at(1, 11, 15),
		},
		{
			name:  "one slot floor beats a bound closer than a slot",
			start: at(1, 16, 50), end: at(1, 17, 0),
			day: "2024-01-01", percentY: 100,
			wantEnd: at(1, 17, 5),
		},
		{
			name:  "off-grid start keeps a full slot",
			start: at(1, 9, 7), end: at(1, 10, 0),
			day: "2024-01-01", percentY: percentFor(9, 17),
			wantEnd: at(1, 9, 22),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := newEvent(tt.start, tt.end)
			d := mustNew(t, KindResize, ev, nil)

			if err := d.Drag(gridEvent("2024-01-01", percentFor(10, 0)), carried); err != nil {
				t.Fatalf("Drag: %v", err)
			}
			if err := d.Move(gridEvent(tt.day, tt.percentY), carried); err != nil {
				t.Fatalf("Move: %v", err)
			}
			if err := d.Drop(nil, carried); err != nil {
				t.Fatalf("Drop: %v", err)
			}

			if got := ev.End(); !got.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", got, tt.wantEnd)
			}
			if got := ev.Start(); !got.Equal(tt.start) {
				t.Errorf("Start changed to %v", got)
			}
		})
	}
}

func TestResizeConstraintCapturedAtDrag(t *testing.T) {
	ev := newEvent(at(1, 9, 0), at(1, 10, 0))
	d := mustNew(t, KindResize, ev, nil)
	if err := d.Drag(gridEvent("2024-01-01", 0), carried); err != nil {
		t.Fatalf("Drag: %v", err)
	}

	r := d.(*Resize)
	want := at(1, 17, 0)
	for p := -50.0; p <= 150; p += 7.5 {
		for _, day := range []string{"2024-01-01", "2024-01-05"} {
			if err := d.Move(gridEvent(day, p), carried); err != nil {
				t.Fatalf("Move: %v", err)
			}
			end := d.CurrentValue().End()
			if end.After(want) {
				t.Errorf("%s %.1f%%: end %v past %v", day, p, end, want)
			}
			if end.Before(at(1, 9, 15)) {
				t.Errorf("%s %.1f%%: end %v shorter than one slot", day, p, end)
			}
		}
	}
	if !r.Constraint().End().Equal(want) {
		t.Errorf("Constraint end = %v, want %v", r.Constraint().End(), want)
	}
}
