// Package timerange provides an immutable start/end pair used to describe
// where a calendar event sits in time.
package timerange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is returned when a range cannot be built from its inputs.
var ErrInvalid = errors.New("timerange: invalid range")

// layouts accepted by Parse, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Range is a half-open interval [Start, End). The zero value is the empty
// range at the zero time.
type Range struct {
	start time.Time
	end   time.Time
}

// New builds a range. end must not be before start.
func New(start, end time.Time) (Range, error) {
	if end.Before(start) {
		return Range{}, fmt.Errorf("%w: end %s before start %s", ErrInvalid,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Range{start: start, end: end}, nil
}

// Must is like New but panics on an invalid range. Intended for literals in
// tests and fixed tables.
func Must(start, end time.Time) Range {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Parse builds a range from two date/time strings interpreted in loc.
// Strings without a zone offset are read as wall clock time in loc.
func Parse(start, end string, loc *time.Location) (Range, error) {
	s, err := ParseTime(start, loc)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseTime(end, loc)
	if err != nil {
		return Range{}, err
	}
	return New(s, e)
}

// ParseTime parses a single date/time string using the layouts Parse accepts.
func ParseTime(v string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty time value", ErrInvalid)
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized time %q", ErrInvalid, v)
}

func (r Range) Start() time.Time { return r.start }

func (r Range) End() time.Time { return r.end }

// Length is End - Start.
func (r Range) Length() time.Duration {
	return r.end.Sub(r.start)
}

// IsZero reports whether both bounds are the zero time.
func (r Range) IsZero() bool {
	return r.start.IsZero() && r.end.IsZero()
}

// Contains reports whether t lies in [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.start) && t.Before(r.end)
}

// Equal compares instants, ignoring location.
func (r Range) Equal(o Range) bool {
	return r.start.Equal(o.start) && r.end.Equal(o.end)
}

// At maps a fraction of the range (0 = Start, 1 = End) to an instant.
// Fractions outside [0, 1] extrapolate past the bounds.
func (r Range) At(fraction float64) time.Time {
	offset := time.Duration(float64(r.Length()) * fraction)
	return r.start.Add(offset)
}

// Patch overrides selected fields in CloneWith. Nil fields keep the
// receiver's value.
type Patch struct {
	Start *time.Time
	End   *time.Time
}

// CloneWith returns a copy of r with the patched fields replaced.
func (r Range) CloneWith(p Patch) (Range, error) {
	start, end := r.start, r.end
	if p.Start != nil {
		start = *p.Start
	}
	if p.End != nil {
		end = *p.End
	}
	return New(start, end)
}

// In returns the same instants expressed in loc.
func (r Range) In(loc *time.Location) Range {
	return Range{start: r.start.In(loc), end: r.end.In(loc)}
}

func (r Range) String() string {
	return fmt.Sprintf("%s .. %s", r.start.Format(time.RFC3339), r.end.Format(time.RFC3339))
}
