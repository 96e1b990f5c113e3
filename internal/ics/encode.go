package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"dragcal/internal/model"
)

// ProductID identifies exported calendars.
const ProductID = "-//dragcal//Calendar Export//EN"

// Encode writes events as a VCALENDAR. Recurring instances carry their
// original start as RECURRENCE-ID so clients apply them as overrides of the
// series.
func Encode(events []*model.Event, stamp time.Time) []byte {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)

	for _, ev := range events {
		v := ev.Values()
		ve := cal.AddEvent(v.UID)
		ve.SetDtStampTime(stamp)

		if v.AllDay {
			ve.SetAllDayStartAt(v.Start)
			ve.SetAllDayEndAt(v.End)
		} else {
			ve.SetStartAt(v.Start)
			ve.SetEndAt(v.End)
		}
		if !ev.Recurrence.IsZero() {
			ve.SetProperty(ical.ComponentPropertyRecurrenceId, ev.Recurrence.UTC().Format("20060102T150405Z"))
		}
		if v.Summary != "" {
			ve.SetSummary(v.Summary)
		}
		if v.Description != "" {
			ve.SetDescription(v.Description)
		}
		if v.Location != "" {
			ve.SetLocation(v.Location)
		}
	}
	return []byte(cal.Serialize())
}
