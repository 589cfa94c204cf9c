package ical

import (
	"time"

	"github.com/google/uuid"
)

const prodID = "-//calwire//calwire//EN"

// NewCalendar returns an empty VCALENDAR with the VERSION and PRODID
// properties every stream must carry.
func NewCalendar() *Calendar {
	cal := &Calendar{Component: Component{Name: CompCalendar}}
	cal.SetText(PropVersion, "2.0")
	cal.SetText(PropProdID, prodID)
	return cal
}

// NewEvent returns a VEVENT with a fresh UID and the current DTSTAMP.
func NewEvent() *Component {
	event := &Component{Name: CompEvent}
	event.SetText(PropUID, uuid.NewString())
	event.SetDateTime(PropDtStamp, time.Now().UTC().Truncate(time.Second))
	return event
}

// AddEvent builds an event with the given summary and start, appends
// it to the calendar and returns it for further decoration.
func (cal *Calendar) AddEvent(summary string, start time.Time) *Component {
	event := NewEvent()
	event.SetText(PropSummary, summary)
	event.SetDateTime(PropDtStart, start)
	cal.AddChild(event)
	return event
}
