// Package calendar holds the structured event type stored in archives and the
// iCalendar document writer used by the share feed.
package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const (
	// Version is the iCalendar version written into every document.
	Version = "2.0"
	// DefaultProductID is used when no product identifier is configured.
	DefaultProductID = "-//calshare//Calendar Share//EN"

	crlf = "\r\n"
)

// ErrNoEvent is returned when a payload does not contain a VEVENT.
var ErrNoEvent = errors.New("calendar: no VEVENT component")

// Event is a single VEVENT component.
type Event struct {
	Component *ical.Component
}

// NewEvent builds an event with the properties required by RFC 5545.
func NewEvent(uid, summary string, start, end time.Time) *Event {
	component := ical.NewComponent(ical.CompEvent)
	component.Props.SetText(ical.PropUID, uid)
	component.Props.SetText(ical.PropSummary, summary)
	component.Props.SetDateTime(ical.PropDateTimeStart, start)
	component.Props.SetDateTime(ical.PropDateTimeEnd, end)
	return &Event{Component: component}
}

// UID returns the event UID or an empty string.
func (e *Event) UID() string {
	return e.text(ical.PropUID)
}

// Summary returns the event summary or an empty string.
func (e *Event) Summary() string {
	return e.text(ical.PropSummary)
}

func (e *Event) text(name string) string {
	if e == nil || e.Component == nil || e.Component.Props.Get(name) == nil {
		return ""
	}
	value, err := e.Component.Props.Text(name)
	if err != nil {
		return ""
	}
	return value
}

// EnsureTimestamp stamps DTSTAMP with now when the event has none.
func (e *Event) EnsureTimestamp(now time.Time) {
	if e == nil || e.Component == nil {
		return
	}
	if e.Component.Props.Get(ical.PropDateTimeStamp) == nil {
		e.Component.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	}
}

// ICalString renders the VEVENT as CRLF-terminated iCalendar lines, from
// BEGIN:VEVENT through END:VEVENT inclusive.
func (e *Event) ICalString() (string, error) {
	if e == nil || e.Component == nil || e.Component.Name != ical.CompEvent {
		return "", ErrNoEvent
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(wrap(e.Component, DefaultProductID)); err != nil {
		return "", fmt.Errorf("calendar: encode event: %w", err)
	}

	out := buf.String()
	start := strings.Index(out, "BEGIN:"+ical.CompEvent+crlf)
	end := strings.LastIndex(out, "END:"+ical.CompCalendar+crlf)
	if start < 0 || end < start {
		return "", ErrNoEvent
	}
	return out[start:end], nil
}

func wrap(component *ical.Component, productID string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, Version)
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = []*ical.Component{component}
	return cal
}
