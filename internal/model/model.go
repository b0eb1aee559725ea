// Package model defines the core domain types for the booking relay.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// EventTime is the start or end of a calendar event. Timed events carry
// DateTime, all-day events carry Date.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Time resolves the event time. All-day dates are placed at midnight in
// TimeZone, or UTC when the zone is unknown.
func (t *EventTime) Time() (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	if t.Date != "" {
		loc := time.UTC
		if t.TimeZone != "" {
			if l, err := time.LoadLocation(t.TimeZone); err == nil {
				loc = l
			}
		}
		ts, err := time.ParseInLocation("2006-01-02", t.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}

// Attendee is a guest on a calendar event.
type Attendee struct {
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	Self           bool   `json:"self,omitempty"`
	Phone          string `json:"phone,omitempty"`
	DisplayPhone   string `json:"displayPhone,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// Person is the creator or organizer of an event.
type Person struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Self        bool   `json:"self,omitempty"`
}

// ExtendedProperties holds the free-form key/value pairs attached to an event.
type ExtendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
	Shared  map[string]string `json:"shared,omitempty"`
}

// CalendarEvent is a single item from a calendar events listing. Every field
// is optional; events entered by hand over several years rarely agree on
// which ones are filled in.
type CalendarEvent struct {
	ID                        string              `json:"id,omitempty"`
	Status                    string              `json:"status,omitempty"`
	Summary                   string              `json:"summary,omitempty"`
	Description               string              `json:"description,omitempty"`
	Location                  string              `json:"location,omitempty"`
	EventType                 string              `json:"eventType,omitempty"`
	Updated                   string              `json:"updated,omitempty"`
	Start                     *EventTime          `json:"start,omitempty"`
	End                       *EventTime          `json:"end,omitempty"`
	Attendees                 []Attendee          `json:"attendees,omitempty"`
	Creator                   *Person             `json:"creator,omitempty"`
	Organizer                 *Person             `json:"organizer,omitempty"`
	ExtendedProperties        *ExtendedProperties `json:"extendedProperties,omitempty"`
	WorkingLocationProperties json.RawMessage     `json:"workingLocationProperties,omitempty"`
}

// PrivateProps returns extendedProperties.private, or nil.
func (e *CalendarEvent) PrivateProps() map[string]string {
	if e == nil || e.ExtendedProperties == nil {
		return nil
	}
	return e.ExtendedProperties.Private
}

// SharedProps returns extendedProperties.shared, or nil.
func (e *CalendarEvent) SharedProps() map[string]string {
	if e == nil || e.ExtendedProperties == nil {
		return nil
	}
	return e.ExtendedProperties.Shared
}

// Guest returns the first attendee that is not the calendar owner and has an
// email address. When every attendee with an email is the owner, the first
// of them is returned.
func (e *CalendarEvent) Guest() *Attendee {
	if e == nil {
		return nil
	}
	var owner *Attendee
	for i := range e.Attendees {
		a := &e.Attendees[i]
		if strings.TrimSpace(a.Email) == "" {
			continue
		}
		if !a.Self {
			return a
		}
		if owner == nil {
			owner = a
		}
	}
	return owner
}

// IsCancelled reports whether the provider marked the event as cancelled.
func (e *CalendarEvent) IsCancelled() bool {
	return strings.EqualFold(e.Status, "cancelled")
}

// IsWorkingLocation reports whether the event is a Google working-location
// marker rather than an appointment.
func (e *CalendarEvent) IsWorkingLocation() bool {
	return e.EventType == "workingLocation" ||
		len(e.WorkingLocationProperties) > 0 ||
		e.Summary == "Home"
}

// ParsedBooking is the best-guess booking record inferred from one event.
// A nil field means no source produced a value.
type ParsedBooking struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          *string `json:"email"`
	Mobile         *string `json:"mobile"`
	PickupLocation *string `json:"pickup_location"`
	ServiceCode    *string `json:"service_code"`
	PriceCents     *int64  `json:"price_cents"`
	Extended       *bool   `json:"extended"`
	Notes          *string `json:"notes"`
}

// Window bounds an events listing.
type Window struct {
	TimeMin     time.Time
	TimeMax     time.Time
	ShowDeleted bool
	// Limit caps the number of events returned. Zero means no cap.
	Limit int
}

// Contains reports whether [start, end) overlaps the window.
func (w Window) Contains(start, end time.Time) bool {
	if !w.TimeMin.IsZero() && !end.After(w.TimeMin) && !start.Equal(w.TimeMin) {
		return false
	}
	if !w.TimeMax.IsZero() && !start.Before(w.TimeMax) {
		return false
	}
	return true
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
