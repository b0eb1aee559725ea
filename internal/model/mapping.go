package model

import "time"

// Target fields the mapper calibrates.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldMobile    = "mobile"
	FieldPickup    = "pickup"
)

// MappedFields lists the calibrated fields in a stable order.
var MappedFields = []string{FieldFirstName, FieldLastName, FieldEmail, FieldMobile, FieldPickup}

// Source names where a mapped value lives on an event.
type Source string

const (
	SourcePrivate     Source = "extended.private"
	SourceShared      Source = "extended.shared"
	SourceLocation    Source = "location"
	SourceDescription Source = "description"
	SourceAttendee    Source = "attendee"
	SourceCreator     Source = "creator"
	SourceOrganizer   Source = "organizer"
)

// FieldMappingEntry records which source/key carries one target field.
// A nil Key means nothing cleared the threshold and the extractor should
// rely on its built-in heuristics.
type FieldMappingEntry struct {
	Key      *string  `json:"key"`
	Source   *Source  `json:"source"`
	Score    *float64 `json:"score"`
	Examples []string `json:"examples"`
}

// Found reports whether the entry points at a usable source.
func (e FieldMappingEntry) Found() bool {
	return e.Key != nil && e.Source != nil
}

// SameTarget reports whether both entries point at the same source/key.
func (e FieldMappingEntry) SameTarget(o FieldMappingEntry) bool {
	return e.Found() && o.Found() && *e.Key == *o.Key && *e.Source == *o.Source
}

// FieldMapping is the calibrated mapping for one calendar, keyed by target
// field name.
type FieldMapping map[string]FieldMappingEntry

// Entry returns the entry for field, or an empty one.
func (m FieldMapping) Entry(field string) FieldMappingEntry {
	if m == nil {
		return FieldMappingEntry{}
	}
	return m[field]
}

// Candidate is one scored source/key for a target field.
type Candidate struct {
	SampleKey string   `json:"sample_key"`
	Source    Source   `json:"source"`
	Key       string   `json:"key"`
	Score     float64  `json:"score"`
	Examples  []string `json:"examples"`
}

// MapperResult is the full output of a mapper run.
type MapperResult struct {
	Mapping       FieldMapping           `json:"mapping"`
	Candidates    map[string][]Candidate `json:"candidates"`
	RawSamples    map[string][]string    `json:"rawSamples"`
	LabelSamples  map[string][]string    `json:"labelSamples"`
	EventsScanned int                    `json:"events_scanned"`
}

// StoredMapping is the persisted mapping snapshot for a calendar.
type StoredMapping struct {
	CalendarID string       `json:"calendar_id"`
	FieldMap   FieldMapping `json:"field_map"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// RunMapperRequest is the optional payload for a mapper run.
type RunMapperRequest struct {
	SampleLimit int `json:"sample_limit"`
}

// MapperRun is the response to a mapper run: the detection result plus the
// time the mapping was stored.
type MapperRun struct {
	CalendarID string    `json:"calendar_id"`
	UpdatedAt  time.Time `json:"updated_at"`
	MapperResult
}
