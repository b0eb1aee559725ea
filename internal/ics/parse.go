package ics

import (
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

const maxOccurrences = 5000

// Vendor extensions that never carry booking data.
var ignoredXProps = []string{"X-GOOGLE-", "X-MICROSOFT-", "X-APPLE-", "X-MOZ-", "X-ALT-DESC", "X-LIC-"}

// vevent is a VEVENT before recurrence expansion.
type vevent struct {
	uid        string
	start, end time.Time
	allDay     bool
	rrule      string
	exDates    []time.Time
	recurrence *time.Time
	base       model.CalendarEvent
}

// Parse reads an iCalendar payload and returns the events overlapping w as
// CalendarEvents. Recurring events are expanded into one event per
// occurrence. Malformed VEVENTs are skipped.
func Parse(r io.Reader, w model.Window) ([]model.CalendarEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, err
	}

	var (
		base      []vevent
		overrides = make(map[string][]vevent)
	)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			log.Debug("ics vevent skipped", "reason", err.Error())
			continue
		}
		if ev.recurrence != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		base = append(base, ev)
	}

	var out []model.CalendarEvent
	for _, ev := range base {
		out = append(out, expand(ev, overrides[ev.uid], w)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Start.Time()
		b, _ := out[j].Start.Time()
		return a.Before(b)
	})
	if w.Limit > 0 && len(out) > w.Limit {
		out = out[:w.Limit]
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (vevent, error) {
	var out vevent
	uid := prop(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return out, errors.New("missing UID")
	}
	out.uid = uid

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.allDay = !strings.Contains(dtStart.Value, "T") || hasParam(dtStart, "VALUE", "DATE")

	if out.allDay {
		start, err := parseTime(dtStart.Value, time.UTC)
		if err != nil {
			return out, err
		}
		out.start, out.end = start, start.AddDate(0, 0, 1)
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if end, err := parseTime(p.Value, time.UTC); err == nil && end.After(start) {
				out.end = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, err
		}
		out.start, out.end = start, start
		if end, err := ve.GetEndAt(); err == nil && end.After(start) {
			out.end = end
		}
	}
	start := out.start

	out.rrule = prop(ve, ical.ComponentPropertyRrule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseTime(part, start.Location()); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseTime(p.Value, start.Location()); err == nil {
			out.recurrence = &t
		}
	}

	out.base = model.CalendarEvent{
		ID:          uid,
		Status:      strings.ToLower(prop(ve, ical.ComponentPropertyStatus)),
		Summary:     prop(ve, ical.ComponentPropertySummary),
		Description: prop(ve, ical.ComponentPropertyDescription),
		Location:    prop(ve, ical.ComponentPropertyLocation),
		EventType:   "default",
	}
	if out.base.Status == "" {
		out.base.Status = "confirmed"
	}
	if t, err := parseTime(prop(ve, ical.ComponentPropertyLastModified), time.UTC); err == nil {
		out.base.Updated = t.UTC().Format(time.RFC3339)
	}

	private := make(map[string]string)
	for i := range ve.Properties {
		p := &ve.Properties[i]
		switch {
		case p.IANAToken == string(ical.ComponentPropertyAttendee):
			out.base.Attendees = append(out.base.Attendees, model.Attendee{
				Email:          mailto(p.Value),
				DisplayName:    param(p, "CN"),
				ResponseStatus: strings.ToLower(param(p, "PARTSTAT")),
			})
		case p.IANAToken == string(ical.ComponentPropertyOrganizer):
			out.base.Organizer = &model.Person{Email: mailto(p.Value), DisplayName: param(p, "CN")}
		case strings.HasPrefix(strings.ToUpper(p.IANAToken), "X-") && !ignoredXProp(p.IANAToken):
			key := strings.ToLower(strings.TrimPrefix(strings.ToUpper(p.IANAToken), "X-"))
			private[key] = unescape(p.Value)
		}
	}
	if len(private) > 0 {
		out.base.ExtendedProperties = &model.ExtendedProperties{Private: private}
	}
	return out, nil
}

func expand(ev vevent, overrides []vevent, w model.Window) []model.CalendarEvent {
	if ev.rrule == "" {
		if !w.Contains(ev.start, ev.end) {
			return nil
		}
		return []model.CalendarEvent{instance(ev, ev.start, ev.end, false)}
	}

	r, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		log.Error("ics rrule parse failed", err, "uid", ev.uid, "rrule", ev.rrule)
		return nil
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	loc := ev.start.Location()
	from, to := w.TimeMin, w.TimeMax
	if from.IsZero() {
		from = ev.start
	}
	if to.IsZero() {
		to = from.AddDate(1, 0, 0)
	}
	dur := ev.end.Sub(ev.start)
	// Include occurrences that started before the window but still run into it.
	times := set.Between(from.Add(-dur).In(loc), to.In(loc), true)
	if len(times) > maxOccurrences {
		log.Error("ics occurrences truncated", errors.New("too many occurrences"), "uid", ev.uid, "cap", maxOccurrences)
		times = times[:maxOccurrences]
	}

	var out []model.CalendarEvent
	for _, start := range times {
		end := start.Add(dur)
		occ := instance(ev, start, end, true)
		for _, o := range overrides {
			if o.recurrence.Equal(start) {
				start, end = o.start, o.end
				occ = instance(o, start, end, true)
				occ.ID = instanceID(ev, *o.recurrence)
				break
			}
		}
		if !w.Contains(start, end) {
			continue
		}
		out = append(out, occ)
	}
	return out
}

// instance builds the CalendarEvent for one occurrence of ev.
func instance(ev vevent, start, end time.Time, recurring bool) model.CalendarEvent {
	out := ev.base
	if recurring {
		out.ID = instanceID(ev, start)
	}
	out.Start, out.End = eventTime(start, ev.allDay), eventTime(end, ev.allDay)
	return out
}

// instanceID follows the Google convention of uid_<start in UTC>.
func instanceID(ev vevent, start time.Time) string {
	if ev.allDay {
		return ev.uid + "_" + start.Format("20060102")
	}
	return ev.uid + "_" + start.UTC().Format("20060102T150405Z")
}

func eventTime(t time.Time, allDay bool) *model.EventTime {
	if allDay {
		return &model.EventTime{Date: t.Format("2006-01-02")}
	}
	return &model.EventTime{DateTime: t.Format(time.RFC3339)}
}

func prop(ve *ical.VEvent, name ical.ComponentProperty) string {
	p := ve.GetProperty(name)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(unescape(p.Value))
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return strings.Trim(vs[0], `"`)
	}
	return ""
}

func hasParam(p *ical.IANAProperty, name, value string) bool {
	return strings.EqualFold(param(p, name), value)
}

func mailto(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 7 && strings.EqualFold(v[:7], "mailto:") {
		return v[7:]
	}
	return v
}

func ignoredXProp(token string) bool {
	upper := strings.ToUpper(token)
	for _, p := range ignoredXProps {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

var textEscapes = strings.NewReplacer(`\\`, `\`, `\,`, ",", `\;`, ";", `\n`, "\n", `\N`, "\n")

func unescape(s string) string {
	return textEscapes.Replace(s)
}

// parseTime reads a DATE or DATE-TIME value. Floating times use loc.
func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
