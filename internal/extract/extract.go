// Package extract infers booking fields from calendar events.
//
// Each field is resolved on its own from an ordered chain of sources; the
// first source that yields a value wins:
//
//	attendee -> calibrated mapping -> extended properties -> description -> creator/organizer
//
// A calibrated full-name mapping (first and last pointing at one key) ranks
// below extended-property aliases and a labelled description name. Pickup
// location checks the event location before all of these. Missing or
// malformed data never fails extraction; the field is just left nil.
package extract

import (
	"strings"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

// Known extended-property keys per field, tried in order on private then shared.
var (
	firstNameKeys = []string{"first_name", "first-name", "first name", "given_name", "givenName", "given-name"}
	lastNameKeys  = []string{"last_name", "last-name", "last name", "surname", "family_name"}
	emailKeys     = []string{"email", "email_address", "email-address", "your_email", "Email address"}
	mobileKeys    = []string{"mobile", "mobile_number", "mobile-number", "phone", "phone_number", "phone-number"}
	pickupKeys    = []string{"pickup_address", "pickup", "Pickup Address", "Pickup", "pickupAddress", "pickup-address", "pickup_location"}
)

// Extractor turns events into ParsedBookings. The zero value is not usable;
// build one with New.
type Extractor struct {
	mapping model.FieldMapping
	labels  []compiledLabel
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMapping consults a calibrated field mapping after attendee data.
func WithMapping(m model.FieldMapping) Option {
	return func(x *Extractor) { x.mapping = m }
}

// WithLabels replaces the description label table.
func WithLabels(labels []Label) Option {
	return func(x *Extractor) { x.labels = compileLabels(labels) }
}

// New builds an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{labels: defaultCompiled}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

var defaultExtractor = New()

// Extract runs the heuristic chain without a calibrated mapping.
func Extract(ev *model.CalendarEvent) model.ParsedBooking {
	return defaultExtractor.Extract(ev)
}

// resolver yields a candidate value from one source, or "".
type resolver func(v *view) string

// view caches the parsed forms of one event for the duration of a single
// Extract call.
type view struct {
	ev     *model.CalendarEvent
	labels []compiledLabel

	lines     []string
	linesDone bool
	desc      *DescriptionFields
	kv        map[string]string
	pairs     []LabeledValue
	pairsDone bool
}

func (v *view) descLines() []string {
	if !v.linesDone {
		v.lines = Lines(v.ev.Description)
		v.linesDone = true
	}
	return v.lines
}

func (v *view) description() DescriptionFields {
	if v.desc == nil {
		d := parseDescription(v.descLines(), v.labels)
		v.desc = &d
	}
	return *v.desc
}

func (v *view) keyValues() map[string]string {
	if v.kv == nil {
		v.kv = ParseKV(PlainText(v.ev.Description))
	}
	return v.kv
}

func (v *view) labeled() []LabeledValue {
	if !v.pairsDone {
		v.pairs = labeledValues(v.descLines(), v.labels)
		v.pairsDone = true
	}
	return v.pairs
}

// Extract infers a booking from ev. It is deterministic and has no side
// effects.
func (x *Extractor) Extract(ev *model.CalendarEvent) model.ParsedBooking {
	var out model.ParsedBooking
	if ev == nil {
		return out
	}
	v := &view{ev: ev, labels: x.labels}

	// A full-name mapping is a guess from value shapes, so alias keys and a
	// labelled description name outrank it. Split first/last mappings do not.
	out.FirstName = first(v,
		guestFirstName,
		x.mappedSplitName(model.FieldFirstName),
		props(firstNameKeys),
		labeledName(func(d DescriptionFields) string { return d.FirstName }),
		x.mappedFullName(model.FieldFirstName),
		func(v *view) string { return v.description().FirstName },
		creatorFirstName,
	)
	out.LastName = first(v,
		guestLastName,
		x.mappedSplitName(model.FieldLastName),
		props(lastNameKeys),
		labeledName(func(d DescriptionFields) string { return d.LastName }),
		x.mappedFullName(model.FieldLastName),
		func(v *view) string { return v.description().LastName },
		creatorLastName,
	)
	out.Email = first(v,
		guestEmail,
		emailOnly(x.mapped(model.FieldEmail)),
		emailOnly(props(emailKeys)),
		func(v *view) string { return v.description().Email },
		creatorEmail,
	)
	out.Mobile = first(v,
		guestMobile,
		phoneOnly(x.mapped(model.FieldMobile)),
		phoneOnly(props(mobileKeys)),
		func(v *view) string { return v.description().Mobile },
	)
	out.PickupLocation = first(v,
		func(v *view) string { return v.ev.Location },
		x.mapped(model.FieldPickup),
		props(pickupKeys),
		func(v *view) string { return v.description().Pickup },
		kv("pickup_location", "pickup"),
	)

	out.ServiceCode = first(v,
		props([]string{"service_code"}),
		kv("service_code", "service", "service code"),
		func(v *view) string { return FindServiceCode(v.ev.Summary) },
	)
	out.PriceCents = priceCents(v)
	out.Extended = extendedFlag(v)
	out.Notes = first(v, props([]string{"notes"}), kv("notes"))
	return out
}

// first returns the first non-empty trimmed value from the chain.
func first(v *view, chain ...resolver) *string {
	for _, r := range chain {
		if s := strings.TrimSpace(r(v)); s != "" {
			return &s
		}
	}
	return nil
}

// props looks up keys in extendedProperties.private, then .shared.
func props(keys []string) resolver {
	return func(v *view) string {
		if s := pickKey(v.ev.PrivateProps(), keys); s != "" {
			return s
		}
		return pickKey(v.ev.SharedProps(), keys)
	}
}

func pickKey(m map[string]string, keys []string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func kv(keys ...string) resolver {
	return func(v *view) string {
		m := v.keyValues()
		for _, k := range keys {
			if s := m[k]; s != "" {
				return s
			}
		}
		return ""
	}
}

func emailOnly(r resolver) resolver {
	return func(v *view) string {
		s := r(v)
		if !strings.Contains(s, "@") {
			return ""
		}
		return s
	}
}

func phoneOnly(r resolver) resolver {
	return func(v *view) string { return DigitsAndPlus(r(v)) }
}

func guestEmail(v *view) string {
	if g := v.ev.Guest(); g != nil {
		return g.Email
	}
	return ""
}

func guestFirstName(v *view) string {
	if g := v.ev.Guest(); g != nil {
		f, _ := SplitName(g.DisplayName)
		return f
	}
	return ""
}

func guestLastName(v *view) string {
	if g := v.ev.Guest(); g != nil {
		_, l := SplitName(g.DisplayName)
		return l
	}
	return ""
}

func guestMobile(v *view) string {
	g := v.ev.Guest()
	if g == nil {
		return ""
	}
	if p := DigitsAndPlus(g.Phone); p != "" {
		return p
	}
	return DigitsAndPlus(g.DisplayPhone)
}

func creatorEmail(v *view) string {
	if v.ev.Creator != nil {
		return v.ev.Creator.Email
	}
	return ""
}

func creatorName(ev *model.CalendarEvent) string {
	if ev.Creator != nil && strings.TrimSpace(ev.Creator.DisplayName) != "" {
		return ev.Creator.DisplayName
	}
	if ev.Organizer != nil {
		return ev.Organizer.DisplayName
	}
	return ""
}

func creatorFirstName(v *view) string {
	f, _ := SplitName(creatorName(v.ev))
	return f
}

func creatorLastName(v *view) string {
	_, l := SplitName(creatorName(v.ev))
	return l
}

// mapped resolves a field through the calibrated mapping, if any.
func (x *Extractor) mapped(field string) resolver {
	return func(v *view) string {
		e := x.mapping.Entry(field)
		if !e.Found() {
			return ""
		}
		return lookup(v, *e.Source, *e.Key)
	}
}

// mappedSplitName resolves first or last name through a mapping that points
// the two fields at different keys.
func (x *Extractor) mappedSplitName(field string) resolver {
	return func(v *view) string {
		if x.fullNameMapped() {
			return ""
		}
		return nameOnly(x.mapped(field)(v))
	}
}

// mappedFullName resolves first or last name when both point at the same
// key: the mapper found a single full-name field, so the value is split.
func (x *Extractor) mappedFullName(field string) resolver {
	return func(v *view) string {
		if !x.fullNameMapped() {
			return ""
		}
		f, l := SplitName(nameOnly(x.mapped(field)(v)))
		if field == model.FieldFirstName {
			return f
		}
		return l
	}
}

func (x *Extractor) fullNameMapped() bool {
	firstEntry := x.mapping.Entry(model.FieldFirstName)
	return firstEntry.Found() && firstEntry.SameTarget(x.mapping.Entry(model.FieldLastName))
}

// nameOnly drops yes/no flag values that a mapped key may carry.
func nameOnly(s string) string {
	if _, flag := ToBool(s); flag {
		return ""
	}
	return s
}

func labeledName(part func(DescriptionFields) string) resolver {
	return func(v *view) string {
		d := v.description()
		if !d.NameLabeled {
			return ""
		}
		return part(d)
	}
}

// lookup reads the value at source/key on the event.
func lookup(v *view, source model.Source, key string) string {
	ev := v.ev
	switch source {
	case model.SourcePrivate:
		return ev.PrivateProps()[key]
	case model.SourceShared:
		return ev.SharedProps()[key]
	case model.SourceLocation:
		return ev.Location
	case model.SourceDescription:
		for _, p := range v.labeled() {
			if strings.EqualFold(p.Label, key) {
				return p.Value
			}
		}
	case model.SourceAttendee:
		if g := ev.Guest(); g != nil {
			return personField(g.Email, g.DisplayName, key)
		}
	case model.SourceCreator:
		if ev.Creator != nil {
			return personField(ev.Creator.Email, ev.Creator.DisplayName, key)
		}
	case model.SourceOrganizer:
		if ev.Organizer != nil {
			return personField(ev.Organizer.Email, ev.Organizer.DisplayName, key)
		}
	}
	return ""
}

func personField(email, displayName, key string) string {
	switch key {
	case "email":
		return email
	case "displayName":
		return displayName
	}
	return ""
}

func priceCents(v *view) *int64 {
	candidates := []string{
		v.ev.PrivateProps()["price_cents"],
		v.ev.SharedProps()["price_cents"],
	}
	m := v.keyValues()
	candidates = append(candidates, m["price_cents"], m["price (aud)"], m["price"])
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if cents, ok := ToCents(c); ok {
			return &cents
		}
	}
	return nil
}

func extendedFlag(v *view) *bool {
	if s := firstNonEmpty(v.ev.PrivateProps()["extended"], v.ev.SharedProps()["extended"]); s != "" {
		if b, ok := ToBool(s); ok {
			return &b
		}
	}
	m := v.keyValues()
	if s := firstNonEmpty(m["extended"], m["ext"], m["extra"]); s != "" {
		if b, ok := ToBool(s); ok {
			return &b
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, s := range vals {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
