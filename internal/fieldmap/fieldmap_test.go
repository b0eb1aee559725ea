package fieldmap

import (
	"fmt"
	"testing"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/extract"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

func privateEvent(props map[string]string) model.CalendarEvent {
	return model.CalendarEvent{ExtendedProperties: &model.ExtendedProperties{Private: props}}
}

func TestDetectEmailFromPrivateProperty(t *testing.T) {
	var events []model.CalendarEvent
	for i := 0; i < 10; i++ {
		v := fmt.Sprintf("student%d@example.com", i)
		if i == 3 {
			v = "not provided"
		}
		events = append(events, privateEvent(map[string]string{"contact_email": v}))
	}

	res := Detect(events, Options{})
	got := res.Mapping[model.FieldEmail]
	if got.Key == nil || *got.Key != "contact_email" {
		t.Fatalf("key = %v, want contact_email", got.Key)
	}
	if *got.Source != model.SourcePrivate {
		t.Errorf("source = %s", *got.Source)
	}
	if *got.Score < 0.5 || *got.Score > 1 {
		t.Errorf("score = %v", *got.Score)
	}
	if len(got.Examples) != maxExamples {
		t.Errorf("examples = %v", got.Examples)
	}
	if res.EventsScanned != 10 {
		t.Errorf("events scanned = %d", res.EventsScanned)
	}
	if n := len(res.RawSamples["private:contact_email"]); n != 10 {
		t.Errorf("raw samples = %d", n)
	}
}

func TestDetectBelowThresholdIsNull(t *testing.T) {
	events := []model.CalendarEvent{
		privateEvent(map[string]string{"contact": "a@example.com"}),
		privateEvent(map[string]string{"contact": "call later"}),
		privateEvent(map[string]string{"contact": "n/a"}),
	}
	res := Detect(events, Options{})
	for _, field := range []string{model.FieldEmail, model.FieldMobile, model.FieldPickup} {
		e := res.Mapping[field]
		if e.Key != nil || e.Source != nil || e.Score != nil {
			t.Errorf("%s = %+v, want null entry", field, e)
		}
		if e.Examples == nil {
			t.Errorf("%s examples should be an empty list", field)
		}
	}
	if len(res.Candidates[model.FieldEmail]) != 1 {
		t.Errorf("email candidates = %+v", res.Candidates[model.FieldEmail])
	}
}

func TestDetectExplicitNameKeys(t *testing.T) {
	var events []model.CalendarEvent
	for _, n := range [][2]string{{"Ana", "Lopez"}, {"Ben", "Okafor"}, {"Cleo", "Ng"}} {
		events = append(events, model.CalendarEvent{
			ExtendedProperties: &model.ExtendedProperties{Shared: map[string]string{
				"Given-Name": n[0],
				"surname":    n[1],
				"full":       n[0] + " " + n[1],
			}},
		})
	}
	res := Detect(events, Options{})
	first, last := res.Mapping[model.FieldFirstName], res.Mapping[model.FieldLastName]
	if first.Key == nil || *first.Key != "Given-Name" || *first.Source != model.SourceShared {
		t.Errorf("first = %+v", first)
	}
	if last.Key == nil || *last.Key != "surname" {
		t.Errorf("last = %+v", last)
	}
}

func TestDetectFullNameFillsBothSlots(t *testing.T) {
	var events []model.CalendarEvent
	for _, n := range []string{"José Núñez", "Mary Jane Watson", "Lee Chan", "Sam O'Neil"} {
		events = append(events, model.CalendarEvent{Description: "Student: " + n + "\nMobile: 0412 345 678"})
	}
	res := Detect(events, Options{})
	first, last := res.Mapping[model.FieldFirstName], res.Mapping[model.FieldLastName]
	if first.Key == nil || *first.Key != "Student" || *first.Source != model.SourceDescription {
		t.Fatalf("first = %+v", first)
	}
	if !first.SameTarget(last) {
		t.Errorf("last = %+v, want same target as first", last)
	}
	if *first.Score != 1 {
		t.Errorf("score = %v", *first.Score)
	}

	mobile := res.Mapping[model.FieldMobile]
	if mobile.Key == nil || *mobile.Key != "Mobile" {
		t.Errorf("mobile = %+v", mobile)
	}
	// The same value in every event is still one sample per event.
	if n := len(res.LabelSamples["Mobile"]); n != 4 {
		t.Errorf("label samples = %d", n)
	}
}

func TestDetectPickup(t *testing.T) {
	events := []model.CalendarEvent{
		{Location: "12 Smith St, Richmond"},
		{Location: "Flinders Street Station"},
		{Location: "Home"},
		{Location: "5 High Rd"},
		{Location: "Online"},
	}
	res := Detect(events, Options{})
	e := res.Mapping[model.FieldPickup]
	if e.Key == nil || *e.Source != model.SourceLocation {
		t.Fatalf("pickup = %+v", e)
	}
	if *e.Score != 0.6 {
		t.Errorf("score = %v", *e.Score)
	}
}

func TestDetectAttendeeBeatsCreatorOnTie(t *testing.T) {
	var events []model.CalendarEvent
	for i := 0; i < 3; i++ {
		events = append(events, model.CalendarEvent{
			Attendees: []model.Attendee{{Email: fmt.Sprintf("g%d@example.com", i)}},
			Creator:   &model.Person{Email: "school@example.com"},
		})
	}
	res := Detect(events, Options{})
	e := res.Mapping[model.FieldEmail]
	if e.Key == nil || *e.Source != model.SourceAttendee || *e.Key != "email" {
		t.Errorf("email = %+v", e)
	}
	if got := len(res.Candidates[model.FieldEmail]); got != 2 {
		t.Errorf("candidates = %d", got)
	}
}

func TestDetectRespectsLimits(t *testing.T) {
	var events []model.CalendarEvent
	for i := 0; i < 50; i++ {
		events = append(events, privateEvent(map[string]string{"n": fmt.Sprint(i)}))
	}
	res := Detect(events, Options{SampleLimit: 30, MaxSamplesPerKey: 7})
	if res.EventsScanned != 30 {
		t.Errorf("events scanned = %d", res.EventsScanned)
	}
	if n := len(res.RawSamples["private:n"]); n != 7 {
		t.Errorf("samples = %d", n)
	}
}

func TestDetectEmpty(t *testing.T) {
	res := Detect(nil, Options{})
	for _, f := range model.MappedFields {
		if res.Mapping[f].Found() {
			t.Errorf("%s mapped on empty input", f)
		}
		if res.Candidates[f] == nil {
			t.Errorf("%s candidates nil", f)
		}
	}
}

func TestFold(t *testing.T) {
	if got := fold("Zoë Ñúñez"); got != "Zoe Nunez" {
		t.Errorf("fold = %q", got)
	}
	if got := normalizeKey(" Family_Name "); got != "familyname" {
		t.Errorf("normalizeKey = %q", got)
	}
}

func TestDetectIgnoresMarkerProperties(t *testing.T) {
	var events []model.CalendarEvent
	for _, n := range []string{
		"Jane Smith", "Ana Lopez", "Ben Okafor", "Cleo Ng", "Tom (Tommy) Brown",
		"Dev Patel", "Eli Cohen", "Fay Wong", "Gus Reid", "Hana Sato",
	} {
		events = append(events, model.CalendarEvent{
			Description: "Booked by\n" + n + "\nstudent@example.com",
			ExtendedProperties: &model.ExtendedProperties{Shared: map[string]string{
				"created_by":          "admin",
				"is_booking":          "true",
				"is_payment_required": "false",
			}},
		})
	}

	res := Detect(events, Options{})
	first := res.Mapping[model.FieldFirstName]
	if first.Key == nil || *first.Key != "Booked by" || *first.Source != model.SourceDescription {
		t.Fatalf("first = %+v, want desc Booked by", first)
	}
	for _, c := range res.Candidates[model.FieldFirstName] {
		if c.Source == model.SourceShared {
			t.Errorf("shared marker %s scored as a name (%v)", c.Key, c.Score)
		}
	}

	got := extract.New(extract.WithMapping(res.Mapping)).Extract(&events[0])
	if got.FirstName == nil || *got.FirstName != "Jane" || got.LastName == nil || *got.LastName != "Smith" {
		t.Errorf("extracted name = %v %v", got.FirstName, got.LastName)
	}
}

func TestConstantValues(t *testing.T) {
	tests := []struct {
		in   []string
		want bool
	}{
		{[]string{"admin"}, false},
		{[]string{"admin", "Admin", "ADMIN"}, true},
		{[]string{"Jane Smith", "Ana Lopez"}, false},
	}
	for _, tt := range tests {
		if got := constant(tt.in); got != tt.want {
			t.Errorf("constant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, v := range []string{"true", "No", "y"} {
		if isName(v) {
			t.Errorf("isName(%q) = true", v)
		}
	}
}
