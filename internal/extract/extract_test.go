package extract

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestAttendeeEmailWins(t *testing.T) {
	ev := &model.CalendarEvent{
		Attendees: []model.Attendee{
			{Email: "owner@school.example", Self: true},
			{Email: "guest@example.com", DisplayName: "Guest Person"},
		},
		ExtendedProperties: &model.ExtendedProperties{
			Private: map[string]string{"email": "props@example.com"},
		},
		Description: "Booked by\nSomeone Else\nother@example.com",
	}

	got := Extract(ev)
	if str(got.Email) != "guest@example.com" {
		t.Errorf("email = %s, want guest@example.com", str(got.Email))
	}
	if str(got.FirstName) != "Guest" || str(got.LastName) != "Person" {
		t.Errorf("name = %s %s", str(got.FirstName), str(got.LastName))
	}
}

func TestFieldsResolveIndependently(t *testing.T) {
	// The attendee has no display name, so the name comes from the
	// description while the email still comes from the attendee.
	ev := &model.CalendarEvent{
		Attendees:   []model.Attendee{{Email: "guest@example.com"}},
		Description: "Booked by: Mary Jane Watson\nMobile - 0412 345 678",
	}

	got := Extract(ev)
	if str(got.Email) != "guest@example.com" {
		t.Errorf("email = %s", str(got.Email))
	}
	if str(got.FirstName) != "Mary" || str(got.LastName) != "Jane Watson" {
		t.Errorf("name = %q %q", str(got.FirstName), str(got.LastName))
	}
	if str(got.Mobile) != "0412345678" {
		t.Errorf("mobile = %s", str(got.Mobile))
	}
}

func TestMobileFromDescriptionOnly(t *testing.T) {
	got := Extract(&model.CalendarEvent{Description: "Mobile: 0412345678"})
	if str(got.Mobile) != "0412345678" {
		t.Errorf("mobile = %s, want 0412345678", str(got.Mobile))
	}
}

func TestBookedByBlock(t *testing.T) {
	got := Extract(&model.CalendarEvent{Description: "Booked by\nJane Smith\njane@example.com"})
	if str(got.FirstName) != "Jane" || str(got.LastName) != "Smith" {
		t.Errorf("name = %s %s", str(got.FirstName), str(got.LastName))
	}
	if str(got.Email) != "jane@example.com" {
		t.Errorf("email = %s", str(got.Email))
	}
}

func TestGoogleBookingFormHTML(t *testing.T) {
	desc := `<b>Booked by</b><br>Sam O'Neil<br>sam@example.com<br><br><br>` +
		`<b>Mobile</b><br>+61 412 345 678<br><b>Pickup Address</b><br>12 Smith St, Richmond &amp; Co`
	got := Extract(&model.CalendarEvent{Description: desc})

	checks := map[string]string{
		"first":  str(got.FirstName),
		"last":   str(got.LastName),
		"email":  str(got.Email),
		"mobile": str(got.Mobile),
		"pickup": str(got.PickupLocation),
	}
	want := map[string]string{
		"first":  "Sam",
		"last":   "O'Neil",
		"email":  "sam@example.com",
		"mobile": "+61412345678",
		"pickup": "12 Smith St, Richmond & Co",
	}
	for k, w := range want {
		if checks[k] != w {
			t.Errorf("%s = %q, want %q", k, checks[k], w)
		}
	}
}

func TestExtendedPropertiesBeforeDescription(t *testing.T) {
	ev := &model.CalendarEvent{
		ExtendedProperties: &model.ExtendedProperties{
			Private: map[string]string{"given_name": " Alex "},
			Shared:  map[string]string{"surname": "Ng", "phone-number": "(04) 1234-5678", "email": "not-an-email"},
		},
		Description: "Booked by: Chris Example\nchris@example.com",
	}
	got := Extract(ev)
	if str(got.FirstName) != "Alex" || str(got.LastName) != "Ng" {
		t.Errorf("name = %q %q", str(got.FirstName), str(got.LastName))
	}
	if str(got.Mobile) != "0412345678" {
		t.Errorf("mobile = %s", str(got.Mobile))
	}
	if str(got.Email) != "chris@example.com" {
		t.Errorf("email = %s, want description fallback", str(got.Email))
	}
}

func TestCreatorFallback(t *testing.T) {
	ev := &model.CalendarEvent{
		Creator:   &model.Person{Email: "creator@example.com"},
		Organizer: &model.Person{DisplayName: "Org Anizer"},
	}
	got := Extract(ev)
	if str(got.Email) != "creator@example.com" {
		t.Errorf("email = %s", str(got.Email))
	}
	if str(got.FirstName) != "Org" || str(got.LastName) != "Anizer" {
		t.Errorf("name = %s %s", str(got.FirstName), str(got.LastName))
	}
	if got.Mobile != nil {
		t.Errorf("mobile = %s, want nil", str(got.Mobile))
	}
}

func TestPickupPrefersLocation(t *testing.T) {
	ev := &model.CalendarEvent{
		Location:           "  1 Station Rd  ",
		ExtendedProperties: &model.ExtendedProperties{Private: map[string]string{"pickup": "elsewhere"}},
	}
	if got := Extract(ev); str(got.PickupLocation) != "1 Station Rd" {
		t.Errorf("pickup = %q", str(got.PickupLocation))
	}
}

func TestBookingAttributes(t *testing.T) {
	ev := &model.CalendarEvent{
		Summary: "Auto Lesson auto_60 booking",
		ExtendedProperties: &model.ExtendedProperties{
			Shared: map[string]string{"price_cents": "8500", "extended": "yes"},
		},
		Description: "Notes: bring glasses",
	}
	got := Extract(ev)
	if str(got.ServiceCode) != "auto_60" {
		t.Errorf("service_code = %s", str(got.ServiceCode))
	}
	if got.PriceCents == nil || *got.PriceCents != 8500 {
		t.Errorf("price_cents = %v", got.PriceCents)
	}
	if got.Extended == nil || !*got.Extended {
		t.Errorf("extended = %v", got.Extended)
	}
	if str(got.Notes) != "bring glasses" {
		t.Errorf("notes = %s", str(got.Notes))
	}
}

func TestPriceFromDescription(t *testing.T) {
	got := Extract(&model.CalendarEvent{Description: "Service: manual_90\nPrice: $95.50"})
	if got.PriceCents == nil || *got.PriceCents != 9550 {
		t.Errorf("price_cents = %v", got.PriceCents)
	}
	if str(got.ServiceCode) != "manual_90" {
		t.Errorf("service_code = %s", str(got.ServiceCode))
	}
}

func TestEmptyEventDegradesToNil(t *testing.T) {
	for _, ev := range []*model.CalendarEvent{nil, {}} {
		got := Extract(ev)
		data, err := json.Marshal(got)
		if err != nil {
			t.Fatal(err)
		}
		want := `{"first_name":null,"last_name":null,"email":null,"mobile":null,"pickup_location":null,` +
			`"service_code":null,"price_cents":null,"extended":null,"notes":null}`
		if string(data) != want {
			t.Errorf("got %s", data)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	ev := &model.CalendarEvent{
		Summary:     "Lesson senior_auto",
		Location:    "3 Beach Rd",
		Description: `Booked by\nPat Lee\npat@example.com\nPrice: 120\nMobile\n0400 000 111`,
		ExtendedProperties: &model.ExtendedProperties{
			Private: map[string]string{"a": "1", "b": "2", "notes": "n"},
		},
	}
	a, _ := json.Marshal(Extract(ev))
	b, _ := json.Marshal(Extract(ev))
	if !bytes.Equal(a, b) {
		t.Fatalf("outputs differ:\n%s\n%s", a, b)
	}
}

func TestCalibratedMapping(t *testing.T) {
	key, src := "Student", model.SourceDescription
	mobileKey, mobileSrc := "contact_no", model.SourcePrivate
	score := 0.9
	mapping := model.FieldMapping{
		model.FieldFirstName: {Key: &key, Source: &src, Score: &score},
		model.FieldLastName:  {Key: &key, Source: &src, Score: &score},
		model.FieldMobile:    {Key: &mobileKey, Source: &mobileSrc, Score: &score},
	}
	x := New(WithMapping(mapping))

	ev := &model.CalendarEvent{
		Description: "Student: Robin Van Dyke\nLesson at 9",
		ExtendedProperties: &model.ExtendedProperties{
			Private: map[string]string{"contact_no": "0412 000 999"},
		},
	}
	got := x.Extract(ev)
	if str(got.FirstName) != "Robin" || str(got.LastName) != "Van Dyke" {
		t.Errorf("name = %q %q", str(got.FirstName), str(got.LastName))
	}
	if str(got.Mobile) != "0412000999" {
		t.Errorf("mobile = %s", str(got.Mobile))
	}
}

func TestCustomLabels(t *testing.T) {
	x := New(WithLabels([]Label{
		{Field: FieldName, Inline: []string{"Student"}},
		{Field: model.FieldPickup, OwnLine: []string{"Meet at"}},
	}))
	got := x.Extract(&model.CalendarEvent{Description: "Student: Kim Park\nMeet at\nFlinders St Station"})
	if str(got.FirstName) != "Kim" || str(got.PickupLocation) != "Flinders St Station" {
		t.Errorf("got first=%s pickup=%s", str(got.FirstName), str(got.PickupLocation))
	}
}

func TestOwnerAttendeeWhenNoGuest(t *testing.T) {
	ev := &model.CalendarEvent{
		Attendees:   []model.Attendee{{Email: "owner@school.example", Self: true}},
		Description: "Notes\nCall other@example.com on arrival",
	}
	got := Extract(ev)
	if str(got.Email) != "owner@school.example" {
		t.Errorf("email = %s, want owner@school.example", str(got.Email))
	}
}

func TestLabeledNameBeatsFullNameMapping(t *testing.T) {
	key, src := "created_by", model.SourceShared
	score := 1.0
	x := New(WithMapping(model.FieldMapping{
		model.FieldFirstName: {Key: &key, Source: &src, Score: &score},
		model.FieldLastName:  {Key: &key, Source: &src, Score: &score},
	}))

	got := x.Extract(&model.CalendarEvent{
		Description:        "Booked by\nJane Smith\njane@example.com",
		ExtendedProperties: &model.ExtendedProperties{Shared: map[string]string{"created_by": "admin"}},
	})
	if str(got.FirstName) != "Jane" || str(got.LastName) != "Smith" {
		t.Errorf("name = %s %s", str(got.FirstName), str(got.LastName))
	}
}

func TestMappedFlagValueIsNotAName(t *testing.T) {
	key, src := "is_booking", model.SourceShared
	score := 1.0
	x := New(WithMapping(model.FieldMapping{
		model.FieldFirstName: {Key: &key, Source: &src, Score: &score},
		model.FieldLastName:  {Key: &key, Source: &src, Score: &score},
	}))

	got := x.Extract(&model.CalendarEvent{
		ExtendedProperties: &model.ExtendedProperties{Shared: map[string]string{"is_booking": "true"}},
	})
	if got.FirstName != nil || got.LastName != nil {
		t.Errorf("name = %s %s, want nil", str(got.FirstName), str(got.LastName))
	}
}
