package extract

import (
	"reflect"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"escaped newlines", `Booked by\nJane`, "Booked by\nJane"},
		{"html breaks", "<p>Mobile<br/>0400&nbsp;111 222</p>", "Mobile\n0400 111 222"},
		{"entities", "A &lt;b&gt; &AMP; c", "A <b> & c"},
		{"blank runs", "a\n\n\n\n  b  ", "a\n\nb"},
		{"unterminated tag", "x <span", "x"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDescriptionNameFallback(t *testing.T) {
	got := ParseDescription("Pickup Address\n\n12 Hill St\n0412 345 678\nLee Chan")
	if got.Pickup != "12 Hill St" {
		t.Errorf("pickup = %q", got.Pickup)
	}
	if got.FirstName != "Lee" || got.LastName != "Chan" {
		t.Errorf("name = %q %q", got.FirstName, got.LastName)
	}
	if got.Mobile != "0412345678" {
		t.Errorf("mobile = %q", got.Mobile)
	}
}

func TestParseDescriptionSkipsLongLines(t *testing.T) {
	got := ParseDescription("Please call me before you arrive today\n0400 111 222")
	if got.FirstName != "" {
		t.Errorf("first = %q, want none", got.FirstName)
	}
}

func TestLabeledValues(t *testing.T) {
	desc := "Booked by\nJane Smith\nMobile:\n0412 345 678\nPickup Address - 5 Main St\nSee https://example.com\nEmail address: jane@example.com"
	got := LabeledValues(desc)
	want := []LabeledValue{
		{Label: "Booked by", Value: "Jane Smith"},
		{Label: "Mobile", Value: "0412 345 678"},
		{Label: "Pickup Address", Value: "5 Main St"},
		{Label: "Email address", Value: "jane@example.com"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LabeledValues =\n%#v\nwant\n%#v", got, want)
	}
}

func TestParseDescriptionSkipsHeadings(t *testing.T) {
	tests := []struct {
		name, in string
	}{
		{"section heading", "Notes\n0400 111 222\nLee Chan"},
		{"colon heading", "Lesson type:\nLee Chan"},
		{"key used inline", "Pickup - 4 Hill St\nPickup\nLee Chan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDescription(tt.in)
			if got.FirstName != "Lee" || got.LastName != "Chan" {
				t.Errorf("name = %q %q", got.FirstName, got.LastName)
			}
			if got.NameLabeled {
				t.Error("fallback name reported as labelled")
			}
		})
	}
}
