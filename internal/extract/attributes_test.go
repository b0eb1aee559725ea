package extract

import (
	"testing"
	"time"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"85", 8500, true},
		{"85.50", 8550, true},
		{"8500", 8500, true},
		{"$19.99", 1999, true},
		{"AUD 120", 12000, true},
		{"999", 99900, true},
		{"1000", 1000, true},
		{"", 0, false},
		{"free", 0, false},
		{"1.2.3", 0, false},
		{"1234567890123.45", 123456789012345, true},
		{"99999999999999999999999", 0, false},
		{"$99999999999999999.99", 0, false},
	}
	for _, tt := range tests {
		got, ok := ToCents(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToCents(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToBool(t *testing.T) {
	for _, in := range []string{"true", "YES", " y ", "1"} {
		if v, ok := ToBool(in); !v || !ok {
			t.Errorf("ToBool(%q) = %v, %v", in, v, ok)
		}
	}
	for _, in := range []string{"false", "No", "n", "0"} {
		if v, ok := ToBool(in); v || !ok {
			t.Errorf("ToBool(%q) = %v, %v", in, v, ok)
		}
	}
	if _, ok := ToBool("maybe"); ok {
		t.Error("ToBool(maybe) should be unknown")
	}
}

func TestParseKV(t *testing.T) {
	got := ParseKV("Service Code: auto_90\n\n  Pickup - 4 Hill St \nnot a pair\nservice code: auto_120")
	if got["service code"] != "auto_120" {
		t.Errorf("service code = %q, later line should win", got["service code"])
	}
	if got["pickup"] != "4 Hill St" {
		t.Errorf("pickup = %q", got["pickup"])
	}
	if len(got) != 2 {
		t.Errorf("got %d keys: %v", len(got), got)
	}
}

func TestFindServiceCode(t *testing.T) {
	tests := map[string]string{
		"Auto Lesson auto_60 booking": "auto_60",
		"MANUAL_90 lesson":            "MANUAL_90",
		"Driving Lesson (Jo Blogs)":   "",
	}
	for in, want := range tests {
		if got := FindServiceCode(in); got != want {
			t.Errorf("FindServiceCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInferServiceCode(t *testing.T) {
	tests := []struct {
		title string
		d     time.Duration
		want  string
	}{
		{"Driving Lesson", 60 * time.Minute, "auto_60"},
		{"Driving Lesson", 95 * time.Minute, "auto_90"},
		{"Senior refresher", 120 * time.Minute, "senior_auto_120"},
		{"Manual lesson", 55 * time.Minute, "manual_60"},
		{"Driving Lesson", 45 * time.Minute, ""},
		{"", 60 * time.Minute, ""},
	}
	for _, tt := range tests {
		if got := InferServiceCode(tt.title, tt.d); got != tt.want {
			t.Errorf("InferServiceCode(%q, %v) = %q, want %q", tt.title, tt.d, got, tt.want)
		}
	}
}
