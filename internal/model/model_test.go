package model

import "testing"

func TestGuest(t *testing.T) {
	tests := []struct {
		name      string
		attendees []Attendee
		want      string
	}{
		{"guest before owner", []Attendee{{Email: "owner@school.example", Self: true}, {Email: "guest@example.com"}}, "guest@example.com"},
		{"owner only", []Attendee{{Email: "owner@school.example", Self: true}}, "owner@school.example"},
		{"skips blank email", []Attendee{{DisplayName: "No Email"}, {Email: " ", Self: true}, {Email: "owner@school.example", Self: true}}, "owner@school.example"},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &CalendarEvent{Attendees: tt.attendees}
			got := ""
			if g := ev.Guest(); g != nil {
				got = g.Email
			}
			if got != tt.want {
				t.Errorf("Guest() = %q, want %q", got, tt.want)
			}
		})
	}
}
