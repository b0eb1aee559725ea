package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

type fakeFeed struct {
	fakeSource
	ids map[string]bool
}

func (f *fakeFeed) Has(id string) bool { return f.ids[id] }

func TestRoutedSource(t *testing.T) {
	api := &fakeSource{events: map[string][]model.CalendarEvent{"api-cal": {{ID: "from-api"}}}}
	feed := &fakeFeed{
		fakeSource: fakeSource{events: map[string][]model.CalendarEvent{"ics-cal": {{ID: "from-ics"}}}},
		ids:        map[string]bool{"ics-cal": true},
	}
	src := NewRoutedSource(api, feed, []string{"api-cal", "ics-cal"})

	tests := []struct {
		id   string
		want string
	}{
		{"api-cal", "from-api"},
		{"ics-cal", "from-ics"},
	}
	for _, tt := range tests {
		evs, err := src.ListEvents(context.Background(), tt.id, model.Window{})
		if err != nil || len(evs) != 1 || evs[0].ID != tt.want {
			t.Errorf("%s: %+v, %v", tt.id, evs, err)
		}
	}

	if _, err := src.ListEvents(context.Background(), "stranger", model.Window{}); !errors.Is(err, ErrUnknownCalendar) {
		t.Errorf("err = %v, want ErrUnknownCalendar", err)
	}

	noAPI := NewRoutedSource(nil, feed, nil)
	if _, err := noAPI.ListEvents(context.Background(), "api-cal", model.Window{}); !errors.Is(err, ErrUnknownCalendar) {
		t.Errorf("err = %v, want ErrUnknownCalendar", err)
	}
}
