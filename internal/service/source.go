package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

// FeedSource is an EventSource that only serves some calendars.
type FeedSource interface {
	EventSource
	Has(calendarID string) bool
}

// RoutedSource reads calendars with a configured feed from that feed and
// every other configured calendar from the API source.
type RoutedSource struct {
	api   EventSource
	feeds FeedSource
	known map[string]bool
}

// NewRoutedSource builds a RoutedSource. api or feeds may be nil. An empty
// calendars list allows any calendar ID through to the API source.
func NewRoutedSource(api EventSource, feeds FeedSource, calendars []string) *RoutedSource {
	known := make(map[string]bool, len(calendars))
	for _, id := range calendars {
		known[id] = true
	}
	return &RoutedSource{api: api, feeds: feeds, known: known}
}

// ListEvents implements EventSource.
func (s *RoutedSource) ListEvents(ctx context.Context, calendarID string, w model.Window) ([]model.CalendarEvent, error) {
	if s.feeds != nil && s.feeds.Has(calendarID) {
		return s.feeds.ListEvents(ctx, calendarID, w)
	}
	if s.api == nil || (len(s.known) > 0 && !s.known[calendarID]) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCalendar, calendarID)
	}
	return s.api.ListEvents(ctx, calendarID, w)
}
