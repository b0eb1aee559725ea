// Package ics reads calendar events from secret iCalendar feed URLs, for
// calendars the service account cannot reach through the API.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

// ErrNoFeed means no feed URL is configured for the calendar.
var ErrNoFeed = errors.New("no ics feed for calendar")

// Feed serves events for calendars backed by an ICS URL.
type Feed struct {
	client *http.Client
	urls   map[string]string
}

// NewFeed maps calendar IDs to feed URLs. A nil client gets a default with a
// 15s timeout.
func NewFeed(urls map[string]string, client *http.Client) *Feed {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	m := make(map[string]string, len(urls))
	for id, u := range urls {
		m[id] = u
	}
	return &Feed{client: client, urls: m}
}

// Has reports whether calendarID has a feed.
func (f *Feed) Has(calendarID string) bool {
	_, ok := f.urls[calendarID]
	return ok
}

// ListEvents fetches and parses the feed for calendarID.
func (f *Feed) ListEvents(ctx context.Context, calendarID string, w model.Window) ([]model.CalendarEvent, error) {
	u, ok := f.urls[calendarID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFeed, calendarID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build ics request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ics %s: %w", redactURL(u), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch ics %s: %s", redactURL(u), resp.Status)
	}

	events, err := Parse(resp.Body, w)
	if err != nil {
		return nil, fmt.Errorf("parse ics %s: %w", redactURL(u), err)
	}
	log.Info("ics feed read", "calendar_id", calendarID, "url", redactURL(u), "events", len(events))
	return events, nil
}

// redactURL keeps only the scheme and host; feed paths carry secrets.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
