// Package gcal lists events from the Google Calendar v3 REST API.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

const (
	// Scope is the read-only Calendar scope requested for the service account.
	Scope          = "https://www.googleapis.com/auth/calendar.readonly"
	DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

	pageSize     = 250
	maxErrorBody = 4 << 10
)

// APIError is a non-2xx response from the Calendar API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google calendar api: status %d: %s", e.Status, e.Body)
}

// Client lists calendar events. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient builds a Client authenticated with a service-account JSON key.
func NewClient(ctx context.Context, serviceAccountJSON []byte) (*Client, error) {
	if len(serviceAccountJSON) == 0 {
		return nil, fmt.Errorf("google service account credentials are not configured")
	}
	conf, err := google.JWTConfigFromJSON(serviceAccountJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	hc := conf.Client(ctx)
	hc.Timeout = 30 * time.Second
	return NewClientWithHTTP(hc, DefaultBaseURL), nil
}

// NewClientWithHTTP builds a Client over an already-authenticated HTTP client.
func NewClientWithHTTP(hc *http.Client, baseURL string) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: hc, baseURL: strings.TrimRight(baseURL, "/")}
}

type eventsPage struct {
	Items         []model.CalendarEvent `json:"items"`
	NextPageToken string                `json:"nextPageToken"`
}

// ListEvents returns the expanded single events of a calendar inside w,
// ordered by start time. It follows page tokens until the listing ends or
// w.Limit events have been read.
func (c *Client) ListEvents(ctx context.Context, calendarID string, w model.Window) ([]model.CalendarEvent, error) {
	var (
		events    []model.CalendarEvent
		pageToken string
		pages     int
	)
	for {
		page, err := c.listPage(ctx, calendarID, w, pageToken)
		if err != nil {
			return nil, err
		}
		pages++
		events = append(events, page.Items...)
		if w.Limit > 0 && len(events) >= w.Limit {
			events = events[:w.Limit]
			break
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	log.Debug("gcal events listed", "calendar_id", calendarID, "events", len(events), "pages", pages)
	return events, nil
}

func (c *Client) listPage(ctx context.Context, calendarID string, w model.Window, pageToken string) (*eventsPage, error) {
	q := url.Values{}
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", strconv.Itoa(pageSize))
	if !w.TimeMin.IsZero() {
		q.Set("timeMin", w.TimeMin.UTC().Format(time.RFC3339))
	}
	if !w.TimeMax.IsZero() {
		q.Set("timeMax", w.TimeMax.UTC().Format(time.RFC3339))
	}
	if w.ShowDeleted {
		q.Set("showDeleted", "true")
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	u := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(calendarID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build events request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var page eventsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode events page: %w", err)
	}
	return &page, nil
}
