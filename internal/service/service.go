// Package service implements business logic, validation, and orchestration
// between HTTP handlers, calendar sources and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/repository"
)

var (
	// ErrInvalidInput marks a request the caller must fix.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownCalendar means no event source serves the calendar.
	ErrUnknownCalendar = errors.New("unknown calendar")
	// ErrUpstream wraps failures of the calendar provider.
	ErrUpstream = errors.New("calendar provider error")
)

// EventSource lists calendar events inside a window.
type EventSource interface {
	ListEvents(ctx context.Context, calendarID string, w model.Window) ([]model.CalendarEvent, error)
}

// MappingStore persists calibrated field mappings.
type MappingStore interface {
	Upsert(ctx context.Context, calendarID string, m model.FieldMapping) (*model.StoredMapping, error)
	Get(ctx context.Context, calendarID string) (*model.StoredMapping, error)
}

// BookingStore persists synced bookings.
type BookingStore interface {
	Upsert(ctx context.Context, b *model.Booking) (inserted bool, err error)
	MarkCancelled(ctx context.Context, googleEventID string, at time.Time) (bool, error)
	ListByCalendar(ctx context.Context, calendarID string, f repository.BookingFilter) ([]model.Booking, error)
}

// PriceLookup resolves lesson prices by service code.
type PriceLookup interface {
	PriceCents(ctx context.Context, code string) (cents int64, ok bool, err error)
}

// SyncLogStore records sync runs.
type SyncLogStore interface {
	Insert(ctx context.Context, l *model.SyncLog) error
	Latest(ctx context.Context, calendarID string) (*model.SyncLog, error)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func requireCalendarID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("calendar_id is required")
	}
	return id, nil
}

// upstream classifies an event source failure.
func upstream(calendarID string, err error) error {
	if errors.Is(err, ErrUnknownCalendar) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: list events for %s: %w", ErrUpstream, calendarID, err)
}
