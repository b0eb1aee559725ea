package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/repository"
)

type fakeSource struct {
	events  map[string][]model.CalendarEvent
	err     error
	windows []model.Window
}

func (f *fakeSource) ListEvents(_ context.Context, calendarID string, w model.Window) ([]model.CalendarEvent, error) {
	f.windows = append(f.windows, w)
	if f.err != nil {
		return nil, f.err
	}
	evs, ok := f.events[calendarID]
	if !ok {
		return nil, ErrUnknownCalendar
	}
	return evs, nil
}

type fakeMappings struct {
	mu      sync.Mutex
	stored  map[string]*model.StoredMapping
	getErr  error
	upserts int
}

func newFakeMappings() *fakeMappings {
	return &fakeMappings{stored: make(map[string]*model.StoredMapping)}
}

func (f *fakeMappings) Upsert(_ context.Context, calendarID string, m model.FieldMapping) (*model.StoredMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	s := &model.StoredMapping{CalendarID: calendarID, FieldMap: m, UpdatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	f.stored[calendarID] = s
	return s, nil
}

func (f *fakeMappings) Get(_ context.Context, calendarID string) (*model.StoredMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.stored[calendarID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

type fakeBookings struct {
	byEvent   map[string]*model.Booking
	failFor   map[string]bool
	cancelled map[string]time.Time
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{
		byEvent:   make(map[string]*model.Booking),
		failFor:   make(map[string]bool),
		cancelled: make(map[string]time.Time),
	}
}

func (f *fakeBookings) Upsert(_ context.Context, b *model.Booking) (bool, error) {
	if f.failFor[b.GoogleEventID] {
		return false, errors.New("db down")
	}
	_, existed := f.byEvent[b.GoogleEventID]
	cp := *b
	f.byEvent[b.GoogleEventID] = &cp
	return !existed, nil
}

func (f *fakeBookings) MarkCancelled(_ context.Context, googleEventID string, at time.Time) (bool, error) {
	b, ok := f.byEvent[googleEventID]
	if !ok || b.Status == model.BookingCancelled {
		return false, nil
	}
	b.Status = model.BookingCancelled
	b.CancelledAt = &at
	f.cancelled[googleEventID] = at
	return true, nil
}

func (f *fakeBookings) ListByCalendar(_ context.Context, calendarID string, flt repository.BookingFilter) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.byEvent {
		if b.CalendarID != calendarID {
			continue
		}
		if !flt.IncludeCancelled && b.Status == model.BookingCancelled {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

type fakePrices map[string]int64

func (f fakePrices) PriceCents(_ context.Context, code string) (int64, bool, error) {
	c, ok := f[code]
	return c, ok, nil
}

type fakeLogs struct {
	entries []model.SyncLog
}

func (f *fakeLogs) Insert(_ context.Context, l *model.SyncLog) error {
	f.entries = append(f.entries, *l)
	return nil
}

func (f *fakeLogs) Latest(_ context.Context, calendarID string) (*model.SyncLog, error) {
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].CalendarID == calendarID {
			l := f.entries[i]
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func fixedNow() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }

func timed(start time.Time, d time.Duration) (*model.EventTime, *model.EventTime) {
	return &model.EventTime{DateTime: start.Format(time.RFC3339)},
		&model.EventTime{DateTime: start.Add(d).Format(time.RFC3339)}
}
