package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/extract"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/mobile"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/repository"
)

// SyncService copies calendar events into the bookings table.
type SyncService struct {
	source    EventSource
	mappings  *MappingService
	bookings  BookingStore
	prices    PriceLookup
	logs      SyncLogStore
	calendars []string
	maxEvents int
	now       func() time.Time
}

// NewSyncService constructs a SyncService. calendars is the set SyncAll walks.
func NewSyncService(
	source EventSource,
	mappings *MappingService,
	bookings BookingStore,
	prices PriceLookup,
	logs SyncLogStore,
	calendars []string,
	maxEvents int,
) *SyncService {
	return &SyncService{
		source:    source,
		mappings:  mappings,
		bookings:  bookings,
		prices:    prices,
		logs:      logs,
		calendars: calendars,
		maxEvents: maxEvents,
		now:       time.Now,
	}
}

// SyncAll syncs every configured calendar in turn. A failing calendar does
// not stop the others; its error is reported in its result.
func (s *SyncService) SyncAll(ctx context.Context) []model.SyncResult {
	results := make([]model.SyncResult, 0, len(s.calendars))
	for _, id := range s.calendars {
		if ctx.Err() != nil {
			break
		}
		res, err := s.SyncCalendar(ctx, id)
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// SyncCalendar reads the calendar from now on, including cancelled events,
// and upserts a booking per event. A sync log row is written whatever the
// outcome.
func (s *SyncService) SyncCalendar(ctx context.Context, calendarID string) (model.SyncResult, error) {
	calendarID, err := requireCalendarID(calendarID)
	if err != nil {
		return model.SyncResult{}, err
	}
	res := model.SyncResult{CalendarID: calendarID}
	started := s.now().UTC()

	x, err := s.mappings.Extractor(ctx, calendarID)
	if err != nil {
		log.Error("field mapping unavailable, using heuristics", err, "calendar_id", calendarID)
		x = extract.New()
	}

	events, err := s.source.ListEvents(ctx, calendarID, model.Window{
		TimeMin:     started,
		ShowDeleted: true,
		Limit:       s.maxEvents,
	})
	if err != nil {
		err = upstream(calendarID, err)
		s.writeLog(ctx, res, started, err)
		return res, err
	}

	for i := range events {
		ev := &events[i]
		switch s.syncEvent(ctx, calendarID, x, ev) {
		case outcomeSynced:
			res.Synced++
		case outcomeCancelled:
			res.Cancelled++
		default:
			res.Skipped++
		}
	}

	s.writeLog(ctx, res, started, nil)
	log.Info("calendar synced", "calendar_id", calendarID, "events", len(events),
		"synced", res.Synced, "cancelled", res.Cancelled, "skipped", res.Skipped)
	return res, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSynced
	outcomeCancelled
)

func (s *SyncService) syncEvent(ctx context.Context, calendarID string, x *extract.Extractor, ev *model.CalendarEvent) outcome {
	if ev.IsCancelled() {
		// Cancelled instances often come back without start/end.
		at := s.now().UTC()
		if t, err := time.Parse(time.RFC3339, ev.Updated); err == nil {
			at = t
		}
		changed, err := s.bookings.MarkCancelled(ctx, ev.ID, at)
		if err != nil {
			log.Error("cancel booking failed", err, "event_id", ev.ID)
			return outcomeSkipped
		}
		if !changed {
			return outcomeSkipped
		}
		return outcomeCancelled
	}

	start, okStart := ev.Start.Time()
	end, okEnd := ev.End.Time()
	if !okStart || !okEnd {
		log.Debug("event skipped: missing start/end", "event_id", ev.ID)
		return outcomeSkipped
	}
	if ev.IsWorkingLocation() {
		return outcomeSkipped
	}

	b, err := s.buildBooking(ctx, calendarID, x, ev, start, end)
	if err != nil {
		log.Error("build booking failed", err, "event_id", ev.ID)
		return outcomeSkipped
	}
	if _, err := s.bookings.Upsert(ctx, b); err != nil {
		log.Error("upsert booking failed", err, "event_id", ev.ID)
		return outcomeSkipped
	}
	return outcomeSynced
}

func (s *SyncService) buildBooking(
	ctx context.Context,
	calendarID string,
	x *extract.Extractor,
	ev *model.CalendarEvent,
	start, end time.Time,
) (*model.Booking, error) {
	parsed := x.Extract(ev)

	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	b := &model.Booking{
		GoogleEventID: ev.ID,
		CalendarID:    calendarID,
		FirstName:     parsed.FirstName,
		LastName:      parsed.LastName,
		Email:         parsed.Email,
		Mobile:        parsed.Mobile,
		Pickup:        parsed.PickupLocation,
		Start:         start.UTC(),
		End:           end.UTC(),
		Title:         nonEmpty(ev.Summary),
		IsBooking:     isBooking(ev, parsed),
		IsPaid:        isPaid(ev),
		Extended:      raw,
		Status:        model.BookingConfirmed,
	}
	if parsed.Mobile != nil {
		if n := mobile.ParseAU(*parsed.Mobile); n.Valid {
			b.MobileE164 = &n.E164
		}
	}

	var code string
	if parsed.ServiceCode != nil {
		code = *parsed.ServiceCode
	} else {
		code = extract.InferServiceCode(ev.Summary, end.Sub(start))
	}
	b.ServiceCode = nonEmpty(code)
	b.PriceCents = parsed.PriceCents
	if code != "" && s.prices != nil {
		cents, ok, err := s.prices.PriceCents(ctx, code)
		switch {
		case err != nil:
			log.Error("service price lookup failed", err, "service_code", code)
		case ok:
			b.PriceCents = &cents
		}
	}
	return b, nil
}

// isBooking honours an explicit shared is_booking flag, otherwise treats the
// event as a booking when the form's mandatory fields were all found.
func isBooking(ev *model.CalendarEvent, p model.ParsedBooking) bool {
	switch ev.SharedProps()["is_booking"] {
	case "true":
		return true
	case "false":
		return false
	}
	ok := p.FirstName != nil && p.LastName != nil && p.Email != nil
	if ok && (p.Mobile == nil || p.PickupLocation == nil) {
		log.Debug("booking without mobile or pickup", "event_id", ev.ID,
			"has_mobile", p.Mobile != nil, "has_pickup", p.PickupLocation != nil)
	}
	return ok
}

// isPaid reads shared is_paid, then the inverted legacy is_payment_required.
func isPaid(ev *model.CalendarEvent) bool {
	shared := ev.SharedProps()
	switch strings.ToLower(shared["is_paid"]) {
	case "true":
		return true
	case "false":
		return false
	}
	return strings.ToLower(shared["is_payment_required"]) == "false"
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *SyncService) writeLog(ctx context.Context, res model.SyncResult, started time.Time, syncErr error) {
	if s.logs == nil {
		return
	}
	entry := &model.SyncLog{
		ID:             uuid.New().String(),
		CalendarID:     res.CalendarID,
		Status:         model.SyncSucceeded,
		StartedAt:      started,
		FinishedAt:     s.now().UTC(),
		SyncedCount:    res.Synced,
		CancelledCount: res.Cancelled,
		SkippedCount:   res.Skipped,
	}
	if syncErr != nil {
		entry.Status = model.SyncFailed
		entry.Message = syncErr.Error()
	}
	// The run's context may already be cancelled; the log row still matters.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.logs.Insert(logCtx, entry); err != nil {
		log.Error("write sync log failed", err, "calendar_id", res.CalendarID)
	}
}

// LastSync returns the most recent sync log for a calendar.
func (s *SyncService) LastSync(ctx context.Context, calendarID string) (*model.SyncLog, error) {
	calendarID, err := requireCalendarID(calendarID)
	if err != nil {
		return nil, err
	}
	l, err := s.logs.Latest(ctx, calendarID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get last sync: %w", err)
	}
	return l, nil
}

// BookingQuery selects bookings for ListBookings.
type BookingQuery struct {
	From, To         time.Time
	IncludeCancelled bool
	Limit            int
}

const (
	defaultBookingLimit = 100
	maxBookingLimit     = 1000
)

// ListBookings returns synced bookings for a calendar.
func (s *SyncService) ListBookings(ctx context.Context, calendarID string, q BookingQuery) ([]model.Booking, error) {
	calendarID, err := requireCalendarID(calendarID)
	if err != nil {
		return nil, err
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.To.After(q.From) {
		return nil, invalid("to must be after from")
	}
	switch {
	case q.Limit < 0 || q.Limit > maxBookingLimit:
		return nil, invalid("limit must be between 1 and %d", maxBookingLimit)
	case q.Limit == 0:
		q.Limit = defaultBookingLimit
	}
	bookings, err := s.bookings.ListByCalendar(ctx, calendarID, repository.BookingFilter{
		From:             q.From,
		To:               q.To,
		IncludeCancelled: q.IncludeCancelled,
		Limit:            q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
