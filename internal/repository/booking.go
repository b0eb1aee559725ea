package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

// BookingRepository persists bookings synced from calendar events.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, google_event_id, calendar_id, first_name, last_name, email, mobile,
	mobile_e164, service_code, price_cents, pickup, start_time, end_time, title,
	is_booking, is_paid, extended, status, cancelled_at, created_at, updated_at`

// Upsert inserts or updates a booking keyed by google_event_id. A new row gets
// a fresh UUID; an existing row keeps its ID and created_at and is
// reactivated if it had been cancelled. inserted reports which happened.
func (r *BookingRepository) Upsert(ctx context.Context, b *model.Booking) (inserted bool, err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = model.BookingConfirmed
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NULL, now(), now())
		 ON CONFLICT (google_event_id) DO UPDATE SET
		   calendar_id  = EXCLUDED.calendar_id,
		   first_name   = EXCLUDED.first_name,
		   last_name    = EXCLUDED.last_name,
		   email        = EXCLUDED.email,
		   mobile       = EXCLUDED.mobile,
		   mobile_e164  = EXCLUDED.mobile_e164,
		   service_code = EXCLUDED.service_code,
		   price_cents  = EXCLUDED.price_cents,
		   pickup       = EXCLUDED.pickup,
		   start_time   = EXCLUDED.start_time,
		   end_time     = EXCLUDED.end_time,
		   title        = EXCLUDED.title,
		   is_booking   = EXCLUDED.is_booking,
		   is_paid      = EXCLUDED.is_paid,
		   extended     = EXCLUDED.extended,
		   status       = EXCLUDED.status,
		   cancelled_at = NULL,
		   updated_at   = now()
		 RETURNING id, created_at, updated_at, (xmax = 0)`,
		b.ID, b.GoogleEventID, b.CalendarID, b.FirstName, b.LastName, b.Email, b.Mobile,
		b.MobileE164, b.ServiceCode, b.PriceCents, b.Pickup, b.Start, b.End, b.Title,
		b.IsBooking, b.IsPaid, nullJSON(b.Extended), b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert booking %s: %w", b.GoogleEventID, err)
	}
	b.CancelledAt = nil
	return inserted, nil
}

// MarkCancelled flags the booking for a calendar event as cancelled. It
// reports false when no active booking exists for the event.
func (r *BookingRepository) MarkCancelled(ctx context.Context, googleEventID string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings
		 SET status = $2, cancelled_at = $3, updated_at = now()
		 WHERE google_event_id = $1 AND status <> $2`,
		googleEventID, model.BookingCancelled, at,
	)
	if err != nil {
		return false, fmt.Errorf("cancel booking %s: %w", googleEventID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// BookingFilter narrows ListByCalendar. Zero times are unbounded.
type BookingFilter struct {
	From, To         time.Time
	IncludeCancelled bool
	Limit            int
}

// ListByCalendar returns bookings for a calendar ordered by start time.
func (r *BookingRepository) ListByCalendar(ctx context.Context, calendarID string, f BookingFilter) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE calendar_id = $1`
	args := []any{calendarID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND end_time > $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND start_time < $%d", len(args))
	}
	if !f.IncludeCancelled {
		args = append(args, model.BookingCancelled)
		query += fmt.Sprintf(" AND status <> $%d", len(args))
	}
	query += " ORDER BY start_time ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var (
		b        model.Booking
		extended []byte
	)
	err := row.Scan(
		&b.ID, &b.GoogleEventID, &b.CalendarID, &b.FirstName, &b.LastName, &b.Email, &b.Mobile,
		&b.MobileE164, &b.ServiceCode, &b.PriceCents, &b.Pickup, &b.Start, &b.End, &b.Title,
		&b.IsBooking, &b.IsPaid, &extended, &b.Status, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return b, fmt.Errorf("scan booking: %w", err)
	}
	if len(extended) > 0 {
		b.Extended = extended
	}
	return b, nil
}

// nullJSON maps an empty document to SQL NULL.
func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
