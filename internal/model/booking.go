package model

import (
	"encoding/json"
	"time"
)

// Booking statuses.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is a calendar event persisted as a lesson booking.
type Booking struct {
	ID            string          `json:"id"`
	GoogleEventID string          `json:"google_event_id"`
	CalendarID    string          `json:"calendar_id"`
	FirstName     *string         `json:"first_name"`
	LastName      *string         `json:"last_name"`
	Email         *string         `json:"email"`
	Mobile        *string         `json:"mobile"`
	MobileE164    *string         `json:"mobile_e164"`
	ServiceCode   *string         `json:"service_code"`
	PriceCents    *int64          `json:"price_cents"`
	Pickup        *string         `json:"pickup"`
	Start         time.Time       `json:"start_time"`
	End           time.Time       `json:"end_time"`
	Title         *string         `json:"title"`
	IsBooking     bool            `json:"is_booking"`
	IsPaid        bool            `json:"is_paid"`
	Extended      json.RawMessage `json:"extended,omitempty"`
	Status        string          `json:"status"`
	CancelledAt   *time.Time      `json:"cancelled_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SyncResult summarises one calendar sync.
type SyncResult struct {
	CalendarID string `json:"calendar_id"`
	Synced     int    `json:"synced"`
	Cancelled  int    `json:"cancelled"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// Sync log statuses.
const (
	SyncSucceeded = "success"
	SyncFailed    = "error"
)

// SyncLog is the audit row written after every sync run.
type SyncLog struct {
	ID             string    `json:"id"`
	CalendarID     string    `json:"calendar_id"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	SyncedCount    int       `json:"synced_count"`
	CancelledCount int       `json:"cancelled_count"`
	SkippedCount   int       `json:"skipped_count"`
	Message        string    `json:"message,omitempty"`
}
