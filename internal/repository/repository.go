// Package repository implements all database queries for the booking relay.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// FieldMappingRepository persists calibrated field mappings in gcal_state.
type FieldMappingRepository struct {
	db *pgxpool.Pool
}

// NewFieldMappingRepository constructs a FieldMappingRepository.
func NewFieldMappingRepository(db *pgxpool.Pool) *FieldMappingRepository {
	return &FieldMappingRepository{db: db}
}

// Upsert replaces the whole mapping for a calendar.
func (r *FieldMappingRepository) Upsert(ctx context.Context, calendarID string, m model.FieldMapping) (*model.StoredMapping, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode field map: %w", err)
	}

	stored := &model.StoredMapping{CalendarID: calendarID, FieldMap: m}
	err = r.db.QueryRow(ctx,
		`INSERT INTO gcal_state (calendar_id, field_map, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (calendar_id) DO UPDATE
		 SET field_map = EXCLUDED.field_map, updated_at = EXCLUDED.updated_at
		 RETURNING updated_at`,
		calendarID, data,
	).Scan(&stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert field map: %w", err)
	}
	return stored, nil
}

// Get returns the stored mapping for a calendar or ErrNotFound.
func (r *FieldMappingRepository) Get(ctx context.Context, calendarID string) (*model.StoredMapping, error) {
	var (
		data      []byte
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx,
		`SELECT field_map, updated_at FROM gcal_state WHERE calendar_id = $1`,
		calendarID,
	).Scan(&data, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get field map: %w", err)
	}

	stored := &model.StoredMapping{CalendarID: calendarID, UpdatedAt: updatedAt}
	if err := json.Unmarshal(data, &stored.FieldMap); err != nil {
		return nil, fmt.Errorf("decode field map: %w", err)
	}
	return stored, nil
}

// ServiceRepository reads lesson prices from the service table.
type ServiceRepository struct {
	db *pgxpool.Pool
}

// NewServiceRepository constructs a ServiceRepository.
func NewServiceRepository(db *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// PriceCents returns the price of a service code. ok is false for unknown codes.
func (r *ServiceRepository) PriceCents(ctx context.Context, code string) (cents int64, ok bool, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT price_cents FROM service WHERE code = $1`,
		code,
	).Scan(&cents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get service price: %w", err)
	}
	return cents, true, nil
}

// SyncLogRepository records sync runs in gcal_sync_log.
type SyncLogRepository struct {
	db *pgxpool.Pool
}

// NewSyncLogRepository constructs a SyncLogRepository.
func NewSyncLogRepository(db *pgxpool.Pool) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Insert writes one sync log row.
func (r *SyncLogRepository) Insert(ctx context.Context, l *model.SyncLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO gcal_sync_log
		   (id, calendar_id, status, started_at, finished_at, synced_count, cancelled_count, skipped_count, message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))`,
		l.ID, l.CalendarID, l.Status, l.StartedAt, l.FinishedAt,
		l.SyncedCount, l.CancelledCount, l.SkippedCount, l.Message,
	)
	if err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}

// Latest returns the most recent sync log for a calendar or ErrNotFound.
func (r *SyncLogRepository) Latest(ctx context.Context, calendarID string) (*model.SyncLog, error) {
	var (
		l   model.SyncLog
		msg *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, calendar_id, status, started_at, finished_at, synced_count, cancelled_count, skipped_count, message
		 FROM gcal_sync_log
		 WHERE calendar_id = $1
		 ORDER BY started_at DESC
		 LIMIT 1`,
		calendarID,
	).Scan(&l.ID, &l.CalendarID, &l.Status, &l.StartedAt, &l.FinishedAt,
		&l.SyncedCount, &l.CancelledCount, &l.SkippedCount, &msg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest sync log: %w", err)
	}
	if msg != nil {
		l.Message = *msg
	}
	return &l, nil
}
