package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/extract"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/fieldmap"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/log"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/model"
	"github.com/Shivanand-hulikatti/lesson-booking-relay/internal/repository"
)

const maxSampleLimit = 2500

// MapperSettings sizes the sample a mapper run reads.
type MapperSettings struct {
	SampleLimit int
	PastDays    int
	FutureDays  int
}

// MappingService runs the field mapper and serves stored mappings.
type MappingService struct {
	source   EventSource
	store    MappingStore
	settings MapperSettings
	now      func() time.Time
}

// NewMappingService constructs a MappingService.
func NewMappingService(source EventSource, store MappingStore, settings MapperSettings) *MappingService {
	if settings.SampleLimit <= 0 {
		settings.SampleLimit = fieldmap.DefaultSampleLimit
	}
	if settings.PastDays <= 0 {
		settings.PastDays = 14
	}
	if settings.FutureDays <= 0 {
		settings.FutureDays = 14
	}
	return &MappingService{source: source, store: store, settings: settings, now: time.Now}
}

// Run samples recent events, detects the field mapping and stores it. The
// stored mapping is only replaced after detection has finished.
func (s *MappingService) Run(ctx context.Context, calendarID string, req model.RunMapperRequest) (*model.MapperRun, error) {
	calendarID, err := requireCalendarID(calendarID)
	if err != nil {
		return nil, err
	}
	limit := s.settings.SampleLimit
	switch {
	case req.SampleLimit < 0 || req.SampleLimit > maxSampleLimit:
		return nil, invalid("sample_limit must be between 1 and %d", maxSampleLimit)
	case req.SampleLimit > 0:
		limit = req.SampleLimit
	}

	now := s.now().UTC()
	events, err := s.source.ListEvents(ctx, calendarID, model.Window{
		TimeMin: now.AddDate(0, 0, -s.settings.PastDays),
		TimeMax: now.AddDate(0, 0, s.settings.FutureDays),
		Limit:   limit,
	})
	if err != nil {
		return nil, upstream(calendarID, err)
	}

	res := fieldmap.Detect(events, fieldmap.Options{SampleLimit: limit})
	stored, err := s.store.Upsert(ctx, calendarID, res.Mapping)
	if err != nil {
		return nil, fmt.Errorf("store field mapping: %w", err)
	}

	log.Info("field mapping updated", "calendar_id", calendarID, "events", res.EventsScanned, "mapped", mappedCount(res.Mapping))
	return &model.MapperRun{CalendarID: calendarID, UpdatedAt: stored.UpdatedAt, MapperResult: res}, nil
}

// Get returns the stored mapping for a calendar.
func (s *MappingService) Get(ctx context.Context, calendarID string) (*model.StoredMapping, error) {
	calendarID, err := requireCalendarID(calendarID)
	if err != nil {
		return nil, err
	}
	m, err := s.store.Get(ctx, calendarID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get field mapping: %w", err)
	}
	return m, nil
}

// Extractor returns an extractor calibrated for the calendar, or the plain
// heuristic one when no mapping has been stored.
func (s *MappingService) Extractor(ctx context.Context, calendarID string) (*extract.Extractor, error) {
	if calendarID == "" {
		return extract.New(), nil
	}
	m, err := s.store.Get(ctx, calendarID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return extract.New(), nil
		}
		return nil, fmt.Errorf("get field mapping: %w", err)
	}
	return extract.New(extract.WithMapping(m.FieldMap)), nil
}

func mappedCount(m model.FieldMapping) int {
	n := 0
	for _, e := range m {
		if e.Found() {
			n++
		}
	}
	return n
}
