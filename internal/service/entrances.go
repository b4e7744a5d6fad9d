package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/idgen"
	"github.com/Shivanand-hulikatti/event-checkin/internal/metrics"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// EntranceService owns entrance records and their scan statistics.
type EntranceService struct {
	entrances repository.EntranceStore
	ids       idgen.Allocator
	v         *Validator
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewEntranceService constructs an EntranceService.
func NewEntranceService(d Deps) *EntranceService {
	d = d.withDefaults()
	return &EntranceService{
		entrances: d.Stores.Entrances,
		ids:       d.IDs,
		v:         d.Validator,
		metrics:   d.Metrics,
		log:       d.Log,
		now:       d.Now,
	}
}

// List returns entrances in creation order, optionally for one event.
func (s *EntranceService) List(ctx context.Context, eventID string) ([]model.Entrance, error) {
	entrances, err := s.entrances.List(ctx, strings.TrimSpace(eventID))
	if err != nil {
		return nil, internal(err, "failed to list entrances")
	}
	return entrances, nil
}

// Get returns an entrance by id.
func (s *EntranceService) Get(ctx context.Context, id string) (*model.Entrance, error) {
	e, err := s.entrances.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Entrance not found")
	}
	return e, nil
}

// Create adds an entrance to an event. Names are unique per event.
func (s *EntranceService) Create(ctx context.Context, req model.CreateEntranceRequest) (*model.Entrance, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.EventID = strings.TrimSpace(req.EventID)
	if err := s.v.Struct(req); err != nil {
		return nil, err
	}
	if err := positive("maxCapacity", req.MaxCapacity); err != nil {
		return nil, err
	}

	e := &model.Entrance{
		ID:          s.ids.Next(),
		Name:        req.Name,
		EventID:     req.EventID,
		MaxCapacity: req.MaxCapacity,
		CreatedAt:   s.now(),
	}
	if err := s.entrances.Create(ctx, e); err != nil {
		return nil, entranceErr(err, "failed to create entrance")
	}
	s.log.InfoContext(ctx, "entrance created", "entrance_id", e.ID, "event_id", e.EventID, "name", e.Name)
	return e, nil
}

// Update applies the supplied fields. Scan counters are not editable.
func (s *EntranceService) Update(ctx context.Context, id string, req model.UpdateEntranceRequest) (*model.Entrance, error) {
	if err := nonBlank("name", req.Name); err != nil {
		return nil, err
	}
	if err := nonBlank("eventId", req.EventID); err != nil {
		return nil, err
	}
	if err := positive("maxCapacity", req.MaxCapacity); err != nil {
		return nil, err
	}

	e, err := s.entrances.Update(ctx, id, req.Patch())
	if err != nil {
		return nil, entranceErr(err, "failed to update entrance")
	}
	return e, nil
}

// Delete removes an entrance. Attendees stamped with its name keep it.
func (s *EntranceService) Delete(ctx context.Context, id string) error {
	if err := s.entrances.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Entrance not found")
	}
	return nil
}

// RecordScan increments the entrance's scan counter and stamps the scan time.
func (s *EntranceService) RecordScan(ctx context.Context, id string) (*model.Entrance, error) {
	e, err := s.entrances.RecordScan(ctx, id, s.now())
	if err != nil {
		return nil, notFoundOr(err, "Entrance not found")
	}
	s.metrics.EntranceScans.Inc()
	return e, nil
}

// StatsForEvent returns each entrance's share of the event's scans. An event
// without entrances yields an empty slice.
func (s *EntranceService) StatsForEvent(ctx context.Context, eventID string) ([]model.EntranceStats, error) {
	entrances, err := s.entrances.List(ctx, eventID)
	if err != nil {
		return nil, internal(err, "failed to compute entrance stats")
	}

	var total int64
	for _, e := range entrances {
		total += e.ScanCount
	}
	stats := make([]model.EntranceStats, 0, len(entrances))
	for _, e := range entrances {
		stats = append(stats, model.EntranceStats{
			EntranceName: e.Name,
			ScannedCount: e.ScanCount,
			LastScan:     e.LastScanTime,
			Percentage:   percent(e.ScanCount, total),
		})
	}
	return stats, nil
}

func entranceErr(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Entrance not found")
	case errors.Is(err, repository.ErrEntranceExists):
		return apperr.Conflict("Entrance with this name already exists for this event")
	}
	return internal(err, msg)
}
