package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/idgen"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// maxAttendeeLimit bounds a single event's capacity.
const maxAttendeeLimit = 100_000

// EventService owns event records.
type EventService struct {
	events repository.EventStore
	ids    idgen.Allocator
	v      *Validator
	log    *slog.Logger
	now    func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(d Deps) *EventService {
	d = d.withDefaults()
	return &EventService{
		events: d.Stores.Events,
		ids:    d.IDs,
		v:      d.Validator,
		log:    d.Log,
		now:    d.Now,
	}
}

// List returns all events in creation order.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, internal(err, "failed to list events")
	}
	return events, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	return e, nil
}

// Create validates the request and stores a new event with no registrations.
func (s *EventService) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.v.Struct(req); err != nil {
		return nil, err
	}
	if req.AttendeeLimit > maxAttendeeLimit {
		return nil, apperr.Validation("attendeeLimit cannot exceed %d", maxAttendeeLimit)
	}

	e := &model.Event{
		ID:            s.ids.Next(),
		Name:          req.Name,
		AttendeeLimit: req.AttendeeLimit,
		Date:          strings.TrimSpace(req.Date),
		Location:      strings.TrimSpace(req.Location),
		Description:   req.Description,
		CreatedAt:     s.now(),
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, internal(err, "failed to create event")
	}
	s.log.InfoContext(ctx, "event created", "event_id", e.ID, "attendee_limit", e.AttendeeLimit)
	return e, nil
}

// Update applies the supplied fields. registeredCount is not editable.
func (s *EventService) Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := nonBlank("name", req.Name); err != nil {
		return nil, err
	}
	if err := positive("attendeeLimit", req.AttendeeLimit); err != nil {
		return nil, err
	}
	if req.AttendeeLimit != nil && *req.AttendeeLimit > maxAttendeeLimit {
		return nil, apperr.Validation("attendeeLimit cannot exceed %d", maxAttendeeLimit)
	}

	e, err := s.events.Update(ctx, id, req.Patch())
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	return e, nil
}

// Delete removes the event. Its attendees and entrances are left in place.
func (s *EventService) Delete(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.Delete(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	s.log.InfoContext(ctx, "event deleted", "event_id", e.ID)
	return e, nil
}
