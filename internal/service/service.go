// Package service implements the registries and the check-in orchestrator:
// validation, uniqueness and capacity rules, and the coordination of store
// mutations into atomic units.
package service

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
	"github.com/Shivanand-hulikatti/event-checkin/internal/idgen"
	"github.com/Shivanand-hulikatti/event-checkin/internal/metrics"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Stores    repository.Stores
	IDs       idgen.Allocator
	Validator *Validator
	Metrics   *metrics.Metrics
	Log       *slog.Logger
	Now       func() time.Time
}

// withDefaults fills optional collaborators.
func (d Deps) withDefaults() Deps {
	if d.IDs == nil {
		d.IDs = idgen.UUID{}
	}
	if d.Validator == nil {
		d.Validator = NewValidator()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// Services groups the registries and the orchestrator.
type Services struct {
	Events    *EventService
	Attendees *AttendeeService
	Entrances *EntranceService
	CheckIns  *CheckInService
}

// New wires all services over the same stores.
func New(d Deps) *Services {
	d = d.withDefaults()
	return &Services{
		Events:    NewEventService(d),
		Attendees: NewAttendeeService(d),
		Entrances: NewEntranceService(d),
		CheckIns:  NewCheckInService(d),
	}
}

// notFoundOr translates repository.ErrNotFound into a NotFound error with
// msg and wraps anything else as an internal fault.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("%s", msg)
	}
	return internal(err, msg)
}

// internal passes classified errors through untouched.
func internal(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err, "%s", msg)
}

// percent returns round(part/whole*100), or 0 when whole is 0.
func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
