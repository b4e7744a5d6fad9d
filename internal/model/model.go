// Package model defines the core domain types for the event check-in system.
package model

import "time"

// Event represents an event created by an organizer.
type Event struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AttendeeLimit   int       `json:"attendeeLimit"`
	RegisteredCount int       `json:"registeredCount"`
	Date            string    `json:"date,omitempty"`
	Location        string    `json:"location,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Remaining returns the number of registrations still available.
func (e *Event) Remaining() int {
	return e.AttendeeLimit - e.RegisteredCount
}

// IsFull returns true when no registrations remain.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.AttendeeLimit
}

// EventPatch carries the fields of an event update. Nil fields are left as-is.
type EventPatch struct {
	Name          *string `json:"name"`
	AttendeeLimit *int    `json:"attendeeLimit"`
	Date          *string `json:"date"`
	Location      *string `json:"location"`
	Description   *string `json:"description"`
}

// Apply copies the supplied fields onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.AttendeeLimit != nil {
		e.AttendeeLimit = *p.AttendeeLimit
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
}

// Attendee is a person registered for an event.
type Attendee struct {
	ID          string     `json:"id"`
	BadgeID     string     `json:"badgeId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	EventID     string     `json:"eventId"`
	CheckedIn   bool       `json:"checkedIn"`
	CheckedInAt *time.Time `json:"checkedInAt,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Company     string     `json:"company,omitempty"`
	JobTitle    string     `json:"jobTitle,omitempty"`
	Entrance    string     `json:"entrance,omitempty"`
	CreatedAt   time.Time  `json:"-"`
}

// Entrance is a named checkpoint where check-in scans are recorded.
type Entrance struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	EventID      string     `json:"eventId"`
	ScanCount    int64      `json:"scanCount"`
	LastScanTime *time.Time `json:"lastScanTime,omitempty"`
	MaxCapacity  *int       `json:"maxCapacity,omitempty"`
	CreatedAt    time.Time  `json:"-"`
}

// EntrancePatch carries the fields of an entrance update.
type EntrancePatch struct {
	Name        *string `json:"name"`
	EventID     *string `json:"eventId"`
	MaxCapacity *int    `json:"maxCapacity"`
}

// Apply copies the supplied fields onto e.
func (p EntrancePatch) Apply(e *Entrance) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.EventID != nil {
		e.EventID = *p.EventID
	}
	if p.MaxCapacity != nil {
		v := *p.MaxCapacity
		e.MaxCapacity = &v
	}
}

// CheckIn is one entry of the append-only check-in log. The attendee's
// checkedIn/checkedInAt/entrance fields mirror its latest entry.
type CheckIn struct {
	ID           string    `json:"id"`
	AttendeeID   string    `json:"attendeeId"`
	BadgeID      string    `json:"badgeId"`
	EventID      string    `json:"eventId"`
	EntranceID   string    `json:"entranceId,omitempty"`
	EntranceName string    `json:"entranceName,omitempty"`
	CheckedInAt  time.Time `json:"checkedInAt"`
}

// ─── Requests ─────────────────────────────────────────────────────────────────

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name          string `json:"name" validate:"required"`
	AttendeeLimit int    `json:"attendeeLimit" validate:"required,gt=0"`
	Date          string `json:"date"`
	Location      string `json:"location"`
	Description   string `json:"description"`
}

// UpdateEventRequest is the payload for a partial event update.
type UpdateEventRequest struct {
	Name          *string `json:"name"`
	AttendeeLimit *int    `json:"attendeeLimit"`
	Date          *string `json:"date"`
	Location      *string `json:"location"`
	Description   *string `json:"description"`
}

// Patch converts the request into a store patch.
func (r UpdateEventRequest) Patch() EventPatch {
	return EventPatch{
		Name:          r.Name,
		AttendeeLimit: r.AttendeeLimit,
		Date:          r.Date,
		Location:      r.Location,
		Description:   r.Description,
	}
}

// RegisterAttendeeRequest is the payload for registering a single attendee.
type RegisterAttendeeRequest struct {
	BadgeID   string `json:"badgeId" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	EventID   string `json:"eventId" validate:"required"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	JobTitle  string `json:"jobTitle"`
}

// AttendeeRow is one row of a bulk import. Unlike single registration the
// badge id is optional and generated when absent. A row may repeat the
// batch's eventId; any other value rejects the row.
type AttendeeRow struct {
	EventID   string `json:"eventId"`
	BadgeID   string `json:"badgeId"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	JobTitle  string `json:"jobTitle"`
}

// BulkRegisterRequest is the payload for importing many attendees at once.
type BulkRegisterRequest struct {
	AttendeesData []AttendeeRow `json:"attendeesData" validate:"required,min=1"`
	EventID       string        `json:"eventId" validate:"required"`
}

// CheckInRequest is the payload for checking an attendee in.
type CheckInRequest struct {
	BadgeID    string `json:"badgeId" validate:"required"`
	EntranceID string `json:"entranceId"`
}

// CreateEntranceRequest is the payload for creating an entrance.
type CreateEntranceRequest struct {
	Name        string `json:"name" validate:"required"`
	EventID     string `json:"eventId" validate:"required"`
	MaxCapacity *int   `json:"maxCapacity"`
}

// UpdateEntranceRequest is the payload for a partial entrance update.
type UpdateEntranceRequest struct {
	Name        *string `json:"name"`
	EventID     *string `json:"eventId"`
	MaxCapacity *int    `json:"maxCapacity"`
}

// Patch converts the request into a store patch.
func (r UpdateEntranceRequest) Patch() EntrancePatch {
	return EntrancePatch{Name: r.Name, EventID: r.EventID, MaxCapacity: r.MaxCapacity}
}

// ─── Responses ────────────────────────────────────────────────────────────────

// RowError reports why one bulk row was rejected. Row is 1-based.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkResult summarises a bulk registration.
type BulkResult struct {
	Success          bool       `json:"success"`
	CreatedCount     int        `json:"createdCount"`
	ErrorCount       int        `json:"errorCount"`
	Errors           []RowError `json:"errors,omitempty"`
	CreatedAttendees []Attendee `json:"createdAttendees"`
}

// AttendanceStats is the per-event check-in summary.
type AttendanceStats struct {
	TotalAttendees int `json:"totalAttendees"`
	CheckedIn      int `json:"checkedIn"`
	Percentage     int `json:"percentage"`
}

// EntranceStats is the per-entrance share of an event's scans.
type EntranceStats struct {
	EntranceName string     `json:"entranceName"`
	ScannedCount int64      `json:"scannedCount"`
	LastScan     *time.Time `json:"lastScan,omitempty"`
	Percentage   int        `json:"percentage"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a human-readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Success bool `json:"success"`
}
