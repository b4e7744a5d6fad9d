package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// pgConn resolves the querier for a call: the transaction carried by ctx
// when inside Atomic, the pool otherwise.
type pgConn struct {
	pool *pgxpool.Pool
}

func (c pgConn) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return c.pool
}

// lockSuffix returns FOR UPDATE when running inside a transaction, so reads
// made inside Atomic hold the row until the unit ends.
func (c pgConn) lockSuffix(ctx context.Context) string {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return " FOR UPDATE"
	}
	return ""
}

// NewPostgresStores returns stores backed by PostgreSQL.
func NewPostgresStores(pool *pgxpool.Pool) Stores {
	c := pgConn{pool: pool}
	return Stores{
		Tx:        &pgTransactor{c},
		Events:    &pgEvents{c},
		Attendees: &pgAttendees{c},
		Entrances: &pgEntrances{c},
		CheckIns:  &pgCheckIns{c},
	}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// ─── Transactions ─────────────────────────────────────────────────────────────

type pgTransactor struct{ pgConn }

// Atomic begins a transaction (or a savepoint when ctx already carries one),
// runs fn with the transaction in its context, and commits when fn succeeds.
func (t *pgTransactor) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	var tx pgx.Tx
	if outer, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		tx, err = outer.Begin(ctx)
	} else {
		tx, err = t.pool.Begin(ctx)
	}
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Roll back on every path that did not commit, panics included.
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

const eventColumns = `id, name, attendee_limit, registered_count, date, location, description, created_at`

type pgEvents struct{ pgConn }

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Name, &e.AttendeeLimit, &e.RegisteredCount,
		&e.Date, &e.Location, &e.Description, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *pgEvents) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *pgEvents) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.q(ctx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, err
}

// Lock acquires an exclusive row-level lock on the event with
// SELECT … FOR UPDATE. Any other transaction locking the same row blocks
// until this one commits or rolls back, which serialises registrations
// against one event: capacity and duplicate-email checks cannot race.
func (r *pgEvents) Lock(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.q(ctx).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`+r.lockSuffix(ctx), id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return e, err
}

func (r *pgEvents) Create(ctx context.Context, e *model.Event) error {
	_, err := r.q(ctx).Exec(ctx,
		`INSERT INTO events (id, name, attendee_limit, registered_count, date, location, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Name, e.AttendeeLimit, e.RegisteredCount, e.Date, e.Location, e.Description, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrConflict
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *pgEvents) Update(ctx context.Context, id string, p model.EventPatch) (*model.Event, error) {
	e, err := scanEvent(r.q(ctx).QueryRow(ctx,
		`UPDATE events SET
		   name           = COALESCE($2, name),
		   attendee_limit = COALESCE($3, attendee_limit),
		   date           = COALESCE($4, date),
		   location       = COALESCE($5, location),
		   description    = COALESCE($6, description)
		 WHERE id = $1
		 RETURNING `+eventColumns,
		id, p.Name, p.AttendeeLimit, p.Date, p.Location, p.Description,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, err
}

func (r *pgEvents) Delete(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.q(ctx).QueryRow(ctx,
		`DELETE FROM events WHERE id = $1 RETURNING `+eventColumns, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("delete event: %w", err)
	}
	return e, err
}

func (r *pgEvents) AdjustRegistered(ctx context.Context, id string, delta int) error {
	tag, err := r.q(ctx).Exec(ctx,
		`UPDATE events SET registered_count = GREATEST(registered_count + $2, 0) WHERE id = $1`,
		id, delta,
	)
	if err != nil {
		return fmt.Errorf("adjust registered_count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Attendees ────────────────────────────────────────────────────────────────

const attendeeColumns = `id, badge_id, first_name, last_name, email, event_id, checked_in,
	checked_in_at, phone, company, job_title, entrance, created_at`

type pgAttendees struct{ pgConn }

func scanAttendee(row pgx.Row) (*model.Attendee, error) {
	var a model.Attendee
	err := row.Scan(&a.ID, &a.BadgeID, &a.FirstName, &a.LastName, &a.Email, &a.EventID,
		&a.CheckedIn, &a.CheckedInAt, &a.Phone, &a.Company, &a.JobTitle, &a.Entrance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectAttendees(rows pgx.Rows) ([]model.Attendee, error) {
	defer rows.Close()
	out := []model.Attendee{}
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *pgAttendees) List(ctx context.Context, eventID string) ([]model.Attendee, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+attendeeColumns+` FROM attendees
		 WHERE $1 = '' OR event_id = $1
		 ORDER BY seq ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return collectAttendees(rows)
}

func (r *pgAttendees) Get(ctx context.Context, id string) (*model.Attendee, error) {
	a, err := scanAttendee(r.q(ctx).QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`+r.lockSuffix(ctx), id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return a, err
}

// GetByBadge locks the attendee row when called inside Atomic, so two scans
// of the same badge serialise.
func (r *pgAttendees) GetByBadge(ctx context.Context, badgeID string) (*model.Attendee, error) {
	a, err := scanAttendee(r.q(ctx).QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE badge_id = $1`+r.lockSuffix(ctx), badgeID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get attendee by badge: %w", err)
	}
	return a, err
}

func (r *pgAttendees) EmailTaken(ctx context.Context, eventID, email string) (bool, error) {
	var taken bool
	err := r.q(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendees WHERE event_id = $1 AND lower(email) = lower($2))`,
		eventID, email,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check duplicate email: %w", err)
	}
	return taken, nil
}

func (r *pgAttendees) Create(ctx context.Context, a *model.Attendee) error {
	_, err := r.q(ctx).Exec(ctx,
		`INSERT INTO attendees (id, badge_id, first_name, last_name, email, event_id, checked_in,
		                        checked_in_at, phone, company, job_title, entrance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.BadgeID, a.FirstName, a.LastName, a.Email, a.EventID, a.CheckedIn,
		a.CheckedInAt, a.Phone, a.Company, a.JobTitle, a.Entrance, a.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "attendees_badge_id_key"):
			return ErrBadgeTaken
		case isUniqueViolation(err, ""):
			return ErrConflict
		}
		return fmt.Errorf("insert attendee: %w", err)
	}
	return nil
}

func (r *pgAttendees) MarkCheckedIn(ctx context.Context, id string, at time.Time, entrance string) (*model.Attendee, error) {
	a, err := scanAttendee(r.q(ctx).QueryRow(ctx,
		`UPDATE attendees SET checked_in = TRUE, checked_in_at = $2, entrance = $3
		 WHERE id = $1
		 RETURNING `+attendeeColumns,
		id, at, entrance,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("mark checked in: %w", err)
	}
	return a, err
}

func (r *pgAttendees) Delete(ctx context.Context, id string) (*model.Attendee, error) {
	a, err := scanAttendee(r.q(ctx).QueryRow(ctx,
		`DELETE FROM attendees WHERE id = $1 RETURNING `+attendeeColumns, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("delete attendee: %w", err)
	}
	return a, err
}

func (r *pgAttendees) Stats(ctx context.Context, eventID string) (int, int, error) {
	var total, checkedIn int
	err := r.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE checked_in)
		 FROM attendees WHERE event_id = $1`,
		eventID,
	).Scan(&total, &checkedIn)
	if err != nil {
		return 0, 0, fmt.Errorf("attendee stats: %w", err)
	}
	return total, checkedIn, nil
}

func (r *pgAttendees) RecentCheckIns(ctx context.Context, eventID string, limit int) ([]model.Attendee, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+attendeeColumns+` FROM attendees
		 WHERE event_id = $1 AND checked_in
		 ORDER BY checked_in_at DESC NULLS LAST, seq ASC
		 LIMIT $2`,
		eventID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent check-ins: %w", err)
	}
	return collectAttendees(rows)
}

// ─── Entrances ────────────────────────────────────────────────────────────────

const entranceColumns = `id, name, event_id, scan_count, last_scan_time, max_capacity, created_at`

type pgEntrances struct{ pgConn }

func scanEntrance(row pgx.Row) (*model.Entrance, error) {
	var e model.Entrance
	err := row.Scan(&e.ID, &e.Name, &e.EventID, &e.ScanCount, &e.LastScanTime, &e.MaxCapacity, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *pgEntrances) List(ctx context.Context, eventID string) ([]model.Entrance, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+entranceColumns+` FROM entrances
		 WHERE $1 = '' OR event_id = $1
		 ORDER BY seq ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list entrances: %w", err)
	}
	defer rows.Close()

	out := []model.Entrance{}
	for rows.Next() {
		e, err := scanEntrance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entrance: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *pgEntrances) Get(ctx context.Context, id string) (*model.Entrance, error) {
	e, err := scanEntrance(r.q(ctx).QueryRow(ctx,
		`SELECT `+entranceColumns+` FROM entrances WHERE id = $1`+r.lockSuffix(ctx), id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get entrance: %w", err)
	}
	return e, err
}

func (r *pgEntrances) Create(ctx context.Context, e *model.Entrance) error {
	_, err := r.q(ctx).Exec(ctx,
		`INSERT INTO entrances (id, name, event_id, scan_count, last_scan_time, max_capacity, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Name, e.EventID, e.ScanCount, e.LastScanTime, e.MaxCapacity, e.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "entrances_event_name_key"):
			return ErrEntranceExists
		case isUniqueViolation(err, ""):
			return ErrConflict
		}
		return fmt.Errorf("insert entrance: %w", err)
	}
	return nil
}

func (r *pgEntrances) Update(ctx context.Context, id string, p model.EntrancePatch) (*model.Entrance, error) {
	e, err := scanEntrance(r.q(ctx).QueryRow(ctx,
		`UPDATE entrances SET
		   name         = COALESCE($2, name),
		   event_id     = COALESCE($3, event_id),
		   max_capacity = COALESCE($4, max_capacity)
		 WHERE id = $1
		 RETURNING `+entranceColumns,
		id, p.Name, p.EventID, p.MaxCapacity,
	))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, err
		case isUniqueViolation(err, "entrances_event_name_key"):
			return nil, ErrEntranceExists
		}
		return nil, fmt.Errorf("update entrance: %w", err)
	}
	return e, nil
}

func (r *pgEntrances) Delete(ctx context.Context, id string) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM entrances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entrance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordScan increments in a single UPDATE, so concurrent scans never lose
// an increment even outside a transaction.
func (r *pgEntrances) RecordScan(ctx context.Context, id string, at time.Time) (*model.Entrance, error) {
	e, err := scanEntrance(r.q(ctx).QueryRow(ctx,
		`UPDATE entrances SET scan_count = scan_count + 1, last_scan_time = $2
		 WHERE id = $1
		 RETURNING `+entranceColumns,
		id, at,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("record scan: %w", err)
	}
	return e, err
}

// ─── Check-in log ─────────────────────────────────────────────────────────────

type pgCheckIns struct{ pgConn }

func (r *pgCheckIns) Append(ctx context.Context, c *model.CheckIn) error {
	_, err := r.q(ctx).Exec(ctx,
		`INSERT INTO check_ins (id, attendee_id, badge_id, event_id, entrance_id, entrance_name, checked_in_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.AttendeeID, c.BadgeID, c.EventID, c.EntranceID, c.EntranceName, c.CheckedInAt,
	)
	if err != nil {
		return fmt.Errorf("append check-in: %w", err)
	}
	return nil
}

func (r *pgCheckIns) ListByAttendee(ctx context.Context, attendeeID string) ([]model.CheckIn, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT id, attendee_id, badge_id, event_id, entrance_id, entrance_name, checked_in_at
		 FROM check_ins WHERE attendee_id = $1
		 ORDER BY seq ASC`,
		attendeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	out := []model.CheckIn{}
	for rows.Next() {
		var c model.CheckIn
		if err := rows.Scan(&c.ID, &c.AttendeeID, &c.BadgeID, &c.EventID,
			&c.EntranceID, &c.EntranceName, &c.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
