package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookdesk/internal/models"

	"github.com/google/uuid"
)

// lockAcquireTimeout caps the wait for a per-staff booking lock when the
// caller's context has no deadline of its own.
const lockAcquireTimeout = 5 * time.Second

const appointmentSelect = `SELECT id, tenant_id, service_id, staff_id, client_id,
                                  COALESCE(group_session_id, ''), start_time, end_time, status,
                                  price, duration_minutes, COALESCE(customer_notes, ''),
                                  COALESCE(internal_notes, ''), COALESCE(cancellation_reason, ''),
                                  cancelled_at, created_at, updated_at, version
                           FROM appointments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	var status, startTime, endTime, createdAt, updatedAt string
	var cancelledAt sql.NullString
	err := row.Scan(&a.ID, &a.TenantID, &a.ServiceID, &a.StaffID, &a.ClientID,
		&a.GroupSessionID, &startTime, &endTime, &status,
		&a.Price, &a.DurationMinutes, &a.CustomerNotes,
		&a.InternalNotes, &a.CancellationReason,
		&cancelledAt, &createdAt, &updatedAt, &a.Version)
	if err != nil {
		return nil, err
	}
	if a.Status, err = models.ParseStatus(status); err != nil {
		return nil, err
	}
	if a.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if a.EndTime, err = parseTime(endTime); err != nil {
		return nil, err
	}
	if a.CancelledAt, err = parseTimePtr(cancelledAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) GetAppointment(ctx context.Context, tenantID, id string) (*models.Appointment, error) {
	query := appointmentSelect + ` WHERE id = ? AND tenant_id = ?`
	appt, err := scanAppointment(db.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// ListStaffDayAppointments returns the staff member's non-cancelled
// appointments intersecting [dayStart, dayEnd), ordered by start time.
func (db *DB) ListStaffDayAppointments(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.Appointment, error) {
	query := appointmentSelect + `
              WHERE tenant_id = ? AND staff_id = ? AND status != ?
                AND start_time < ? AND end_time > ?
              ORDER BY start_time`
	rows, err := db.db.QueryContext(ctx, query, tenantID, staffID, string(models.StatusCancelled),
		fmtTime(dayEnd), fmtTime(dayStart))
	if err != nil {
		return nil, fmt.Errorf("failed to list day appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// AppointmentFilter narrows calendar queries. Zero values mean "no filter".
type AppointmentFilter struct {
	From     time.Time
	To       time.Time
	StaffID  string
	ClientID string
	Status   models.Status
}

func (db *DB) ListAppointments(ctx context.Context, tenantID string, f AppointmentFilter) ([]*models.Appointment, error) {
	query := appointmentSelect + ` WHERE tenant_id = ?`
	args := []any{tenantID}

	if !f.From.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, fmtTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, fmtTime(f.To))
	}
	if f.StaffID != "" {
		query += ` AND staff_id = ?`
		args = append(args, f.StaffID)
	}
	if f.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, f.ClientID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY start_time`

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (db *DB) ListUpcomingAppointments(ctx context.Context, tenantID string, limit int) ([]*models.Appointment, error) {
	if limit <= 0 {
		limit = 10
	}
	query := appointmentSelect + `
              WHERE tenant_id = ? AND start_time >= ? AND status != ?
              ORDER BY start_time LIMIT ?`
	rows, err := db.db.QueryContext(ctx, query, tenantID, fmtTime(time.Now()),
		string(models.StatusCancelled), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows *sql.Rows) ([]*models.Appointment, error) {
	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// CreateAppointmentLocked inserts a new appointment after re-running the
// conflict check inside a transaction, with the staff member's booking lock
// held. Two concurrent attempts for overlapping time on the same staff member
// cannot both pass the check: the lock serializes them and the loser sees the
// winner's row. groupCapacity above 1 switches to group-class semantics.
func (db *DB) CreateAppointmentLocked(ctx context.Context, tenantID string, appt *models.Appointment, groupCapacity int) error {
	release, err := db.acquireStaffLock(ctx, appt.StaffID)
	if err != nil {
		return err
	}
	defer release()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := db.checkConflictsTx(ctx, tx, tenantID, appt, groupCapacity, ""); err != nil {
		return err
	}

	if groupCapacity > 1 && appt.GroupSessionID == "" {
		sessionID, err := db.groupSessionTx(ctx, tx, tenantID, appt)
		if err != nil {
			return err
		}
		appt.GroupSessionID = sessionID
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	appt.TenantID = tenantID
	now := time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO appointments (id, tenant_id, service_id, staff_id, client_id,
                    group_session_id, start_time, end_time, status, price, duration_minutes,
                    customer_notes, internal_notes, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		appt.ID, appt.TenantID, appt.ServiceID, appt.StaffID, appt.ClientID,
		nullIfEmpty(appt.GroupSessionID), fmtTime(appt.StartTime), fmtTime(appt.EndTime),
		string(appt.Status), appt.Price, appt.DurationMinutes,
		appt.CustomerNotes, appt.InternalNotes, fmtTime(now), fmtTime(now), 1)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit appointment: %w", err)
	}

	appt.StartTime = appt.StartTime.UTC().Truncate(time.Second)
	appt.EndTime = appt.EndTime.UTC().Truncate(time.Second)
	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.Version = 1
	return nil
}

// RescheduleAppointmentLocked moves an appointment to a new staff member
// and/or start time. The conflict check runs against the target staff
// member's calendar, excluding the appointment itself, under that staff
// member's lock. The optimistic version guards against concurrent updates.
func (db *DB) RescheduleAppointmentLocked(ctx context.Context, tenantID string, appt *models.Appointment, fromVersion int64, groupCapacity int) error {
	release, err := db.acquireStaffLock(ctx, appt.StaffID)
	if err != nil {
		return err
	}
	defer release()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := db.checkConflictsTx(ctx, tx, tenantID, appt, groupCapacity, appt.ID); err != nil {
		return err
	}

	query := `UPDATE appointments
              SET staff_id = ?, start_time = ?, end_time = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND tenant_id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, query,
		appt.StaffID, fmtTime(appt.StartTime), fmtTime(appt.EndTime), fmtTime(time.Now()),
		appt.ID, tenantID, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reschedule: %w", err)
	}
	return nil
}

// UpdateAppointmentStatusWithVersion applies a status change with an
// optimistic version check. Cancellation metadata is stamped atomically with
// the transition. Transition legality is the caller's responsibility.
func (db *DB) UpdateAppointmentStatusWithVersion(ctx context.Context, tenantID, id string, fromVersion int64, status models.Status, reason string) error {
	var cancelledAt any
	var cancelReason any
	if status == models.StatusCancelled {
		cancelledAt = fmtTime(time.Now())
		cancelReason = reason
	}

	query := `UPDATE appointments
              SET status = ?, cancellation_reason = COALESCE(?, cancellation_reason),
                  cancelled_at = COALESCE(?, cancelled_at),
                  version = version + 1, updated_at = ?
              WHERE id = ? AND tenant_id = ? AND version = ?`
	result, err := db.db.ExecContext(ctx, query,
		string(status), cancelReason, cancelledAt, fmtTime(time.Now()),
		id, tenantID, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) UpdateAppointmentNotes(ctx context.Context, tenantID, id, internalNotes string) error {
	query := `UPDATE appointments SET internal_notes = ?, updated_at = ? WHERE id = ? AND tenant_id = ?`
	result, err := db.db.ExecContext(ctx, query, internalNotes, fmtTime(time.Now()), id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to update appointment notes: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountGroupAttendees counts non-cancelled bookings of one service+staff at
// exactly one start time. Used by the availability engine's capacity display.
func (db *DB) CountGroupAttendees(ctx context.Context, tenantID, serviceID, staffID string, start time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM appointments
              WHERE tenant_id = ? AND service_id = ? AND staff_id = ? AND start_time = ? AND status != ?`
	var count int
	err := db.db.QueryRowContext(ctx, query, tenantID, serviceID, staffID,
		fmtTime(start), string(models.StatusCancelled)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group attendees: %w", err)
	}
	return count, nil
}

func (db *DB) acquireStaffLock(ctx context.Context, staffID string) (func(), error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lockAcquireTimeout)
		defer cancel()
	}
	return db.locks.acquire(ctx, staffID)
}

// checkConflictsTx runs the overlap and capacity checks inside the booking
// transaction. excludeID skips the appointment being rescheduled. For group
// classes, rows of the same service at the identical start time are expected
// co-occupants and do not count as overlap conflicts; the capacity test
// governs those.
func (db *DB) checkConflictsTx(ctx context.Context, tx *sql.Tx, tenantID string, appt *models.Appointment, groupCapacity int, excludeID string) error {
	start := fmtTime(appt.StartTime)
	end := fmtTime(appt.EndTime)

	overlapQuery := `SELECT COUNT(*) FROM appointments
                     WHERE tenant_id = ? AND staff_id = ? AND status != ?
                       AND start_time < ? AND end_time > ? AND id != ?`
	args := []any{tenantID, appt.StaffID, string(models.StatusCancelled), end, start, excludeID}

	if groupCapacity > 1 {
		overlapQuery += ` AND NOT (service_id = ? AND start_time = ?)`
		args = append(args, appt.ServiceID, start)
	}

	var overlapping int
	if err := tx.QueryRowContext(ctx, overlapQuery, args...).Scan(&overlapping); err != nil {
		return fmt.Errorf("failed to check conflicts: %w", err)
	}
	if overlapping > 0 {
		return ErrSlotConflict
	}

	if groupCapacity > 1 {
		capacityQuery := `SELECT COUNT(*) FROM appointments
                          WHERE tenant_id = ? AND service_id = ? AND staff_id = ?
                            AND start_time = ? AND status != ? AND id != ?`
		var attendees int
		err := tx.QueryRowContext(ctx, capacityQuery, tenantID, appt.ServiceID, appt.StaffID,
			start, string(models.StatusCancelled), excludeID).Scan(&attendees)
		if err != nil {
			return fmt.Errorf("failed to check class capacity: %w", err)
		}
		if attendees >= groupCapacity {
			return ErrCapacityReached
		}
	}
	return nil
}

// groupSessionTx reuses the session id of co-occurring bookings of the same
// class, minting a fresh one for the first booking of the slot.
func (db *DB) groupSessionTx(ctx context.Context, tx *sql.Tx, tenantID string, appt *models.Appointment) (string, error) {
	query := `SELECT COALESCE(group_session_id, '') FROM appointments
              WHERE tenant_id = ? AND service_id = ? AND staff_id = ?
                AND start_time = ? AND status != ?
              LIMIT 1`
	var sessionID string
	err := tx.QueryRowContext(ctx, query, tenantID, appt.ServiceID, appt.StaffID,
		fmtTime(appt.StartTime), string(models.StatusCancelled)).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) || sessionID == "" {
		return uuid.NewString(), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up group session: %w", err)
	}
	return sessionID, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
