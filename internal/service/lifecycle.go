package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookdesk/internal/database"
	"bookdesk/internal/events"
	"bookdesk/internal/models"
	"bookdesk/internal/tenant"
)

// UpdateAppointmentStatus applies a lifecycle transition. Illegal transitions
// are rejected against the state machine, never written. A zero version means
// "the version I just loaded": callers doing read-modify-write pass the
// version they read and get ErrConcurrencyConflict when it went stale.
func (s *BookingService) UpdateAppointmentStatus(ctx context.Context, id string, version int64, newStatus models.Status, reason string) error {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return ErrTenantNotSpecified
	}

	appt, err := s.store.GetAppointment(ctx, tenantID, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}

	if !models.CanTransition(appt.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, appt.Status, newStatus)
	}

	if version == 0 {
		version = appt.Version
	}
	err = s.store.UpdateAppointmentStatusWithVersion(ctx, tenantID, id, version, newStatus, reason)
	if errors.Is(err, database.ErrConcurrentModification) {
		return ErrConcurrencyConflict
	}
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", id).
		Str("tenant_id", tenantID).
		Str("from", string(appt.Status)).
		Str("to", string(newStatus)).
		Msg("appointment status updated")

	appt.Status = newStatus
	eventType := events.EventAppointmentStatusChanged
	if newStatus == models.StatusCancelled {
		eventType = events.EventAppointmentCancelled
		// A cancelled appointment frees its slot.
		s.invalidateSlots(ctx, tenantID, appt.StaffID, appt.StartTime)
	}
	s.publishEvent(eventType, appt, reason)
	return nil
}

// CancelAppointment is the soft-delete path: the record stays, only the
// status changes.
func (s *BookingService) CancelAppointment(ctx context.Context, id string, version int64, reason string) error {
	if reason == "" {
		reason = "Deleted by staff"
	}
	return s.UpdateAppointmentStatus(ctx, id, version, models.StatusCancelled, reason)
}

// RescheduleAppointment moves an appointment to a new start time and/or staff
// member, re-running the full conflict check against the target calendar
// before committing. The appointment keeps its identity and status.
func (s *BookingService) RescheduleAppointment(ctx context.Context, id string, version int64, newStart *time.Time, newStaffID string) error {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return ErrTenantNotSpecified
	}

	appt, err := s.store.GetAppointment(ctx, tenantID, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot reschedule %s appointment", ErrInvalidStatusTransition, appt.Status)
	}

	oldStaffID := appt.StaffID
	oldStart := appt.StartTime

	if newStaffID != "" && newStaffID != appt.StaffID {
		staff, serr := s.store.GetStaffMember(ctx, tenantID, newStaffID)
		if errors.Is(serr, database.ErrNotFound) {
			return ErrStaffNotFound
		}
		if serr != nil {
			return fmt.Errorf("load staff member: %w", serr)
		}
		if !staff.IsActive || !staff.AcceptsBookings {
			return ErrStaffNotFound
		}
		if _, lerr := s.store.GetStaffServiceLink(ctx, tenantID, newStaffID, appt.ServiceID); lerr != nil {
			if errors.Is(lerr, database.ErrNotFound) {
				return ErrStaffDoesNotProvideService
			}
			return fmt.Errorf("load staff service link: %w", lerr)
		}
		appt.StaffID = newStaffID
	}

	if newStart != nil {
		appt.StartTime = newStart.UTC().Truncate(time.Second)
	}
	appt.EndTime = appt.StartTime.Add(time.Duration(appt.DurationMinutes) * time.Minute)

	svc, err := s.store.GetService(ctx, tenantID, appt.ServiceID)
	if err != nil {
		return fmt.Errorf("load service: %w", err)
	}

	if version == 0 {
		version = appt.Version
	}
	err = s.store.RescheduleAppointmentLocked(ctx, tenantID, appt, version, svc.Capacity)
	switch {
	case errors.Is(err, database.ErrSlotConflict):
		return ErrSlotUnavailable
	case errors.Is(err, database.ErrCapacityReached):
		return ErrClassFull
	case errors.Is(err, database.ErrConcurrentModification):
		return ErrConcurrencyConflict
	case err != nil:
		return fmt.Errorf("reschedule appointment: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", id).
		Str("tenant_id", tenantID).
		Str("staff_id", appt.StaffID).
		Time("start", appt.StartTime).
		Msg("appointment rescheduled")

	s.publishEvent(events.EventAppointmentRescheduled, appt, "")
	s.invalidateSlots(ctx, tenantID, oldStaffID, oldStart)
	s.invalidateSlots(ctx, tenantID, appt.StaffID, appt.StartTime)
	return nil
}

func (s *BookingService) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantNotSpecified
	}
	appt, err := s.store.GetAppointment(ctx, tenantID, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAppointmentNotFound
	}
	return appt, err
}

func (s *BookingService) ListAppointments(ctx context.Context, f database.AppointmentFilter) ([]*models.Appointment, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantNotSpecified
	}
	return s.store.ListAppointments(ctx, tenantID, f)
}

func (s *BookingService) ListUpcomingAppointments(ctx context.Context, limit int) ([]*models.Appointment, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantNotSpecified
	}
	return s.store.ListUpcomingAppointments(ctx, tenantID, limit)
}
