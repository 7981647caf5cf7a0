package service

import (
	"context"
	"testing"
	"time"

	"bookdesk/internal/events"
	"bookdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAppointmentStatus(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateAppointmentStatus(f.ctx, appt.ID, 0, models.StatusConfirmed, ""))

	got, err := f.svc.GetAppointment(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateAppointmentStatusIllegalTransition(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	err = f.svc.UpdateAppointmentStatus(f.ctx, appt.ID, 0, models.StatusCompleted, "")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition, "pending cannot jump to completed")

	// Complete via the legal path, then verify terminality.
	require.NoError(t, f.svc.UpdateAppointmentStatus(f.ctx, appt.ID, 0, models.StatusConfirmed, ""))
	require.NoError(t, f.svc.UpdateAppointmentStatus(f.ctx, appt.ID, 0, models.StatusCompleted, ""))

	err = f.svc.UpdateAppointmentStatus(f.ctx, appt.ID, 0, models.StatusCancelled, "")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition, "completed is terminal")
}

func TestUpdateAppointmentStatusStaleVersion(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateAppointmentStatus(f.ctx, appt.ID, 1, models.StatusConfirmed, ""))

	err = f.svc.UpdateAppointmentStatus(f.ctx, appt.ID, 1, models.StatusInProgress, "")
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
}

func TestUpdateAppointmentStatusNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.UpdateAppointmentStatus(f.ctx, "missing", 0, models.StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture(t)

	var cancelledEvents int
	f.bus.Subscribe(events.EventAppointmentCancelled, func(e *events.Event) error {
		cancelledEvents++
		return nil
	})

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelAppointment(f.ctx, appt.ID, 0, ""))

	got, err := f.svc.GetAppointment(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, "Deleted by staff", got.CancellationReason)
	assert.NotNil(t, got.CancelledAt)
	assert.Equal(t, 1, cancelledEvents)

	// The slot is free again.
	_, err = f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	assert.NoError(t, err)
}

func TestRescheduleAppointment(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	newStart := testStart.Add(3 * time.Hour)
	require.NoError(t, f.svc.RescheduleAppointment(f.ctx, appt.ID, 0, &newStart, ""))

	got, err := f.svc.GetAppointment(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(newStart))
	assert.True(t, got.EndTime.Equal(newStart.Add(time.Hour)), "duration is preserved")
	assert.Equal(t, models.StatusPending, got.Status, "status survives the move")

	// The original slot is bookable again.
	_, err = f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	assert.NoError(t, err)
}

func TestRescheduleAppointmentConflict(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)
	_, err = f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart.Add(2*time.Hour)))
	require.NoError(t, err)

	// Moving the first onto the second conflicts.
	newStart := testStart.Add(2 * time.Hour)
	err = f.svc.RescheduleAppointment(f.ctx, appt.ID, 0, &newStart, "")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestRescheduleAppointmentToNewStaff(t *testing.T) {
	f := newFixture(t)

	other := &models.StaffMember{DisplayName: "Sam", AcceptsBookings: true, IsActive: true}
	require.NoError(t, f.db.CreateStaffMember(context.Background(), f.tenant.ID, other))
	require.NoError(t, f.db.LinkStaffService(context.Background(), f.tenant.ID, &models.StaffServiceLink{
		StaffID: other.ID, ServiceID: f.mass.ID, IsActive: true,
	}))

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	require.NoError(t, f.svc.RescheduleAppointment(f.ctx, appt.ID, 0, nil, other.ID))

	got, err := f.svc.GetAppointment(f.ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.StaffID)
	assert.True(t, got.StartTime.Equal(testStart), "time unchanged when only staff moves")
}

func TestRescheduleAppointmentToUnqualifiedStaff(t *testing.T) {
	f := newFixture(t)

	unlinked := &models.StaffMember{DisplayName: "Novice", AcceptsBookings: true, IsActive: true}
	require.NoError(t, f.db.CreateStaffMember(context.Background(), f.tenant.ID, unlinked))

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	err = f.svc.RescheduleAppointment(f.ctx, appt.ID, 0, nil, unlinked.ID)
	assert.ErrorIs(t, err, ErrStaffDoesNotProvideService)
}

func TestRescheduleTerminalAppointment(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelAppointment(f.ctx, appt.ID, 0, "done"))

	newStart := testStart.Add(time.Hour)
	err = f.svc.RescheduleAppointment(f.ctx, appt.ID, 0, &newStart, "")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestListUpcomingAppointments(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart.Add(time.Duration(i)*2*time.Hour)))
		require.NoError(t, err)
	}
	cancelled, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart.Add(12*time.Hour)))
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelAppointment(f.ctx, cancelled.ID, 0, ""))

	appts, err := f.svc.ListUpcomingAppointments(f.ctx, 2)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.True(t, appts[0].StartTime.Before(appts[1].StartTime))

	appts, err = f.svc.ListUpcomingAppointments(f.ctx, 10)
	require.NoError(t, err)
	assert.Len(t, appts, 3, "cancelled appointments are excluded")
}
