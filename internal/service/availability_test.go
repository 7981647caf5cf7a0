package service

import (
	"context"
	"testing"
	"time"

	"bookdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setWorkingHours(t *testing.T, f *fixture, day time.Weekday, start, end string) {
	t.Helper()
	require.NoError(t, f.db.SetWorkingHours(context.Background(), f.tenant.ID, &models.WorkingHours{
		StaffID:   f.staff.ID,
		DayOfWeek: day,
		Start:     start,
		End:       end,
		IsActive:  true,
	}))
}

func availableStarts(slots []models.TimeSlot) []string {
	var out []string
	for _, s := range slots {
		if s.IsAvailable {
			out = append(out, s.Start.Format("15:04"))
		}
	}
	return out
}

func TestGetAvailableSlots(t *testing.T) {
	f := newFixture(t)
	setWorkingHours(t, f, time.Monday, "09:00", "12:00")

	slots, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, f.mass.ID, testStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, availableStarts(slots))
}

func TestGetAvailableSlotsExcludesBreaks(t *testing.T) {
	f := newFixture(t)
	setWorkingHours(t, f, time.Monday, "09:00", "13:00")
	require.NoError(t, f.db.AddStaffBreak(context.Background(), f.tenant.ID, &models.StaffBreak{
		StaffID:   f.staff.ID,
		DayOfWeek: time.Monday,
		Start:     "11:00",
		End:       "12:00",
		IsActive:  true,
	}))

	slots, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, f.mass.ID, testStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "12:00"}, availableStarts(slots))
}

func TestGetAvailableSlotsReflectsBookings(t *testing.T) {
	f := newFixture(t)
	setWorkingHours(t, f, time.Monday, "09:00", "12:00")

	_, err := f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart)) // 10:00
	require.NoError(t, err)

	slots, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, f.mass.ID, testStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00"}, availableStarts(slots))
}

func TestGetAvailableSlotsNonWorkingDay(t *testing.T) {
	f := newFixture(t)
	setWorkingHours(t, f, time.Monday, "09:00", "12:00")

	// 2030-03-05 is a Tuesday; no working hours configured.
	slots, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, f.mass.ID, testStart.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailableSlotsUnknownService(t *testing.T) {
	f := newFixture(t)
	setWorkingHours(t, f, time.Monday, "09:00", "12:00")

	_, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, "missing", testStart)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestGetAvailableSlotsRequiresTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetAvailableSlots(context.Background(), f.staff.ID, f.mass.ID, testStart)
	assert.ErrorIs(t, err, ErrTenantNotSpecified)
}

func TestBookingInvalidatesCachedSlots(t *testing.T) {
	f := newFixture(t)
	setWorkingHours(t, f, time.Monday, "09:00", "12:00")

	// Prime the cache.
	before, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, f.mass.ID, testStart)
	require.NoError(t, err)
	assert.Len(t, availableStarts(before), 3)

	_, err = f.svc.CreateAppointment(f.ctx, f.bookingRequest(testStart))
	require.NoError(t, err)

	// The cache entry for the day was dropped, so the recompute sees the
	// new booking.
	after, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, f.mass.ID, testStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00"}, availableStarts(after))
}

func TestGetAvailableSlotsGroupClassCounts(t *testing.T) {
	f := newFixture(t)
	setWorkingHours(t, f, time.Monday, "10:00", "11:00")

	yoga := &models.ServiceDefinition{Name: "Yoga", DurationMinutes: 60, Capacity: 3, IsActive: true}
	require.NoError(t, f.db.CreateService(context.Background(), f.tenant.ID, yoga))
	require.NoError(t, f.db.LinkStaffService(context.Background(), f.tenant.ID, &models.StaffServiceLink{
		StaffID: f.staff.ID, ServiceID: yoga.ID, IsActive: true,
	}))

	req := f.bookingRequest(testStart)
	req.ServiceID = yoga.ID
	_, err := f.svc.CreateAppointment(f.ctx, req)
	require.NoError(t, err)

	slots, err := f.svc.GetAvailableSlots(f.ctx, f.staff.ID, yoga.ID, testStart)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.NotNil(t, slots[0].CurrentAttendees)
	assert.Equal(t, 1, *slots[0].CurrentAttendees)
	assert.Equal(t, 3, *slots[0].MaxCapacity)
	assert.True(t, slots[0].IsAvailable)
}

func TestGetAvailableSlotsTenantTimezone(t *testing.T) {
	f := newFixture(t)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ny := &models.Tenant{Name: "NY Studio", Slug: "ny", Timezone: "America/New_York", IsActive: true}
	require.NoError(t, f.db.CreateTenant(context.Background(), ny))

	svc := &models.ServiceDefinition{Name: "Cut", DurationMinutes: 60, Capacity: 1, IsActive: true}
	require.NoError(t, f.db.CreateService(context.Background(), ny.ID, svc))
	staff := &models.StaffMember{DisplayName: "Lee", AcceptsBookings: true, IsActive: true}
	require.NoError(t, f.db.CreateStaffMember(context.Background(), ny.ID, staff))
	require.NoError(t, f.db.LinkStaffService(context.Background(), ny.ID, &models.StaffServiceLink{
		StaffID: staff.ID, ServiceID: svc.ID, IsActive: true,
	}))
	require.NoError(t, f.db.SetWorkingHours(context.Background(), ny.ID, &models.WorkingHours{
		StaffID: staff.ID, DayOfWeek: time.Monday, Start: "09:00", End: "10:00", IsActive: true,
	}))

	ctx := tenantCtx(ny.ID)
	slots, err := f.svc.GetAvailableSlots(ctx, staff.ID, svc.ID, testStart)
	require.NoError(t, err)
	require.Len(t, slots, 1)

	// 09:00 local in March 2030 (EST, UTC-5) is 14:00 UTC.
	assert.Equal(t, time.UTC, slots[0].Start.Location())
	assert.Equal(t, "09:00", slots[0].Start.In(loc).Format("15:04"))
}
