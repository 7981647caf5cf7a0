package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookdesk/internal/availability"
	"bookdesk/internal/database"
	"bookdesk/internal/metrics"
	"bookdesk/internal/models"
	"bookdesk/internal/schedule"
	"bookdesk/internal/tenant"
)

// GetAvailableSlots computes the bookable slots for a staff member, service
// and calendar date. The date is interpreted in the tenant's timezone; slot
// times come back in UTC. The computation reserves nothing and may be
// repeated freely.
func (s *BookingService) GetAvailableSlots(ctx context.Context, staffID, serviceID string, date time.Time) ([]models.TimeSlot, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantNotSpecified
	}

	t, err := s.store.GetTenant(ctx, tenantID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrTenantNotSpecified
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dateKey := day.Format("2006-01-02")

	if s.cache != nil {
		if slots, hit, cerr := s.cache.Get(ctx, tenantID, staffID, serviceID, dateKey); cerr == nil && hit {
			return slots, nil
		}
	}

	started := time.Now()
	slots, err := s.computeSlots(ctx, tenantID, staffID, serviceID, day)
	if err != nil {
		return nil, err
	}
	metrics.ObserveAvailabilityDuration(time.Since(started))

	if s.cache != nil && slots != nil {
		if cerr := s.cache.Set(ctx, tenantID, staffID, serviceID, dateKey, slots); cerr != nil {
			s.logger.Warn().Err(cerr).Str("staff_id", staffID).Msg("slot cache write failed")
		}
	}
	return slots, nil
}

func (s *BookingService) computeSlots(ctx context.Context, tenantID, staffID, serviceID string, day time.Time) ([]models.TimeSlot, error) {
	svc, err := s.store.GetService(ctx, tenantID, serviceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	staff, err := s.store.GetStaffMember(ctx, tenantID, staffID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load staff member: %w", err)
	}
	if !staff.IsActive || !staff.AcceptsBookings {
		return nil, ErrStaffNotFound
	}

	link, err := s.store.GetStaffServiceLink(ctx, tenantID, staffID, serviceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrStaffDoesNotProvideService
	}
	if err != nil {
		return nil, fmt.Errorf("load staff service link: %w", err)
	}

	open, err := s.openIntervals(ctx, tenantID, staffID, day.Weekday())
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		// Staff member does not work that day.
		return nil, nil
	}

	dayEnd := day.AddDate(0, 0, 1)
	existing, err := s.store.ListStaffDayAppointments(ctx, tenantID, staffID, day.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("load day appointments: %w", err)
	}

	return availability.Slots(availability.Input{
		Day:             day,
		Open:            open,
		ServiceID:       svc.ID,
		DurationMinutes: link.EffectiveDuration(svc),
		BufferMinutes:   svc.BufferMinutes,
		Capacity:        svc.Capacity,
		Existing:        existing,
		Now:             time.Now().UTC(),
	}), nil
}

// openIntervals builds the day's open windows from working hours and breaks.
func (s *BookingService) openIntervals(ctx context.Context, tenantID, staffID string, weekday time.Weekday) ([]schedule.Window, error) {
	hours, err := s.store.ListWorkingHours(ctx, tenantID, staffID, weekday)
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	if len(hours) == 0 {
		return nil, nil
	}

	var working []schedule.Window
	for _, wh := range hours {
		w, werr := schedule.ParseWindow(wh.Start, wh.End)
		if werr != nil {
			return nil, fmt.Errorf("working hours %s: %w", wh.ID, werr)
		}
		working = append(working, w)
	}

	staffBreaks, err := s.store.ListStaffBreaks(ctx, tenantID, staffID, weekday)
	if err != nil {
		return nil, fmt.Errorf("load staff breaks: %w", err)
	}
	var breaks []schedule.Window
	for _, br := range staffBreaks {
		w, werr := schedule.ParseWindow(br.Start, br.End)
		if werr != nil {
			return nil, fmt.Errorf("staff break %s: %w", br.ID, werr)
		}
		breaks = append(breaks, w)
	}

	return schedule.OpenIntervals(working, breaks), nil
}
