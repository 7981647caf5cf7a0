package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookdesk/internal/database"
	"bookdesk/internal/domain"
	"bookdesk/internal/events"
	"bookdesk/internal/metrics"
	"bookdesk/internal/models"
	"bookdesk/internal/tenant"

	"github.com/rs/zerolog"
)

// BookingService owns appointment creation, availability and the status
// lifecycle. All entry points resolve the acting tenant from the context and
// fail when it is absent; nothing here ever queries unscoped.
type BookingService struct {
	store    domain.Store
	cache    domain.SlotCache
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(store domain.Store, cache domain.SlotCache, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		cache:    cache,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ClientRef identifies the booking client: either an existing client id, or
// contact details used to find-or-create one by email within the tenant.
type ClientRef struct {
	ClientID  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// CreateAppointmentRequest carries a new booking attempt.
type CreateAppointmentRequest struct {
	ServiceID string
	StaffID   string
	Client    ClientRef
	StartTime time.Time
	Notes     string
}

// CreateAppointment validates and commits a new appointment. Checks run in a
// fixed order and the first failure wins. The conflict check and the insert
// are atomic with respect to concurrent attempts for the same staff member:
// of two racing requests for an overlapping slot, exactly one succeeds.
func (s *BookingService) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*models.Appointment, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantNotSpecified
	}

	svc, err := s.store.GetService(ctx, tenantID, req.ServiceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	staff, err := s.store.GetStaffMember(ctx, tenantID, req.StaffID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load staff member: %w", err)
	}
	if !staff.IsActive || !staff.AcceptsBookings {
		return nil, ErrStaffNotFound
	}

	link, err := s.store.GetStaffServiceLink(ctx, tenantID, req.StaffID, req.ServiceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrStaffDoesNotProvideService
	}
	if err != nil {
		return nil, fmt.Errorf("load staff service link: %w", err)
	}

	client, err := s.resolveClient(ctx, tenantID, req.Client)
	if err != nil {
		return nil, err
	}

	duration := link.EffectiveDuration(svc)
	start := req.StartTime.UTC().Truncate(time.Second)
	appt := &models.Appointment{
		ServiceID:       svc.ID,
		StaffID:         staff.ID,
		ClientID:        client.ID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(duration) * time.Minute),
		Status:          models.StatusPending,
		Price:           link.EffectivePrice(svc),
		DurationMinutes: duration,
		CustomerNotes:   req.Notes,
	}

	err = s.store.CreateAppointmentLocked(ctx, tenantID, appt, svc.Capacity)
	switch {
	case errors.Is(err, database.ErrSlotConflict):
		metrics.IncBookingConflict("overlap")
		return nil, ErrSlotUnavailable
	case errors.Is(err, database.ErrCapacityReached):
		metrics.IncBookingConflict("capacity")
		return nil, ErrClassFull
	case err != nil:
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("tenant_id", tenantID).
		Str("staff_id", appt.StaffID).
		Time("start", appt.StartTime).
		Msg("appointment created")

	s.publishEvent(events.EventAppointmentCreated, appt, "")
	s.invalidateSlots(ctx, tenantID, appt.StaffID, appt.StartTime)
	return appt, nil
}

// resolveClient finds the booking client by id, or by email within the
// tenant, creating a new client record on first contact.
func (s *BookingService) resolveClient(ctx context.Context, tenantID string, ref ClientRef) (*models.Client, error) {
	if ref.ClientID != "" {
		client, err := s.store.GetClient(ctx, tenantID, ref.ClientID)
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load client: %w", err)
		}
		return client, nil
	}

	email := strings.TrimSpace(strings.ToLower(ref.Email))
	if email == "" {
		return nil, ErrClientInformationRequired
	}

	client, err := s.store.GetClientByEmail(ctx, tenantID, email)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("look up client by email: %w", err)
	}

	firstName := ref.FirstName
	if firstName == "" {
		firstName = "Guest"
	}
	client = &models.Client{
		FirstName: firstName,
		LastName:  ref.LastName,
		Email:     email,
		Phone:     ref.Phone,
		IsActive:  true,
	}
	if err := s.store.CreateClient(ctx, tenantID, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (s *BookingService) publishEvent(eventType string, appt *models.Appointment, reason string) {
	if s.eventBus == nil {
		return
	}

	payload := events.AppointmentEventPayload{
		AppointmentID: appt.ID,
		TenantID:      appt.TenantID,
		ServiceID:     appt.ServiceID,
		StaffID:       appt.StaffID,
		ClientID:      appt.ClientID,
		Status:        string(appt.Status),
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
		Reason:        reason,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("appointment_id", appt.ID).Msg("publish event error")
	}
}

// invalidateSlots drops cached availability for the staff member's local
// calendar day. Best effort: a stale cache entry only delays display, the
// booking transaction itself never consults the cache.
func (s *BookingService) invalidateSlots(ctx context.Context, tenantID, staffID string, start time.Time) {
	if s.cache == nil {
		return
	}

	date := start.UTC().Format("2006-01-02")
	if t, err := s.store.GetTenant(ctx, tenantID); err == nil {
		if loc, lerr := time.LoadLocation(t.Timezone); lerr == nil {
			date = start.In(loc).Format("2006-01-02")
		}
	}

	if err := s.cache.InvalidateDay(ctx, tenantID, staffID, date); err != nil {
		s.logger.Warn().Err(err).Str("staff_id", staffID).Str("date", date).Msg("slot cache invalidation failed")
	}
}
