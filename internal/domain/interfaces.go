package domain

import (
	"context"
	"time"

	"bookdesk/internal/database"
	"bookdesk/internal/models"
)

// Store is the persistence surface the services depend on. Tenant-scoped
// methods take the tenant id explicitly; passing it is the isolation
// guarantee, not an implicit filter somewhere below.
type Store interface {
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	DeactivateTenant(ctx context.Context, id string) error

	CreateService(ctx context.Context, tenantID string, svc *models.ServiceDefinition) error
	GetService(ctx context.Context, tenantID, id string) (*models.ServiceDefinition, error)
	ListActiveServices(ctx context.Context, tenantID string) ([]*models.ServiceDefinition, error)

	CreateStaffMember(ctx context.Context, tenantID string, staff *models.StaffMember) error
	GetStaffMember(ctx context.Context, tenantID, id string) (*models.StaffMember, error)
	ListStaffForService(ctx context.Context, tenantID, serviceID string) ([]*models.StaffMember, error)
	LinkStaffService(ctx context.Context, tenantID string, link *models.StaffServiceLink) error
	GetStaffServiceLink(ctx context.Context, tenantID, staffID, serviceID string) (*models.StaffServiceLink, error)

	SetWorkingHours(ctx context.Context, tenantID string, wh *models.WorkingHours) error
	ListWorkingHours(ctx context.Context, tenantID, staffID string, day time.Weekday) ([]*models.WorkingHours, error)
	AddStaffBreak(ctx context.Context, tenantID string, br *models.StaffBreak) error
	ListStaffBreaks(ctx context.Context, tenantID, staffID string, day time.Weekday) ([]*models.StaffBreak, error)

	CreateClient(ctx context.Context, tenantID string, c *models.Client) error
	GetClient(ctx context.Context, tenantID, id string) (*models.Client, error)
	GetClientByEmail(ctx context.Context, tenantID, email string) (*models.Client, error)

	GetAppointment(ctx context.Context, tenantID, id string) (*models.Appointment, error)
	ListStaffDayAppointments(ctx context.Context, tenantID, staffID string, dayStart, dayEnd time.Time) ([]*models.Appointment, error)
	ListAppointments(ctx context.Context, tenantID string, f database.AppointmentFilter) ([]*models.Appointment, error)
	ListUpcomingAppointments(ctx context.Context, tenantID string, limit int) ([]*models.Appointment, error)
	CreateAppointmentLocked(ctx context.Context, tenantID string, appt *models.Appointment, groupCapacity int) error
	RescheduleAppointmentLocked(ctx context.Context, tenantID string, appt *models.Appointment, fromVersion int64, groupCapacity int) error
	UpdateAppointmentStatusWithVersion(ctx context.Context, tenantID, id string, fromVersion int64, status models.Status, reason string) error
	UpdateAppointmentNotes(ctx context.Context, tenantID, id, internalNotes string) error
	CountGroupAttendees(ctx context.Context, tenantID, serviceID, staffID string, start time.Time) (int, error)
}

// EventPublisher decouples the booking service from event consumers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SlotCache holds computed availability for one staff+service+date. The date
// key is the local calendar date ("2006-01-02") in the tenant timezone.
type SlotCache interface {
	Get(ctx context.Context, tenantID, staffID, serviceID, date string) ([]models.TimeSlot, bool, error)
	Set(ctx context.Context, tenantID, staffID, serviceID, date string, slots []models.TimeSlot) error
	InvalidateDay(ctx context.Context, tenantID, staffID, date string) error
}
