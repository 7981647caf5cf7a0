package service

import (
	"context"
	"errors"
	"fmt"

	"bookdesk/internal/database"
	"bookdesk/internal/models"
	"bookdesk/internal/tenant"
)

// ListServices returns the tenant's active, bookable services.
func (s *BookingService) ListServices(ctx context.Context) ([]*models.ServiceDefinition, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantNotSpecified
	}
	return s.store.ListActiveServices(ctx, tenantID)
}

// ListStaffForService returns the staff members currently bookable for a
// service.
func (s *BookingService) ListStaffForService(ctx context.Context, serviceID string) ([]*models.StaffMember, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantNotSpecified
	}

	if _, err := s.store.GetService(ctx, tenantID, serviceID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	return s.store.ListStaffForService(ctx, tenantID, serviceID)
}
