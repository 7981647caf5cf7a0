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

// Catalog queries: services, staff, staff-service links, working hours and
// breaks. All of them are tenant-scoped; the tenant id is a mandatory
// argument and every statement filters on it. A row that exists under a
// different tenant is indistinguishable from a missing row.

func (db *DB) CreateService(ctx context.Context, tenantID string, svc *models.ServiceDefinition) error {
	if svc.DurationMinutes <= 0 {
		return fmt.Errorf("service duration must be positive, got %d", svc.DurationMinutes)
	}
	if svc.Capacity < 1 {
		return fmt.Errorf("service capacity must be at least 1, got %d", svc.Capacity)
	}
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	svc.TenantID = tenantID
	now := time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO services (id, tenant_id, name, description, base_price, duration_minutes,
                                    capacity, buffer_minutes, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		svc.ID, svc.TenantID, svc.Name, svc.Description, svc.BasePrice, svc.DurationMinutes,
		svc.Capacity, svc.BufferMinutes, svc.IsActive, fmtTime(now), fmtTime(now))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	svc.CreatedAt = now
	svc.UpdatedAt = now
	return nil
}

func (db *DB) GetService(ctx context.Context, tenantID, id string) (*models.ServiceDefinition, error) {
	query := `SELECT id, tenant_id, name, COALESCE(description, ''), base_price, duration_minutes,
                     capacity, buffer_minutes, is_active, created_at, updated_at
              FROM services WHERE id = ? AND tenant_id = ?`

	var svc models.ServiceDefinition
	var createdAt, updatedAt string
	err := db.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&svc.ID, &svc.TenantID, &svc.Name, &svc.Description, &svc.BasePrice, &svc.DurationMinutes,
		&svc.Capacity, &svc.BufferMinutes, &svc.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	if svc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if svc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &svc, nil
}

func (db *DB) ListActiveServices(ctx context.Context, tenantID string) ([]*models.ServiceDefinition, error) {
	query := `SELECT id, tenant_id, name, COALESCE(description, ''), base_price, duration_minutes,
                     capacity, buffer_minutes, is_active, created_at, updated_at
              FROM services WHERE tenant_id = ? AND is_active = 1 ORDER BY name`
	rows, err := db.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.ServiceDefinition
	for rows.Next() {
		var svc models.ServiceDefinition
		var createdAt, updatedAt string
		err := rows.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.Description, &svc.BasePrice,
			&svc.DurationMinutes, &svc.Capacity, &svc.BufferMinutes, &svc.IsActive, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		if svc.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if svc.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		services = append(services, &svc)
	}
	return services, rows.Err()
}

func (db *DB) CreateStaffMember(ctx context.Context, tenantID string, staff *models.StaffMember) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	staff.TenantID = tenantID
	now := time.Now().UTC().Truncate(time.Second)

	query := `INSERT INTO staff_members (id, tenant_id, user_id, display_name, title,
                                         accepts_bookings, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		staff.ID, staff.TenantID, staff.UserID, staff.DisplayName, staff.Title,
		staff.AcceptsBookings, staff.IsActive, fmtTime(now), fmtTime(now))
	if err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	staff.CreatedAt = now
	staff.UpdatedAt = now
	return nil
}

func (db *DB) GetStaffMember(ctx context.Context, tenantID, id string) (*models.StaffMember, error) {
	query := `SELECT id, tenant_id, COALESCE(user_id, ''), display_name, COALESCE(title, ''),
                     accepts_bookings, is_active, created_at, updated_at
              FROM staff_members WHERE id = ? AND tenant_id = ?`

	var staff models.StaffMember
	var createdAt, updatedAt string
	err := db.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&staff.ID, &staff.TenantID, &staff.UserID, &staff.DisplayName, &staff.Title,
		&staff.AcceptsBookings, &staff.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	if staff.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if staff.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &staff, nil
}

// ListStaffForService returns the active, booking-accepting staff members who
// provide the service.
func (db *DB) ListStaffForService(ctx context.Context, tenantID, serviceID string) ([]*models.StaffMember, error) {
	query := `SELECT s.id, s.tenant_id, COALESCE(s.user_id, ''), s.display_name, COALESCE(s.title, ''),
                     s.accepts_bookings, s.is_active, s.created_at, s.updated_at
              FROM staff_members s
              JOIN staff_service_links l ON l.staff_id = s.id AND l.tenant_id = s.tenant_id
              WHERE s.tenant_id = ? AND l.service_id = ? AND l.is_active = 1
                AND s.is_active = 1 AND s.accepts_bookings = 1
              ORDER BY s.display_name`
	rows, err := db.db.QueryContext(ctx, query, tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff for service: %w", err)
	}
	defer rows.Close()

	var staff []*models.StaffMember
	for rows.Next() {
		var sm models.StaffMember
		var createdAt, updatedAt string
		err := rows.Scan(&sm.ID, &sm.TenantID, &sm.UserID, &sm.DisplayName, &sm.Title,
			&sm.AcceptsBookings, &sm.IsActive, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		if sm.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if sm.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		staff = append(staff, &sm)
	}
	return staff, rows.Err()
}

func (db *DB) LinkStaffService(ctx context.Context, tenantID string, link *models.StaffServiceLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	link.TenantID = tenantID

	query := `INSERT INTO staff_service_links (id, tenant_id, staff_id, service_id,
                                               price_override, duration_override, is_active)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		link.ID, link.TenantID, link.StaffID, link.ServiceID,
		link.PriceOverride, link.DurationOverride, link.IsActive)
	if err != nil {
		return fmt.Errorf("failed to link staff to service: %w", err)
	}
	return nil
}

// GetStaffServiceLink returns the active link between a staff member and a
// service, or ErrNotFound when the staff member does not provide it.
func (db *DB) GetStaffServiceLink(ctx context.Context, tenantID, staffID, serviceID string) (*models.StaffServiceLink, error) {
	query := `SELECT id, tenant_id, staff_id, service_id, price_override, duration_override, is_active
              FROM staff_service_links
              WHERE tenant_id = ? AND staff_id = ? AND service_id = ? AND is_active = 1`

	var link models.StaffServiceLink
	var price sql.NullFloat64
	var duration sql.NullInt64
	err := db.db.QueryRowContext(ctx, query, tenantID, staffID, serviceID).Scan(
		&link.ID, &link.TenantID, &link.StaffID, &link.ServiceID, &price, &duration, &link.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff service link: %w", err)
	}
	if price.Valid {
		link.PriceOverride = &price.Float64
	}
	if duration.Valid {
		d := int(duration.Int64)
		link.DurationOverride = &d
	}
	return &link, nil
}

func (db *DB) SetWorkingHours(ctx context.Context, tenantID string, wh *models.WorkingHours) error {
	if wh.ID == "" {
		wh.ID = uuid.NewString()
	}
	wh.TenantID = tenantID

	query := `INSERT INTO working_hours (id, tenant_id, staff_id, day_of_week, start_time, end_time, is_active)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		wh.ID, wh.TenantID, wh.StaffID, int(wh.DayOfWeek), wh.Start, wh.End, wh.IsActive)
	if err != nil {
		return fmt.Errorf("failed to set working hours: %w", err)
	}
	return nil
}

func (db *DB) ListWorkingHours(ctx context.Context, tenantID, staffID string, day time.Weekday) ([]*models.WorkingHours, error) {
	query := `SELECT id, tenant_id, staff_id, day_of_week, start_time, end_time, is_active
              FROM working_hours
              WHERE tenant_id = ? AND staff_id = ? AND day_of_week = ? AND is_active = 1
              ORDER BY start_time`
	rows, err := db.db.QueryContext(ctx, query, tenantID, staffID, int(day))
	if err != nil {
		return nil, fmt.Errorf("failed to list working hours: %w", err)
	}
	defer rows.Close()

	var hours []*models.WorkingHours
	for rows.Next() {
		var wh models.WorkingHours
		var dow int
		if err := rows.Scan(&wh.ID, &wh.TenantID, &wh.StaffID, &dow, &wh.Start, &wh.End, &wh.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan working hours: %w", err)
		}
		wh.DayOfWeek = time.Weekday(dow)
		hours = append(hours, &wh)
	}
	return hours, rows.Err()
}

func (db *DB) AddStaffBreak(ctx context.Context, tenantID string, br *models.StaffBreak) error {
	if br.ID == "" {
		br.ID = uuid.NewString()
	}
	br.TenantID = tenantID

	query := `INSERT INTO staff_breaks (id, tenant_id, staff_id, day_of_week, start_time, end_time, description, is_active)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		br.ID, br.TenantID, br.StaffID, int(br.DayOfWeek), br.Start, br.End, br.Description, br.IsActive)
	if err != nil {
		return fmt.Errorf("failed to add staff break: %w", err)
	}
	return nil
}

func (db *DB) ListStaffBreaks(ctx context.Context, tenantID, staffID string, day time.Weekday) ([]*models.StaffBreak, error) {
	query := `SELECT id, tenant_id, staff_id, day_of_week, start_time, end_time, COALESCE(description, ''), is_active
              FROM staff_breaks
              WHERE tenant_id = ? AND staff_id = ? AND day_of_week = ? AND is_active = 1
              ORDER BY start_time`
	rows, err := db.db.QueryContext(ctx, query, tenantID, staffID, int(day))
	if err != nil {
		return nil, fmt.Errorf("failed to list staff breaks: %w", err)
	}
	defer rows.Close()

	var breaks []*models.StaffBreak
	for rows.Next() {
		var br models.StaffBreak
		var dow int
		if err := rows.Scan(&br.ID, &br.TenantID, &br.StaffID, &dow, &br.Start, &br.End, &br.Description, &br.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan staff break: %w", err)
		}
		br.DayOfWeek = time.Weekday(dow)
		breaks = append(breaks, &br)
	}
	return breaks, rows.Err()
}
