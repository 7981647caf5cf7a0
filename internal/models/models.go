package models

import "time"

// Tenant is an independent business account and the root of data isolation.
// It is not itself tenant-scoped. Tenants are deactivated, never hard-deleted.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Timezone  string    `json:"timezone"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceDefinition describes a bookable service offered by a tenant.
// Capacity 1 means a private session, above 1 a group class.
type ServiceDefinition struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	BasePrice       float64   `json:"base_price"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity"`
	BufferMinutes   int       `json:"buffer_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsGroupClass reports whether multiple bookings may share one start time.
func (s *ServiceDefinition) IsGroupClass() bool {
	return s.Capacity > 1
}

// StaffMember is a bookable person within a tenant.
type StaffMember struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	UserID          string    `json:"user_id,omitempty"`
	DisplayName     string    `json:"display_name"`
	Title           string    `json:"title,omitempty"`
	AcceptsBookings bool      `json:"accepts_bookings"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StaffServiceLink connects a staff member to a service they provide,
// optionally overriding the service's base price or duration.
type StaffServiceLink struct {
	ID               string   `json:"id"`
	TenantID         string   `json:"tenant_id"`
	StaffID          string   `json:"staff_id"`
	ServiceID        string   `json:"service_id"`
	PriceOverride    *float64 `json:"price_override,omitempty"`
	DurationOverride *int     `json:"duration_override,omitempty"`
	IsActive         bool     `json:"is_active"`
}

// EffectivePrice returns the override if set, else the service base price.
func (l *StaffServiceLink) EffectivePrice(svc *ServiceDefinition) float64 {
	if l != nil && l.PriceOverride != nil {
		return *l.PriceOverride
	}
	return svc.BasePrice
}

// EffectiveDuration returns the override if set, else the service base duration.
func (l *StaffServiceLink) EffectiveDuration(svc *ServiceDefinition) int {
	if l != nil && l.DurationOverride != nil {
		return *l.DurationOverride
	}
	return svc.DurationMinutes
}

// WorkingHours is a weekly recurring working window for a staff member.
// Start and End are local wall-clock times ("HH:MM") in the tenant timezone.
type WorkingHours struct {
	ID        string       `json:"id"`
	TenantID  string       `json:"tenant_id"`
	StaffID   string       `json:"staff_id"`
	DayOfWeek time.Weekday `json:"day_of_week"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	IsActive  bool         `json:"is_active"`
}

// StaffBreak is a weekly recurring blackout window subtracted from working hours.
type StaffBreak struct {
	ID          string       `json:"id"`
	TenantID    string       `json:"tenant_id"`
	StaffID     string       `json:"staff_id"`
	DayOfWeek   time.Weekday `json:"day_of_week"`
	Start       string       `json:"start"`
	End         string       `json:"end"`
	Description string       `json:"description,omitempty"`
	IsActive    bool         `json:"is_active"`
}

// Client is a customer of a tenant, created on first booking if needed.
type Client struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name, trimming when the last name is empty.
func (c *Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// TimeSlot is a candidate bookable interval produced by the availability engine.
// CurrentAttendees and MaxCapacity are populated for group classes only.
type TimeSlot struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	IsAvailable      bool      `json:"is_available"`
	CurrentAttendees *int      `json:"current_attendees,omitempty"`
	MaxCapacity      *int      `json:"max_capacity,omitempty"`
}
