package models

import "time"

// Appointment is the core booking record. Appointments are never physically
// deleted: cancellation is a status change that keeps the row.
type Appointment struct {
	ID                 string     `json:"id"`
	TenantID           string     `json:"tenant_id"`
	ServiceID          string     `json:"service_id"`
	StaffID            string     `json:"staff_id"`
	ClientID           string     `json:"client_id"`
	GroupSessionID     string     `json:"group_session_id,omitempty"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	Status             Status     `json:"status"`
	Price              float64    `json:"price"`
	DurationMinutes    int        `json:"duration_minutes"`
	CustomerNotes      string     `json:"customer_notes,omitempty"`
	InternalNotes      string     `json:"internal_notes,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Version            int64      `json:"version"`
}

// Overlaps reports whether the appointment's [start,end) interval intersects
// [start,end). A booking that ends exactly when another starts does not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndTime) && a.StartTime.Before(end)
}
