package service

import "errors"

// Domain error taxonomy. Validation failures are returned as one of these
// sentinels so the boundary layer can map them to status codes; anything else
// is an infrastructure failure.
var (
	ErrTenantNotSpecified         = errors.New("tenant not specified")
	ErrServiceNotFound            = errors.New("service not found")
	ErrStaffNotFound              = errors.New("staff member not found")
	ErrStaffDoesNotProvideService = errors.New("staff member does not provide this service")
	ErrClientInformationRequired  = errors.New("client information required")
	ErrClientNotFound             = errors.New("client not found")
	ErrSlotUnavailable            = errors.New("time slot is not available")
	ErrClassFull                  = errors.New("class is at full capacity")
	ErrAppointmentNotFound        = errors.New("appointment not found")
	ErrInvalidStatusTransition    = errors.New("invalid status transition")
	ErrConcurrencyConflict        = errors.New("appointment was modified concurrently, reload and retry")
	ErrInvalidTimezone            = errors.New("tenant timezone is invalid")
)
