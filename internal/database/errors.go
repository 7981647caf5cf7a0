package database

import "errors"

var (
	// ErrNotFound covers both a genuinely missing row and a row belonging
	// to another tenant; callers cannot tell the two apart.
	ErrNotFound = errors.New("record not found")

	// ErrSlotConflict means the requested interval overlaps an existing
	// non-cancelled appointment for the staff member.
	ErrSlotConflict = errors.New("time slot is not available")

	// ErrCapacityReached means a group class has no seats left at the
	// requested start time.
	ErrCapacityReached = errors.New("class is at full capacity")

	// ErrConcurrentModification signals a stale optimistic version; the
	// caller should reload and retry.
	ErrConcurrentModification = errors.New("appointment was modified concurrently")

	// ErrLockTimeout means the per-staff booking lock could not be acquired
	// within the request deadline. Retryable.
	ErrLockTimeout = errors.New("timed out waiting for booking lock")
)
