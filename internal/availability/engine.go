// Package availability computes bookable time slots for one staff member,
// service and date. The computation is pure: callers load the schedule and the
// day's appointments, the engine only walks intervals. It never reserves
// anything, so it is safe to call concurrently and repeatedly.
package availability

import (
	"time"

	"bookdesk/internal/models"
	"bookdesk/internal/schedule"
)

// Input carries everything the engine needs for one staff+service+date.
type Input struct {
	// Day is midnight of the requested date in the tenant's location.
	Day time.Time
	// Open are the day's open intervals (working hours minus breaks),
	// local wall-clock minutes from midnight.
	Open []schedule.Window

	ServiceID       string
	DurationMinutes int
	BufferMinutes   int
	// Capacity above 1 marks a group class.
	Capacity int

	// Existing are the staff member's non-cancelled appointments whose
	// interval may intersect the day, in UTC.
	Existing []*models.Appointment

	Now time.Time
}

// Slots walks each open interval in stride steps (duration + buffer) from the
// interval's open boundary and reports every candidate whose full duration
// fits. Conflicts use half-open [start,end) intersection, so a booking ending
// exactly when a slot starts does not block it. Slots whose start is not in
// the future are reported unavailable. Output is chronological.
func Slots(in Input) []models.TimeSlot {
	if in.DurationMinutes <= 0 {
		return nil
	}

	duration := time.Duration(in.DurationMinutes) * time.Minute
	stride := in.DurationMinutes + in.BufferMinutes

	var slots []models.TimeSlot
	for _, iv := range in.Open {
		for at := iv.Start; at+in.DurationMinutes <= iv.End; at += stride {
			start := in.Day.Add(time.Duration(at) * time.Minute).UTC()
			end := start.Add(duration)

			slot := models.TimeSlot{Start: start, End: end}
			if in.Capacity > 1 {
				attendees := countAttendees(in.Existing, in.ServiceID, start)
				capacity := in.Capacity
				slot.CurrentAttendees = &attendees
				slot.MaxCapacity = &capacity
				slot.IsAvailable = attendees < capacity
			} else {
				slot.IsAvailable = !overlapsAny(in.Existing, start, end)
			}

			if !start.After(in.Now) {
				slot.IsAvailable = false
			}
			slots = append(slots, slot)
		}
	}
	return slots
}

func overlapsAny(existing []*models.Appointment, start, end time.Time) bool {
	for _, a := range existing {
		if a.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// countAttendees counts bookings of the same service at exactly this start
// time; group-class occupancy is keyed by identical start, not by overlap.
func countAttendees(existing []*models.Appointment, serviceID string, start time.Time) int {
	n := 0
	for _, a := range existing {
		if a.ServiceID == serviceID && a.StartTime.Equal(start) {
			n++
		}
	}
	return n
}
