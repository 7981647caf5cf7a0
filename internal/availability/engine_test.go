package availability

import (
	"testing"
	"time"

	"bookdesk/internal/models"
	"bookdesk/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC) // a Monday

func slotStarts(slots []models.TimeSlot) []string {
	var out []string
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func TestSlotsStride(t *testing.T) {
	// 09:00-12:00, 60-minute service, no buffer: three slots.
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 720}},
		ServiceID:       "svc",
		DurationMinutes: 60,
		Now:             day.Add(-time.Hour),
	})
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, slotStarts(slots))
	for _, s := range slots {
		assert.True(t, s.IsAvailable)
		assert.Equal(t, time.Hour, s.End.Sub(s.Start))
	}
}

func TestSlotsBufferExtendsStride(t *testing.T) {
	// 60-minute service with a 15-minute buffer: starts every 75 minutes.
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 720}},
		ServiceID:       "svc",
		DurationMinutes: 60,
		BufferMinutes:   15,
		Now:             day.Add(-time.Hour),
	})
	assert.Equal(t, []string{"09:00", "10:15"}, slotStarts(slots))
}

func TestSlotsPartialSlotDoesNotFit(t *testing.T) {
	// 09:00-10:30 with a 60-minute service: only 09:00 fits fully.
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 630}},
		ServiceID:       "svc",
		DurationMinutes: 60,
		Now:             day.Add(-time.Hour),
	})
	assert.Equal(t, []string{"09:00"}, slotStarts(slots))
}

func TestSlotsConflictMarksUnavailable(t *testing.T) {
	existing := []*models.Appointment{{
		ServiceID: "svc",
		StartTime: day.Add(10 * time.Hour),
		EndTime:   day.Add(11 * time.Hour),
	}}
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 720}},
		ServiceID:       "svc",
		DurationMinutes: 60,
		Existing:        existing,
		Now:             day.Add(-time.Hour),
	})
	require.Len(t, slots, 3)
	assert.True(t, slots[0].IsAvailable, "09:00 is free")
	assert.False(t, slots[1].IsAvailable, "10:00 overlaps the booking")
	assert.True(t, slots[2].IsAvailable, "11:00 starts exactly when the booking ends")
}

func TestSlotsBackToBackBoundary(t *testing.T) {
	// A booking ending at 10:00 does not block the 10:00 slot: intervals are
	// half-open.
	existing := []*models.Appointment{{
		ServiceID: "svc",
		StartTime: day.Add(9 * time.Hour),
		EndTime:   day.Add(10 * time.Hour),
	}}
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 720}},
		ServiceID:       "svc",
		DurationMinutes: 60,
		Existing:        existing,
		Now:             day.Add(-time.Hour),
	})
	require.Len(t, slots, 3)
	assert.False(t, slots[0].IsAvailable)
	assert.True(t, slots[1].IsAvailable)
}

func TestSlotsPastAreUnavailable(t *testing.T) {
	// "Now" is 10:00: the 09:00 and 10:00 slots are gone, 11:00 remains.
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 720}},
		ServiceID:       "svc",
		DurationMinutes: 60,
		Now:             day.Add(10 * time.Hour),
	})
	require.Len(t, slots, 3)
	assert.False(t, slots[0].IsAvailable)
	assert.False(t, slots[1].IsAvailable, "a slot starting exactly now is not bookable")
	assert.True(t, slots[2].IsAvailable)
}

func TestSlotsGroupClassCapacity(t *testing.T) {
	start := day.Add(9 * time.Hour)
	existing := []*models.Appointment{
		{ServiceID: "yoga", StartTime: start, EndTime: start.Add(time.Hour)},
		{ServiceID: "yoga", StartTime: start, EndTime: start.Add(time.Hour)},
	}
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 660}},
		ServiceID:       "yoga",
		DurationMinutes: 60,
		Capacity:        3,
		Existing:        existing,
		Now:             day.Add(-time.Hour),
	})
	require.Len(t, slots, 2)

	require.NotNil(t, slots[0].CurrentAttendees)
	require.NotNil(t, slots[0].MaxCapacity)
	assert.Equal(t, 2, *slots[0].CurrentAttendees)
	assert.Equal(t, 3, *slots[0].MaxCapacity)
	assert.True(t, slots[0].IsAvailable, "one seat left")

	assert.Equal(t, 0, *slots[1].CurrentAttendees)
	assert.True(t, slots[1].IsAvailable)
}

func TestSlotsGroupClassFull(t *testing.T) {
	start := day.Add(9 * time.Hour)
	existing := []*models.Appointment{
		{ServiceID: "yoga", StartTime: start, EndTime: start.Add(time.Hour)},
		{ServiceID: "yoga", StartTime: start, EndTime: start.Add(time.Hour)},
	}
	slots := Slots(Input{
		Day:             day,
		Open:            []schedule.Window{{Start: 540, End: 600}},
		ServiceID:       "yoga",
		DurationMinutes: 60,
		Capacity:        2,
		Existing:        existing,
		Now:             day.Add(-time.Hour),
	})
	require.Len(t, slots, 1)
	assert.False(t, slots[0].IsAvailable)
	assert.Equal(t, 2, *slots[0].CurrentAttendees)
}

func TestSlotsTenantTimezoneConversion(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Midnight local; 09:00 local is 13:00 UTC in September (EDT).
	localDay := time.Date(2026, 9, 7, 0, 0, 0, 0, loc)
	slots := Slots(Input{
		Day:             localDay,
		Open:            []schedule.Window{{Start: 540, End: 600}},
		ServiceID:       "svc",
		DurationMinutes: 60,
		Now:             localDay.Add(-time.Hour),
	})
	require.Len(t, slots, 1)
	assert.Equal(t, time.UTC, slots[0].Start.Location())
	assert.Equal(t, 13, slots[0].Start.Hour())
}

func TestSlotsInvalidDuration(t *testing.T) {
	assert.Nil(t, Slots(Input{Day: day, Open: []schedule.Window{{Start: 540, End: 720}}}))
}
