package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{StartTime: base, EndTime: base.Add(time.Hour)}

	assert.True(t, appt.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.True(t, appt.Overlaps(base.Add(-30*time.Minute), base.Add(30*time.Minute)))
	assert.True(t, appt.Overlaps(base.Add(-time.Hour), base.Add(2*time.Hour)), "fully covering")
	assert.True(t, appt.Overlaps(base, base.Add(time.Hour)), "identical interval")

	// Half-open: touching boundaries do not overlap.
	assert.False(t, appt.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.False(t, appt.Overlaps(base.Add(-time.Hour), base))
}

func TestStaffServiceLinkOverrides(t *testing.T) {
	svc := &ServiceDefinition{BasePrice: 50, DurationMinutes: 60}

	var link *StaffServiceLink
	assert.Equal(t, 50.0, link.EffectivePrice(svc), "nil link falls back to base")
	assert.Equal(t, 60, link.EffectiveDuration(svc))

	price := 75.0
	duration := 45
	link = &StaffServiceLink{PriceOverride: &price, DurationOverride: &duration}
	assert.Equal(t, 75.0, link.EffectivePrice(svc))
	assert.Equal(t, 45, link.EffectiveDuration(svc))
}

func TestServiceIsGroupClass(t *testing.T) {
	assert.False(t, (&ServiceDefinition{Capacity: 1}).IsGroupClass())
	assert.True(t, (&ServiceDefinition{Capacity: 8}).IsGroupClass())
}

func TestClientFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Client{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&Client{FirstName: "Ada"}).FullName())
}
