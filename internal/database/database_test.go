package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bookdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(zerolog.NewConsoleWriter())
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedTenant creates a tenant with a private 60-minute service, one staff
// member providing it and one client. Returns the created records.
func seedTenant(t *testing.T, db *DB, slug string) (*models.Tenant, *models.ServiceDefinition, *models.StaffMember, *models.Client) {
	t.Helper()
	ctx := context.Background()

	tn := &models.Tenant{Name: slug, Slug: slug, Timezone: "UTC", IsActive: true}
	require.NoError(t, db.CreateTenant(ctx, tn))

	svc := &models.ServiceDefinition{
		Name:            "Massage",
		BasePrice:       80,
		DurationMinutes: 60,
		Capacity:        1,
		IsActive:        true,
	}
	require.NoError(t, db.CreateService(ctx, tn.ID, svc))

	staff := &models.StaffMember{DisplayName: "Alex", AcceptsBookings: true, IsActive: true}
	require.NoError(t, db.CreateStaffMember(ctx, tn.ID, staff))

	require.NoError(t, db.LinkStaffService(ctx, tn.ID, &models.StaffServiceLink{
		StaffID: staff.ID, ServiceID: svc.ID, IsActive: true,
	}))

	client := &models.Client{FirstName: "Kim", Email: "kim@example.com", IsActive: true}
	require.NoError(t, db.CreateClient(ctx, tn.ID, client))

	return tn, svc, staff, client
}

func newAppointment(svc *models.ServiceDefinition, staff *models.StaffMember, client *models.Client, start time.Time) *models.Appointment {
	return &models.Appointment{
		ServiceID:       svc.ID,
		StaffID:         staff.ID,
		ClientID:        client.ID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(svc.DurationMinutes) * time.Minute),
		Status:          models.StatusPending,
		Price:           svc.BasePrice,
		DurationMinutes: svc.DurationMinutes,
	}
}
