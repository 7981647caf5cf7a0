package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"bookdesk/internal/database"
	"bookdesk/internal/models"
	"bookdesk/internal/tenant"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestScheduleExport(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	db, err := database.NewDB(filepath.Join(t.TempDir(), "export.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	tn := &models.Tenant{Name: "Studio", Slug: "studio", Timezone: "UTC", IsActive: true}
	require.NoError(t, db.CreateTenant(ctx, tn))

	svc := &models.ServiceDefinition{Name: "Massage", BasePrice: 80, DurationMinutes: 60, Capacity: 1, IsActive: true}
	require.NoError(t, db.CreateService(ctx, tn.ID, svc))
	staff := &models.StaffMember{DisplayName: "Alex", AcceptsBookings: true, IsActive: true}
	require.NoError(t, db.CreateStaffMember(ctx, tn.ID, staff))
	client := &models.Client{FirstName: "Kim", LastName: "Ito", Email: "kim@example.com", IsActive: true}
	require.NoError(t, db.CreateClient(ctx, tn.ID, client))

	start := time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)
	appt := &models.Appointment{
		ServiceID:       svc.ID,
		StaffID:         staff.ID,
		ClientID:        client.ID,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		Status:          models.StatusConfirmed,
		Price:           80,
		DurationMinutes: 60,
	}
	require.NoError(t, db.CreateAppointmentLocked(ctx, tn.ID, appt, 1))

	exporter := NewExporter(db, &logger)
	data, err := exporter.Schedule(tenant.With(ctx, tn.ID),
		time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 3, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3, "title, header and one data row")

	dataRow := rows[2]
	assert.Equal(t, "2030-03-04", dataRow[0])
	assert.Equal(t, "10:00", dataRow[1])
	assert.Equal(t, "11:00", dataRow[2])
	assert.Equal(t, "Alex", dataRow[3])
	assert.Equal(t, "Massage", dataRow[4])
	assert.Equal(t, "Kim Ito", dataRow[5])
	assert.Equal(t, "confirmed", dataRow[6])
}

func TestScheduleExportRequiresTenant(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	db, err := database.NewDB(filepath.Join(t.TempDir(), "export.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	exporter := NewExporter(db, &logger)
	_, err = exporter.Schedule(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrTenantRequired)
}
