// Package export renders a tenant's appointment schedule to an xlsx workbook
// for offline use by staff.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookdesk/internal/database"
	"bookdesk/internal/domain"
	"bookdesk/internal/models"
	"bookdesk/internal/tenant"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type Exporter struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewExporter(store domain.Store, logger *zerolog.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

var ErrTenantRequired = errors.New("tenant not specified")

var headers = []string{"Date", "Start", "End", "Staff", "Service", "Client", "Status", "Price", "Notes"}

// Schedule writes the tenant's appointments within [from, to) to an xlsx
// file and returns the workbook bytes. Times are rendered in the tenant's
// timezone.
func (e *Exporter) Schedule(ctx context.Context, from, to time.Time) ([]byte, error) {
	tenantID, ok := tenant.From(ctx)
	if !ok {
		return nil, ErrTenantRequired
	}

	t, err := e.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		loc = time.UTC
	}

	appts, err := e.store.ListAppointments(ctx, tenantID, database.AppointmentFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Schedule"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	title := fmt.Sprintf("%s — %s to %s", t.Name,
		from.In(loc).Format("2006-01-02"), to.In(loc).Format("2006-01-02"))
	_ = f.SetCellValue(sheet, "A1", title)
	_ = f.MergeCell(sheet, "A1", "I1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheet, "A2", "I2", headerStyle)

	names := e.nameResolver(ctx, tenantID)
	for row, a := range appts {
		e.writeRow(f, sheet, row+3, a, loc, names)
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "D", "F", 22)
	_ = f.SetColWidth(sheet, "I", "I", 30)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	e.logger.Info().Str("tenant_id", tenantID).Int("appointments", len(appts)).Msg("schedule exported")
	return buf.Bytes(), nil
}

// nameResolver memoizes staff/service/client display names so a long
// schedule does not re-read the same rows per appointment.
func (e *Exporter) nameResolver(ctx context.Context, tenantID string) func(kind, id string) string {
	cache := make(map[string]string)
	return func(kind, id string) string {
		key := kind + ":" + id
		if name, ok := cache[key]; ok {
			return name
		}
		name := id
		switch kind {
		case "staff":
			if staff, err := e.store.GetStaffMember(ctx, tenantID, id); err == nil {
				name = staff.DisplayName
			}
		case "service":
			if svc, err := e.store.GetService(ctx, tenantID, id); err == nil {
				name = svc.Name
			}
		case "client":
			if client, err := e.store.GetClient(ctx, tenantID, id); err == nil {
				name = client.FullName()
			}
		}
		cache[key] = name
		return name
	}
}

func (e *Exporter) writeRow(f *excelize.File, sheet string, row int, a *models.Appointment, loc *time.Location, names func(kind, id string) string) {
	values := []any{
		a.StartTime.In(loc).Format("2006-01-02"),
		a.StartTime.In(loc).Format("15:04"),
		a.EndTime.In(loc).Format("15:04"),
		names("staff", a.StaffID),
		names("service", a.ServiceID),
		names("client", a.ClientID),
		string(a.Status),
		a.Price,
		a.CustomerNotes,
	}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
