package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookdesk/internal/database"
	"bookdesk/internal/models"
	"bookdesk/internal/service"
)

// GET /api/v1/availability?staff_id=&service_id=&date=YYYY-MM-DD
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if staffID == "" || serviceID == "" || dateStr == "" {
		writeError(w, http.StatusBadRequest, "staff_id, service_id and date are required")
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.booking.GetAvailableSlots(r.Context(), staffID, serviceID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": dateStr, "slots": slots})
}

type createAppointmentRequest struct {
	ServiceID string    `json:"service_id"`
	StaffID   string    `json:"staff_id"`
	ClientID  string    `json:"client_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	StartTime time.Time `json:"start_time"`
	Notes     string    `json:"notes"`
}

// POST /api/v1/appointments creates a booking.
// GET  /api/v1/appointments lists with optional from/to/staff_id/client_id/status filters.
func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createAppointment(w, r)
	case http.MethodGet:
		s.listAppointments(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createAppointment(w http.ResponseWriter, r *http.Request) {
	var body createAppointmentRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ServiceID == "" || body.StaffID == "" {
		writeError(w, http.StatusBadRequest, "service_id and staff_id are required")
		return
	}
	if body.StartTime.IsZero() {
		writeError(w, http.StatusBadRequest, "start_time is required")
		return
	}
	if max := s.bookingCfg.MaxBookingDays; max > 0 && body.StartTime.After(time.Now().AddDate(0, 0, max)) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("start_time is more than %d days ahead", max))
		return
	}

	appt, err := s.booking.CreateAppointment(r.Context(), service.CreateAppointmentRequest{
		ServiceID: body.ServiceID,
		StaffID:   body.StaffID,
		Client: service.ClientRef{
			ClientID:  body.ClientID,
			Email:     body.Email,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Phone:     body.Phone,
		},
		StartTime: body.StartTime,
		Notes:     body.Notes,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter database.AppointmentFilter

	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from value")
			return
		}
		filter.From = t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to value")
			return
		}
		filter.To = t
	}
	filter.StaffID = strings.TrimSpace(q.Get("staff_id"))
	filter.ClientID = strings.TrimSpace(q.Get("client_id"))
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}

	appts, err := s.booking.ListAppointments(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if appts == nil {
		appts = []*models.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// GET /api/v1/appointments/upcoming?limit=N
func (s *HTTPServer) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := s.bookingCfg.UpcomingLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit value")
			return
		}
		limit = n
	}

	appts, err := s.booking.ListUpcomingAppointments(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if appts == nil {
		appts = []*models.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// handleAppointmentByID routes /api/v1/appointments/{id}[/status|/reschedule].
func (s *HTTPServer) handleAppointmentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/appointments/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getAppointment(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.cancelAppointment(w, r, id)
	case action == "status" && r.Method == http.MethodPut:
		s.updateStatus(w, r, id)
	case action == "reschedule" && r.Method == http.MethodPut:
		s.reschedule(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getAppointment(w http.ResponseWriter, r *http.Request, id string) {
	appt, err := s.booking.GetAppointment(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) cancelAppointment(w http.ResponseWriter, r *http.Request, id string) {
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	version := parseVersionParam(r.URL.Query().Get("version"))

	if err := s.booking.CancelAppointment(r.Context(), id, version, reason); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.StatusCancelled)})
}

func (s *HTTPServer) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Status  string `json:"status"`
		Reason  string `json:"reason"`
		Version int64  `json:"version"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := models.ParseStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.booking.UpdateAppointmentStatus(r.Context(), id, body.Version, status, body.Reason); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *HTTPServer) reschedule(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		StartTime *time.Time `json:"start_time"`
		StaffID   string     `json:"staff_id"`
		Version   int64      `json:"version"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.StartTime == nil && body.StaffID == "" {
		writeError(w, http.StatusBadRequest, "start_time or staff_id is required")
		return
	}

	if err := s.booking.RescheduleAppointment(r.Context(), id, body.Version, body.StartTime, body.StaffID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "rescheduled"})
}

// GET /api/v1/services lists the tenant's active services.
func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	services, err := s.booking.ListServices(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if services == nil {
		services = []*models.ServiceDefinition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

// GET /api/v1/staff?service_id= lists bookable staff for a service.
func (s *HTTPServer) handleStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if serviceID == "" {
		writeError(w, http.StatusBadRequest, "service_id is required")
		return
	}

	staff, err := s.booking.ListStaffForService(r.Context(), serviceID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if staff == nil {
		staff = []*models.StaffMember{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"staff": staff})
}

// GET /api/v1/schedule/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from, err := parseTimeParam(strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from value")
		return
	}
	to, err := parseTimeParam(strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to value")
		return
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "to must be after from")
		return
	}

	data, err := s.exporter.Schedule(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("schedule_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// parseTimeParam accepts either a calendar date or a full RFC 3339 timestamp.
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func parseVersionParam(raw string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
