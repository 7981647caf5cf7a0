// Package api exposes the booking core over a small JSON HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookdesk/internal/config"
	"bookdesk/internal/database"
	"bookdesk/internal/export"
	"bookdesk/internal/service"

	"github.com/rs/zerolog"
)

type HTTPServer struct {
	cfg        config.APIConfig
	bookingCfg config.BookingConfig
	booking    *service.BookingService
	exporter   *export.Exporter
	logger     *zerolog.Logger
	server     *http.Server
}

func NewHTTPServer(cfg config.APIConfig, bookingCfg config.BookingConfig, booking *service.BookingService, exporter *export.Exporter, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, bookingCfg: bookingCfg, booking: booking, exporter: exporter, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("/api/v1/appointments", srv.handleAppointments)
	mux.HandleFunc("/api/v1/appointments/upcoming", srv.handleUpcoming)
	mux.HandleFunc("/api/v1/appointments/", srv.handleAppointmentByID)
	mux.HandleFunc("/api/v1/services", srv.handleServices)
	mux.HandleFunc("/api/v1/staff", srv.handleStaff)
	mux.HandleFunc("/api/v1/schedule/export", srv.handleExport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	limiter := newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := srv.loggingMiddleware(tenantMiddleware(limiter.wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeout) * time.Second,
	}
	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the composed handler chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors to status codes. Conflicts are
// distinguishable from missing resources so clients know what to retry.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTenantNotSpecified),
		errors.Is(err, export.ErrTenantRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrStaffNotFound),
		errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStaffDoesNotProvideService),
		errors.Is(err, service.ErrClientInformationRequired),
		errors.Is(err, service.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrClassFull),
		errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "calendar is busy, retry shortly")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
