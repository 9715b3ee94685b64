package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftline/shiftline-backend/internal/recon/service"
	apperrors "github.com/shiftline/shiftline-backend/pkg/errors"
	"github.com/shiftline/shiftline-backend/pkg/httputil"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// AttendanceHandler handles attendance endpoints
type AttendanceHandler struct {
	engine *service.Engine
	logger *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(engine *service.Engine, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{engine: engine, logger: log}
}

// List lists all attendance records
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.engine.GetAllAttendanceRecords())
}

// ByDate lists the attendance records for one calendar day
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		httputil.Error(w, apperrors.BadRequest("date must be YYYY-MM-DD"))
		return
	}
	httputil.JSON(w, http.StatusOK, h.engine.GetAttendanceByDate(date))
}

// ClockIn stamps an employee's clock-in for today
func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	record, err := h.engine.ClockIn(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().
		Str("employee_id", record.EmployeeID).
		Str("status", record.Status).
		Msg("clock-in recorded")
	httputil.JSON(w, http.StatusOK, record)
}

// ClockOut stamps an employee's clock-out for today
func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	record, err := h.engine.ClockOut(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().
		Str("employee_id", record.EmployeeID).
		Float64("hours", record.Hours).
		Msg("clock-out recorded")
	httputil.JSON(w, http.StatusOK, record)
}
