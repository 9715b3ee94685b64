package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shiftline/shiftline-backend/internal/recon/service"
	"github.com/shiftline/shiftline-backend/pkg/httputil"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	engine *service.Engine
	logger *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(engine *service.Engine, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{engine: engine, logger: log}
}

// CreateEmployeeRequest is the request structure for creating an employee
type CreateEmployeeRequest struct {
	ID         string         `json:"id,omitempty"`
	FirstName  string         `json:"firstName,omitempty"`
	LastName   string         `json:"lastName,omitempty"`
	FullName   string         `json:"fullName,omitempty" validate:"required_without=FirstName"`
	Department string         `json:"department,omitempty"`
	Position   string         `json:"position,omitempty"`
	Email      string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string         `json:"phone,omitempty"`
	HireDate   string         `json:"hireDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	HourlyRate float64        `json:"hourlyRate,omitempty" validate:"gte=0"`
	SalaryType string         `json:"salaryType,omitempty" validate:"omitempty,oneof=hourly salary"`
	Status     string         `json:"status,omitempty" validate:"omitempty,oneof=active inactive terminated"`
	Role       string         `json:"role,omitempty" validate:"omitempty,oneof=employee manager admin"`
	Schedule   map[string]any `json:"schedule,omitempty"`
}

func (req *CreateEmployeeRequest) fields() map[string]any {
	out := make(map[string]any)
	put := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	put("id", req.ID)
	put("firstName", req.FirstName)
	put("lastName", req.LastName)
	put("fullName", req.FullName)
	put("department", req.Department)
	put("position", req.Position)
	put("email", req.Email)
	put("phone", req.Phone)
	put("hireDate", req.HireDate)
	put("salaryType", req.SalaryType)
	put("status", req.Status)
	put("role", req.Role)
	if req.HourlyRate != 0 {
		out["hourlyRate"] = req.HourlyRate
	}
	if req.Schedule != nil {
		out["schedule"] = req.Schedule
	}
	return out
}

// List lists all employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.engine.GetEmployees())
}

// Get gets an employee by ID, numeric coercion or employee code
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	employee, err := h.engine.GetEmployee(id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, employee)
}

// Create creates a new employee
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	employee, err := h.engine.AddEmployee(r.Context(), req.fields())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().
		Str("employee_id", employee.ID).
		Str("request_id", httputil.GetRequestID(r.Context())).
		Msg("employee created")
	httputil.JSON(w, http.StatusCreated, employee)
}

// Update applies a partial update to an employee. Unknown fields are
// tolerated the same way legacy sources are.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields map[string]any
	if err := httputil.Decode(r, &fields); err != nil {
		httputil.Error(w, err)
		return
	}
	// identity comes from the path, never the body
	delete(fields, "id")

	employee, err := h.engine.UpdateEmployee(r.Context(), id, fields)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, employee)
}

// Delete deletes an employee and its attendance records
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.engine.DeleteEmployee(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
