// Package normalize converts heterogeneous employee-like and
// attendance-like objects from legacy sources into canonical entities.
// It is total: malformed input degrades to defaults, never an error.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
)

// overridable for deterministic tests
var timeNow = time.Now

// Employees normalizes a batch of employee-like objects. Input maps are
// never mutated.
func Employees(in []map[string]any) []domain.Employee {
	out := make([]domain.Employee, 0, len(in))
	for _, obj := range in {
		if obj == nil {
			continue
		}
		out = append(out, Employee(obj))
	}
	return out
}

// Employee normalizes a single employee-like object.
func Employee(obj map[string]any) domain.Employee {
	now := timeNow().UTC()

	e := domain.Employee{
		ID:         asID(lookup(obj, employeeFields, "id")),
		FirstName:  asString(lookup(obj, employeeFields, "firstName")),
		LastName:   asString(lookup(obj, employeeFields, "lastName")),
		FullName:   asString(lookup(obj, employeeFields, "fullName")),
		Department: asString(lookup(obj, employeeFields, "department")),
		Position:   asString(lookup(obj, employeeFields, "position")),
		Email:      asString(lookup(obj, employeeFields, "email")),
		Phone:      asString(lookup(obj, employeeFields, "phone")),
		HireDate:   asString(lookup(obj, employeeFields, "hireDate")),
		HourlyRate: asFloat(lookup(obj, employeeFields, "hourlyRate")),
		SalaryType: asString(lookup(obj, employeeFields, "salaryType")),
		Status:     asString(lookup(obj, employeeFields, "status")),
		Role:       asString(lookup(obj, employeeFields, "role")),
		UpdatedAt:  now,
	}

	e.EmployeeCode = asString(lookup(obj, employeeFields, "employeeCode"))
	if e.EmployeeCode == "" {
		e.EmployeeCode = deriveCode(e.ID)
	}

	// fullName never ends up empty: derive from parts, or split a
	// provided full name back into parts when those are missing.
	if e.FullName == "" {
		e.FullName = strings.TrimSpace(e.FirstName + " " + e.LastName)
	}
	if e.FullName == "" {
		e.FullName = "Employee " + e.ID
	}
	if e.FirstName == "" && e.LastName == "" {
		e.FirstName, e.LastName = splitName(e.FullName)
	}

	if e.SalaryType != domain.SalarySalary {
		e.SalaryType = domain.SalaryHourly
	}
	switch e.Status {
	case domain.StatusActive, domain.StatusInactive, domain.StatusTerminated:
	default:
		e.Status = domain.StatusActive
	}
	switch e.Role {
	case domain.RoleEmployee, domain.RoleManager, domain.RoleAdmin:
	default:
		e.Role = domain.RoleEmployee
	}

	e.Schedule = asSchedule(lookup(obj, employeeFields, "schedule"))

	e.CreatedAt = asTime(lookup(obj, employeeFields, "createdAt"))
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}

	return e
}

// Records normalizes a batch of attendance-like objects.
func Records(in []map[string]any) []domain.AttendanceRecord {
	out := make([]domain.AttendanceRecord, 0, len(in))
	for _, obj := range in {
		if obj == nil {
			continue
		}
		out = append(out, Record(obj))
	}
	return out
}

// Record normalizes a single attendance-like object.
func Record(obj map[string]any) domain.AttendanceRecord {
	now := timeNow().UTC()

	r := domain.AttendanceRecord{
		ID:            asID(lookup(obj, recordFields, "id")),
		EmployeeID:    asID(lookup(obj, recordFields, "employeeId")),
		Date:          asString(lookup(obj, recordFields, "date")),
		ClockIn:       asTimeOfDay(lookup(obj, recordFields, "clockIn")),
		ClockOut:      asTimeOfDay(lookup(obj, recordFields, "clockOut")),
		Status:        asString(lookup(obj, recordFields, "status")),
		Hours:         asFloat(lookup(obj, recordFields, "hours")),
		OvertimeHours: asFloat(lookup(obj, recordFields, "overtimeHours")),
		Notes:         asString(lookup(obj, recordFields, "notes")),
	}

	if r.ID == "" {
		// deterministic so repeated normalization of the same legacy
		// row does not mint fresh identities
		r.ID = "att-" + r.EmployeeID + "-" + r.Date
	}

	switch r.Status {
	case domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceLate,
		domain.AttendanceOnLeave, domain.AttendanceSick, domain.AttendanceVacation,
		domain.AttendanceWaiting:
	default:
		if r.ClockIn != nil {
			r.Status = domain.AttendancePresent
		} else {
			r.Status = domain.AttendanceAbsent
		}
	}

	if r.Hours == 0 {
		r.Hours = domain.WorkedHours(r.ClockIn, r.ClockOut)
	}
	if r.OvertimeHours == 0 && r.Hours > 8 {
		r.OvertimeHours = r.Hours - 8
	}

	r.LastModified = asTime(lookup(obj, recordFields, "lastModified"))
	if r.LastModified.IsZero() {
		r.LastModified = now
	}

	return r
}

func deriveCode(id string) string {
	if n, ok := domain.NumericID(id); ok {
		return fmt.Sprintf("EMP%03d", n)
	}
	if id == "" {
		return ""
	}
	return "EMP-" + id
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// asID coerces an identifier to canonical string form. Numbers arrive
// as float64 from JSON decoding; whole floats render without decimals.
func asID(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64, int, int64, bool:
		return fmt.Sprintf("%v", t)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}

// asTimeOfDay coerces a clock value to HH:MM, nil when absent or
// unparseable.
func asTimeOfDay(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// tolerate HH:MM:SS from SQL sources
	if len(s) >= 5 && strings.Count(s, ":") >= 1 {
		parts := strings.Split(s, ":")
		if len(parts) >= 2 {
			h, err1 := strconv.Atoi(parts[0])
			m, err2 := strconv.Atoi(parts[1])
			if err1 == nil && err2 == nil && h >= 0 && h <= 23 && m >= 0 && m <= 59 {
				out := fmt.Sprintf("%02d:%02d", h, m)
				return &out
			}
		}
	}
	return nil
}
