package domain

import (
	"strconv"
	"strings"
	"time"
)

// Employee statuses
const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusTerminated = "terminated"
)

// Salary types
const (
	SalaryHourly = "hourly"
	SalarySalary = "salary"
)

// Roles
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// Attendance statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceOnLeave = "on_leave"
	AttendanceSick    = "sick"
	AttendanceVacation = "vacation"
	AttendanceWaiting = "waiting"
)

// DaySchedule is one weekday's working window
type DaySchedule struct {
	Active bool   `json:"active"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// Employee is the canonical employee shape. IDs are held in string form;
// numeric identifiers from upstream sources are coerced on normalization
// and compared tolerantly (see SameID).
// JSON tags are camelCase to match the snapshot document and the remote
// authority's wire format.
type Employee struct {
	ID           string                 `json:"id"`
	EmployeeCode string                 `json:"employeeCode"`
	FirstName    string                 `json:"firstName"`
	LastName     string                 `json:"lastName"`
	FullName     string                 `json:"fullName"`
	Department   string                 `json:"department"`
	Position     string                 `json:"position"`
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone"`
	HireDate     string                 `json:"hireDate"`
	HourlyRate   float64                `json:"hourlyRate"`
	SalaryType   string                 `json:"salaryType"`
	Status       string                 `json:"status"`
	Role         string                 `json:"role"`
	Schedule     map[string]DaySchedule `json:"schedule"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// AttendanceRecord is the canonical attendance shape. Date is a
// YYYY-MM-DD calendar day; clock times are HH:MM and nullable.
type AttendanceRecord struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	Date          string    `json:"date"`
	ClockIn       *string   `json:"clockIn"`
	ClockOut      *string   `json:"clockOut"`
	Status        string    `json:"status"`
	Hours         float64   `json:"hours"`
	OvertimeHours float64   `json:"overtimeHours"`
	Notes         string    `json:"notes"`
	LastModified  time.Time `json:"lastModified"`
}

// Snapshot is the complete view held by one context and the JSON
// document persisted under the primary store key.
type Snapshot struct {
	Employees         []Employee         `json:"employees"`
	AttendanceRecords []AttendanceRecord `json:"attendanceRecords"`
	LastUpdated       time.Time          `json:"lastUpdated"`
	Version           string             `json:"version"`
}

// SnapshotVersion is written into every persisted snapshot.
const SnapshotVersion = "2.0"

// Weekdays in schedule order
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DefaultSchedule returns the Mon-Fri 08:00-17:00 default
func DefaultSchedule() map[string]DaySchedule {
	s := make(map[string]DaySchedule, len(Weekdays))
	for i, day := range Weekdays {
		s[day] = DaySchedule{
			Active: i < 5,
			Start:  "08:00",
			End:    "17:00",
		}
	}
	return s
}

// SameID reports whether two identifiers refer to the same entity.
// Upstream sources disagree about numeric vs string identifiers, so
// "7" and "007" and 7.0 must all match; a strict compare would not.
func SameID(a, b string) bool {
	if a == b {
		return true
	}
	an, aok := numericID(a)
	bn, bok := numericID(b)
	return aok && bok && an == bn
}

func numericID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return int64(f), true
	}
	return 0, false
}

// NumericID exposes the coerced numeric form of an identifier, with ok
// false for non-numeric identifiers.
func NumericID(s string) (int64, bool) {
	return numericID(s)
}

// RecordKey is the composite dedup key for attendance records.
func RecordKey(employeeID, date string) string {
	return employeeID + "|" + date
}

// WorkedHours computes hours between two HH:MM clock times, zero when
// either is missing or malformed. Overnight shifts wrap at midnight.
func WorkedHours(clockIn, clockOut *string) float64 {
	if clockIn == nil || clockOut == nil {
		return 0
	}
	in, ok := parseMinutes(*clockIn)
	if !ok {
		return 0
	}
	out, ok := parseMinutes(*clockOut)
	if !ok {
		return 0
	}
	diff := out - in
	if diff < 0 {
		diff += 24 * 60
	}
	return float64(diff) / 60.0
}

func parseMinutes(hhmm string) (int, bool) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Clone returns a deep copy of the snapshot so callers can hand data
// out of a lock without aliasing internal state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Employees:         make([]Employee, len(s.Employees)),
		AttendanceRecords: make([]AttendanceRecord, len(s.AttendanceRecords)),
		LastUpdated:       s.LastUpdated,
		Version:           s.Version,
	}
	for i, e := range s.Employees {
		out.Employees[i] = e.Clone()
	}
	copy(out.AttendanceRecords, s.AttendanceRecords)
	for i, r := range s.AttendanceRecords {
		out.AttendanceRecords[i] = r.Clone()
	}
	return out
}

// Clone returns a copy with its own schedule map
func (e Employee) Clone() Employee {
	out := e
	if e.Schedule != nil {
		out.Schedule = make(map[string]DaySchedule, len(e.Schedule))
		for k, v := range e.Schedule {
			out.Schedule[k] = v
		}
	}
	return out
}

// Clone returns a copy with its own clock time pointers
func (r AttendanceRecord) Clone() AttendanceRecord {
	out := r
	if r.ClockIn != nil {
		v := *r.ClockIn
		out.ClockIn = &v
	}
	if r.ClockOut != nil {
		v := *r.ClockOut
		out.ClockOut = &v
	}
	return out
}
