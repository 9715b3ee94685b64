package normalize

import (
	"testing"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })
	return now
}

func TestEmployee_AliasResolution(t *testing.T) {
	fixedNow(t)

	tests := []struct {
		name string
		in   map[string]any
		want func(t *testing.T, e domain.Employee)
	}{
		{
			name: "camelCase source",
			in: map[string]any{
				"id": "7", "firstName": "Ann", "lastName": "Lee",
				"hourlyRate": 22.5, "department": "Kitchen",
			},
			want: func(t *testing.T, e domain.Employee) {
				assert.Equal(t, "7", e.ID)
				assert.Equal(t, "Ann Lee", e.FullName)
				assert.Equal(t, 22.5, e.HourlyRate)
				assert.Equal(t, "Kitchen", e.Department)
			},
		},
		{
			name: "snake_case legacy source",
			in: map[string]any{
				"employee_id": float64(7), "first_name": "Ann", "last_name": "Lee",
				"hourly_rate": "22.5", "dept": "Kitchen",
			},
			want: func(t *testing.T, e domain.Employee) {
				assert.Equal(t, "7", e.ID)
				assert.Equal(t, "Ann Lee", e.FullName)
				assert.Equal(t, 22.5, e.HourlyRate)
				assert.Equal(t, "Kitchen", e.Department)
			},
		},
		{
			name: "full name only is split into parts",
			in:   map[string]any{"id": float64(1), "name": "Ann Mei Lee"},
			want: func(t *testing.T, e domain.Employee) {
				assert.Equal(t, "Ann Mei Lee", e.FullName)
				assert.Equal(t, "Ann", e.FirstName)
				assert.Equal(t, "Mei Lee", e.LastName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, Employee(tt.in))
		})
	}
}

func TestEmployee_Defaults(t *testing.T) {
	now := fixedNow(t)

	e := Employee(map[string]any{"id": float64(42)})

	assert.Equal(t, "42", e.ID)
	assert.Equal(t, "EMP042", e.EmployeeCode)
	assert.Equal(t, "Employee 42", e.FullName)
	assert.Equal(t, domain.StatusActive, e.Status)
	assert.Equal(t, domain.RoleEmployee, e.Role)
	assert.Equal(t, domain.SalaryHourly, e.SalaryType)
	assert.Equal(t, now, e.UpdatedAt)
	assert.Equal(t, now, e.CreatedAt)

	require.Len(t, e.Schedule, 7)
	assert.True(t, e.Schedule["monday"].Active)
	assert.False(t, e.Schedule["saturday"].Active)
	assert.Equal(t, "08:00", e.Schedule["friday"].Start)
	assert.Equal(t, "17:00", e.Schedule["friday"].End)
}

func TestEmployee_InvalidEnumsDegrade(t *testing.T) {
	fixedNow(t)

	e := Employee(map[string]any{
		"id": "9", "status": "fired", "role": "superuser", "salaryType": "weekly",
	})

	assert.Equal(t, domain.StatusActive, e.Status)
	assert.Equal(t, domain.RoleEmployee, e.Role)
	assert.Equal(t, domain.SalaryHourly, e.SalaryType)
}

func TestEmployee_DoesNotMutateInput(t *testing.T) {
	fixedNow(t)

	in := map[string]any{"id": "1", "first_name": "Ann"}
	_ = Employee(in)

	assert.Equal(t, map[string]any{"id": "1", "first_name": "Ann"}, in)
}

func TestEmployee_ScheduleOverride(t *testing.T) {
	fixedNow(t)

	e := Employee(map[string]any{
		"id": "1",
		"schedule": map[string]any{
			"saturday": map[string]any{"active": true, "start": "10:00", "end": "14:00"},
			"monday":   map[string]any{"active": false},
		},
	})

	assert.True(t, e.Schedule["saturday"].Active)
	assert.Equal(t, "10:00", e.Schedule["saturday"].Start)
	assert.False(t, e.Schedule["monday"].Active)
	// untouched day keeps the default
	assert.True(t, e.Schedule["tuesday"].Active)
}

func TestRecord_AliasesAndDerivedHours(t *testing.T) {
	fixedNow(t)

	r := Record(map[string]any{
		"employee_id": float64(5),
		"date":        "2024-02-02",
		"time_in":     "09:00:00",
		"time_out":    "18:30",
	})

	assert.Equal(t, "5", r.EmployeeID)
	assert.Equal(t, "att-5-2024-02-02", r.ID)
	require.NotNil(t, r.ClockIn)
	assert.Equal(t, "09:00", *r.ClockIn)
	require.NotNil(t, r.ClockOut)
	assert.Equal(t, "18:30", *r.ClockOut)
	assert.Equal(t, domain.AttendancePresent, r.Status)
	assert.InDelta(t, 9.5, r.Hours, 1e-9)
	assert.InDelta(t, 1.5, r.OvertimeHours, 1e-9)
}

func TestRecord_DefaultsOnEmptyInput(t *testing.T) {
	now := fixedNow(t)

	r := Record(map[string]any{})

	assert.Equal(t, "att--", r.ID)
	assert.Nil(t, r.ClockIn)
	assert.Nil(t, r.ClockOut)
	assert.Equal(t, domain.AttendanceAbsent, r.Status)
	assert.Zero(t, r.Hours)
	assert.Equal(t, now, r.LastModified)
}

func TestRecord_MalformedClockTimes(t *testing.T) {
	fixedNow(t)

	r := Record(map[string]any{
		"employeeId": "3", "date": "2024-01-01",
		"clockIn": "not a time", "clockOut": "25:99",
	})

	assert.Nil(t, r.ClockIn)
	assert.Nil(t, r.ClockOut)
	assert.Equal(t, domain.AttendanceAbsent, r.Status)
}

func TestEmployees_SkipsNilEntries(t *testing.T) {
	fixedNow(t)

	out := Employees([]map[string]any{nil, {"id": "1"}, nil})
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}
