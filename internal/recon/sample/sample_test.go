package sample

import (
	"strings"
	"testing"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeEmployees(ids ...string) []domain.Employee {
	out := make([]domain.Employee, len(ids))
	for i, id := range ids {
		out[i] = domain.Employee{ID: id, Status: domain.StatusActive}
	}
	return out
}

func TestGenerate_Deterministic(t *testing.T) {
	emps := activeEmployees("1", "2", "3", "4", "5")

	a := Generate("2024-03-15", emps)
	b := Generate("2024-03-15", emps)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].Status, b[i].Status)
		require.NotNil(t, a[i].ClockIn)
		require.NotNil(t, b[i].ClockIn)
		assert.Equal(t, *a[i].ClockIn, *b[i].ClockIn)
		assert.Equal(t, a[i].LastModified, b[i].LastModified)
	}
}

func TestGenerate_AtLeastThreeOfFiveActives(t *testing.T) {
	out := Generate("2024-03-15", activeEmployees("1", "2", "3", "4", "5"))

	assert.GreaterOrEqual(t, len(out), 3)
	for _, r := range out {
		assert.Equal(t, "2024-03-15", r.Date)
		assert.Contains(t, []string{domain.AttendancePresent, domain.AttendanceLate}, r.Status)
	}
}

func TestGenerate_FirstThreeAlwaysPresent(t *testing.T) {
	// regardless of date seed the first three actives produce records
	for _, date := range []string{"2024-01-01", "2024-06-30", "2025-12-31"} {
		out := Generate(date, activeEmployees("10", "11", "12"))
		assert.Len(t, out, 3, "date %s", date)
	}
}

func TestGenerate_SkipsInactiveEmployees(t *testing.T) {
	emps := []domain.Employee{
		{ID: "1", Status: domain.StatusActive},
		{ID: "2", Status: domain.StatusTerminated},
		{ID: "3", Status: domain.StatusInactive},
	}

	out := Generate("2024-03-15", emps)

	for _, r := range out {
		assert.Equal(t, "1", r.EmployeeID)
	}
}

func TestGenerate_StableRecordIDs(t *testing.T) {
	out := Generate("2024-03-15", activeEmployees("7"))

	require.Len(t, out, 1)
	assert.Equal(t, "sample-2024-03-15-7", out[0].ID)
}

func TestGenerate_ClockTimesWellFormed(t *testing.T) {
	out := Generate("2024-03-15", activeEmployees("1", "2", "3", "4", "5", "6", "7", "8"))

	for _, r := range out {
		require.NotNil(t, r.ClockIn)
		parts := strings.Split(*r.ClockIn, ":")
		require.Len(t, parts, 2)

		switch r.Status {
		case domain.AttendanceLate:
			// 09:15 base plus up to 30 minutes
			assert.GreaterOrEqual(t, *r.ClockIn, "09:15")
			assert.LessOrEqual(t, *r.ClockIn, "09:45")
		case domain.AttendancePresent:
			// 09:00 base plus up to 15 minutes
			assert.GreaterOrEqual(t, *r.ClockIn, "09:00")
			assert.LessOrEqual(t, *r.ClockIn, "09:15")
		}
	}
}

func TestGenerate_NonNumericIDsHash(t *testing.T) {
	a := Generate("2024-03-15", activeEmployees("badge-xyz"))
	b := Generate("2024-03-15", activeEmployees("badge-xyz"))

	require.Len(t, a, 1)
	assert.Equal(t, a, b)
}

func TestGenerate_EmptyInput(t *testing.T) {
	assert.Empty(t, Generate("2024-03-15", nil))
	assert.Empty(t, Generate("2024-03-15", []domain.Employee{{ID: "1", Status: domain.StatusInactive}}))
}
