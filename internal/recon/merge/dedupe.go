// Package merge removes duplicates from discovered entity sets and
// repairs referential integrity between them.
package merge

import (
	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// DedupeEmployees keeps the first occurrence per distinct ID, compared
// as string. Survivor order follows input order. Dropped entries are
// logged per key; the diagnostic never affects the returned data.
func DedupeEmployees(in []domain.Employee, log *logger.Logger) []domain.Employee {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Employee, 0, len(in))
	dropped := 0

	for _, e := range in {
		if _, ok := seen[e.ID]; ok {
			dropped++
			log.Debug().Str("employee_id", e.ID).Msg("dropping duplicate employee")
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}

	if dropped > 0 {
		log.Info().Int("dropped", dropped).Int("kept", len(out)).Msg("employee dedup complete")
	}
	return out
}

// DedupeRecords keeps the first occurrence per (employeeID, date) pair.
func DedupeRecords(in []domain.AttendanceRecord, log *logger.Logger) []domain.AttendanceRecord {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.AttendanceRecord, 0, len(in))
	dropped := 0

	for _, r := range in {
		key := domain.RecordKey(r.EmployeeID, r.Date)
		if _, ok := seen[key]; ok {
			dropped++
			log.Debug().Str("key", key).Str("record_id", r.ID).Msg("dropping duplicate attendance record")
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}

	if dropped > 0 {
		log.Info().Int("dropped", dropped).Int("kept", len(out)).Msg("attendance dedup complete")
	}
	return out
}
