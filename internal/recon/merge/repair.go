package merge

import (
	"strconv"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// RepairOrphans filters attendance records whose employeeId matches no
// surviving employee. Matching is tolerant: each employee contributes
// its raw ID, its numeric-coerced ID, and its employee code to the
// valid-identity set, because upstream sources are inconsistent about
// numeric vs string identifiers. Returns survivors and the removed
// records for auditing.
func RepairOrphans(employees []domain.Employee, records []domain.AttendanceRecord, log *logger.Logger) (kept, removed []domain.AttendanceRecord) {
	valid := make(map[string]struct{}, len(employees)*3)
	for _, e := range employees {
		valid[e.ID] = struct{}{}
		if n, ok := domain.NumericID(e.ID); ok {
			valid[strconv.FormatInt(n, 10)] = struct{}{}
		}
		if e.EmployeeCode != "" {
			valid[e.EmployeeCode] = struct{}{}
		}
	}

	kept = make([]domain.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if matchesIdentity(valid, r.EmployeeID) {
			kept = append(kept, r)
			continue
		}
		removed = append(removed, r)
		log.Debug().
			Str("record_id", r.ID).
			Str("employee_id", r.EmployeeID).
			Str("date", r.Date).
			Msg("removing orphan attendance record")
	}

	if len(removed) > 0 {
		log.Info().Int("removed", len(removed)).Int("kept", len(kept)).Msg("orphan repair complete")
	}
	return kept, removed
}

func matchesIdentity(valid map[string]struct{}, employeeID string) bool {
	if _, ok := valid[employeeID]; ok {
		return true
	}
	if n, ok := domain.NumericID(employeeID); ok {
		if _, ok := valid[strconv.FormatInt(n, 10)]; ok {
			return true
		}
	}
	return false
}
