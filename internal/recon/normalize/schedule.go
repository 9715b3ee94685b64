package normalize

import (
	"github.com/shiftline/shiftline-backend/internal/recon/domain"
)

// asSchedule coerces a schedule-like value onto the default weekly
// schedule. Unknown days and malformed entries keep their defaults.
func asSchedule(v any) map[string]domain.DaySchedule {
	out := domain.DefaultSchedule()

	m, ok := v.(map[string]any)
	if !ok {
		return out
	}

	for _, day := range domain.Weekdays {
		dv, ok := m[day].(map[string]any)
		if !ok {
			continue
		}
		ds := out[day]
		if b, ok := dv["active"].(bool); ok {
			ds.Active = b
		}
		if s := asString(dv["start"]); s != "" {
			ds.Start = s
		}
		if s := asString(dv["end"]); s != "" {
			ds.End = s
		}
		out[day] = ds
	}

	return out
}
