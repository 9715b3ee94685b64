// Package sample synthesizes placeholder attendance for a calendar day
// when none exists, so dependent views are never empty on first load.
// Output is a pure function of (date, employee id): bootstrap may
// re-run after a reload and must not multiply records or flip statuses.
package sample

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
)

// pseudo-random channels derived from the same seed
const (
	chanAttendance = 1
	chanLate       = 2
	chanJitter     = 3
)

// Generate returns deterministic attendance records for every active
// employee marked present on the given YYYY-MM-DD day. The first three
// active employees are always present so the result is non-empty even
// under unlucky seeds.
func Generate(date string, employees []domain.Employee) []domain.AttendanceRecord {
	var out []domain.AttendanceRecord

	active := 0
	for _, e := range employees {
		if e.Status != domain.StatusActive {
			continue
		}
		idx := active
		active++

		seed := dateSeed(date) + idSeed(e.ID)

		present := seededRand(seed, chanAttendance) < 0.8 || idx < 3
		if !present {
			continue
		}

		late := seededRand(seed, chanLate) < 0.2
		jitter := seededRand(seed, chanJitter)

		var clockIn string
		status := domain.AttendancePresent
		if late {
			status = domain.AttendanceLate
			clockIn = clockTime(9, 15, int(jitter*31))
		} else {
			clockIn = clockTime(9, 0, int(jitter*16))
		}

		out = append(out, domain.AttendanceRecord{
			ID:           fmt.Sprintf("sample-%s-%s", date, e.ID),
			EmployeeID:   e.ID,
			Date:         date,
			ClockIn:      &clockIn,
			Status:       status,
			Notes:        "auto-generated",
			LastModified: midnightUTC(date),
		})
	}

	return out
}

// seededRand derives a pseudo-random value in [0,1) from the seed and
// channel. The frac-of-sine construction is intentional: it is cheap,
// stable across platforms, and keeps bootstrap idempotent. Do not
// replace it with a nondeterministic generator.
func seededRand(seed int64, channel int) float64 {
	x := math.Sin(float64(seed)*float64(channel)) * 10000
	return x - math.Floor(x)
}

// dateSeed collapses a YYYY-MM-DD date to its digits (20240315)
func dateSeed(date string) int64 {
	var n int64
	for _, r := range date {
		if r >= '0' && r <= '9' {
			n = n*10 + int64(r-'0')
		}
	}
	return n
}

// idSeed coerces an identifier to a numeric seed contribution; ids
// that are not numeric hash by summing code points
func idSeed(id string) int64 {
	if n, ok := domain.NumericID(id); ok {
		return n
	}
	var n int64
	for _, r := range id {
		n += int64(r)
	}
	return n
}

func clockTime(hour, minute, extra int) string {
	minute += extra
	hour += minute / 60
	minute %= 60
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// midnightUTC pins lastModified to the sample's day so re-generated
// batches are byte-identical
func midnightUTC(date string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
