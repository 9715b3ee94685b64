package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/shiftline/shiftline-backend/internal/recon/normalize"
	apperrors "github.com/shiftline/shiftline-backend/pkg/errors"
	"github.com/shiftline/shiftline-backend/pkg/messaging"
)

// lateGraceMinutes past the scheduled start before a clock-in counts as late
const lateGraceMinutes = 15

// GetEmployees returns all employees
func (e *Engine) GetEmployees() []domain.Employee {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneEmployees(e.employees)
}

// GetEmployee looks an employee up by identifier. Matching is tolerant:
// numeric-coerced IDs and the employee code both resolve.
func (e *Engine) GetEmployee(id string) (*domain.Employee, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx := e.findEmployeeLocked(id)
	if idx < 0 {
		return nil, apperrors.NotFound("employee")
	}
	emp := e.employees[idx].Clone()
	return &emp, nil
}

// AddEmployee normalizes the given fields into a new employee, assigns
// an identifier when none was provided and seeds a waiting attendance
// record for today so the new hire shows up on the board immediately.
func (e *Engine) AddEmployee(ctx context.Context, fields map[string]any) (*domain.Employee, error) {
	emp := normalize.Employee(fields)

	if emp.FirstName == "" && emp.LastName == "" && strings.HasPrefix(emp.FullName, "Employee ") {
		return nil, apperrors.Validation(map[string]string{"fullName": "a name is required"})
	}

	e.mu.Lock()
	if emp.ID == "" {
		emp.ID = e.nextIDLocked()
		if emp.EmployeeCode == "" {
			emp.EmployeeCode = deriveCodeFor(emp.ID)
		}
	} else if e.findEmployeeLocked(emp.ID) >= 0 {
		e.mu.Unlock()
		return nil, apperrors.Conflict(fmt.Sprintf("employee %s already exists", emp.ID))
	}

	seed := domain.AttendanceRecord{
		ID:           "att-" + emp.ID + "-" + e.today(),
		EmployeeID:   emp.ID,
		Date:         e.today(),
		Status:       domain.AttendanceWaiting,
		Notes:        "Awaiting first clock-in",
		LastModified: e.now().UTC(),
	}

	e.employees = append(e.employees, emp)
	e.records = append(e.records, seed)
	e.lastUpdated = e.now().UTC()
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		return nil, err
	}
	e.announceEmployee(ctx, messaging.EventEmployeeCreated, messaging.EmployeeCreatedEvent{
		EmployeeID: emp.ID,
		FullName:   emp.FullName,
	})

	if e.remote != nil {
		if err := e.remote.UpsertEmployee(ctx, emp); err != nil {
			e.logger.Warn().Err(err).Str("employee_id", emp.ID).Msg("remote employee upsert failed")
		}
		if err := e.remote.UpsertRecord(ctx, seed); err != nil {
			e.logger.Warn().Err(err).Str("record_id", seed.ID).Msg("remote record upsert failed")
		}
	}

	out := emp.Clone()
	return &out, nil
}

// UpdateEmployee overlays the given fields onto an existing employee
// and renormalizes the result. Identity and creation time survive the
// update regardless of the fields supplied.
func (e *Engine) UpdateEmployee(ctx context.Context, id string, fields map[string]any) (*domain.Employee, error) {
	e.mu.Lock()
	idx := e.findEmployeeLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return nil, apperrors.NotFound("employee")
	}

	existing := e.employees[idx]
	base := entityMaps([]domain.Employee{existing})
	if len(base) != 1 {
		e.mu.Unlock()
		return nil, apperrors.Internal("failed to project employee for update")
	}
	for k, v := range fields {
		base[0][k] = v
	}

	updated := normalize.Employee(base[0])
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = e.now().UTC()

	e.employees[idx] = updated
	e.lastUpdated = e.now().UTC()
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		return nil, err
	}
	e.announceEmployee(ctx, messaging.EventEmployeeUpdated, messaging.EmployeeUpdatedEvent{
		EmployeeID: updated.ID,
		Fields:     fields,
	})

	if e.remote != nil {
		if err := e.remote.UpsertEmployee(ctx, updated); err != nil {
			e.logger.Warn().Err(err).Str("employee_id", updated.ID).Msg("remote employee upsert failed")
		}
	}

	out := updated.Clone()
	return &out, nil
}

// DeleteEmployee removes an employee and cascades away every attendance
// record that resolves to them, so no operation can re-orphan the
// snapshot.
func (e *Engine) DeleteEmployee(ctx context.Context, id string) error {
	e.mu.Lock()
	idx := e.findEmployeeLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return apperrors.NotFound("employee")
	}
	victim := e.employees[idx]
	e.employees = append(e.employees[:idx], e.employees[idx+1:]...)

	kept := e.records[:0]
	var removed []domain.AttendanceRecord
	for _, r := range e.records {
		if recordBelongsTo(r, victim) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	e.records = kept
	e.lastUpdated = e.now().UTC()
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		return err
	}
	e.announceEmployee(ctx, messaging.EventEmployeeDeleted, messaging.EmployeeDeletedEvent{
		EmployeeID:     victim.ID,
		RemovedRecords: len(removed),
	})

	if e.remote != nil {
		if err := e.remote.DeleteEmployee(ctx, victim.ID); err != nil {
			e.logger.Warn().Err(err).Str("employee_id", victim.ID).Msg("remote employee delete failed")
		}
		for _, r := range removed {
			if err := e.remote.DeleteRecord(ctx, r.ID); err != nil {
				e.logger.Warn().Err(err).Str("record_id", r.ID).Msg("remote record delete failed")
			}
		}
	}

	e.logger.Info().
		Str("employee_id", victim.ID).
		Int("cascaded_records", len(removed)).
		Msg("employee deleted")
	return nil
}

// GetAllAttendanceRecords returns every attendance record
func (e *Engine) GetAllAttendanceRecords() []domain.AttendanceRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneRecords(e.records)
}

// GetAttendanceByDate returns the records for one YYYY-MM-DD day
func (e *Engine) GetAttendanceByDate(date string) []domain.AttendanceRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.AttendanceRecord, 0)
	for _, r := range e.records {
		if r.Date == date {
			out = append(out, r.Clone())
		}
	}
	return out
}

// ClockIn stamps the employee's clock-in for today. Arriving more than
// the grace window past the scheduled start marks the day late.
func (e *Engine) ClockIn(ctx context.Context, employeeID string) (*domain.AttendanceRecord, error) {
	now := e.now()
	stamp := now.Format("15:04")
	today := e.today()

	e.mu.Lock()
	empIdx := e.findEmployeeLocked(employeeID)
	if empIdx < 0 {
		e.mu.Unlock()
		return nil, apperrors.NotFound("employee")
	}
	emp := e.employees[empIdx]

	idx := e.findRecordLocked(emp, today)
	if idx >= 0 && e.records[idx].ClockIn != nil {
		e.mu.Unlock()
		return nil, apperrors.Conflict("already clocked in today")
	}

	status := domain.AttendancePresent
	if isLate(stamp, scheduledStart(emp, now.Weekday())) {
		status = domain.AttendanceLate
	}

	var record domain.AttendanceRecord
	if idx >= 0 {
		e.records[idx].ClockIn = &stamp
		e.records[idx].Status = status
		e.records[idx].LastModified = now.UTC()
		record = e.records[idx].Clone()
	} else {
		record = domain.AttendanceRecord{
			ID:           "att-" + emp.ID + "-" + today,
			EmployeeID:   emp.ID,
			Date:         today,
			ClockIn:      &stamp,
			Status:       status,
			LastModified: now.UTC(),
		}
		e.records = append(e.records, record.Clone())
	}
	e.lastUpdated = now.UTC()
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		return nil, err
	}
	e.announceAttendance(ctx, record)

	if e.remote != nil {
		if err := e.remote.UpsertRecord(ctx, record); err != nil {
			e.logger.Warn().Err(err).Str("record_id", record.ID).Msg("remote record upsert failed")
		}
	}
	return &record, nil
}

// ClockOut stamps the employee's clock-out for today and derives worked
// and overtime hours from the pair of stamps.
func (e *Engine) ClockOut(ctx context.Context, employeeID string) (*domain.AttendanceRecord, error) {
	now := e.now()
	stamp := now.Format("15:04")
	today := e.today()

	e.mu.Lock()
	empIdx := e.findEmployeeLocked(employeeID)
	if empIdx < 0 {
		e.mu.Unlock()
		return nil, apperrors.NotFound("employee")
	}
	emp := e.employees[empIdx]

	idx := e.findRecordLocked(emp, today)
	if idx < 0 || e.records[idx].ClockIn == nil {
		e.mu.Unlock()
		return nil, apperrors.BadRequest("not clocked in today")
	}
	if e.records[idx].ClockOut != nil {
		e.mu.Unlock()
		return nil, apperrors.Conflict("already clocked out today")
	}

	e.records[idx].ClockOut = &stamp
	e.records[idx].Hours = domain.WorkedHours(e.records[idx].ClockIn, e.records[idx].ClockOut)
	if e.records[idx].Hours > 8 {
		e.records[idx].OvertimeHours = e.records[idx].Hours - 8
	}
	e.records[idx].LastModified = now.UTC()
	record := e.records[idx].Clone()
	e.lastUpdated = now.UTC()
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		return nil, err
	}
	e.announceAttendance(ctx, record)

	if e.remote != nil {
		if err := e.remote.UpsertRecord(ctx, record); err != nil {
			e.logger.Warn().Err(err).Str("record_id", record.ID).Msg("remote record upsert failed")
		}
	}
	return &record, nil
}

func (e *Engine) announceEmployee(ctx context.Context, eventType string, payload any) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, eventType, payload)
	}
	e.fireListeners(eventType)
}

func (e *Engine) announceAttendance(ctx context.Context, r domain.AttendanceRecord) {
	if e.notifier != nil {
		e.notifier.Notify(ctx, messaging.EventAttendanceRecorded, messaging.AttendanceRecordedEvent{
			RecordID:   r.ID,
			EmployeeID: r.EmployeeID,
			Date:       r.Date,
			Status:     r.Status,
		})
	}
	e.fireListeners(messaging.EventAttendanceRecorded)
}

// findEmployeeLocked resolves an identifier against raw IDs, their
// numeric coercions and employee codes. Callers hold at least a read
// lock.
func (e *Engine) findEmployeeLocked(id string) int {
	for i, emp := range e.employees {
		if domain.SameID(emp.ID, id) || (emp.EmployeeCode != "" && emp.EmployeeCode == id) {
			return i
		}
	}
	return -1
}

func (e *Engine) findRecordLocked(emp domain.Employee, date string) int {
	for i, r := range e.records {
		if r.Date == date && recordBelongsTo(r, emp) {
			return i
		}
	}
	return -1
}

func recordBelongsTo(r domain.AttendanceRecord, emp domain.Employee) bool {
	if domain.SameID(r.EmployeeID, emp.ID) {
		return true
	}
	return emp.EmployeeCode != "" && r.EmployeeID == emp.EmployeeCode
}

// nextIDLocked picks one past the highest numeric identifier in use
func (e *Engine) nextIDLocked() string {
	var max int64
	for _, emp := range e.employees {
		if n, ok := domain.NumericID(emp.ID); ok && n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}

func deriveCodeFor(id string) string {
	if n, ok := domain.NumericID(id); ok {
		return fmt.Sprintf("EMP%03d", n)
	}
	return "EMP-" + id
}

// scheduledStart returns the employee's start time for the weekday,
// 09:00 when the schedule has no active entry for that day.
func scheduledStart(emp domain.Employee, day time.Weekday) string {
	name := strings.ToLower(day.String())
	if s, ok := emp.Schedule[name]; ok && s.Active && s.Start != "" {
		return s.Start
	}
	return "09:00"
}

func isLate(stamp, start string) bool {
	s, ok1 := minutesOfDay(stamp)
	b, ok2 := minutesOfDay(start)
	if !ok1 || !ok2 {
		return false
	}
	return s > b+lateGraceMinutes
}

func minutesOfDay(hhmm string) (int, bool) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return h*60 + m, true
}
