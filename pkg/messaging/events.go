package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Snapshot events carry no delta, only the fact that the snapshot
	// changed. Receivers reload full state from the local store.
	EventSnapshotUpdated = "sync.snapshot.updated"

	// Entity events
	EventEmployeeCreated    = "sync.employee.created"
	EventEmployeeUpdated    = "sync.employee.updated"
	EventEmployeeDeleted    = "sync.employee.deleted"
	EventAttendanceRecorded = "sync.attendance.recorded"
)

// Exchange names
const (
	ExchangeSyncEvents = "sync.events"
)

// Event is the base event structure
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// SnapshotUpdatedEvent is published whenever a context persists a new
// merged snapshot. Counts are informational; the payload is not the data.
type SnapshotUpdatedEvent struct {
	Employees int       `json:"employees"`
	Records   int       `json:"records"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmployeeCreatedEvent is published when an employee is created
type EmployeeCreatedEvent struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
}

// EmployeeUpdatedEvent is published when an employee is updated
type EmployeeUpdatedEvent struct {
	EmployeeID string         `json:"employee_id"`
	Fields     map[string]any `json:"fields"`
}

// EmployeeDeletedEvent is published when an employee is deleted.
// RemovedRecords is the number of attendance records cascaded away.
type EmployeeDeletedEvent struct {
	EmployeeID     string `json:"employee_id"`
	RemovedRecords int    `json:"removed_records"`
}

// AttendanceRecordedEvent is published when an attendance record is
// added or its clock times change.
type AttendanceRecordedEvent struct {
	RecordID   string `json:"record_id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}
