package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// Well-known keys
const (
	// PrimaryKey holds the full snapshot document
	PrimaryKey = "shiftline_sync_data"
	// MarkerKey holds the last-write marker; it carries no
	// authoritative data, only counts used to trigger cross-context
	// notification
	MarkerKey = "shiftline_sync_marker"
	// NotifyKey is the shared key used by the fallback notification
	// channel (see the broadcast package)
	NotifyKey = "shiftline_sync_notify"
)

// Legacy source shapes
const (
	kindEmployees = "employees"
	kindRecords   = "records"
	kindBundle    = "bundle"
)

type legacySource struct {
	key  string
	kind string
	// purge marks keys that are deleted after a successful migration;
	// mirror keys are rewritten on every persist instead
	purge bool
}

// legacySources is the fixed list of keys earlier versions of the
// system wrote, in scan precedence order.
var legacySources = []legacySource{
	{key: "employees", kind: kindEmployees},
	{key: "attendance_records", kind: kindRecords},
	{key: "timeclock_data", kind: kindBundle},
	{key: "employee_directory", kind: kindEmployees, purge: true},
	{key: "attendance_log", kind: kindRecords, purge: true},
	{key: "payroll_attendance_data", kind: kindBundle, purge: true},
}

// WriteMarker is the lightweight last-write record
type WriteMarker struct {
	Timestamp time.Time `json:"timestamp"`
	Employees int       `json:"employees"`
	Records   int       `json:"records"`
	Source    string    `json:"source"`
}

// SnapshotStore persists the merged snapshot under the primary key and
// mirrors the entity arrays under legacy keys for consumers that have
// not migrated.
type SnapshotStore struct {
	kv     *KV
	source string
	logger *logger.Logger
}

// NewSnapshotStore creates a snapshot store. source identifies this
// running instance in write markers.
func NewSnapshotStore(kv *KV, source string, log *logger.Logger) *SnapshotStore {
	return &SnapshotStore{
		kv:     kv,
		source: source,
		logger: log.WithComponent("snapshot-store"),
	}
}

// Persist writes the snapshot under the primary key, refreshes the
// legacy mirrors, and stamps the write marker.
func (s *SnapshotStore) Persist(ctx context.Context, employees []domain.Employee, records []domain.AttendanceRecord) error {
	now := time.Now().UTC()
	snap := domain.Snapshot{
		Employees:         employees,
		AttendanceRecords: records,
		LastUpdated:       now,
		Version:           domain.SnapshotVersion,
	}

	data, err := json.Marshal(&snap)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, PrimaryKey, string(data)); err != nil {
		return err
	}

	// Compatibility mirrors. Mirror failures are advisory: the primary
	// write already succeeded and legacy readers self-heal on the next
	// persist.
	empData, _ := json.Marshal(employees)
	if err := s.kv.Set(ctx, "employees", string(empData)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mirror employees legacy key")
	}
	recData, _ := json.Marshal(records)
	if err := s.kv.Set(ctx, "attendance_records", string(recData)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mirror attendance legacy key")
	}
	bundle, _ := json.Marshal(map[string]any{
		"employees":         json.RawMessage(empData),
		"attendanceRecords": json.RawMessage(recData),
	})
	if err := s.kv.Set(ctx, "timeclock_data", string(bundle)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mirror timeclock legacy key")
	}

	marker, _ := json.Marshal(WriteMarker{
		Timestamp: now,
		Employees: len(employees),
		Records:   len(records),
		Source:    s.source,
	})
	if err := s.kv.Set(ctx, MarkerKey, string(marker)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write marker")
	}

	s.logger.Debug().
		Int("employees", len(employees)).
		Int("records", len(records)).
		Msg("snapshot persisted")
	return nil
}

// Load returns the primary-key snapshot, nil when absent or malformed.
func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	raw, found, err := s.kv.Get(ctx, PrimaryKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn().Err(err).Msg("primary snapshot malformed, ignoring")
		return nil, nil
	}
	return &snap, nil
}

// ScanLegacy reads every legacy source key and returns the raw
// employee-like and attendance-like objects found. Missing or
// malformed sources are skipped; later sources never override entities
// already discovered (dedup downstream keeps the first occurrence).
func (s *SnapshotStore) ScanLegacy(ctx context.Context) (employees, records []map[string]any, err error) {
	for _, src := range legacySources {
		raw, found, getErr := s.kv.Get(ctx, src.key)
		if getErr != nil {
			return nil, nil, getErr
		}
		if !found || raw == "" {
			continue
		}

		switch src.kind {
		case kindEmployees:
			employees = append(employees, parseObjectArray(raw, s.logger, src.key)...)
		case kindRecords:
			records = append(records, parseObjectArray(raw, s.logger, src.key)...)
		case kindBundle:
			e, r := parseBundle(raw, s.logger, src.key)
			employees = append(employees, e...)
			records = append(records, r...)
		}
	}
	return employees, records, nil
}

// PurgeLegacy deletes the deprecated keys so stale data cannot be
// re-ingested on a later startup. Call only after a successful
// migration persist.
func (s *SnapshotStore) PurgeLegacy(ctx context.Context) error {
	for _, src := range legacySources {
		if !src.purge {
			continue
		}
		if err := s.kv.Remove(ctx, src.key); err != nil {
			return err
		}
		s.logger.Info().Str("key", src.key).Msg("purged legacy source")
	}
	return nil
}

func parseObjectArray(raw string, log *logger.Logger, key string) []map[string]any {
	var out []map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("legacy source malformed, skipping")
		return nil
	}
	return out
}

func parseBundle(raw string, log *logger.Logger, key string) (employees, records []map[string]any) {
	var bundle struct {
		Employees         []map[string]any `json:"employees"`
		AttendanceRecords []map[string]any `json:"attendanceRecords"`
		AttendanceAlt     []map[string]any `json:"attendance_records"`
	}
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("legacy bundle malformed, skipping")
		return nil, nil
	}
	records = bundle.AttendanceRecords
	if len(records) == 0 {
		records = bundle.AttendanceAlt
	}
	return bundle.Employees, records
}
