// Package service hosts the reconciliation engine: the single owner of
// the in-memory snapshot. Startup walks discovery sources in authority
// order, merges whatever was found into a canonical snapshot, then keeps
// local store, remote authority and peer contexts in step.
package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/broadcast"
	"github.com/shiftline/shiftline-backend/internal/recon/client"
	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/shiftline/shiftline-backend/internal/recon/merge"
	"github.com/shiftline/shiftline-backend/internal/recon/normalize"
	"github.com/shiftline/shiftline-backend/internal/recon/sample"
	apperrors "github.com/shiftline/shiftline-backend/pkg/errors"
	"github.com/shiftline/shiftline-backend/pkg/logger"
	"github.com/shiftline/shiftline-backend/pkg/messaging"
)

// ChangeEvent tells in-process listeners that the snapshot changed.
// Receivers reload through the query surface; the event is not the data.
type ChangeEvent struct {
	Type      string
	Employees int
	Records   int
}

// ChangeListener observes snapshot changes from any origin, local
// mutations and peer notifications alike.
type ChangeListener func(ChangeEvent)

// Engine reconciles employee and attendance data across the local
// store, the remote authority and peer contexts. All reads and
// mutations go through it; the snapshot is never shared by reference.
type Engine struct {
	store    SnapshotStore
	remote   SyncTransport // nil when remote sync is disabled
	notifier Notifier      // nil when running standalone
	logger   *logger.Logger
	now      func() time.Time

	mu          sync.RWMutex
	employees   []domain.Employee
	records     []domain.AttendanceRecord
	lastUpdated time.Time
	initialized bool

	listenerMu sync.Mutex
	listeners  []ChangeListener
}

// NewEngine wires an engine from its ports. remote and notifier may be
// nil; the engine then runs store-only.
func NewEngine(store SnapshotStore, remote SyncTransport, notifier Notifier, log *logger.Logger) *Engine {
	return &Engine{
		store:    store,
		remote:   remote,
		notifier: notifier,
		logger:   log.WithComponent("recon-engine"),
		now:      time.Now,
	}
}

// Initialize discovers existing data, merges it into a canonical
// snapshot and stabilizes it: local persistence, legacy cleanup, sample
// bootstrap and the first remote push. It never fails on remote or
// peer-channel trouble; only a broken local store is fatal.
func (e *Engine) Initialize(ctx context.Context) error {
	rawEmployees, rawRecords, fromLegacy := e.discover(ctx)

	employees := merge.DedupeEmployees(normalize.Employees(rawEmployees), e.logger)
	records := merge.DedupeRecords(normalize.Records(rawRecords), e.logger)
	records, _ = merge.RepairOrphans(employees, records, e.logger)

	if len(employees) == 0 {
		e.logger.Info().Msg("no employees discovered, seeding fallback roster")
		employees = fallbackRoster()
	}

	records = e.bootstrapToday(employees, records)

	e.setSnapshot(employees, records)
	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()

	if err := e.persist(ctx); err != nil {
		return err
	}

	if fromLegacy {
		if err := e.store.PurgeLegacy(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("legacy key purge failed, stale copies remain")
		} else {
			e.logger.Info().Msg("legacy keys migrated and purged")
		}
	}

	if e.notifier != nil {
		e.notifier.Subscribe(e.handlePeerNotification)
	}
	e.announce(ctx, messaging.EventSnapshotUpdated)

	if e.remote != nil {
		result := e.remote.Push(ctx, e.GetEmployees(), e.GetAllAttendanceRecords())
		if !result.Success {
			e.logger.Warn().Str("reason", result.Message).Msg("initial remote push failed, continuing with local data")
		}
	}

	e.logger.Info().
		Int("employees", len(employees)).
		Int("records", len(records)).
		Bool("from_legacy", fromLegacy).
		Msg("engine initialized")
	return nil
}

// discover walks the sources in authority order: remote, then the
// primary store key, then legacy keys. The first source with employees
// wins; later sources are not merged in.
func (e *Engine) discover(ctx context.Context) (employees, records []map[string]any, fromLegacy bool) {
	if e.remote != nil {
		if snap, err := e.remote.Pull(ctx); err == nil && snap != nil && len(snap.Employees) > 0 {
			e.logger.Info().Int("employees", len(snap.Employees)).Msg("discovered data from remote")
			return entityMaps(snap.Employees), entityMaps(snap.AttendanceRecords), false
		}
	}

	if snap, err := e.store.Load(ctx); err == nil && snap != nil && len(snap.Employees) > 0 {
		e.logger.Info().Int("employees", len(snap.Employees)).Msg("discovered data in local store")
		return entityMaps(snap.Employees), entityMaps(snap.AttendanceRecords), false
	}

	legacyEmployees, legacyRecords, err := e.store.ScanLegacy(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("legacy scan failed")
		return nil, nil, false
	}
	if len(legacyEmployees) > 0 || len(legacyRecords) > 0 {
		e.logger.Info().
			Int("employees", len(legacyEmployees)).
			Int("records", len(legacyRecords)).
			Msg("discovered data under legacy keys")
		return legacyEmployees, legacyRecords, true
	}

	return nil, nil, false
}

// bootstrapToday generates sample attendance for today when no record
// for today exists yet. Re-initialization is idempotent: an existing
// record for today suppresses generation entirely.
func (e *Engine) bootstrapToday(employees []domain.Employee, records []domain.AttendanceRecord) []domain.AttendanceRecord {
	today := e.today()
	for _, r := range records {
		if r.Date == today {
			return records
		}
	}

	generated := sample.Generate(today, employees)
	if len(generated) == 0 {
		return records
	}
	e.logger.Info().Int("generated", len(generated)).Str("date", today).Msg("bootstrapped sample attendance for today")
	return append(records, generated...)
}

// ForceSyncToBackend pushes the full snapshot to the remote authority.
// The outcome is reported, never raised.
func (e *Engine) ForceSyncToBackend(ctx context.Context) client.PushResult {
	if e.remote == nil {
		return client.PushResult{Success: false, Message: "remote sync disabled"}
	}
	return e.remote.Push(ctx, e.GetEmployees(), e.GetAllAttendanceRecords())
}

// ForceLoadFromBackend replaces the local snapshot with the remote one.
// Local-only changes made since the last push are discarded; that is
// the point of the operation.
func (e *Engine) ForceLoadFromBackend(ctx context.Context) error {
	if e.remote == nil {
		return apperrors.BadRequest("remote sync is disabled")
	}
	snap, err := e.remote.Pull(ctx)
	if err != nil {
		return apperrors.Wrap(err, "REMOTE_UNAVAILABLE", "remote pull failed", http.StatusBadGateway)
	}
	if snap == nil || len(snap.Employees) == 0 {
		return apperrors.NotFound("remote snapshot")
	}

	employees := merge.DedupeEmployees(normalize.Employees(entityMaps(snap.Employees)), e.logger)
	records := merge.DedupeRecords(normalize.Records(entityMaps(snap.AttendanceRecords)), e.logger)
	records, _ = merge.RepairOrphans(employees, records, e.logger)

	e.setSnapshot(employees, records)
	if err := e.persist(ctx); err != nil {
		return err
	}
	e.announce(ctx, messaging.EventSnapshotUpdated)
	return nil
}

// Snapshot returns a deep copy of the current snapshot
func (e *Engine) Snapshot() *domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := &domain.Snapshot{
		Employees:         e.employees,
		AttendanceRecords: e.records,
		LastUpdated:       e.lastUpdated,
		Version:           domain.SnapshotVersion,
	}
	return snap.Clone()
}

// Ready reports whether Initialize has completed
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// Subscribe registers an in-process listener for snapshot changes
func (e *Engine) Subscribe(l ChangeListener) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	e.listeners = append(e.listeners, l)
}

// handlePeerNotification reacts to another context's change: reload the
// shared store and surface the change to local listeners. The payload
// is never trusted as data, only as a signal.
func (e *Engine) handlePeerNotification(ctx context.Context, n *broadcast.Notification) {
	snap, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Str("type", n.Type).Msg("snapshot reload after peer notification failed")
		return
	}
	if snap == nil {
		return
	}

	e.setSnapshot(snap.Employees, snap.AttendanceRecords)
	e.logger.Debug().
		Str("type", n.Type).
		Str("from", n.Source).
		Msg("snapshot reloaded after peer notification")
	e.fireListeners(n.Type)
}

func (e *Engine) setSnapshot(employees []domain.Employee, records []domain.AttendanceRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.employees = employees
	e.records = records
	e.lastUpdated = e.now().UTC()
}

func (e *Engine) persist(ctx context.Context) error {
	e.mu.RLock()
	employees := cloneEmployees(e.employees)
	records := cloneRecords(e.records)
	e.mu.RUnlock()

	return e.store.Persist(ctx, employees, records)
}

// announce fans a change out to peer contexts and local listeners
func (e *Engine) announce(ctx context.Context, eventType string) {
	e.mu.RLock()
	employeeCount := len(e.employees)
	recordCount := len(e.records)
	updatedAt := e.lastUpdated
	e.mu.RUnlock()

	if e.notifier != nil {
		e.notifier.Notify(ctx, eventType, messaging.SnapshotUpdatedEvent{
			Employees: employeeCount,
			Records:   recordCount,
			UpdatedAt: updatedAt,
		})
	}
	e.fireListeners(eventType)
}

func (e *Engine) fireListeners(eventType string) {
	e.mu.RLock()
	event := ChangeEvent{
		Type:      eventType,
		Employees: len(e.employees),
		Records:   len(e.records),
	}
	e.mu.RUnlock()

	e.listenerMu.Lock()
	listeners := make([]ChangeListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.listenerMu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

func (e *Engine) today() string {
	return e.now().UTC().Format("2006-01-02")
}

// entityMaps converts typed entities back to generic objects so every
// discovery source feeds the same normalization path.
func entityMaps(v any) []map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func cloneEmployees(in []domain.Employee) []domain.Employee {
	out := make([]domain.Employee, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

func cloneRecords(in []domain.AttendanceRecord) []domain.AttendanceRecord {
	out := make([]domain.AttendanceRecord, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// fallbackRoster is the fixed roster used when every discovery source
// comes up empty, so a fresh deployment is immediately usable.
func fallbackRoster() []domain.Employee {
	seeds := []map[string]any{
		{
			"id": 1, "firstName": "Sarah", "lastName": "Mitchell",
			"department": "Operations", "position": "Operations Manager",
			"email": "sarah.mitchell@shiftline.local", "role": "manager",
			"hourlyRate": 32.5, "hireDate": "2021-03-15",
		},
		{
			"id": 2, "firstName": "James", "lastName": "Okafor",
			"department": "Warehouse", "position": "Shift Lead",
			"email": "james.okafor@shiftline.local",
			"hourlyRate": 24.0, "hireDate": "2022-07-01",
		},
		{
			"id": 3, "firstName": "Elena", "lastName": "Vasquez",
			"department": "Front Desk", "position": "Receptionist",
			"email": "elena.vasquez@shiftline.local",
			"hourlyRate": 19.75, "hireDate": "2023-01-09",
		},
	}
	return normalize.Employees(seeds)
}
