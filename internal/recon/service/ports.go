package service

import (
	"context"

	"github.com/shiftline/shiftline-backend/internal/recon/broadcast"
	"github.com/shiftline/shiftline-backend/internal/recon/client"
	"github.com/shiftline/shiftline-backend/internal/recon/domain"
)

// SnapshotStore is the engine's persistence port
type SnapshotStore interface {
	Persist(ctx context.Context, employees []domain.Employee, records []domain.AttendanceRecord) error
	Load(ctx context.Context) (*domain.Snapshot, error)
	ScanLegacy(ctx context.Context) (employees, records []map[string]any, err error)
	PurgeLegacy(ctx context.Context) error
}

// SyncTransport is the engine's remote authority port
type SyncTransport interface {
	Pull(ctx context.Context) (*domain.Snapshot, error)
	Push(ctx context.Context, employees []domain.Employee, records []domain.AttendanceRecord) client.PushResult
	UpsertEmployee(ctx context.Context, e domain.Employee) error
	UpsertRecord(ctx context.Context, r domain.AttendanceRecord) error
	DeleteEmployee(ctx context.Context, id string) error
	DeleteRecord(ctx context.Context, id string) error
}

// Notifier is the engine's cross-context notification port
type Notifier interface {
	Notify(ctx context.Context, eventType string, data interface{})
	Subscribe(h broadcast.Handler)
}
