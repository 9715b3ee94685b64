package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/shiftline/shiftline-backend/pkg/config"
	"github.com/shiftline/shiftline-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *SyncClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewSyncClient(&config.RemoteConfig{
		BaseURL:     srv.URL,
		APIToken:    "test-token",
		HTTPTimeout: 2 * time.Second,
	}, logger.Nop())
}

func TestPull_Success(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/sync/data", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": domain.Snapshot{
				Employees: []domain.Employee{{ID: "1", FullName: "Ann Lee"}},
			},
		})
	}))

	snap, err := c.Pull(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Employees, 1)
	assert.Equal(t, "Ann Lee", snap.Employees[0].FullName)
}

func TestPull_RemoteDown(t *testing.T) {
	c := NewSyncClient(&config.RemoteConfig{
		BaseURL:     "http://127.0.0.1:1", // nothing listens here
		HTTPTimeout: 200 * time.Millisecond,
	}, logger.Nop())

	snap, err := c.Pull(context.Background())
	assert.Error(t, err)
	assert.Nil(t, snap)
}

func TestPush_Success(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sync", r.URL.Path)

		var payload struct {
			Employees         []domain.Employee         `json:"employees"`
			AttendanceRecords []domain.AttendanceRecord `json:"attendanceRecords"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"synced": map[string]int{
					"employees":  len(payload.Employees),
					"attendance": len(payload.AttendanceRecords),
				},
			},
		})
	}))

	result := c.Push(context.Background(),
		[]domain.Employee{{ID: "1"}, {ID: "2"}},
		[]domain.AttendanceRecord{{ID: "a"}})

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Synced.Employees)
	assert.Equal(t, 1, result.Synced.Attendance)
}

func TestPush_NetworkErrorDoesNotPanic(t *testing.T) {
	c := NewSyncClient(&config.RemoteConfig{
		BaseURL:     "http://127.0.0.1:1",
		HTTPTimeout: 200 * time.Millisecond,
	}, logger.Nop())

	result := c.Push(context.Background(), []domain.Employee{{ID: "1"}}, nil)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
}

func TestPush_RemoteErrorStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	result := c.Push(context.Background(), nil, nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "500")
}

func TestUpsertEmployee_InsertsWhenAbsent(t *testing.T) {
	var methods []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.UpsertEmployee(context.Background(), domain.Employee{ID: "7"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /api/v1/employees/7", "POST /api/v1/employees"}, methods)
}

func TestUpsertEmployee_UpdatesWhenPresent(t *testing.T) {
	var methods []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.UpsertEmployee(context.Background(), domain.Employee{ID: "7"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /api/v1/employees/7", "PUT /api/v1/employees/7"}, methods)
}

func TestPushEach_ContinuesPastEntityFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// employee 2 is poisoned on the remote side; everything else
		// upserts cleanly
		if strings.HasSuffix(r.URL.Path, "/employees/2") && r.Method == http.MethodGet {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	result := c.PushEach(context.Background(),
		[]domain.Employee{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		[]domain.AttendanceRecord{{ID: "a"}})

	assert.Equal(t, 2, result.Synced.Employees)
	assert.Equal(t, 1, result.Synced.Attendance)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "employee 2")
}

func TestDeleteEmployee(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/employees/7", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	assert.NoError(t, c.DeleteEmployee(context.Background(), "7"))
}
