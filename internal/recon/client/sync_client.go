// Package client talks to the remote sync authority over HTTP. All
// operations are single-attempt; periodic re-invocation is the
// orchestrator's job.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/domain"
	"github.com/shiftline/shiftline-backend/pkg/config"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// SyncClient is the HTTP client for the remote authority
type SyncClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewSyncClient creates a new sync client
func NewSyncClient(cfg *config.RemoteConfig, log *logger.Logger) *SyncClient {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SyncClient{
		baseURL:    cfg.BaseURL,
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithComponent("sync-client"),
	}
}

// SyncedCounts reports per-entity-type upsert counts from the remote
type SyncedCounts struct {
	Employees  int `json:"employees"`
	Attendance int `json:"attendance"`
}

// PushResult is the outcome of a full-snapshot push. Failures are
// reported here, never raised: local data remains the working copy.
type PushResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Synced  SyncedCounts `json:"synced"`
}

// BatchResult aggregates per-entity upsert outcomes
type BatchResult struct {
	Synced SyncedCounts
	Errors []string
}

type syncPayload struct {
	Employees         []domain.Employee         `json:"employees"`
	AttendanceRecords []domain.AttendanceRecord `json:"attendanceRecords"`
}

// Pull requests the remote snapshot. Returns nil on any failure; the
// caller falls through to the next discovery source.
func (c *SyncClient) Pull(ctx context.Context) (*domain.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/sync/data", nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("remote pull failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("remote pull returned status %d", resp.StatusCode)
		c.logger.Warn().Err(err).Msg("remote pull failed")
		return nil, err
	}

	var response struct {
		Success bool            `json:"success"`
		Data    domain.Snapshot `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		c.logger.Warn().Err(err).Msg("remote pull returned malformed body")
		return nil, err
	}

	c.logger.Info().
		Int("employees", len(response.Data.Employees)).
		Int("records", len(response.Data.AttendanceRecords)).
		Msg("pulled snapshot from remote")
	return &response.Data, nil
}

// Push sends the full local snapshot to the remote authority. Network
// and remote failures are folded into the result.
func (c *SyncClient) Push(ctx context.Context, employees []domain.Employee, records []domain.AttendanceRecord) PushResult {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/sync", syncPayload{
		Employees:         employees,
		AttendanceRecords: records,
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("remote push failed")
		return PushResult{Success: false, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("remote push returned status %d", resp.StatusCode)
		c.logger.Warn().Msg(msg)
		return PushResult{Success: false, Message: msg}
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Synced SyncedCounts `json:"synced"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return PushResult{Success: false, Message: "malformed push response: " + err.Error()}
	}

	c.logger.Info().
		Int("employees", response.Data.Synced.Employees).
		Int("attendance", response.Data.Synced.Attendance).
		Msg("pushed snapshot to remote")

	return PushResult{Success: true, Message: "sync complete", Synced: response.Data.Synced}
}

// PushEach upserts entities one at a time. An individual failure is
// recorded and the batch continues; each entity's outcome is
// independent.
func (c *SyncClient) PushEach(ctx context.Context, employees []domain.Employee, records []domain.AttendanceRecord) BatchResult {
	var result BatchResult

	for _, e := range employees {
		if err := c.UpsertEmployee(ctx, e); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("employee %s: %v", e.ID, err))
			continue
		}
		result.Synced.Employees++
	}
	for _, r := range records {
		if err := c.UpsertRecord(ctx, r); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %s: %v", r.ID, err))
			continue
		}
		result.Synced.Attendance++
	}

	if len(result.Errors) > 0 {
		c.logger.Warn().
			Int("failed", len(result.Errors)).
			Int("employees", result.Synced.Employees).
			Int("attendance", result.Synced.Attendance).
			Msg("per-entity push completed with failures")
	}
	return result
}

// UpsertEmployee existence-checks the remote entity and updates or
// inserts accordingly.
func (c *SyncClient) UpsertEmployee(ctx context.Context, e domain.Employee) error {
	exists, err := c.exists(ctx, "/api/v1/employees/"+e.ID)
	if err != nil {
		return err
	}

	if exists {
		return c.expectOK(ctx, http.MethodPut, "/api/v1/employees/"+e.ID, e)
	}
	return c.expectOK(ctx, http.MethodPost, "/api/v1/employees", e)
}

// UpsertRecord existence-checks the remote record and updates or
// inserts accordingly.
func (c *SyncClient) UpsertRecord(ctx context.Context, r domain.AttendanceRecord) error {
	exists, err := c.exists(ctx, "/api/v1/attendance/"+r.ID)
	if err != nil {
		return err
	}

	if exists {
		return c.expectOK(ctx, http.MethodPut, "/api/v1/attendance/"+r.ID, r)
	}
	return c.expectOK(ctx, http.MethodPost, "/api/v1/attendance", r)
}

// DeleteEmployee deletes the remote employee
func (c *SyncClient) DeleteEmployee(ctx context.Context, id string) error {
	return c.expectOK(ctx, http.MethodDelete, "/api/v1/employees/"+id, nil)
}

// DeleteRecord deletes the remote attendance record
func (c *SyncClient) DeleteRecord(ctx context.Context, id string) error {
	return c.expectOK(ctx, http.MethodDelete, "/api/v1/attendance/"+id, nil)
}

func (c *SyncClient) exists(ctx context.Context, path string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("existence check returned status %d", resp.StatusCode)
	}
}

func (c *SyncClient) expectOK(ctx context.Context, method, path string, body interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("%s %s returned status %d: %v", method, path, resp.StatusCode, errResp)
	}
	return nil
}

func (c *SyncClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}
