package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payengine/models"
)

// MockOrchestrator implements service.PayoutOrchestrator for handler tests
type MockOrchestrator struct {
	RunPayoutsFunc func(ctx context.Context, eventID string) (*models.PayoutRun, error)
}

func (m *MockOrchestrator) RunPayouts(ctx context.Context, eventID string) (*models.PayoutRun, error) {
	if m.RunPayoutsFunc != nil {
		return m.RunPayoutsFunc(ctx, eventID)
	}
	return nil, errors.New("not scripted")
}

// MockQuery implements service.PayoutQuery for handler tests
type MockQuery struct {
	ListRunsFunc    func(ctx context.Context) ([]*models.PayoutRun, error)
	GetRunFunc      func(ctx context.Context, runID string) (*models.PayoutRun, []*models.Payout, error)
	ListPayoutsFunc func(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error)
	GetPayoutFunc   func(ctx context.Context, payoutID string) (*models.Payout, error)
	TraceFunc       func(ctx context.Context, payoutID string) (*models.Payout, []*models.AuditLogEntry, error)
}

func (m *MockQuery) ListRuns(ctx context.Context) ([]*models.PayoutRun, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx)
	}
	return nil, nil
}

func (m *MockQuery) GetRun(ctx context.Context, runID string) (*models.PayoutRun, []*models.Payout, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, runID)
	}
	return nil, nil, nil
}

func (m *MockQuery) ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	if m.ListPayoutsFunc != nil {
		return m.ListPayoutsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockQuery) GetPayout(ctx context.Context, payoutID string) (*models.Payout, error) {
	if m.GetPayoutFunc != nil {
		return m.GetPayoutFunc(ctx, payoutID)
	}
	return nil, nil
}

func (m *MockQuery) TracePayout(ctx context.Context, payoutID string) (*models.Payout, []*models.AuditLogEntry, error) {
	if m.TraceFunc != nil {
		return m.TraceFunc(ctx, payoutID)
	}
	return nil, nil, nil
}

func newTestServer(orchestrator *MockOrchestrator, query *MockQuery) *Server {
	gin.SetMode(gin.TestMode)
	if orchestrator == nil {
		orchestrator = &MockOrchestrator{}
	}
	if query == nil {
		query = &MockQuery{}
	}
	return NewServer(orchestrator, query, nil)
}

func TestHandleCreateRun(t *testing.T) {
	orchestrator := &MockOrchestrator{
		RunPayoutsFunc: func(ctx context.Context, eventID string) (*models.PayoutRun, error) {
			assert.Equal(t, "LIQ-2024-001", eventID)
			return &models.PayoutRun{
				ID:                 "run_1",
				LiquidationEventID: eventID,
				Status:             models.RunStatusCompleted,
				CreatedCount:       3,
				SkippedCount:       1,
			}, nil
		},
	}
	server := newTestServer(orchestrator, nil)

	body, _ := json.Marshal(gin.H{"liquidation_event_id": "LIQ-2024-001"})
	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Run     *models.PayoutRun `json:"run"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "run_1", resp.Run.ID)
	assert.Equal(t, 3, resp.Run.CreatedCount)
}

func TestHandleCreateRun_MissingEventID(t *testing.T) {
	server := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateRun_UnknownEvent(t *testing.T) {
	orchestrator := &MockOrchestrator{
		RunPayoutsFunc: func(ctx context.Context, eventID string) (*models.PayoutRun, error) {
			return &models.PayoutRun{Status: models.RunStatusFailed}, fmt.Errorf("%w: LIQ-MISSING", models.ErrEventNotFound)
		},
	}
	server := newTestServer(orchestrator, nil)

	body, _ := json.Marshal(gin.H{"liquidation_event_id": "LIQ-MISSING"})
	req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleListPayouts_ForwardsFilter(t *testing.T) {
	var got models.PayoutFilter
	query := &MockQuery{
		ListPayoutsFunc: func(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
			got = filter
			return []*models.Payout{{ID: "p_1"}}, nil
		},
	}
	server := newTestServer(nil, query)

	req := httptest.NewRequest(http.MethodGet, "/payouts?event_id=LIQ-2024-001&country=JP&status=created&rail=zengin", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "LIQ-2024-001", got.LiquidationEventID)
	assert.Equal(t, "JP", got.Country)
	assert.Equal(t, models.PayoutStatusCreated, got.Status)
	assert.Equal(t, "zengin", got.Rail)
}

func TestHandleGetPayout_NotFound(t *testing.T) {
	server := newTestServer(nil, &MockQuery{})

	req := httptest.NewRequest(http.MethodGet, "/payouts/p_missing", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleTracePayout(t *testing.T) {
	query := &MockQuery{
		TraceFunc: func(ctx context.Context, payoutID string) (*models.Payout, []*models.AuditLogEntry, error) {
			return &models.Payout{ID: payoutID, Status: models.PayoutStatusCreated},
				[]*models.AuditLogEntry{
					{ID: 1, Action: models.AuditActionEligibilityChecked},
					{ID: 2, Action: models.AuditActionRailSelected},
					{ID: 3, Action: models.AuditActionPaymentCreated},
				}, nil
		},
	}
	server := newTestServer(nil, query)

	req := httptest.NewRequest(http.MethodGet, "/payouts/p_1/trace", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                    `json:"success"`
		Trail   []*models.AuditLogEntry `json:"trail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Trail, 3)
	assert.Equal(t, models.AuditActionEligibilityChecked, resp.Trail[0].Action)
	assert.Equal(t, models.AuditActionPaymentCreated, resp.Trail[2].Action)
}

func TestHandleGetRun(t *testing.T) {
	query := &MockQuery{
		GetRunFunc: func(ctx context.Context, runID string) (*models.PayoutRun, []*models.Payout, error) {
			return &models.PayoutRun{ID: runID, Status: models.RunStatusCompleted},
				[]*models.Payout{{ID: "p_1"}, {ID: "p_2"}}, nil
		},
	}
	server := newTestServer(nil, query)

	req := httptest.NewRequest(http.MethodGet, "/runs/run_1", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Run     *models.PayoutRun `json:"run"`
		Payouts []*models.Payout  `json:"payouts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run_1", resp.Run.ID)
	assert.Len(t, resp.Payouts, 2)
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
