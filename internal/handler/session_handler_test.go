package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/middleware"
	"github.com/novalab-io/labms-api/internal/models"
	"github.com/novalab-io/labms-api/internal/timeslot"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

type sessionServiceMock struct {
	session      *models.LabSession
	dispatchErr  error
	lastAction   timeslot.Action
	lastSlotID   string
	approveResp  *dto.ApproveSlotsResponse
	rejectResp   *dto.RejectSlotsResponse
	dispatchMsg  string
	proposeCalls int
}

func (m *sessionServiceMock) Propose(ctx context.Context, req dto.ProposeSessionRequest, claims *models.JWTClaims) (*models.LabSession, error) {
	m.proposeCalls++
	return m.session, nil
}

func (m *sessionServiceMock) Get(ctx context.Context, id string) (*models.LabSession, bool, error) {
	if m.session == nil {
		return nil, false, appErrors.ErrAggregateNotFound
	}
	return m.session, false, nil
}

func (m *sessionServiceMock) List(ctx context.Context, query dto.SessionQuery, claims *models.JWTClaims) ([]models.LabSession, int, error) {
	if m.session == nil {
		return nil, 0, nil
	}
	return []models.LabSession{*m.session}, 1, nil
}

func (m *sessionServiceMock) Dispatch(ctx context.Context, id string, action timeslot.Action, req dto.ActionRequest, claims *models.JWTClaims) (*models.LabSession, string, error) {
	if m.dispatchErr != nil {
		return nil, "", m.dispatchErr
	}
	m.lastAction = action
	return m.session, m.dispatchMsg, nil
}

func (m *sessionServiceMock) ApproveSlots(ctx context.Context, id, slotID string, claims *models.JWTClaims) (*models.LabSession, *dto.ApproveSlotsResponse, error) {
	m.lastSlotID = slotID
	return m.session, m.approveResp, nil
}

func (m *sessionServiceMock) RejectSlots(ctx context.Context, id, slotID string, claims *models.JWTClaims) (*models.LabSession, *dto.RejectSlotsResponse, error) {
	m.lastSlotID = slotID
	return m.session, m.rejectResp, nil
}

func testLabSession() *models.LabSession {
	return &models.LabSession{
		ID:              "sess-1",
		Title:           "optics",
		CreatedBy:       "owner-1",
		State:           timeslot.StatePending,
		ValidationState: timeslot.OperatorPending,
	}
}

func sessionTestContext(t *testing.T, method, path string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestSessionHandlerCreate(t *testing.T) {
	mock := &sessionServiceMock{session: testLabSession()}
	handler := NewSessionHandler(mock)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c, w := sessionTestContext(t, http.MethodPost, "/sessions", dto.ProposeSessionRequest{
		Title: "optics",
		Slots: []dto.SlotInput{{StartDate: start, EndDate: start.Add(time.Hour)}},
	}, &models.JWTClaims{UserID: "owner-1", Role: models.RoleUser})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, mock.proposeCalls)
}

func TestSessionHandlerCreateRequiresAuth(t *testing.T) {
	handler := NewSessionHandler(&sessionServiceMock{})

	c, w := sessionTestContext(t, http.MethodPost, "/sessions", nil, nil)
	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandlerValidateRoutesAction(t *testing.T) {
	mock := &sessionServiceMock{session: testLabSession(), dispatchMsg: "schedule validated"}
	handler := NewSessionHandler(mock)

	c, w := sessionTestContext(t, http.MethodPost, "/sessions/sess-1/validate", nil,
		&models.JWTClaims{UserID: "op-1", Role: models.RoleOperator})
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Validate(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, timeslot.ActionValidate, mock.lastAction)
}

func TestSessionHandlerDispatchErrorStatus(t *testing.T) {
	mock := &sessionServiceMock{dispatchErr: appErrors.ErrForbiddenAction}
	handler := NewSessionHandler(mock)

	c, w := sessionTestContext(t, http.MethodPost, "/sessions/sess-1/cancel", nil,
		&models.JWTClaims{UserID: "op-1", Role: models.RoleOperator})
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Cancel(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSessionHandlerApproveOnePassesSlotID(t *testing.T) {
	mock := &sessionServiceMock{
		session:     testLabSession(),
		approveResp: &dto.ApproveSlotsResponse{ApprovedCount: 1},
	}
	handler := NewSessionHandler(mock)

	c, w := sessionTestContext(t, http.MethodPost, "/sessions/sess-1/slots/slot-a/approve", nil,
		&models.JWTClaims{UserID: "op-1", Role: models.RoleOperator})
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}, {Key: "slotId", Value: "slot-a"}}

	handler.ApproveOne(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "slot-a", mock.lastSlotID)
}

func TestSessionHandlerRejectAllSelectsEverything(t *testing.T) {
	mock := &sessionServiceMock{
		session:    testLabSession(),
		rejectResp: &dto.RejectSlotsResponse{RejectedCount: 2},
		lastSlotID: "sentinel",
	}
	handler := NewSessionHandler(mock)

	c, w := sessionTestContext(t, http.MethodPost, "/sessions/sess-1/slots/reject", nil,
		&models.JWTClaims{UserID: "op-1", Role: models.RoleOperator})
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.RejectAll(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "", mock.lastSlotID)
}

func TestSessionHandlerGetNotFound(t *testing.T) {
	handler := NewSessionHandler(&sessionServiceMock{})

	c, w := sessionTestContext(t, http.MethodGet, "/sessions/missing", nil,
		&models.JWTClaims{UserID: "owner-1", Role: models.RoleUser})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
