package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/models"
	"github.com/novalab-io/labms-api/internal/timeslot"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

type sessionRepoStub struct {
	sessions  map[string]*models.LabSession
	updateErr error
	updates   int
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{sessions: make(map[string]*models.LabSession)}
}

func (m *sessionRepoStub) Create(ctx context.Context, session *models.LabSession) error {
	if session.ID == "" {
		session.ID = "sess-generated"
	}
	session.Version = 1
	copy := *session
	m.sessions[session.ID] = &copy
	return nil
}

func (m *sessionRepoStub) GetByID(ctx context.Context, id string) (*models.LabSession, error) {
	if sess, ok := m.sessions[id]; ok {
		copy := *sess
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *sessionRepoStub) List(ctx context.Context, filter models.SessionFilter) ([]models.LabSession, int, error) {
	result := make([]models.LabSession, 0, len(m.sessions))
	for _, sess := range m.sessions {
		if filter.CreatedBy != "" && sess.CreatedBy != filter.CreatedBy {
			continue
		}
		result = append(result, *sess)
	}
	return result, len(result), nil
}

func (m *sessionRepoStub) Update(ctx context.Context, session *models.LabSession) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	session.Version++
	copy := *session
	m.sessions[session.ID] = &copy
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type notifierStub struct {
	kinds []models.NotificationKind
}

func (n *notifierStub) SessionEvent(ctx context.Context, kind models.NotificationKind, session *models.LabSession, actorID string) {
	n.kinds = append(n.kinds, kind)
}

func ownerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "owner-1", Role: models.RoleUser}
}

func operatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "op-1", Role: models.RoleOperator}
}

func seedSession(repo *sessionRepoStub) *models.LabSession {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	session := &models.LabSession{
		ID:              "sess-1",
		Title:           "spectroscopy intro",
		CreatedBy:       "owner-1",
		State:           timeslot.StatePending,
		ValidationState: timeslot.OperatorPending,
		ProposedSlots: models.SlotList{{
			ID:        "slot-a",
			StartDate: start,
			EndDate:   start.Add(2 * time.Hour),
			Status:    timeslot.StatusActive,
			CreatedBy: "owner-1",
		}},
		CurrentSlots: models.SlotList{},
		StateChanges: models.StateChangeList{},
		Version:      1,
	}
	copy := *session
	repo.sessions[session.ID] = &copy
	return session
}

func TestSessionServicePropose(t *testing.T) {
	repo := newSessionRepoStub()
	audit := &auditStub{}
	notifier := &notifierStub{}
	svc := NewSessionService(repo, audit, nil, WithSessionNotifier(notifier))

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	session, err := svc.Propose(context.Background(), dto.ProposeSessionRequest{
		Title: "spectroscopy intro",
		Slots: []dto.SlotInput{{StartDate: start, EndDate: start.Add(2 * time.Hour)}},
	}, ownerClaims())
	require.NoError(t, err)
	require.Equal(t, timeslot.StatePending, session.State)
	require.Equal(t, timeslot.OperatorPending, session.ValidationState)
	require.Len(t, session.ProposedSlots, 1)
	require.NotEmpty(t, session.ProposedSlots[0].ID)
	require.Empty(t, session.CurrentSlots)
	require.Len(t, audit.logs, 1)
	require.Equal(t, []models.NotificationKind{models.NotifySessionProposed}, notifier.kinds)
}

func TestSessionServiceProposeRejectsBadSlots(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), nil, nil)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := svc.Propose(context.Background(), dto.ProposeSessionRequest{
		Title: "broken",
		Slots: []dto.SlotInput{{StartDate: start, EndDate: start.Add(-time.Hour)}},
	}, ownerClaims())
	require.Equal(t, appErrors.ErrInvalidSlot.Code, appErrors.FromError(err).Code)

	_, err = svc.Propose(context.Background(), dto.ProposeSessionRequest{Title: "empty"}, ownerClaims())
	require.Equal(t, appErrors.ErrMissingProposedSlots.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceApproveSlotsValidates(t *testing.T) {
	repo := newSessionRepoStub()
	notifier := &notifierStub{}
	svc := NewSessionService(repo, nil, nil, WithSessionNotifier(notifier))
	seedSession(repo)

	session, outcome, err := svc.ApproveSlots(context.Background(), "sess-1", "", operatorClaims())
	require.NoError(t, err)
	require.Equal(t, 1, outcome.ApprovedCount)
	require.Equal(t, 0, outcome.RemainingPending)
	require.Equal(t, timeslot.StateValidated, session.State)
	require.Equal(t, timeslot.NoPending, session.ValidationState)
	require.Len(t, session.CurrentSlots, 1)
	require.Equal(t, 2, session.Version)
	require.Equal(t, []models.NotificationKind{models.NotifySlotsApproved}, notifier.kinds)
}

func TestSessionServiceApproveSlotsRequiresOperator(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, nil, nil)
	seedSession(repo)

	_, _, err := svc.ApproveSlots(context.Background(), "sess-1", "", ownerClaims())
	require.Equal(t, appErrors.ErrNotOperator.Code, appErrors.FromError(err).Code)

	stored := repo.sessions["sess-1"]
	require.Equal(t, timeslot.StatePending, stored.State)
	require.Zero(t, repo.updates)
}

func TestSessionServiceRejectSlotsCancels(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, nil, nil)
	seedSession(repo)

	session, outcome, err := svc.RejectSlots(context.Background(), "sess-1", "slot-a", operatorClaims())
	require.NoError(t, err)
	require.Equal(t, 1, outcome.RejectedCount)
	require.Equal(t, 0, outcome.RemainingSlots)
	require.Equal(t, timeslot.StateCancelled, session.State)
	require.Empty(t, session.CurrentSlots)
}

func TestSessionServiceDispatchMove(t *testing.T) {
	repo := newSessionRepoStub()
	notifier := &notifierStub{}
	svc := NewSessionService(repo, nil, nil, WithSessionNotifier(notifier))
	seedSession(repo)

	start := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	session, _, err := svc.Dispatch(context.Background(), "sess-1", timeslot.ActionMove, dto.ActionRequest{
		Reason: "room unavailable",
		Slots:  []dto.SlotInput{{StartDate: start, EndDate: start.Add(2 * time.Hour)}},
	}, operatorClaims())
	require.NoError(t, err)
	require.Equal(t, timeslot.StateMoved, session.State)
	require.Equal(t, []models.NotificationKind{models.NotifySessionMoved}, notifier.kinds)
}

func TestSessionServiceDispatchForbiddenLeavesSessionUntouched(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, nil, nil)
	seed := seedSession(repo)

	// owner may not VALIDATE, and nothing is ownerPending yet
	_, _, err := svc.Dispatch(context.Background(), "sess-1", timeslot.ActionValidate, dto.ActionRequest{}, ownerClaims())
	require.Equal(t, appErrors.ErrNotOperator.Code, appErrors.FromError(err).Code)

	stored := repo.sessions["sess-1"]
	require.Equal(t, seed.State, stored.State)
	require.Equal(t, seed.Version, stored.Version)
}

func TestSessionServiceOwnerIsNeverOperatorOnOwnSession(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, nil, nil)
	seed := seedSession(repo)
	seed.CreatedBy = "op-1"
	repo.sessions["sess-1"].CreatedBy = "op-1"

	_, _, err := svc.ApproveSlots(context.Background(), "sess-1", "", operatorClaims())
	require.Equal(t, appErrors.ErrNotOperator.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceMutateMapsVersionConflict(t *testing.T) {
	repo := newSessionRepoStub()
	svc := NewSessionService(repo, nil, nil)
	seedSession(repo)
	repo.updateErr = sql.ErrNoRows

	_, _, err := svc.ApproveSlots(context.Background(), "sess-1", "", operatorClaims())
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceLockStripesAreStable(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), nil, nil)

	// Same id must always land on the same mutex, and every stripe must stay
	// inside the fixed table regardless of how many ids are ever locked.
	require.Same(t, svc.lockFor("sess-1"), svc.lockFor("sess-1"))
	for i := 0; i < 1000; i++ {
		l := svc.lockFor(fmt.Sprintf("sess-%d", i))
		l.Lock()
		l.Unlock()
	}
}

func TestSessionServiceGetUnknownSession(t *testing.T) {
	svc := NewSessionService(newSessionRepoStub(), nil, nil)

	_, _, err := svc.Get(context.Background(), "missing")
	require.Equal(t, appErrors.ErrAggregateNotFound.Code, appErrors.FromError(err).Code)
}
