package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
	"github.com/novalab-io/labms-api/pkg/jobs"
)

type notificationRepoStub struct {
	mu      sync.Mutex
	created []models.Notification
	read    map[string]bool
}

func (m *notificationRepoStub) all() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.created...)
}

func newNotificationRepoStub() *notificationRepoStub {
	return &notificationRepoStub{read: make(map[string]bool)}
}

func (m *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *n)
	return nil
}

func (m *notificationRepoStub) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range m.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *notificationRepoStub) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	for _, n := range m.created {
		if n.ID == id && n.UserID == userID {
			m.read[id] = true
			return nil
		}
	}
	return sql.ErrNoRows
}

type userDirectoryStub struct {
	operators []models.User
}

func (m *userDirectoryStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return m.operators, len(m.operators), nil
}

func TestNotificationDeliverToOwner(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, nil, nil, NotificationServiceConfig{}, nil)

	err := svc.deliver(context.Background(), jobs.Job{
		Type: string(models.NotifySlotsApproved),
		Payload: notificationJob{
			Kind:      models.NotifySlotsApproved,
			SessionID: "sess-1",
			ActorID:   "op-1",
			OwnerID:   "owner-1",
			Payload:   []byte(`{}`),
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	require.Equal(t, "owner-1", repo.created[0].UserID)
	require.Equal(t, models.NotifySlotsApproved, repo.created[0].Kind)
}

func TestNotificationDeliverOwnerActionFansOutToOperators(t *testing.T) {
	repo := newNotificationRepoStub()
	users := &userDirectoryStub{operators: []models.User{{ID: "op-1"}, {ID: "op-2"}}}
	svc := NewNotificationService(repo, users, nil, NotificationServiceConfig{}, nil)

	err := svc.deliver(context.Background(), jobs.Job{
		Payload: notificationJob{
			Kind:      models.NotifySessionModified,
			SessionID: "sess-1",
			ActorID:   "owner-1",
			OwnerID:   "owner-1",
			Payload:   []byte(`{}`),
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 2)
	for _, n := range repo.created {
		require.Contains(t, []string{"op-1", "op-2"}, n.UserID)
	}
}

func TestNotificationMarkReadUnknownID(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, nil, nil, NotificationServiceConfig{}, nil)

	err := svc.MarkRead(context.Background(), "missing", "owner-1")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationSessionEventEnqueuesAndDelivers(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, nil, nil, NotificationServiceConfig{Workers: 1}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	session := &models.LabSession{ID: "sess-1", Title: "optics", CreatedBy: "owner-1"}
	svc.SessionEvent(context.Background(), models.NotifySessionMoved, session, "op-1")

	require.Eventually(t, func() bool {
		return len(repo.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "owner-1", repo.all()[0].UserID)
}
