package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
	"github.com/novalab-io/labms-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
}

type operatorDirectory interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

// NotificationService persists notifications and fans them out over redis
// pub/sub. Delivery is asynchronous: SessionEvent only enqueues, a worker
// pool writes the rows and publishes.
type NotificationService struct {
	repo          notificationStore
	users         operatorDirectory
	publisher     *redis.Client
	logger        *zap.Logger
	channelPrefix string
	queue         *jobs.Queue
}

// NotificationServiceConfig tunes worker pool behaviour.
type NotificationServiceConfig struct {
	ChannelPrefix string
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

// NewNotificationService constructs the service and its delivery queue. Call
// Start before use and Stop on shutdown.
func NewNotificationService(repo notificationStore, users operatorDirectory, publisher *redis.Client, cfg NotificationServiceConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "labms:notify"
	}
	svc := &NotificationService{
		repo:          repo,
		users:         users,
		publisher:     publisher,
		logger:        logger,
		channelPrefix: cfg.ChannelPrefix,
	}
	svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

type notificationJob struct {
	Kind      models.NotificationKind
	SessionID string
	ActorID   string
	OwnerID   string
	Payload   []byte
}

// SessionEvent implements SessionNotifier. It never blocks the request path:
// failures to enqueue are logged and dropped.
func (s *NotificationService) SessionEvent(ctx context.Context, kind models.NotificationKind, session *models.LabSession, actorID string) {
	if session == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"session_id":       session.ID,
		"title":            session.Title,
		"state":            session.State,
		"validation_state": session.ValidationState,
		"actor_id":         actorID,
	})
	if err != nil {
		s.logger.Warn("failed to encode notification payload", zap.Error(err))
		return
	}
	job := jobs.Job{
		Type: string(kind),
		Payload: notificationJob{
			Kind:      kind,
			SessionID: session.ID,
			ActorID:   actorID,
			OwnerID:   session.CreatedBy,
			Payload:   payload,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("session_id", session.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
}

// deliver resolves recipients, persists one notification per recipient, and
// publishes each on the recipient's channel.
func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationJob)
	if !ok {
		return fmt.Errorf("unexpected notification payload type %T", job.Payload)
	}
	recipients, err := s.recipients(ctx, payload)
	if err != nil {
		return err
	}
	for _, userID := range recipients {
		n := &models.Notification{
			UserID:    userID,
			Kind:      payload.Kind,
			SessionID: &payload.SessionID,
			Payload:   payload.Payload,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("persist notification for %s: %w", userID, err)
		}
		s.publish(ctx, userID, n)
	}
	return nil
}

// recipients picks who hears about the event: the session owner, unless the
// owner acted, in which case every operator is told instead.
func (s *NotificationService) recipients(ctx context.Context, payload notificationJob) ([]string, error) {
	if payload.ActorID != payload.OwnerID {
		return []string{payload.OwnerID}, nil
	}
	if s.users == nil {
		return nil, nil
	}
	role := models.RoleOperator
	active := true
	operators, _, err := s.users.List(ctx, models.UserFilter{Role: &role, Active: &active, PageSize: 100})
	if err != nil {
		return nil, fmt.Errorf("resolve operator recipients: %w", err)
	}
	ids := make([]string, 0, len(operators))
	for _, op := range operators {
		if op.ID != payload.ActorID {
			ids = append(ids, op.ID)
		}
	}
	return ids, nil
}

func (s *NotificationService) publish(ctx context.Context, userID string, n *models.Notification) {
	if s.publisher == nil {
		return
	}
	raw, err := json.Marshal(n)
	if err != nil {
		s.logger.Warn("failed to encode published notification", zap.Error(err))
		return
	}
	channel := fmt.Sprintf("%s:%s", s.channelPrefix, userID)
	if err := s.publisher.Publish(ctx, channel, raw).Err(); err != nil {
		s.logger.Warn("failed to publish notification",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

// ListForUser returns the caller's notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}
