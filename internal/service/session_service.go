package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/models"
	"github.com/novalab-io/labms-api/internal/timeslot"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

type sessionStore interface {
	Create(ctx context.Context, session *models.LabSession) error
	GetByID(ctx context.Context, id string) (*models.LabSession, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.LabSession, int, error)
	Update(ctx context.Context, session *models.LabSession) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type sessionCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// SessionNotifier fans out session lifecycle events to interested users.
type SessionNotifier interface {
	SessionEvent(ctx context.Context, kind models.NotificationKind, session *models.LabSession, actorID string)
}

// SessionService embeds the timeslot engine: it loads the aggregate, resolves
// the actor's role, runs the pure engine call under a per-session lock, and
// persists the result with an optimistic version check.
type SessionService struct {
	repo     sessionStore
	audit    auditLogger
	cache    sessionCache
	notifier SessionNotifier
	logger   *zap.Logger
	cacheTTL time.Duration
	maxSlots int
	maxSpan  time.Duration

	locks [sessionLockStripes]sync.Mutex
}

// sessionLockStripes bounds the lock table: session ids hash onto a fixed
// set of mutexes instead of one retained mutex per id ever seen.
const sessionLockStripes = 64

// SessionServiceOption configures the service.
type SessionServiceOption func(*SessionService)

// WithSessionCache enables read caching for session lookups.
func WithSessionCache(cache sessionCache, ttl time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithSessionNotifier wires lifecycle notifications.
func WithSessionNotifier(notifier SessionNotifier) SessionServiceOption {
	return func(s *SessionService) {
		s.notifier = notifier
	}
}

// WithSlotLimits overrides proposal limits.
func WithSlotLimits(maxSlots int, maxSpan time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		if maxSlots > 0 {
			s.maxSlots = maxSlots
		}
		if maxSpan > 0 {
			s.maxSpan = maxSpan
		}
	}
}

// NewSessionService constructs the service with defaults.
func NewSessionService(repo sessionStore, audit auditLogger, logger *zap.Logger, opts ...SessionServiceOption) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SessionService{
		repo:     repo,
		audit:    audit,
		logger:   logger,
		cacheTTL: 5 * time.Minute,
		maxSlots: 20,
		maxSpan:  12 * time.Hour,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// lockFor serializes mutating calls per session id. The engine itself is
// pure, so this is the only synchronization the aggregate needs in-process;
// the repository version check covers competing instances. Ids sharing a
// stripe contend with each other, which only costs latency, never safety.
func (s *SessionService) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%sessionLockStripes]
}

// actorFor resolves the engine-facing role booleans. A session owner never
// doubles as operator on their own session, even with an OPERATOR role.
func actorFor(session *models.LabSession, claims *models.JWTClaims) timeslot.Actor {
	isOwner := claims.UserID == session.CreatedBy
	isOperator := !isOwner && (claims.Role == models.RoleOperator || claims.Role == models.RoleAdmin)
	return timeslot.Actor{ID: claims.UserID, IsOwner: isOwner, IsOperator: isOperator}
}

// Propose creates a new lab session with its initial proposed slots.
func (s *SessionService) Propose(ctx context.Context, req dto.ProposeSessionRequest, claims *models.JWTClaims) (*models.LabSession, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if len(req.Slots) == 0 {
		return nil, appErrors.ErrMissingProposedSlots
	}
	if len(req.Slots) > s.maxSlots {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d slots per session", s.maxSlots))
	}

	now := time.Now().UTC()
	proposed := make([]timeslot.Slot, 0, len(req.Slots))
	for _, in := range req.Slots {
		slot := timeslot.Slot{
			ID:        uuid.NewString(),
			StartDate: in.StartDate.UTC(),
			EndDate:   in.EndDate.UTC(),
			Status:    timeslot.StatusActive,
			CreatedBy: claims.UserID,
			ModifiedBy: []timeslot.AuditEntry{{
				UserID: claims.UserID,
				Date:   now,
				Action: timeslot.ActionCreated,
			}},
		}
		if err := s.checkSlot(slot); err != nil {
			return nil, err
		}
		proposed = append(proposed, slot)
	}

	session := &models.LabSession{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		CreatedBy:       claims.UserID,
		State:           timeslot.StatePending,
		ValidationState: timeslot.OperatorPending,
		ProposedSlots:   models.SlotList(proposed),
		CurrentSlots:    models.SlotList{},
		StateChanges:    models.StateChangeList{},
	}
	if req.RoomID != "" {
		session.RoomID = &req.RoomID
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.emitAudit(ctx, claims.UserID, models.AuditActionSessionPropose, session.ID, nil, session)
	s.notify(ctx, models.NotifySessionProposed, session, claims.UserID)
	return session, nil
}

// checkSlot validates one slot and enforces the configured duration limit.
func (s *SessionService) checkSlot(slot timeslot.Slot) error {
	if err := timeslot.Validate(slot); err != nil {
		return err
	}
	if s.maxSpan > 0 && slot.EndDate.Sub(slot.StartDate) > s.maxSpan {
		return appErrors.Clone(appErrors.ErrInvalidSlot, fmt.Sprintf("slot longer than %s", s.maxSpan))
	}
	return nil
}

// Get returns a session by id, serving from cache when possible. The boolean
// reports whether the cache answered the lookup.
func (s *SessionService) Get(ctx context.Context, id string) (*models.LabSession, bool, error) {
	key := sessionCacheKey(id)
	if s.cache != nil {
		var cached models.LabSession
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.ErrAggregateNotFound
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, session, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache session", zap.String("session_id", id), zap.Error(err))
		}
	}
	return session, false, nil
}

// List returns sessions matching the query.
func (s *SessionService) List(ctx context.Context, query dto.SessionQuery, claims *models.JWTClaims) ([]models.LabSession, int, error) {
	if claims == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	filter := models.SessionFilter{
		State:           timeslot.EventState(query.State),
		ValidationState: timeslot.ValidationState(query.ValidationState),
		RoomID:          query.RoomID,
		Page:            query.Page,
		PageSize:        query.PageSize,
	}
	if query.Mine || claims.Role == models.RoleUser {
		filter.CreatedBy = claims.UserID
	}
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, total, nil
}

// Dispatch runs one engine action against a session.
func (s *SessionService) Dispatch(ctx context.Context, id string, action timeslot.Action, req dto.ActionRequest, claims *models.JWTClaims) (*models.LabSession, string, error) {
	var message string
	session, err := s.mutate(ctx, id, claims, func(agg timeslot.Session, actor timeslot.Actor) (timeslot.Session, error) {
		payload := timeslot.Payload{
			Reason:        req.Reason,
			Modifications: req.Modifications,
		}
		for _, in := range req.Slots {
			payload.Slots = append(payload.Slots, timeslot.SlotProposal{
				StartDate:         in.StartDate.UTC(),
				EndDate:           in.EndDate.UTC(),
				ReferentCurrentID: in.ReferentCurrentID,
			})
		}
		result, err := timeslot.Dispatch(agg, actor, action, payload)
		if err != nil {
			return timeslot.Session{}, err
		}
		message = result.Message
		return result.Session, nil
	})
	if err != nil {
		return nil, "", err
	}

	s.emitAudit(ctx, claims.UserID, models.AuditActionSessionDispatch, id, map[string]string{"action": string(action)}, session)
	s.notify(ctx, notificationKindFor(action), session, claims.UserID)
	return session, message, nil
}

// ApproveSlots promotes pending proposals into the authoritative schedule.
// An empty slotID approves every pending proposal.
func (s *SessionService) ApproveSlots(ctx context.Context, id, slotID string, claims *models.JWTClaims) (*models.LabSession, *dto.ApproveSlotsResponse, error) {
	var outcome dto.ApproveSlotsResponse
	session, err := s.mutate(ctx, id, claims, func(agg timeslot.Session, actor timeslot.Actor) (timeslot.Session, error) {
		if !actor.IsOperator {
			return timeslot.Session{}, appErrors.ErrNotOperator
		}
		result, err := timeslot.Approve(agg, actor.ID, selectorFor(slotID))
		if err != nil {
			return timeslot.Session{}, err
		}
		outcome = dto.ApproveSlotsResponse{
			ApprovedCount:    result.ApprovedCount,
			RemainingPending: result.RemainingPending,
		}
		return result.Session, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.emitAudit(ctx, claims.UserID, models.AuditActionSlotApprove, id, map[string]string{"slot_id": slotID}, session)
	s.notify(ctx, models.NotifySlotsApproved, session, claims.UserID)
	return session, &outcome, nil
}

// RejectSlots invalidates pending proposals and cascades onto the
// authoritative slots they reference. An empty slotID rejects everything
// pending.
func (s *SessionService) RejectSlots(ctx context.Context, id, slotID string, claims *models.JWTClaims) (*models.LabSession, *dto.RejectSlotsResponse, error) {
	var outcome dto.RejectSlotsResponse
	session, err := s.mutate(ctx, id, claims, func(agg timeslot.Session, actor timeslot.Actor) (timeslot.Session, error) {
		if !actor.IsOperator {
			return timeslot.Session{}, appErrors.ErrNotOperator
		}
		result, err := timeslot.Reject(agg, actor.ID, selectorFor(slotID))
		if err != nil {
			return timeslot.Session{}, err
		}
		outcome = dto.RejectSlotsResponse{
			RejectedCount:  result.RejectedCount,
			RemainingSlots: result.RemainingSlots,
		}
		return result.Session, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.emitAudit(ctx, claims.UserID, models.AuditActionSlotReject, id, map[string]string{"slot_id": slotID}, session)
	s.notify(ctx, models.NotifySlotsRejected, session, claims.UserID)
	return session, &outcome, nil
}

// mutate is the shared load-lock-apply-persist cycle. The engine call runs on
// a projection of the row; on success the result is folded back and persisted
// with the version guard, on any error the stored row is untouched.
func (s *SessionService) mutate(ctx context.Context, id string, claims *models.JWTClaims, apply func(timeslot.Session, timeslot.Actor) (timeslot.Session, error)) (*models.LabSession, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAggregateNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	next, err := apply(session.Aggregate(), actorFor(session, claims))
	if err != nil {
		return nil, err
	}

	session.ApplyAggregate(next)
	if err := s.repo.Update(ctx, session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "session was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}
	s.invalidateCache(ctx, id)
	return session, nil
}

func (s *SessionService) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionCacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate session cache", zap.String("session_id", id), zap.Error(err))
	}
}

func (s *SessionService) emitAudit(ctx context.Context, userID, action, sessionID string, details interface{}, session *models.LabSession) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "lab_session",
		ResourceID: &sessionID,
		IPAddress:  "system",
		UserAgent:  "session-service",
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			log.OldValues = raw
		}
	}
	if session != nil {
		if raw, err := json.Marshal(map[string]interface{}{
			"state":            session.State,
			"validation_state": session.ValidationState,
			"version":          session.Version,
		}); err == nil {
			log.NewValues = raw
		}
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *SessionService) notify(ctx context.Context, kind models.NotificationKind, session *models.LabSession, actorID string) {
	if s.notifier == nil || session == nil {
		return
	}
	s.notifier.SessionEvent(ctx, kind, session, actorID)
}

func selectorFor(slotID string) timeslot.Selector {
	if slotID == "" {
		return timeslot.AllPending()
	}
	return timeslot.BySlotID(slotID)
}

func sessionCacheKey(id string) string {
	return "sessions:" + id
}

func notificationKindFor(action timeslot.Action) models.NotificationKind {
	switch action {
	case timeslot.ActionValidate, timeslot.ActionApproveChanges:
		return models.NotifySessionValidated
	case timeslot.ActionCancel:
		return models.NotifySessionCancelled
	case timeslot.ActionMove:
		return models.NotifySessionMoved
	default:
		return models.NotifySessionModified
	}
}
