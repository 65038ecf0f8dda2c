package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/novalab-io/labms-api/internal/models"
)

// SessionRepository persists lab session aggregates. Slot collections travel
// as JSONB columns; the optimistic version column is how concurrent validation
// attempts on the same session are detected.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, title, description, room_id, created_by, state, validation_state,
       proposed_slots, current_slots, state_changes, version, created_at, updated_at`

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, session *models.LabSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Version == 0 {
		session.Version = 1
	}

	const query = `INSERT INTO lab_sessions
	(id, title, description, room_id, created_by, state, validation_state, proposed_slots, current_slots, state_changes, version, created_at, updated_at)
	VALUES (:id, :title, :description, :room_id, :created_by, :state, :validation_state, :proposed_slots, :current_slots, :state_changes, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByID fetches a session by identifier.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.LabSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM lab_sessions WHERE id = $1 LIMIT 1`, sessionColumns)
	var session models.LabSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns sessions matching the filter, newest first.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.LabSession, int, error) {
	baseQuery := `FROM lab_sessions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.ValidationState != "" {
		conditions = append(conditions, fmt.Sprintf("validation_state = $%d", len(args)+1))
		args = append(args, filter.ValidationState)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", sessionColumns, baseQuery, pageSize, offset)
	var sessions []models.LabSession
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// Update persists the aggregate guarded by the version column. A stale
// version means another actor won the write; surfaced as sql.ErrNoRows so the
// service can retry or report a conflict.
func (r *SessionRepository) Update(ctx context.Context, session *models.LabSession) error {
	expectedVersion := session.Version
	session.Version = expectedVersion + 1
	session.UpdatedAt = time.Now().UTC()

	const query = `UPDATE lab_sessions
	SET title = :title, description = :description, room_id = :room_id,
	    state = :state, validation_state = :validation_state,
	    proposed_slots = :proposed_slots, current_slots = :current_slots,
	    state_changes = :state_changes, version = :version, updated_at = :updated_at
	WHERE id = :id AND version = :expected_version`

	arg := map[string]interface{}{
		"id":               session.ID,
		"title":            session.Title,
		"description":      session.Description,
		"room_id":          session.RoomID,
		"state":            session.State,
		"validation_state": session.ValidationState,
		"proposed_slots":   session.ProposedSlots,
		"current_slots":    session.CurrentSlots,
		"state_changes":    session.StateChanges,
		"version":          session.Version,
		"updated_at":       session.UpdatedAt,
		"expected_version": expectedVersion,
	}

	result, err := r.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		session.Version = expectedVersion
		return fmt.Errorf("update session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		session.Version = expectedVersion
		return fmt.Errorf("check session update rows: %w", err)
	}
	if rows == 0 {
		session.Version = expectedVersion
		return sql.ErrNoRows
	}
	return nil
}
