package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

type equipmentStore interface {
	Create(ctx context.Context, eq *models.Equipment) error
	GetByID(ctx context.Context, id string) (*models.Equipment, error)
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error)
	Update(ctx context.Context, eq *models.Equipment) error
	Delete(ctx context.Context, id string) error
}

// EquipmentService manages the lab equipment inventory.
type EquipmentService struct {
	repo   equipmentStore
	audit  auditLogger
	logger *zap.Logger
}

// NewEquipmentService constructs the service.
func NewEquipmentService(repo equipmentStore, audit auditLogger, logger *zap.Logger) *EquipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentService{repo: repo, audit: audit, logger: logger}
}

// Create registers a new piece of equipment.
func (s *EquipmentService) Create(ctx context.Context, req dto.CreateEquipmentRequest, actorID string) (*models.Equipment, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	status, err := equipmentStatus(req.Status, models.EquipmentAvailable)
	if err != nil {
		return nil, err
	}
	eq := &models.Equipment{
		Name:   strings.TrimSpace(req.Name),
		Status: status,
	}
	if req.SerialNumber != "" {
		eq.SerialNumber = &req.SerialNumber
	}
	if req.RoomID != "" {
		eq.RoomID = &req.RoomID
	}
	if req.Notes != "" {
		eq.Notes = &req.Notes
	}
	if err := s.repo.Create(ctx, eq); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}
	s.logInventoryWrite(ctx, actorID, "equipment", eq.ID)
	return eq, nil
}

// Get returns one equipment record.
func (s *EquipmentService) Get(ctx context.Context, id string) (*models.Equipment, error) {
	eq, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	return eq, nil
}

// List returns equipment matching the query.
func (s *EquipmentService) List(ctx context.Context, query dto.EquipmentQuery) ([]models.Equipment, int, error) {
	filter := models.EquipmentFilter{
		Status:   models.EquipmentStatus(strings.ToUpper(query.Status)),
		RoomID:   query.RoomID,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
	}
	return items, total, nil
}

// Update applies a partial update to an equipment record.
func (s *EquipmentService) Update(ctx context.Context, id string, req dto.UpdateEquipmentRequest, actorID string) (*models.Equipment, error) {
	eq, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		eq.Name = strings.TrimSpace(*req.Name)
	}
	if req.SerialNumber != nil {
		eq.SerialNumber = req.SerialNumber
	}
	if req.RoomID != nil {
		eq.RoomID = req.RoomID
	}
	if req.Status != nil {
		status, err := equipmentStatus(*req.Status, "")
		if err != nil {
			return nil, err
		}
		eq.Status = status
	}
	if req.Notes != nil {
		eq.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, eq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update equipment")
	}
	s.logInventoryWrite(ctx, actorID, "equipment", eq.ID)
	return eq, nil
}

// Delete removes an equipment record.
func (s *EquipmentService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete equipment")
	}
	s.logInventoryWrite(ctx, actorID, "equipment", id)
	return nil
}

func (s *EquipmentService) logInventoryWrite(ctx context.Context, actorID, resource, resourceID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionInventoryWrite,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "inventory-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func equipmentStatus(raw string, fallback models.EquipmentStatus) (models.EquipmentStatus, error) {
	if raw == "" {
		if fallback == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "status is required")
		}
		return fallback, nil
	}
	status := models.EquipmentStatus(strings.ToUpper(raw))
	switch status {
	case models.EquipmentAvailable, models.EquipmentInUse, models.EquipmentMaintenance, models.EquipmentRetired:
		return status, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported equipment status")
	}
}
