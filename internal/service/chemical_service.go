package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

type chemicalStore interface {
	Create(ctx context.Context, chem *models.Chemical) error
	GetByID(ctx context.Context, id string) (*models.Chemical, error)
	List(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, int, error)
	Update(ctx context.Context, chem *models.Chemical) error
	AdjustQuantity(ctx context.Context, id string, delta float64, at time.Time) error
}

// ChemicalService manages the reagent stock.
type ChemicalService struct {
	repo   chemicalStore
	audit  auditLogger
	logger *zap.Logger
}

// NewChemicalService constructs the service.
func NewChemicalService(repo chemicalStore, audit auditLogger, logger *zap.Logger) *ChemicalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChemicalService{repo: repo, audit: audit, logger: logger}
}

// Create registers a stocked reagent.
func (s *ChemicalService) Create(ctx context.Context, req dto.CreateChemicalRequest, actorID string) (*models.Chemical, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if strings.TrimSpace(req.Unit) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unit is required")
	}
	if req.Quantity < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quantity cannot be negative")
	}
	hazard, err := hazardClass(req.Hazard, models.HazardNone)
	if err != nil {
		return nil, err
	}
	chem := &models.Chemical{
		Name:     strings.TrimSpace(req.Name),
		Quantity: req.Quantity,
		Unit:     strings.TrimSpace(req.Unit),
		Hazard:   hazard,
	}
	if req.CASNumber != "" {
		chem.CASNumber = &req.CASNumber
	}
	if req.RoomID != "" {
		chem.RoomID = &req.RoomID
	}
	if err := s.repo.Create(ctx, chem); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create chemical")
	}
	s.logWrite(ctx, actorID, chem.ID)
	return chem, nil
}

// Get returns one chemical record.
func (s *ChemicalService) Get(ctx context.Context, id string) (*models.Chemical, error) {
	chem, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chemical")
	}
	return chem, nil
}

// List returns chemicals matching the query.
func (s *ChemicalService) List(ctx context.Context, query dto.ChemicalQuery) ([]models.Chemical, int, error) {
	filter := models.ChemicalFilter{
		Hazard:   models.HazardClass(strings.ToUpper(query.Hazard)),
		RoomID:   query.RoomID,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chemicals")
	}
	return items, total, nil
}

// Update applies a partial update to a chemical record. Quantity changes go
// through AdjustStock instead so stock never silently jumps.
func (s *ChemicalService) Update(ctx context.Context, id string, req dto.UpdateChemicalRequest, actorID string) (*models.Chemical, error) {
	chem, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		chem.Name = strings.TrimSpace(*req.Name)
	}
	if req.CASNumber != nil {
		chem.CASNumber = req.CASNumber
	}
	if req.Unit != nil {
		if strings.TrimSpace(*req.Unit) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unit cannot be empty")
		}
		chem.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Hazard != nil {
		hazard, err := hazardClass(*req.Hazard, "")
		if err != nil {
			return nil, err
		}
		chem.Hazard = hazard
	}
	if req.RoomID != nil {
		chem.RoomID = req.RoomID
	}
	if err := s.repo.Update(ctx, chem); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update chemical")
	}
	s.logWrite(ctx, actorID, chem.ID)
	return chem, nil
}

// AdjustStock changes the stocked quantity by a delta. The repository refuses
// adjustments that would drive stock negative.
func (s *ChemicalService) AdjustStock(ctx context.Context, id string, req dto.AdjustStockRequest, actorID string) (*models.Chemical, error) {
	if req.Delta == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "delta cannot be zero")
	}
	if err := s.repo.AdjustQuantity(ctx, id, req.Delta, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "adjustment would drive stock negative or chemical is missing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to adjust stock")
	}
	s.logWrite(ctx, actorID, id)
	return s.Get(ctx, id)
}

func (s *ChemicalService) logWrite(ctx context.Context, actorID, resourceID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionInventoryWrite,
		Resource:   "chemical",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "inventory-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func hazardClass(raw string, fallback models.HazardClass) (models.HazardClass, error) {
	if raw == "" {
		if fallback == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "hazard class is required")
		}
		return fallback, nil
	}
	hazard := models.HazardClass(strings.ToUpper(raw))
	switch hazard {
	case models.HazardNone, models.HazardFlammable, models.HazardCorrosive, models.HazardToxic, models.HazardOxidizer:
		return hazard, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported hazard class")
	}
}
