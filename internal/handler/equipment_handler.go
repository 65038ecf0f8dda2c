package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
	"github.com/novalab-io/labms-api/pkg/response"
)

type equipmentService interface {
	Create(ctx context.Context, req dto.CreateEquipmentRequest, actorID string) (*models.Equipment, error)
	Get(ctx context.Context, id string) (*models.Equipment, error)
	List(ctx context.Context, query dto.EquipmentQuery) ([]models.Equipment, int, error)
	Update(ctx context.Context, id string, req dto.UpdateEquipmentRequest, actorID string) (*models.Equipment, error)
	Delete(ctx context.Context, id, actorID string) error
}

// EquipmentHandler exposes REST endpoints for the equipment inventory.
type EquipmentHandler struct {
	service equipmentService
}

// NewEquipmentHandler constructs the handler.
func NewEquipmentHandler(service equipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: service}
}

// Create godoc
// @Summary Register equipment
// @Tags Inventory
// @Accept json
// @Produce json
// @Param payload body dto.CreateEquipmentRequest true "Equipment payload"
// @Success 201 {object} response.Envelope
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid equipment payload"))
		return
	}
	eq, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, eq, nil)
}

// Get godoc
// @Summary Get equipment detail
// @Tags Inventory
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	eq, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eq, nil)
}

// List godoc
// @Summary List equipment
// @Tags Inventory
// @Produce json
// @Param status query string false "Equipment status"
// @Param roomId query string false "Room ID"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	var query dto.EquipmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid equipment query"))
		return
	}
	items, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Update godoc
// @Summary Update equipment
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param payload body dto.UpdateEquipmentRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [patch]
func (h *EquipmentHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid equipment payload"))
		return
	}
	eq, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eq, nil)
}

// Delete godoc
// @Summary Delete equipment
// @Tags Inventory
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
