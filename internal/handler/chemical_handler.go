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

type chemicalService interface {
	Create(ctx context.Context, req dto.CreateChemicalRequest, actorID string) (*models.Chemical, error)
	Get(ctx context.Context, id string) (*models.Chemical, error)
	List(ctx context.Context, query dto.ChemicalQuery) ([]models.Chemical, int, error)
	Update(ctx context.Context, id string, req dto.UpdateChemicalRequest, actorID string) (*models.Chemical, error)
	AdjustStock(ctx context.Context, id string, req dto.AdjustStockRequest, actorID string) (*models.Chemical, error)
}

// ChemicalHandler exposes REST endpoints for the reagent stock.
type ChemicalHandler struct {
	service chemicalService
}

// NewChemicalHandler constructs the handler.
func NewChemicalHandler(service chemicalService) *ChemicalHandler {
	return &ChemicalHandler{service: service}
}

// Create godoc
// @Summary Register a chemical
// @Tags Inventory
// @Accept json
// @Produce json
// @Param payload body dto.CreateChemicalRequest true "Chemical payload"
// @Success 201 {object} response.Envelope
// @Router /chemicals [post]
func (h *ChemicalHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid chemical payload"))
		return
	}
	chem, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, chem, nil)
}

// Get godoc
// @Summary Get chemical detail
// @Tags Inventory
// @Produce json
// @Param id path string true "Chemical ID"
// @Success 200 {object} response.Envelope
// @Router /chemicals/{id} [get]
func (h *ChemicalHandler) Get(c *gin.Context) {
	chem, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chem, nil)
}

// List godoc
// @Summary List chemicals
// @Tags Inventory
// @Produce json
// @Param hazard query string false "Hazard class"
// @Param roomId query string false "Room ID"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Router /chemicals [get]
func (h *ChemicalHandler) List(c *gin.Context) {
	var query dto.ChemicalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid chemical query"))
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
// @Summary Update a chemical
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Chemical ID"
// @Param payload body dto.UpdateChemicalRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /chemicals/{id} [patch]
func (h *ChemicalHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid chemical payload"))
		return
	}
	chem, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chem, nil)
}

// AdjustStock godoc
// @Summary Adjust stocked quantity
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Chemical ID"
// @Param payload body dto.AdjustStockRequest true "Stock delta"
// @Success 200 {object} response.Envelope
// @Router /chemicals/{id}/stock [post]
func (h *ChemicalHandler) AdjustStock(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid stock adjustment payload"))
		return
	}
	chem, err := h.service.AdjustStock(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chem, nil)
}
