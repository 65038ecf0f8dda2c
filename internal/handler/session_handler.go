package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/middleware"
	"github.com/novalab-io/labms-api/internal/models"
	"github.com/novalab-io/labms-api/internal/timeslot"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
	"github.com/novalab-io/labms-api/pkg/response"
)

type sessionService interface {
	Propose(ctx context.Context, req dto.ProposeSessionRequest, claims *models.JWTClaims) (*models.LabSession, error)
	Get(ctx context.Context, id string) (*models.LabSession, bool, error)
	List(ctx context.Context, query dto.SessionQuery, claims *models.JWTClaims) ([]models.LabSession, int, error)
	Dispatch(ctx context.Context, id string, action timeslot.Action, req dto.ActionRequest, claims *models.JWTClaims) (*models.LabSession, string, error)
	ApproveSlots(ctx context.Context, id, slotID string, claims *models.JWTClaims) (*models.LabSession, *dto.ApproveSlotsResponse, error)
	RejectSlots(ctx context.Context, id, slotID string, claims *models.JWTClaims) (*models.LabSession, *dto.RejectSlotsResponse, error)
}

// SessionHandler exposes REST endpoints for the lab session lifecycle.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create godoc
// @Summary Propose a new lab session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.ProposeSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ProposeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session payload"))
		return
	}
	session, err := h.service.Propose(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, session, nil)
}

// Get godoc
// @Summary Get session detail
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, cacheHit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, session, nil, middleware.ExtractMeta(c))
}

// List godoc
// @Summary List lab sessions
// @Tags Sessions
// @Produce json
// @Param state query string false "Event state"
// @Param validationState query string false "Validation state"
// @Param roomId query string false "Room ID"
// @Param mine query bool false "Only sessions created by the caller"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.SessionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session query"))
		return
	}
	sessions, total, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Validate godoc
// @Summary Validate a session's schedule
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/validate [post]
func (h *SessionHandler) Validate(c *gin.Context) {
	h.dispatch(c, timeslot.ActionValidate)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ActionRequest false "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	h.dispatch(c, timeslot.ActionCancel)
}

// Move godoc
// @Summary Move a session to replacement slots
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ActionRequest true "Replacement slots"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/move [post]
func (h *SessionHandler) Move(c *gin.Context) {
	h.dispatch(c, timeslot.ActionMove)
}

// OwnerModify godoc
// @Summary Owner decisions on proposed slots
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ActionRequest true "Per-slot decisions"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/owner/modify [post]
func (h *SessionHandler) OwnerModify(c *gin.Context) {
	h.dispatch(c, timeslot.ActionOwnerModify)
}

// OwnerApprove godoc
// @Summary Owner accepts the operator's changes
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/owner/approve [post]
func (h *SessionHandler) OwnerApprove(c *gin.Context) {
	h.dispatch(c, timeslot.ActionApproveChanges)
}

// OwnerReject godoc
// @Summary Owner declines the operator's changes
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ActionRequest false "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/owner/reject [post]
func (h *SessionHandler) OwnerReject(c *gin.Context) {
	h.dispatch(c, timeslot.ActionRejectChanges)
}

func (h *SessionHandler) dispatch(c *gin.Context, action timeslot.Action) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid action payload"))
			return
		}
	}
	session, message, err := h.service.Dispatch(c.Request.Context(), c.Param("id"), action, req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil, map[string]interface{}{"message": message})
}

// ApproveAll godoc
// @Summary Approve every pending proposed slot
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/slots/approve [post]
func (h *SessionHandler) ApproveAll(c *gin.Context) {
	h.approve(c, "")
}

// ApproveOne godoc
// @Summary Approve a single pending proposed slot
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param slotId path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/slots/{slotId}/approve [post]
func (h *SessionHandler) ApproveOne(c *gin.Context) {
	h.approve(c, c.Param("slotId"))
}

// RejectAll godoc
// @Summary Reject every pending proposed slot
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/slots/reject [post]
func (h *SessionHandler) RejectAll(c *gin.Context) {
	h.reject(c, "")
}

// RejectOne godoc
// @Summary Reject a single pending proposed slot
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param slotId path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/slots/{slotId}/reject [post]
func (h *SessionHandler) RejectOne(c *gin.Context) {
	h.reject(c, c.Param("slotId"))
}

func (h *SessionHandler) approve(c *gin.Context, slotID string) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, outcome, err := h.service.ApproveSlots(c.Request.Context(), c.Param("id"), slotID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil, map[string]interface{}{
		"approved_count":    outcome.ApprovedCount,
		"remaining_pending": outcome.RemainingPending,
	})
}

func (h *SessionHandler) reject(c *gin.Context, slotID string) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, outcome, err := h.service.RejectSlots(c.Request.Context(), c.Param("id"), slotID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil, map[string]interface{}{
		"rejected_count":  outcome.RejectedCount,
		"remaining_slots": outcome.RemainingSlots,
	})
}
