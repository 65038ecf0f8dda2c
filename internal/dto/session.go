package dto

import (
	"time"

	"github.com/novalab-io/labms-api/internal/timeslot"
)

// SlotInput is one candidate time slot in a propose or move request.
type SlotInput struct {
	StartDate         time.Time `json:"startDate" binding:"required"`
	EndDate           time.Time `json:"endDate" binding:"required"`
	ReferentCurrentID string    `json:"referentCurrentId,omitempty"`
}

// ProposeSessionRequest creates a new lab session with its initial slots.
type ProposeSessionRequest struct {
	Title       string      `json:"title" binding:"required"`
	Description string      `json:"description"`
	RoomID      string      `json:"roomId,omitempty"`
	Slots       []SlotInput `json:"slots" binding:"required,min=1"`
}

// ActionRequest carries the payload for a dispatched session action.
type ActionRequest struct {
	Reason        string                               `json:"reason,omitempty"`
	Slots         []SlotInput                          `json:"slots,omitempty"`
	Modifications map[string]timeslot.SlotModification `json:"modifications,omitempty"`
}

// SessionQuery mirrors supported session listing filters.
type SessionQuery struct {
	State           string `form:"state"`
	ValidationState string `form:"validationState"`
	RoomID          string `form:"roomId"`
	Mine            bool   `form:"mine"`
	Page            int    `form:"page"`
	PageSize        int    `form:"pageSize"`
}

// ApproveSlotsResponse reports the outcome of an approval call.
type ApproveSlotsResponse struct {
	ApprovedCount    int `json:"approvedCount"`
	RemainingPending int `json:"remainingPending"`
}

// RejectSlotsResponse reports the outcome of a rejection call.
type RejectSlotsResponse struct {
	RejectedCount  int `json:"rejectedCount"`
	RemainingSlots int `json:"remainingSlots"`
}

// DispatchResponse reports the outcome of a dispatched action.
type DispatchResponse struct {
	Message string `json:"message"`
}
