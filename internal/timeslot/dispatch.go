package timeslot

import (
	"time"

	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

// Action enumerates the operations the dispatcher accepts.
type Action string

const (
	ActionValidate       Action = "VALIDATE"
	ActionCancel         Action = "CANCEL"
	ActionMove           Action = "MOVE"
	ActionOwnerModify    Action = "OWNER_MODIFY"
	ActionApproveChanges Action = "APPROVE_CHANGES"
	ActionRejectChanges  Action = "REJECT_CHANGES"
)

// ModOp is one owner decision inside an OWNER_MODIFY map.
type ModOp string

const (
	ModOpModify ModOp = "modify"
	ModOpRemove ModOp = "remove"
	ModOpKeep   ModOp = "keep"
)

// SlotProposal carries a candidate slot for MOVE requests.
type SlotProposal struct {
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	ReferentCurrentID string    `json:"referentCurrentId,omitempty"`
}

// SlotModification is one per-slot owner decision.
type SlotModification struct {
	Op        ModOp     `json:"op"`
	StartDate time.Time `json:"startDate,omitempty"`
	EndDate   time.Time `json:"endDate,omitempty"`
}

// Payload carries the action-specific request data.
type Payload struct {
	Slots         []SlotProposal              `json:"slots,omitempty"`
	Modifications map[string]SlotModification `json:"modifications,omitempty"`
	Reason        string                      `json:"reason,omitempty"`
}

// DispatchResult is the outcome of a dispatched action.
type DispatchResult struct {
	Session Session
	Message string
}

// Dispatch checks that the action is legal for the actor in the session's
// current validation state and routes it to the matching handler. Illegal
// combinations fail before any mutation, so the caller's aggregate is always
// intact on error.
func Dispatch(s Session, actor Actor, action Action, payload Payload) (DispatchResult, error) {
	if err := s.checkCollections(); err != nil {
		return DispatchResult{}, err
	}
	if err := authorize(s.ValidationState, actor, action); err != nil {
		return DispatchResult{}, err
	}

	switch action {
	case ActionValidate:
		return validateAll(s, actor)
	case ActionCancel:
		return cancelAll(s, actor, payload)
	case ActionMove:
		return move(s, actor, payload)
	case ActionOwnerModify:
		return ownerModify(s, actor, payload)
	case ActionApproveChanges:
		return approveChanges(s, actor)
	case ActionRejectChanges:
		return rejectChanges(s, actor, payload)
	default:
		return DispatchResult{}, appErrors.Clone(appErrors.ErrForbiddenAction, "unknown action")
	}
}

// authorize implements the actor-relative decision table. Role mismatches and
// state mismatches are reported separately so the HTTP layer can explain the
// failure.
func authorize(vs ValidationState, actor Actor, action Action) error {
	switch action {
	case ActionValidate, ActionCancel, ActionMove:
		if !actor.IsOperator {
			return appErrors.ErrNotOperator
		}
	case ActionOwnerModify, ActionApproveChanges, ActionRejectChanges:
		if !actor.IsOwner {
			return appErrors.ErrNotOwner
		}
	default:
		return appErrors.Clone(appErrors.ErrForbiddenAction, "unknown action")
	}

	legal := map[ValidationState]map[Action]bool{
		NoPending: {
			ActionValidate:    true,
			ActionCancel:      true,
			ActionMove:        true,
			ActionOwnerModify: true,
		},
		OperatorPending: {
			ActionValidate: true,
			ActionCancel:   true,
		},
		OwnerPending: {
			ActionOwnerModify:    true,
			ActionApproveChanges: true,
			ActionRejectChanges:  true,
		},
	}

	if !legal[vs][action] {
		return appErrors.ErrForbiddenAction
	}
	return nil
}
