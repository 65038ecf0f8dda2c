package timeslot

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

// validateAll approves every pending proposal and settles the validation
// state. The actual reconciliation lives in Approve.
func validateAll(s Session, actor Actor) (DispatchResult, error) {
	res, err := Approve(s, actor.ID, AllPending())
	if err != nil {
		return DispatchResult{}, err
	}
	out := res.Session
	out.ValidationState = NoPending
	// Approve only records a transition when the state actually moved; a
	// dispatched action always leaves a trace.
	if len(out.StateChanges) == len(s.StateChanges) {
		out.recordStateChange(out.State, actor.ID, "session validated", time.Now().UTC())
	}
	return DispatchResult{
		Session: out,
		Message: fmt.Sprintf("approved %d slot(s)", res.ApprovedCount),
	}, nil
}

// cancelAll is the terminal destructive action: every proposed slot is marked
// deleted (not invalid) and the authoritative schedule is cleared.
func cancelAll(s Session, actor Actor, payload Payload) (DispatchResult, error) {
	out := s.Clone()
	now := time.Now().UTC()

	for i, slot := range out.ProposedSlots {
		if slot.Status == StatusDeleted {
			continue
		}
		out.ProposedSlots[i] = slot.withStatus(StatusDeleted, actor.ID, ActionDeleted, payload.Reason, now)
	}
	out.CurrentSlots = []Slot{}
	out.recordStateChange(StateCancelled, actor.ID, reasonOr(payload.Reason, "session cancelled"), now)
	out.ValidationState = NoPending

	return DispatchResult{Session: out, Message: "session cancelled"}, nil
}

// move replaces the whole schedule with a fresh candidate list.
func move(s Session, actor Actor, payload Payload) (DispatchResult, error) {
	if len(payload.Slots) == 0 {
		return DispatchResult{}, appErrors.ErrMissingProposedSlots
	}

	now := time.Now().UTC()
	fresh := make([]Slot, 0, len(payload.Slots))
	for _, p := range payload.Slots {
		slot := Slot{
			ID:        uuid.NewString(),
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			Status:    StatusActive,
			// Records which authoritative slot this replacement supersedes.
			ReferentCurrentID: p.ReferentCurrentID,
			CreatedBy:         actor.ID,
			ModifiedBy: []AuditEntry{{
				UserID: actor.ID,
				Date:   now,
				Action: ActionCreated,
				Note:   payload.Reason,
			}},
		}
		if err := Validate(slot); err != nil {
			return DispatchResult{}, err
		}
		fresh = append(fresh, slot)
	}

	out := s.Clone()
	for i, slot := range out.ProposedSlots {
		if slot.Status == StatusDeleted {
			continue
		}
		out.ProposedSlots[i] = slot.withStatus(StatusDeleted, actor.ID, ActionDeleted, "superseded by move", now)
	}
	out.ProposedSlots = append(out.ProposedSlots, fresh...)
	out.CurrentSlots = cloneSlots(fresh)
	out.recordStateChange(StateMoved, actor.ID, reasonOr(payload.Reason, "session moved"), now)
	out.ValidationState = NoPending

	return DispatchResult{
		Session: out,
		Message: fmt.Sprintf("session moved to %d new slot(s)", len(fresh)),
	}, nil
}

// ownerModify applies the owner's per-slot decision map and hands the session
// back into the owner-pending review loop.
func ownerModify(s Session, actor Actor, payload Payload) (DispatchResult, error) {
	if len(payload.Modifications) == 0 {
		return DispatchResult{}, appErrors.Clone(appErrors.ErrValidation, "modification map is required")
	}
	for id := range payload.Modifications {
		if indexByID(s.ProposedSlots, id) < 0 {
			return DispatchResult{}, appErrors.Clone(appErrors.ErrNoPendingSlot, fmt.Sprintf("slot %s not found", id))
		}
	}

	out := s.Clone()
	now := time.Now().UTC()
	modified := 0

	for i, slot := range out.ProposedSlots {
		mod, ok := payload.Modifications[slot.ID]
		if !ok {
			continue
		}
		switch mod.Op {
		case ModOpModify:
			next := slot.withAudit(actor.ID, ActionModified, payload.Reason, now)
			next.StartDate = mod.StartDate
			next.EndDate = mod.EndDate
			next.Status = StatusActive
			if err := Validate(next); err != nil {
				return DispatchResult{}, err
			}
			out.ProposedSlots[i] = next
			modified++
		case ModOpRemove:
			out.ProposedSlots[i] = slot.withStatus(StatusInvalid, actor.ID, ActionInvalidated, payload.Reason, now)
			modified++
		case ModOpKeep:
			out.ProposedSlots[i] = slot.withAudit(actor.ID, ActionModified, "kept unchanged", now)
		default:
			return DispatchResult{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown modification op %q", mod.Op))
		}
	}

	out.recordStateChange(StatePending, actor.ID, reasonOr(payload.Reason, "owner modified proposal"), now)
	out.ValidationState = OwnerPending

	return DispatchResult{
		Session: out,
		Message: fmt.Sprintf("owner modified %d slot(s)", modified),
	}, nil
}

// approveChanges settles the owner review of a prior edit.
func approveChanges(s Session, actor Actor) (DispatchResult, error) {
	out := s.Clone()
	now := time.Now().UTC()

	for i, slot := range out.ProposedSlots {
		out.ProposedSlots[i] = slot.withAudit(actor.ID, ActionApproved, "", now)
	}
	out.recordStateChange(StateValidated, actor.ID, "owner approved changes", now)
	out.ValidationState = NoPending

	return DispatchResult{Session: out, Message: "changes approved"}, nil
}

// rejectChanges bounces the proposal back to the operator.
func rejectChanges(s Session, actor Actor, payload Payload) (DispatchResult, error) {
	out := s.Clone()
	now := time.Now().UTC()

	for i, slot := range out.ProposedSlots {
		out.ProposedSlots[i] = slot.withAudit(actor.ID, ActionRejected, payload.Reason, now)
	}
	out.recordStateChange(StatePending, actor.ID, reasonOr(payload.Reason, "owner rejected changes"), now)
	out.ValidationState = OperatorPending

	return DispatchResult{Session: out, Message: "changes rejected, returned to operator"}, nil
}

func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}
