package timeslot

import (
	"time"

	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

// ApproveResult reports the outcome of an approval pass.
type ApproveResult struct {
	Session          Session
	ApprovedCount    int
	RemainingPending int
}

// RejectResult reports the outcome of a rejection pass.
type RejectResult struct {
	Session        Session
	RejectedCount  int
	RemainingSlots int
}

// Approve promotes the selected pending proposals into the authoritative
// schedule. Reconciliation is keyed on ReferentCurrentID: a proposal that
// references an existing authoritative slot replaces it, everything else is
// appended. Approving the last pending proposal advances the session to
// VALIDATED; partial approval never regresses state.
func Approve(s Session, actorID string, sel Selector) (ApproveResult, error) {
	if err := s.checkCollections(); err != nil {
		return ApproveResult{}, err
	}

	out := s.Clone()
	now := time.Now().UTC()

	var targets []int
	for i, slot := range out.ProposedSlots {
		if out.pending(slot) && sel.matches(slot) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return ApproveResult{}, appErrors.ErrNoPendingSlot
	}

	for _, i := range targets {
		slot := out.ProposedSlots[i]
		placed := false
		if slot.ReferentCurrentID != "" {
			if j := indexByID(out.CurrentSlots, slot.ReferentCurrentID); j >= 0 {
				out.CurrentSlots[j] = slot.withAudit(actorID, ActionModified, "", now)
				placed = true
				// The replaced entry leaves the schedule; demote its proposal
				// record so it no longer reads as awaiting validation.
				if k := indexByID(out.ProposedSlots, slot.ReferentCurrentID); k >= 0 && out.ProposedSlots[k].Status == StatusActive {
					out.ProposedSlots[k] = out.ProposedSlots[k].withStatus(StatusInvalid, actorID, ActionInvalidated, "superseded by approved proposal", now)
				}
			}
		}
		if !placed {
			// No referent, or the referent is already gone.
			out.CurrentSlots = append(out.CurrentSlots, slot.withAudit(actorID, ActionCreated, "", now))
		}
		out.ProposedSlots[i] = slot.withAudit(actorID, ActionModified, "", now)
	}

	remaining := len(out.PendingSlots())
	if remaining == 0 {
		if out.State != StateValidated {
			out.recordStateChange(StateValidated, actorID, "all pending slots approved", now)
		}
		out.ValidationState = NoPending
	}

	return ApproveResult{
		Session:          out,
		ApprovedCount:    len(targets),
		RemainingPending: remaining,
	}, nil
}

// Reject invalidates the selected pending proposals. Invalidation cascades
// through ReferentCurrentID into the authoritative schedule; invalidated
// authoritative entries are demoted into the proposal history. Draining the
// schedule to empty cancels the session, otherwise the survivors stand as the
// accepted schedule.
func Reject(s Session, actorID string, sel Selector) (RejectResult, error) {
	if err := s.checkCollections(); err != nil {
		return RejectResult{}, err
	}

	out := s.Clone()
	now := time.Now().UTC()

	var targets []int
	for i, slot := range out.ProposedSlots {
		if out.pending(slot) && sel.matches(slot) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return RejectResult{}, appErrors.ErrNoPendingSlot
	}

	for _, i := range targets {
		slot := out.ProposedSlots[i]
		out.ProposedSlots[i] = slot.withStatus(StatusInvalid, actorID, ActionInvalidated, "", now)
		if slot.ReferentCurrentID != "" {
			if j := indexByID(out.CurrentSlots, slot.ReferentCurrentID); j >= 0 {
				out.CurrentSlots[j] = out.CurrentSlots[j].withStatus(StatusInvalid, actorID, ActionInvalidated, "cascaded from rejected proposal", now)
			}
		}
	}

	// Demote invalidated authoritative entries into the proposal history so
	// the audit record survives, then keep only the still-active schedule.
	// A record already tracked there keeps its own trail and gets the
	// invalidation appended; overwriting it with the schedule copy would
	// rewrite earlier entries.
	remaining := make([]Slot, 0, len(out.CurrentSlots))
	for _, cur := range out.CurrentSlots {
		if cur.Status == StatusActive {
			remaining = append(remaining, cur)
			continue
		}
		if j := indexByID(out.ProposedSlots, cur.ID); j >= 0 {
			if out.ProposedSlots[j].Status == StatusActive {
				out.ProposedSlots[j] = out.ProposedSlots[j].withStatus(StatusInvalid, actorID, ActionInvalidated, "cascaded from rejected proposal", now)
			}
		} else {
			out.ProposedSlots = append(out.ProposedSlots, cur)
		}
	}

	if len(remaining) == 0 {
		out.CurrentSlots = []Slot{}
		if out.State != StateCancelled {
			out.recordStateChange(StateCancelled, actorID, "no valid slots remain after rejection", now)
		}
	} else {
		out.CurrentSlots = remaining
		if out.State != StateValidated {
			out.recordStateChange(StateValidated, actorID, "surviving slots accepted as schedule", now)
		}
	}
	if len(out.PendingSlots()) == 0 {
		out.ValidationState = NoPending
	}

	return RejectResult{
		Session:        out,
		RejectedCount:  len(targets),
		RemainingSlots: len(remaining),
	}, nil
}
