package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

func day(h int) time.Time {
	return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC)
}

func testSlot(id, referent string, status SlotStatus) Slot {
	return Slot{
		ID:                id,
		StartDate:         day(9),
		EndDate:           day(11),
		Status:            status,
		ReferentCurrentID: referent,
		CreatedBy:         "owner-1",
		ModifiedBy: []AuditEntry{{
			UserID: "owner-1",
			Date:   day(8),
			Action: ActionCreated,
		}},
	}
}

func testSession(proposed, current []Slot) Session {
	if proposed == nil {
		proposed = []Slot{}
	}
	if current == nil {
		current = []Slot{}
	}
	return Session{
		ID:              "session-1",
		CreatedBy:       "owner-1",
		State:           StatePending,
		ValidationState: OperatorPending,
		ProposedSlots:   proposed,
		CurrentSlots:    current,
	}
}

func TestApproveNewSlotBecomesAuthoritative(t *testing.T) {
	s := testSession([]Slot{testSlot("s1", "", StatusActive)}, nil)

	res, err := Approve(s, "op-1", AllPending())
	require.NoError(t, err)
	require.Equal(t, 1, res.ApprovedCount)
	require.Equal(t, 0, res.RemainingPending)

	out := res.Session
	require.Len(t, out.CurrentSlots, 1)
	require.Equal(t, "s1", out.CurrentSlots[0].ID)
	require.Equal(t, StateValidated, out.State)
	require.Equal(t, NoPending, out.ValidationState)

	last := out.CurrentSlots[0].ModifiedBy[len(out.CurrentSlots[0].ModifiedBy)-1]
	require.Equal(t, ActionCreated, last.Action)
	require.Equal(t, "op-1", last.UserID)
}

func TestApproveReplacesReferencedCurrentSlot(t *testing.T) {
	a := testSlot("a", "", StatusActive)
	s2 := testSlot("s2", "a", StatusActive)
	s := testSession([]Slot{a, s2}, []Slot{a})

	res, err := Approve(s, "op-1", BySlotID("s2"))
	require.NoError(t, err)

	out := res.Session
	require.Len(t, out.CurrentSlots, 1)
	require.Equal(t, "s2", out.CurrentSlots[0].ID)
	require.Equal(t, ActionModified, out.CurrentSlots[0].ModifiedBy[len(out.CurrentSlots[0].ModifiedBy)-1].Action)
	require.Equal(t, StateValidated, out.State)

	// The superseded entry stays in the history but no longer reads pending.
	superseded := out.ProposedSlots[indexByID(out.ProposedSlots, "a")]
	require.Equal(t, StatusInvalid, superseded.Status)
	require.Empty(t, out.PendingSlots())
}

func TestApproveAppendsWhenReferentAlreadyGone(t *testing.T) {
	s2 := testSlot("s2", "vanished", StatusActive)
	s := testSession([]Slot{s2}, nil)

	res, err := Approve(s, "op-1", AllPending())
	require.NoError(t, err)

	out := res.Session
	require.Len(t, out.CurrentSlots, 1)
	require.Equal(t, "s2", out.CurrentSlots[0].ID)
	require.Equal(t, ActionCreated, out.CurrentSlots[0].ModifiedBy[len(out.CurrentSlots[0].ModifiedBy)-1].Action)
}

func TestApprovePartialDoesNotAdvanceState(t *testing.T) {
	s := testSession([]Slot{
		testSlot("s1", "", StatusActive),
		testSlot("s2", "", StatusActive),
	}, nil)

	res, err := Approve(s, "op-1", BySlotID("s1"))
	require.NoError(t, err)
	require.Equal(t, 1, res.ApprovedCount)
	require.Equal(t, 1, res.RemainingPending)
	require.Equal(t, StatePending, res.Session.State)
	require.Equal(t, OperatorPending, res.Session.ValidationState)
}

func TestApproveNothingPendingIsRejected(t *testing.T) {
	a := testSlot("a", "", StatusActive)
	s := testSession([]Slot{a}, []Slot{a})

	_, err := Approve(s, "op-1", AllPending())
	require.Equal(t, appErrors.ErrNoPendingSlot.Code, appErrors.FromError(err).Code)
	require.Equal(t, StatePending, s.State)
	require.Len(t, s.CurrentSlots, 1)
	require.Equal(t, StatusActive, s.ProposedSlots[0].Status)
}

func TestApproveMissingCollections(t *testing.T) {
	s := Session{ID: "broken"}
	_, err := Approve(s, "op-1", AllPending())
	require.Equal(t, appErrors.ErrAggregateNotFound.Code, appErrors.FromError(err).Code)
}

func TestRejectCascadesAndCancelsWhenDrained(t *testing.T) {
	// Scenario: currentSlots = [A], a new proposal S2 references A. Rejecting
	// S2 invalidates both and cancels the event.
	a := testSlot("a", "", StatusActive)
	s2 := testSlot("s2", "a", StatusActive)
	s := testSession([]Slot{a, s2}, []Slot{a})

	res, err := Reject(s, "owner-1", BySlotID("s2"))
	require.NoError(t, err)
	require.Equal(t, 1, res.RejectedCount)
	require.Equal(t, 0, res.RemainingSlots)

	out := res.Session
	require.Empty(t, out.CurrentSlots)
	require.Equal(t, StateCancelled, out.State)

	rejected := out.ProposedSlots[indexByID(out.ProposedSlots, "s2")]
	require.Equal(t, StatusInvalid, rejected.Status)
	cascaded := out.ProposedSlots[indexByID(out.ProposedSlots, "a")]
	require.Equal(t, StatusInvalid, cascaded.Status)
}

func TestRejectKeepsSurvivorsAndValidates(t *testing.T) {
	// Scenario: currentSlots = [A, B], rejecting the proposal that references
	// A leaves B in force and the event VALIDATED.
	a := testSlot("a", "", StatusActive)
	b := testSlot("b", "", StatusActive)
	s3 := testSlot("s3", "a", StatusActive)
	s := testSession([]Slot{a, b, s3}, []Slot{a, b})

	res, err := Reject(s, "owner-1", BySlotID("s3"))
	require.NoError(t, err)
	require.Equal(t, 1, res.RemainingSlots)

	out := res.Session
	require.Len(t, out.CurrentSlots, 1)
	require.Equal(t, "b", out.CurrentSlots[0].ID)
	require.Equal(t, StateValidated, out.State)
	require.Equal(t, StatusInvalid, out.ProposedSlots[indexByID(out.ProposedSlots, "a")].Status)
}

func TestRejectWithoutReferentOnlyFlipsProposal(t *testing.T) {
	a := testSlot("a", "", StatusActive)
	s2 := testSlot("s2", "", StatusActive)
	s := testSession([]Slot{a, s2}, []Slot{a})

	res, err := Reject(s, "owner-1", BySlotID("s2"))
	require.NoError(t, err)

	out := res.Session
	require.Len(t, out.CurrentSlots, 1)
	require.Equal(t, "a", out.CurrentSlots[0].ID)
	require.Equal(t, StatusActive, out.CurrentSlots[0].Status)
	require.Equal(t, StatusInvalid, out.ProposedSlots[indexByID(out.ProposedSlots, "s2")].Status)
}

func TestRejectDemotesUntrackedCurrentEntryIntoHistory(t *testing.T) {
	orphan := testSlot("orphan", "", StatusActive)
	s2 := testSlot("s2", "orphan", StatusActive)
	s := testSession([]Slot{s2}, []Slot{orphan})

	res, err := Reject(s, "owner-1", AllPending())
	require.NoError(t, err)

	out := res.Session
	require.Empty(t, out.CurrentSlots)
	require.GreaterOrEqual(t, indexByID(out.ProposedSlots, "orphan"), 0)
	require.Equal(t, StatusInvalid, out.ProposedSlots[indexByID(out.ProposedSlots, "orphan")].Status)
}

func TestRejectKeepsTrailOfPreviouslyApprovedReferent(t *testing.T) {
	a := testSlot("a", "", StatusActive)
	s := testSession([]Slot{a}, nil)

	approved, err := Approve(s, "op-1", AllPending())
	require.NoError(t, err)

	// Proposal record a now carries [created modified]; a new proposal
	// referencing it gets rejected, cascading the invalidation back.
	next := approved.Session
	next.ProposedSlots = append(next.ProposedSlots, testSlot("s2", "a", StatusActive))

	res, err := Reject(next, "owner-1", BySlotID("s2"))
	require.NoError(t, err)

	out := res.Session
	require.Empty(t, out.CurrentSlots)
	require.Equal(t, StateCancelled, out.State)

	got := out.ProposedSlots[indexByID(out.ProposedSlots, "a")]
	require.Equal(t, StatusInvalid, got.Status)
	require.Len(t, got.ModifiedBy, 3)
	require.Equal(t, ActionCreated, got.ModifiedBy[0].Action)
	require.Equal(t, ActionModified, got.ModifiedBy[1].Action)
	require.Equal(t, ActionInvalidated, got.ModifiedBy[2].Action)
}

func TestRejectNothingPending(t *testing.T) {
	s := testSession(nil, nil)
	_, err := Reject(s, "owner-1", AllPending())
	require.Equal(t, appErrors.ErrNoPendingSlot.Code, appErrors.FromError(err).Code)
}

func TestAuditTrailIsAppendOnly(t *testing.T) {
	slot := testSlot("s1", "", StatusActive)
	s := testSession([]Slot{slot}, nil)
	beforeLen := len(slot.ModifiedBy)
	beforeFirst := slot.ModifiedBy[0]

	res, err := Approve(s, "op-1", AllPending())
	require.NoError(t, err)

	got := res.Session.ProposedSlots[0]
	require.Greater(t, len(got.ModifiedBy), beforeLen)
	require.Equal(t, beforeFirst, got.ModifiedBy[0])

	// The input aggregate is never mutated.
	require.Len(t, s.ProposedSlots[0].ModifiedBy, beforeLen)
}

func TestNoOrphanAuthoritativeSlots(t *testing.T) {
	a := testSlot("a", "", StatusActive)
	s2 := testSlot("s2", "a", StatusActive)
	s3 := testSlot("s3", "", StatusActive)
	s := testSession([]Slot{a, s2, s3}, []Slot{a})

	res, err := Approve(s, "op-1", AllPending())
	require.NoError(t, err)

	for _, cur := range res.Session.CurrentSlots {
		require.Equal(t, StatusActive, cur.Status)
		require.GreaterOrEqual(t, indexByID(res.Session.ProposedSlots, cur.ID), 0,
			"authoritative slot %s must be traceable in the proposal history", cur.ID)
	}
}
