package timeslot

import (
	"time"

	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

// EventState is the coarse lifecycle phase of a lab session.
type EventState string

const (
	StatePending    EventState = "PENDING"
	StateValidated  EventState = "VALIDATED"
	StateCancelled  EventState = "CANCELLED"
	StateMoved      EventState = "MOVED"
	StateInProgress EventState = "IN_PROGRESS"
)

// ValidationState tracks whose validation is outstanding.
type ValidationState string

const (
	NoPending       ValidationState = "noPending"
	OwnerPending    ValidationState = "ownerPending"
	OperatorPending ValidationState = "operatorPending"
)

// StateChange records one event-level transition for observability.
type StateChange struct {
	From   EventState `json:"from"`
	To     EventState `json:"to"`
	Date   time.Time  `json:"date"`
	UserID string     `json:"userId"`
	Reason string     `json:"reason"`
}

// Session is the slot-validation view of a lab session aggregate.
// ProposedSlots is the full historical log of every slot ever proposed;
// CurrentSlots is the authoritative schedule and is only ever rewritten by
// the reconciliation functions in this package.
type Session struct {
	ID              string          `json:"id"`
	CreatedBy       string          `json:"createdBy"`
	State           EventState      `json:"state"`
	ValidationState ValidationState `json:"validationState"`
	ProposedSlots   []Slot          `json:"proposedSlots"`
	CurrentSlots    []Slot          `json:"currentSlots"`
	StateChanges    []StateChange   `json:"stateChanges"`
}

// Actor identifies who is acting on a session. Role resolution happens in the
// embedding layer; the engine only consumes the booleans.
type Actor struct {
	ID         string
	IsOwner    bool
	IsOperator bool
}

// Selector picks the pending proposed slots an operation applies to.
type Selector struct {
	slotID string
}

// AllPending selects every pending proposed slot.
func AllPending() Selector {
	return Selector{}
}

// BySlotID selects the single pending proposed slot with the given id.
func BySlotID(id string) Selector {
	return Selector{slotID: id}
}

func (sel Selector) matches(slot Slot) bool {
	return sel.slotID == "" || sel.slotID == slot.ID
}

// Clone returns a deep copy of the aggregate. Engine operations work on a
// clone so the caller's snapshot stays untouched whenever an error is
// returned.
func (s Session) Clone() Session {
	out := s
	out.ProposedSlots = cloneSlots(s.ProposedSlots)
	out.CurrentSlots = cloneSlots(s.CurrentSlots)
	out.StateChanges = make([]StateChange, len(s.StateChanges))
	copy(out.StateChanges, s.StateChanges)
	return out
}

func cloneSlots(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	for i, slot := range slots {
		out[i] = slot.clone()
	}
	return out
}

// checkCollections guards against a caller handing over a half-loaded
// aggregate.
func (s Session) checkCollections() error {
	if s.ProposedSlots == nil || s.CurrentSlots == nil {
		return appErrors.ErrAggregateNotFound
	}
	return nil
}

// pending reports whether a proposed slot still awaits a decision: it must be
// active and must not already sit in the authoritative schedule.
func (s Session) pending(slot Slot) bool {
	if slot.Status != StatusActive {
		return false
	}
	return indexByID(s.CurrentSlots, slot.ID) < 0
}

// PendingSlots returns the proposed slots still awaiting validation.
func (s Session) PendingSlots() []Slot {
	var out []Slot
	for _, slot := range s.ProposedSlots {
		if s.pending(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// recordStateChange appends a transition record and applies the new state.
func (s *Session) recordStateChange(to EventState, userID, reason string, at time.Time) {
	s.StateChanges = append(s.StateChanges, StateChange{
		From:   s.State,
		To:     to,
		Date:   at,
		UserID: userID,
		Reason: reason,
	})
	s.State = to
}

func indexByID(slots []Slot, id string) int {
	for i, slot := range slots {
		if slot.ID == id {
			return i
		}
	}
	return -1
}
