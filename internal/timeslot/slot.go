package timeslot

import (
	"time"

	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

// SlotStatus is the lifecycle flag of a single time slot.
type SlotStatus string

const (
	StatusActive  SlotStatus = "active"
	StatusInvalid SlotStatus = "invalid"
	StatusDeleted SlotStatus = "deleted"
)

// AuditAction labels an entry in a slot's modification trail.
type AuditAction string

const (
	ActionCreated     AuditAction = "created"
	ActionModified    AuditAction = "modified"
	ActionInvalidated AuditAction = "invalidated"
	ActionDeleted     AuditAction = "deleted"
	ActionApproved    AuditAction = "approved"
	ActionRejected    AuditAction = "rejected"
)

// AuditEntry is one record in a slot's append-only modification trail.
type AuditEntry struct {
	UserID string      `json:"userId"`
	Date   time.Time   `json:"date"`
	Action AuditAction `json:"action"`
	Note   string      `json:"note,omitempty"`
}

// Slot is one proposed or authoritative calendar time slot. Slots are treated
// as values: every mutation returns a fresh copy with one more audit entry,
// the input is never touched.
type Slot struct {
	ID        string     `json:"id"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	Status    SlotStatus `json:"status"`
	// ReferentCurrentID points at the authoritative slot this proposal would
	// replace. Empty means the proposal has no prior counterpart.
	ReferentCurrentID string       `json:"referentCurrentId,omitempty"`
	CreatedBy         string       `json:"createdBy"`
	ModifiedBy        []AuditEntry `json:"modifiedBy"`
}

// Validate checks the structural invariants of a single slot.
func Validate(slot Slot) error {
	if !slot.StartDate.Before(slot.EndDate) {
		return appErrors.Clone(appErrors.ErrInvalidSlot, "slot start date must be before end date")
	}
	switch slot.Status {
	case StatusActive, StatusInvalid, StatusDeleted:
	default:
		return appErrors.Clone(appErrors.ErrInvalidSlot, "unknown slot status")
	}
	return nil
}

// clone returns a deep copy so audit trails never share backing arrays.
func (s Slot) clone() Slot {
	out := s
	out.ModifiedBy = make([]AuditEntry, len(s.ModifiedBy), len(s.ModifiedBy)+1)
	copy(out.ModifiedBy, s.ModifiedBy)
	return out
}

// withAudit returns a copy of the slot with one appended audit entry.
func (s Slot) withAudit(userID string, action AuditAction, note string, at time.Time) Slot {
	out := s.clone()
	out.ModifiedBy = append(out.ModifiedBy, AuditEntry{
		UserID: userID,
		Date:   at,
		Action: action,
		Note:   note,
	})
	return out
}

// withStatus returns a copy with the status flipped and an audit entry appended.
func (s Slot) withStatus(status SlotStatus, userID string, action AuditAction, note string, at time.Time) Slot {
	out := s.withAudit(userID, action, note, at)
	out.Status = status
	return out
}
