package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/novalab-io/labms-api/internal/timeslot"
)

// SlotList stores a slot collection as a JSONB column. Slots are parsed on
// read and validated on write instead of travelling as untyped maps.
type SlotList []timeslot.Slot

// Value implements driver.Valuer.
func (l SlotList) Value() (driver.Value, error) {
	if l == nil {
		l = SlotList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *SlotList) Scan(src interface{}) error {
	return scanJSON(src, l, "slot list")
}

// StateChangeList stores the event-level transition log as a JSONB column.
type StateChangeList []timeslot.StateChange

// Value implements driver.Valuer.
func (l StateChangeList) Value() (driver.Value, error) {
	if l == nil {
		l = StateChangeList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StateChangeList) Scan(src interface{}) error {
	return scanJSON(src, l, "state change list")
}

func scanJSON(src, dest interface{}, what string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported %s column type %T", what, src)
	}
}

// LabSession is a scheduled lab session stored in the lab_sessions table.
// ProposedSlots is the append-mostly proposal history, CurrentSlots the
// authoritative schedule; both are only rewritten through the timeslot
// engine.
type LabSession struct {
	ID              string                   `db:"id" json:"id"`
	Title           string                   `db:"title" json:"title"`
	Description     string                   `db:"description" json:"description"`
	RoomID          *string                  `db:"room_id" json:"room_id,omitempty"`
	CreatedBy       string                   `db:"created_by" json:"created_by"`
	State           timeslot.EventState      `db:"state" json:"state"`
	ValidationState timeslot.ValidationState `db:"validation_state" json:"validation_state"`
	ProposedSlots   SlotList                 `db:"proposed_slots" json:"proposed_slots"`
	CurrentSlots    SlotList                 `db:"current_slots" json:"current_slots"`
	StateChanges    StateChangeList          `db:"state_changes" json:"state_changes"`
	Version         int                      `db:"version" json:"version"`
	CreatedAt       time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time                `db:"updated_at" json:"updated_at"`
}

// Aggregate projects the persistence row into the engine's aggregate view.
func (s *LabSession) Aggregate() timeslot.Session {
	agg := timeslot.Session{
		ID:              s.ID,
		CreatedBy:       s.CreatedBy,
		State:           s.State,
		ValidationState: s.ValidationState,
		ProposedSlots:   append([]timeslot.Slot(nil), s.ProposedSlots...),
		CurrentSlots:    append([]timeslot.Slot(nil), s.CurrentSlots...),
		StateChanges:    append([]timeslot.StateChange(nil), s.StateChanges...),
	}
	if agg.ProposedSlots == nil {
		agg.ProposedSlots = []timeslot.Slot{}
	}
	if agg.CurrentSlots == nil {
		agg.CurrentSlots = []timeslot.Slot{}
	}
	return agg
}

// ApplyAggregate folds an engine result back onto the row.
func (s *LabSession) ApplyAggregate(agg timeslot.Session) {
	s.State = agg.State
	s.ValidationState = agg.ValidationState
	s.ProposedSlots = SlotList(agg.ProposedSlots)
	s.CurrentSlots = SlotList(agg.CurrentSlots)
	s.StateChanges = StateChangeList(agg.StateChanges)
}

// SessionFilter narrows down session listing queries.
type SessionFilter struct {
	State           timeslot.EventState
	ValidationState timeslot.ValidationState
	CreatedBy       string
	RoomID          string
	From            *time.Time
	To              *time.Time
	Page            int
	PageSize        int
}
