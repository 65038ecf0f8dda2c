package models

import "time"

// NotificationKind labels what a notification is about.
type NotificationKind string

const (
	NotifySessionProposed  NotificationKind = "SESSION_PROPOSED"
	NotifySessionValidated NotificationKind = "SESSION_VALIDATED"
	NotifySessionCancelled NotificationKind = "SESSION_CANCELLED"
	NotifySessionMoved     NotificationKind = "SESSION_MOVED"
	NotifySessionModified  NotificationKind = "SESSION_MODIFIED"
	NotifySlotsApproved    NotificationKind = "SLOTS_APPROVED"
	NotifySlotsRejected    NotificationKind = "SLOTS_REJECTED"
)

// Notification is a persisted user notification. Delivery to transports
// (redis pub/sub today) happens asynchronously after the row is written.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	SessionID *string          `db:"session_id" json:"session_id,omitempty"`
	Payload   []byte           `db:"payload" json:"payload,omitempty"`
	ReadAt    *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
