package models

import "time"

// EquipmentStatus tracks the operational state of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentAvailable   EquipmentStatus = "AVAILABLE"
	EquipmentInUse       EquipmentStatus = "IN_USE"
	EquipmentMaintenance EquipmentStatus = "MAINTENANCE"
	EquipmentRetired     EquipmentStatus = "RETIRED"
)

// Equipment is a lab instrument or apparatus tracked in inventory.
type Equipment struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	SerialNumber *string         `db:"serial_number" json:"serial_number,omitempty"`
	RoomID       *string         `db:"room_id" json:"room_id,omitempty"`
	Status       EquipmentStatus `db:"status" json:"status"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// EquipmentFilter narrows down inventory listing queries.
type EquipmentFilter struct {
	Status   EquipmentStatus
	RoomID   string
	Search   string
	Page     int
	PageSize int
}
