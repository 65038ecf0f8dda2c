package models

import "time"

// HazardClass is the coarse GHS hazard grouping used for storage rules.
type HazardClass string

const (
	HazardNone      HazardClass = "NONE"
	HazardFlammable HazardClass = "FLAMMABLE"
	HazardCorrosive HazardClass = "CORROSIVE"
	HazardToxic     HazardClass = "TOXIC"
	HazardOxidizer  HazardClass = "OXIDIZER"
)

// Chemical is a stocked reagent tracked in inventory.
type Chemical struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	CASNumber *string     `db:"cas_number" json:"cas_number,omitempty"`
	Quantity  float64     `db:"quantity" json:"quantity"`
	Unit      string      `db:"unit" json:"unit"`
	Hazard    HazardClass `db:"hazard" json:"hazard"`
	RoomID    *string     `db:"room_id" json:"room_id,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// ChemicalFilter narrows down chemical listing queries.
type ChemicalFilter struct {
	Hazard   HazardClass
	RoomID   string
	Search   string
	Page     int
	PageSize int
}
