package dto

// CreateEquipmentRequest registers a new piece of equipment.
type CreateEquipmentRequest struct {
	Name         string `json:"name" binding:"required"`
	SerialNumber string `json:"serialNumber,omitempty"`
	RoomID       string `json:"roomId,omitempty"`
	Status       string `json:"status,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// UpdateEquipmentRequest mutates an existing equipment record.
type UpdateEquipmentRequest struct {
	Name         *string `json:"name,omitempty"`
	SerialNumber *string `json:"serialNumber,omitempty"`
	RoomID       *string `json:"roomId,omitempty"`
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// EquipmentQuery mirrors supported equipment listing filters.
type EquipmentQuery struct {
	Status   string `form:"status"`
	RoomID   string `form:"roomId"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// CreateRoomRequest registers a new lab room.
type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required"`
	Building string `json:"building,omitempty"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
	Features string `json:"features,omitempty"`
}

// UpdateRoomRequest mutates an existing room.
type UpdateRoomRequest struct {
	Name     *string `json:"name,omitempty"`
	Building *string `json:"building,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
	Features *string `json:"features,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// CreateChemicalRequest registers a stocked reagent.
type CreateChemicalRequest struct {
	Name      string  `json:"name" binding:"required"`
	CASNumber string  `json:"casNumber,omitempty"`
	Quantity  float64 `json:"quantity" binding:"min=0"`
	Unit      string  `json:"unit" binding:"required"`
	Hazard    string  `json:"hazard,omitempty"`
	RoomID    string  `json:"roomId,omitempty"`
}

// UpdateChemicalRequest mutates an existing chemical record.
type UpdateChemicalRequest struct {
	Name      *string `json:"name,omitempty"`
	CASNumber *string `json:"casNumber,omitempty"`
	Unit      *string `json:"unit,omitempty"`
	Hazard    *string `json:"hazard,omitempty"`
	RoomID    *string `json:"roomId,omitempty"`
}

// AdjustStockRequest changes a chemical's stocked quantity by a delta.
type AdjustStockRequest struct {
	Delta  float64 `json:"delta" binding:"required"`
	Reason string  `json:"reason,omitempty"`
}

// ChemicalQuery mirrors supported chemical listing filters.
type ChemicalQuery struct {
	Hazard   string `form:"hazard"`
	RoomID   string `form:"roomId"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}
