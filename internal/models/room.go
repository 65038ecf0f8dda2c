package models

import "time"

// Room is a laboratory room available for sessions.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Building  *string   `db:"building" json:"building,omitempty"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Features  *string   `db:"features" json:"features,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
