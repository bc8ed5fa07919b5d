package models

import "time"

// Class represents a teaching group with a seat capacity.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SubjectID *string   `db:"subject_id" json:"subject_id,omitempty"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassOccupancy combines a class with its derived enrollment count.
type ClassOccupancy struct {
	Class
	Enrolled int `db:"enrolled" json:"enrolled"`
}

// IsFull reports whether no seats remain.
func (c ClassOccupancy) IsFull() bool {
	return c.Enrolled >= c.Capacity
}
