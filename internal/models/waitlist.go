package models

import "time"

// WaitlistEntry is a student's place in the queue for a full class.
type WaitlistEntry struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WaitlistChange is the persistence delta produced by a waitlist operation.
type WaitlistChange struct {
	Removed *WaitlistEntry  `json:"removed,omitempty"`
	Shifted []WaitlistEntry `json:"shifted,omitempty"`
}
