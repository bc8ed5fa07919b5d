package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// Enrollment captures a student's seat in a class for a subject.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	SubjectID string           `db:"subject_id" json:"subject_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	JoinedAt  time.Time        `db:"joined_at" json:"joined_at"`
	LeftAt    *time.Time       `db:"left_at" json:"left_at,omitempty"`
}

// SatisfiesPrerequisite reports whether the enrollment counts towards prerequisite checks.
func (e Enrollment) SatisfiesPrerequisite() bool {
	return e.Status == EnrollmentStatusActive || e.Status == EnrollmentStatusCompleted
}

// EnrollmentOutcome is the result of an enrollment request: either a seat or a waitlist position.
type EnrollmentOutcome struct {
	Status      string             `json:"status"`
	Enrollment  *Enrollment        `json:"enrollment,omitempty"`
	Waitlist    *WaitlistEntry     `json:"waitlist,omitempty"`
	Eligibility *EligibilityResult `json:"eligibility"`
}

// Enrollment outcome statuses.
const (
	EnrollmentOutcomeEnrolled   = "ENROLLED"
	EnrollmentOutcomeWaitlisted = "WAITLISTED"
)
