package models

import "time"

// Subject represents an academic subject.
type Subject struct {
	ID            string       `db:"id" json:"id"`
	Code          string       `db:"code" json:"code"`
	Name          string       `db:"name" json:"name"`
	IsMandatory   bool         `db:"is_mandatory" json:"is_mandatory"`
	IsActive      bool         `db:"is_active" json:"is_active"`
	Prerequisites []SubjectRef `db:"-" json:"prerequisites"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Ref returns the lightweight reference form of the subject.
func (s Subject) Ref() SubjectRef {
	return SubjectRef{ID: s.ID, Code: s.Code, Name: s.Name}
}

// SubjectRef is a lightweight pointer to a subject used in prerequisite listings.
type SubjectRef struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// PrerequisiteEdge states that PrerequisiteID must be satisfied before SubjectID.
type PrerequisiteEdge struct {
	SubjectID      string `db:"subject_id" json:"subject_id"`
	PrerequisiteID string `db:"prerequisite_id" json:"prerequisite_id"`
	Position       int    `db:"position" json:"position"`
}

// PrerequisiteNode is one level of a rendered prerequisite tree.
type PrerequisiteNode struct {
	SubjectID     string             `json:"subjectId"`
	Code          string             `json:"code,omitempty"`
	Name          string             `json:"name,omitempty"`
	Prerequisites []PrerequisiteNode `json:"prerequisites"`
	Truncated     bool               `json:"truncated,omitempty"`
	Cycle         bool               `json:"cycle,omitempty"`
}

// EligibilityResult reports whether a student may enroll into a subject.
type EligibilityResult struct {
	Eligible             bool         `json:"eligible"`
	MissingPrerequisites []SubjectRef `json:"missingPrerequisites"`
	Message              string       `json:"message"`
	AdminOverride        bool         `json:"adminOverride"`
}
