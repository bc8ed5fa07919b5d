package dto

import "github.com/noah-isme/sma-timetable/internal/validation"

// EnrollSchema validates enrollment bodies.
var EnrollSchema = validation.Schema{
	Fields: []validation.Field{
		idField("studentId", true),
		idField("classId", true),
		idField("subjectId", false),
		{Name: "adminOverride", Kind: validation.KindBool, Default: false},
	},
}

// WaitlistJoinSchema validates waitlist join bodies.
var WaitlistJoinSchema = validation.Schema{
	Fields: []validation.Field{idField("studentId", true)},
}

// EnrollRequest is the decoded enrollment body. SubjectID defaults to the class subject.
type EnrollRequest struct {
	StudentID     string `mapstructure:"studentId" json:"studentId" validate:"required"`
	ClassID       string `mapstructure:"classId" json:"classId" validate:"required"`
	SubjectID     string `mapstructure:"subjectId" json:"subjectId,omitempty"`
	AdminOverride bool   `mapstructure:"adminOverride" json:"adminOverride"`
}

// WaitlistJoinRequest is the decoded waitlist join body.
type WaitlistJoinRequest struct {
	StudentID string `mapstructure:"studentId" json:"studentId" validate:"required"`
}

// PromotionResponse reports the outcome of promoting the head of a waitlist.
type PromotionResponse struct {
	Promoted   bool        `json:"promoted"`
	Enrollment interface{} `json:"enrollment,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}
