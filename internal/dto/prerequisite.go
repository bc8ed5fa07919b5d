package dto

import "github.com/noah-isme/sma-timetable/internal/validation"

// AddPrerequisiteSchema validates edge creation bodies.
var AddPrerequisiteSchema = validation.Schema{
	Fields: []validation.Field{idField("prerequisiteId", true)},
}

// PrerequisiteTreeSchema validates tree queries. The upper bound is applied by the service from config.
var PrerequisiteTreeSchema = validation.Schema{
	Fields: []validation.Field{
		{Name: "maxDepth", Kind: validation.KindInt, Min: validation.Int(1)},
	},
}

// EligibilitySchema validates eligibility queries.
var EligibilitySchema = validation.Schema{
	Fields: []validation.Field{
		idField("subjectId", true),
		{Name: "adminOverride", Kind: validation.KindBool, Default: false},
	},
}

// AddPrerequisiteRequest is the decoded edge creation body.
type AddPrerequisiteRequest struct {
	PrerequisiteID string `mapstructure:"prerequisiteId" json:"prerequisiteId" validate:"required"`
}

// PrerequisiteTreeQuery is the decoded tree query.
type PrerequisiteTreeQuery struct {
	MaxDepth *int `mapstructure:"maxDepth"`
}

// EligibilityQuery is the decoded eligibility query.
type EligibilityQuery struct {
	SubjectID     string `mapstructure:"subjectId"`
	AdminOverride bool   `mapstructure:"adminOverride"`
}

// PrerequisiteClosureResponse lists every transitive prerequisite of a subject.
type PrerequisiteClosureResponse struct {
	SubjectID     string   `json:"subjectId"`
	Prerequisites []string `json:"prerequisites"`
}
