package dto

import (
	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/validation"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func dayField(required bool) validation.Field {
	return validation.Field{Name: "dayOfWeek", Kind: validation.KindInt, Required: required, Min: validation.Int(0), Max: validation.Int(6)}
}

func clockField(name string, required bool) validation.Field {
	return validation.Field{Name: name, Kind: validation.KindString, Required: required, Pattern: engine.ClockPattern, PatternMessage: "must be a zero-padded HH:MM time"}
}

func idField(name string, required bool) validation.Field {
	return validation.Field{Name: name, Kind: validation.KindString, Required: required}
}

var timeOrder = validation.Order{Before: "startTime", After: "endTime", Message: "must be after startTime"}

// TimeSlotCreateSchema validates new slot payloads.
var TimeSlotCreateSchema = validation.Schema{
	Fields: []validation.Field{
		dayField(true),
		clockField("startTime", true),
		clockField("endTime", true),
		idField("classId", true),
		idField("subjectId", true),
		idField("teacherId", true),
		idField("roomId", true),
	},
	Orders: []validation.Order{timeOrder},
}

// TimeSlotUpdateSchema validates partial updates; ordering only applies when both times are sent.
var TimeSlotUpdateSchema = validation.Schema{
	Fields: []validation.Field{
		dayField(false),
		clockField("startTime", false),
		clockField("endTime", false),
		idField("classId", false),
		idField("subjectId", false),
		idField("teacherId", false),
		idField("roomId", false),
		{Name: "status", Kind: validation.KindString, OneOf: models.TimeSlotStatuses},
	},
	Orders: []validation.Order{timeOrder},
}

// TimeSlotListSchema validates list query parameters.
var TimeSlotListSchema = validation.Schema{
	Fields: []validation.Field{
		{Name: "page", Kind: validation.KindInt, Min: validation.Int(1), Default: 1},
		{Name: "pageSize", Kind: validation.KindInt, Min: validation.Int(1), Max: validation.Int(maxPageSize), Default: defaultPageSize},
		idField("classId", false),
		idField("teacherId", false),
		idField("roomId", false),
		dayField(false),
		{Name: "status", Kind: validation.KindString, OneOf: models.TimeSlotStatuses},
	},
}

// CreateTimeSlotRequest is the decoded create payload.
type CreateTimeSlotRequest struct {
	DayOfWeek int    `mapstructure:"dayOfWeek" json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string `mapstructure:"startTime" json:"startTime" validate:"required"`
	EndTime   string `mapstructure:"endTime" json:"endTime" validate:"required"`
	ClassID   string `mapstructure:"classId" json:"classId" validate:"required"`
	SubjectID string `mapstructure:"subjectId" json:"subjectId" validate:"required"`
	TeacherID string `mapstructure:"teacherId" json:"teacherId" validate:"required"`
	RoomID    string `mapstructure:"roomId" json:"roomId" validate:"required"`
}

// UpdateTimeSlotRequest is the decoded partial update payload.
type UpdateTimeSlotRequest struct {
	DayOfWeek *int    `mapstructure:"dayOfWeek" json:"dayOfWeek,omitempty" validate:"omitempty,min=0,max=6"`
	StartTime *string `mapstructure:"startTime" json:"startTime,omitempty"`
	EndTime   *string `mapstructure:"endTime" json:"endTime,omitempty"`
	ClassID   *string `mapstructure:"classId" json:"classId,omitempty"`
	SubjectID *string `mapstructure:"subjectId" json:"subjectId,omitempty"`
	TeacherID *string `mapstructure:"teacherId" json:"teacherId,omitempty"`
	RoomID    *string `mapstructure:"roomId" json:"roomId,omitempty"`
	Status    *string `mapstructure:"status" json:"status,omitempty"`
}

// ListTimeSlotsQuery is the decoded list query.
type ListTimeSlotsQuery struct {
	Page      int    `mapstructure:"page"`
	PageSize  int    `mapstructure:"pageSize"`
	ClassID   string `mapstructure:"classId"`
	TeacherID string `mapstructure:"teacherId"`
	RoomID    string `mapstructure:"roomId"`
	DayOfWeek *int   `mapstructure:"dayOfWeek"`
	Status    string `mapstructure:"status"`
}

// Filter converts the query into a repository filter.
func (q ListTimeSlotsQuery) Filter() models.TimeSlotFilter {
	return models.TimeSlotFilter{
		ClassID:   q.ClassID,
		TeacherID: q.TeacherID,
		RoomID:    q.RoomID,
		DayOfWeek: q.DayOfWeek,
		Status:    models.TimeSlotStatus(q.Status),
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
}
