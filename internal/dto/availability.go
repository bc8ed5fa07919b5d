package dto

import "github.com/noah-isme/sma-timetable/internal/validation"

// AvailableTeachersSchema validates teacher availability queries.
var AvailableTeachersSchema = validation.Schema{
	Fields: []validation.Field{
		dayField(true),
		clockField("startTime", true),
		clockField("endTime", true),
		idField("subjectId", true),
	},
	Orders: []validation.Order{timeOrder},
}

// AvailableRoomsSchema validates room availability queries.
var AvailableRoomsSchema = validation.Schema{
	Fields: []validation.Field{
		dayField(true),
		clockField("startTime", true),
		clockField("endTime", true),
		idField("classId", false),
		{Name: "minimumCapacity", Kind: validation.KindInt, Min: validation.Int(0)},
	},
	Orders: []validation.Order{timeOrder},
}

// AvailableTeachersQuery is the decoded teacher availability query.
type AvailableTeachersQuery struct {
	DayOfWeek int    `mapstructure:"dayOfWeek"`
	StartTime string `mapstructure:"startTime"`
	EndTime   string `mapstructure:"endTime"`
	SubjectID string `mapstructure:"subjectId"`
}

// AvailableRoomsQuery is the decoded room availability query.
type AvailableRoomsQuery struct {
	DayOfWeek       int    `mapstructure:"dayOfWeek"`
	StartTime       string `mapstructure:"startTime"`
	EndTime         string `mapstructure:"endTime"`
	ClassID         string `mapstructure:"classId"`
	MinimumCapacity *int   `mapstructure:"minimumCapacity"`
}
