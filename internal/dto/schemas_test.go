package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlotCreateSchema(t *testing.T) {
	result := TimeSlotCreateSchema.Evaluate(map[string]interface{}{
		"dayOfWeek": "1",
		"startTime": "08:00",
		"endTime":   "09:00",
		"classId":   "c1",
		"subjectId": "math",
		"teacherId": "T",
		"roomId":    "R",
	})
	require.True(t, result.OK(), result.Errors)

	var req CreateTimeSlotRequest
	require.NoError(t, result.Decode(&req))
	assert.Equal(t, 1, req.DayOfWeek)
	assert.Equal(t, "R", req.RoomID)

	result = TimeSlotCreateSchema.Evaluate(map[string]interface{}{
		"dayOfWeek": 1,
		"startTime": "09:00",
		"endTime":   "08:00",
	})
	fields := map[string]bool{}
	for _, fe := range result.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["endTime"])
	assert.True(t, fields["classId"])
	assert.True(t, fields["roomId"])
}

func TestTimeSlotUpdateSchemaOptionalFields(t *testing.T) {
	result := TimeSlotUpdateSchema.Evaluate(map[string]interface{}{"endTime": "11:00"})
	require.True(t, result.OK())
	var req UpdateTimeSlotRequest
	require.NoError(t, result.Decode(&req))
	assert.Nil(t, req.StartTime)
	require.NotNil(t, req.EndTime)
	assert.Equal(t, "11:00", *req.EndTime)

	result = TimeSlotUpdateSchema.Evaluate(map[string]interface{}{"status": "ARCHIVED"})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "oneOf", result.Errors[0].Rule)
}

func TestTimeSlotListSchemaDefaultsAndBounds(t *testing.T) {
	result := TimeSlotListSchema.Evaluate(map[string]interface{}{})
	require.True(t, result.OK())
	var q ListTimeSlotsQuery
	require.NoError(t, result.Decode(&q))
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 100, q.PageSize)
	assert.Nil(t, q.DayOfWeek)

	result = TimeSlotListSchema.Evaluate(map[string]interface{}{"pageSize": "1001"})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "max", result.Errors[0].Rule)
}

func TestAvailableRoomsSchemaOptionalCapacity(t *testing.T) {
	result := AvailableRoomsSchema.Evaluate(map[string]interface{}{"dayOfWeek": "1", "startTime": "08:00", "endTime": "09:00", "classId": "c1"})
	require.True(t, result.OK())
	var q AvailableRoomsQuery
	require.NoError(t, result.Decode(&q))
	assert.Nil(t, q.MinimumCapacity)
	assert.Equal(t, "c1", q.ClassID)
}

func TestTimetableExportSchema(t *testing.T) {
	result := TimetableExportSchema.Evaluate(map[string]interface{}{"resource": "teacher", "id": "T"})
	require.True(t, result.OK())
	var req TimetableExportRequest
	require.NoError(t, result.Decode(&req))
	assert.Equal(t, ExportFormatCSV, req.Format)
	assert.Equal(t, "TEACHER", string(req.ResourceType()))

	result = TimetableExportSchema.Evaluate(map[string]interface{}{"resource": "student", "id": "x", "format": "xlsx"})
	assert.Len(t, result.Errors, 2)
}
