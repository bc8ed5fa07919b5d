package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type availabilityService interface {
	AvailableTeachers(ctx context.Context, query dto.AvailableTeachersQuery) ([]models.Teacher, error)
	AvailableRooms(ctx context.Context, query dto.AvailableRoomsQuery) ([]models.Room, error)
}

// AvailabilityHandler answers free teacher and room queries.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Teachers godoc
// @Summary Available teachers
// @Tags Availability
// @Produce json
// @Param dayOfWeek query int true "Weekday (0 = Sunday)"
// @Param startTime query string true "HH:MM"
// @Param endTime query string true "HH:MM"
// @Param subjectId query string true "Subject the teacher must be qualified for"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/teachers [get]
func (h *AvailabilityHandler) Teachers(c *gin.Context) {
	var query dto.AvailableTeachersQuery
	if err := bindQuery(c, dto.AvailableTeachersSchema, &query, nil); err != nil {
		response.Error(c, err)
		return
	}
	teachers, err := h.service.AvailableTeachers(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Rooms godoc
// @Summary Available rooms
// @Tags Availability
// @Produce json
// @Param dayOfWeek query int true "Weekday (0 = Sunday)"
// @Param startTime query string true "HH:MM"
// @Param endTime query string true "HH:MM"
// @Param classId query string false "Class whose capacity sets the minimum"
// @Param minimumCapacity query int false "Explicit minimum capacity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/rooms [get]
func (h *AvailabilityHandler) Rooms(c *gin.Context) {
	var query dto.AvailableRoomsQuery
	if err := bindQuery(c, dto.AvailableRoomsSchema, &query, nil); err != nil {
		response.Error(c, err)
		return
	}
	rooms, err := h.service.AvailableRooms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}
