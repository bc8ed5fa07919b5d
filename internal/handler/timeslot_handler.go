package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timeSlotService interface {
	List(ctx context.Context, query dto.ListTimeSlotsQuery) ([]models.TimeSlot, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.TimeSlot, error)
	Check(ctx context.Context, req dto.CreateTimeSlotRequest, excludeID string) (*engine.ConflictReport, error)
	Create(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error)
	Update(ctx context.Context, id string, req dto.UpdateTimeSlotRequest) (*models.TimeSlot, error)
	Cancel(ctx context.Context, id string) (*models.TimeSlot, error)
}

// TimeSlotHandler manages weekly time slot endpoints.
type TimeSlotHandler struct {
	service timeSlotService
}

// NewTimeSlotHandler constructs handler.
func NewTimeSlotHandler(svc timeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{service: svc}
}

// List godoc
// @Summary List time slots
// @Tags TimeSlots
// @Produce json
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param roomId query string false "Filter by room"
// @Param dayOfWeek query int false "Filter by weekday (0 = Sunday)"
// @Param status query string false "SCHEDULED, CANCELLED or COMPLETED"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size (max 1000)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /time-slots [get]
func (h *TimeSlotHandler) List(c *gin.Context) {
	var query dto.ListTimeSlotsQuery
	if err := bindQuery(c, dto.TimeSlotListSchema, &query, nil); err != nil {
		response.Error(c, err)
		return
	}
	slots, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// Get godoc
// @Summary Get time slot
// @Tags TimeSlots
// @Produce json
// @Param id path string true "Time slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /time-slots/{id} [get]
func (h *TimeSlotHandler) Get(c *gin.Context) {
	slot, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Create godoc
// @Summary Create time slot
// @Description Rejects the slot with 409 and every colliding slot when a teacher, room or class is double booked.
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimeSlotRequest true "Time slot payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /time-slots [post]
func (h *TimeSlotHandler) Create(c *gin.Context) {
	var req dto.CreateTimeSlotRequest
	if err := bindBody(c, dto.TimeSlotCreateSchema, &req); err != nil {
		response.Error(c, err)
		return
	}
	slot, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Check godoc
// @Summary Dry-run conflict check
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Param excludeId query string false "Slot to ignore, typically the one being edited"
// @Param payload body dto.CreateTimeSlotRequest true "Candidate slot"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /time-slots/check [post]
func (h *TimeSlotHandler) Check(c *gin.Context) {
	var req dto.CreateTimeSlotRequest
	if err := bindBody(c, dto.TimeSlotCreateSchema, &req); err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.service.Check(c.Request.Context(), req, c.Query("excludeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Update godoc
// @Summary Update time slot
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Param id path string true "Time slot ID"
// @Param payload body dto.UpdateTimeSlotRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /time-slots/{id} [patch]
func (h *TimeSlotHandler) Update(c *gin.Context) {
	var req dto.UpdateTimeSlotRequest
	if err := bindBody(c, dto.TimeSlotUpdateSchema, &req); err != nil {
		response.Error(c, err)
		return
	}
	slot, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Cancel godoc
// @Summary Cancel time slot
// @Tags TimeSlots
// @Produce json
// @Param id path string true "Time slot ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /time-slots/{id}/cancel [post]
func (h *TimeSlotHandler) Cancel(c *gin.Context) {
	slot, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
