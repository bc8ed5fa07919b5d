package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type waitlistService interface {
	List(ctx context.Context, classID string) ([]models.WaitlistEntry, error)
	Join(ctx context.Context, classID string, req dto.WaitlistJoinRequest) (*models.WaitlistEntry, error)
	Leave(ctx context.Context, classID, studentID string) error
	Promote(ctx context.Context, classID string) (*dto.PromotionResponse, error)
}

// WaitlistHandler manages class waitlists.
type WaitlistHandler struct {
	service waitlistService
}

// NewWaitlistHandler constructs handler.
func NewWaitlistHandler(svc waitlistService) *WaitlistHandler {
	return &WaitlistHandler{service: svc}
}

// List godoc
// @Summary List waitlist
// @Tags Waitlist
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/waitlist [get]
func (h *WaitlistHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Join godoc
// @Summary Join waitlist
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.WaitlistJoinRequest true "Student"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id}/waitlist [post]
func (h *WaitlistHandler) Join(c *gin.Context) {
	var req dto.WaitlistJoinRequest
	if err := bindBody(c, dto.WaitlistJoinSchema, &req); err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.Join(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Leave godoc
// @Summary Leave waitlist
// @Tags Waitlist
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/waitlist/{studentId} [delete]
func (h *WaitlistHandler) Leave(c *gin.Context) {
	if err := h.service.Leave(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Promote godoc
// @Summary Promote next student
// @Tags Waitlist
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /classes/{id}/waitlist/promote [post]
func (h *WaitlistHandler) Promote(c *gin.Context) {
	result, err := h.service.Promote(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
