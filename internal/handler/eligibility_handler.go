package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type eligibilityService interface {
	Check(ctx context.Context, studentID string, query dto.EligibilityQuery) (*models.EligibilityResult, error)
}

// EligibilityHandler exposes prerequisite eligibility checks.
type EligibilityHandler struct {
	service eligibilityService
}

// NewEligibilityHandler constructs handler.
func NewEligibilityHandler(svc eligibilityService) *EligibilityHandler {
	return &EligibilityHandler{service: svc}
}

// Check godoc
// @Summary Validate prerequisites for a student
// @Tags Eligibility
// @Produce json
// @Param id path string true "Student ID"
// @Param subjectId query string true "Subject to enroll into"
// @Param adminOverride query bool false "Mark eligible regardless of missing prerequisites"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{id}/eligibility [get]
func (h *EligibilityHandler) Check(c *gin.Context) {
	var query dto.EligibilityQuery
	if err := bindQuery(c, dto.EligibilitySchema, &query, nil); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Check(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
