package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type prerequisiteService interface {
	AddPrerequisite(ctx context.Context, subjectID string, req dto.AddPrerequisiteRequest) (*models.PrerequisiteEdge, error)
	RemovePrerequisite(ctx context.Context, subjectID, prerequisiteID string) error
	Closure(ctx context.Context, subjectID string) (*dto.PrerequisiteClosureResponse, bool, error)
	Tree(ctx context.Context, subjectID string, query dto.PrerequisiteTreeQuery) (*models.PrerequisiteNode, bool, error)
}

// PrerequisiteHandler manages the subject prerequisite graph.
type PrerequisiteHandler struct {
	service prerequisiteService
}

// NewPrerequisiteHandler constructs handler.
func NewPrerequisiteHandler(svc prerequisiteService) *PrerequisiteHandler {
	return &PrerequisiteHandler{service: svc}
}

// Add godoc
// @Summary Add prerequisite
// @Description Appends a direct prerequisite. Self references, duplicates and cycles are rejected.
// @Tags Prerequisites
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.AddPrerequisiteRequest true "Prerequisite"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects/{id}/prerequisites [post]
func (h *PrerequisiteHandler) Add(c *gin.Context) {
	var req dto.AddPrerequisiteRequest
	if err := bindBody(c, dto.AddPrerequisiteSchema, &req); err != nil {
		response.Error(c, err)
		return
	}
	edge, err := h.service.AddPrerequisite(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, edge)
}

// Remove godoc
// @Summary Remove prerequisite
// @Tags Prerequisites
// @Param id path string true "Subject ID"
// @Param prerequisiteId path string true "Prerequisite subject ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id}/prerequisites/{prerequisiteId} [delete]
func (h *PrerequisiteHandler) Remove(c *gin.Context) {
	if err := h.service.RemovePrerequisite(c.Request.Context(), c.Param("id"), c.Param("prerequisiteId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Closure godoc
// @Summary Transitive prerequisites
// @Tags Prerequisites
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects/{id}/prerequisites/closure [get]
func (h *PrerequisiteHandler) Closure(c *gin.Context) {
	closure, hit, err := h.service.Closure(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, closure, nil)
}

// Tree godoc
// @Summary Prerequisite tree
// @Tags Prerequisites
// @Produce json
// @Param id path string true "Subject ID"
// @Param maxDepth query int false "Levels below the subject to render"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id}/prerequisites/tree [get]
func (h *PrerequisiteHandler) Tree(c *gin.Context) {
	var query dto.PrerequisiteTreeQuery
	if err := bindQuery(c, dto.PrerequisiteTreeSchema, &query, nil); err != nil {
		response.Error(c, err)
		return
	}
	tree, hit, err := h.service.Tree(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, tree, nil)
}
