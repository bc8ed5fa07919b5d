package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableExporter interface {
	Export(ctx context.Context, req dto.TimetableExportRequest) (*dto.ExportFile, error)
}

// ExportHandler streams rendered timetables.
type ExportHandler struct {
	service timetableExporter
}

// NewExportHandler constructs handler.
func NewExportHandler(svc timetableExporter) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Timetable godoc
// @Summary Export timetable
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param resource path string true "class, teacher or room"
// @Param id path string true "Resource ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{resource}/{id}/export [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	var req dto.TimetableExportRequest
	params := map[string]interface{}{"resource": c.Param("resource"), "id": c.Param("id")}
	if err := bindQuery(c, dto.TimetableExportSchema, &req, params); err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
