package dto

import (
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/validation"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// TimetableExportSchema validates export requests; resource comes from the path.
var TimetableExportSchema = validation.Schema{
	Fields: []validation.Field{
		{Name: "resource", Kind: validation.KindString, Required: true, OneOf: []string{"class", "teacher", "room"}},
		idField("id", true),
		{Name: "format", Kind: validation.KindString, OneOf: []string{ExportFormatCSV, ExportFormatPDF}, Default: ExportFormatCSV},
	},
}

// TimetableExportRequest is the decoded export request.
type TimetableExportRequest struct {
	Resource string `mapstructure:"resource"`
	ID       string `mapstructure:"id"`
	Format   string `mapstructure:"format"`
}

// ResourceType maps the path segment onto a resource dimension.
func (r TimetableExportRequest) ResourceType() models.ResourceType {
	switch r.Resource {
	case "teacher":
		return models.ResourceTeacher
	case "room":
		return models.ResourceRoom
	default:
		return models.ResourceClass
	}
}

// ExportFile is a rendered timetable ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
