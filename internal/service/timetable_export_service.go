package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/export"
)

var weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var timetableHeaders = []string{"Day", "Start", "End", "Subject", "Class", "Teacher", "Room", "Status"}

type timetableSource interface {
	ListByResource(ctx context.Context, resource models.ResourceType, resourceID string) ([]models.TimeSlot, error)
}

type subjectNamer interface {
	ListRefs(ctx context.Context, ids []string) ([]models.SubjectRef, error)
}

// ResourceNamer resolves the display name of an exported resource.
type ResourceNamer func(ctx context.Context, id string) (string, error)

// TimetableExportService renders weekly timetables for a class, teacher or room.
type TimetableExportService struct {
	slots       timetableSource
	subjects    subjectNamer
	namers      map[models.ResourceType]ResourceNamer
	renderers   map[string]export.Renderer
	titlePrefix string
	logger      *zap.Logger
}

// NewTimetableExportService constructs the service with CSV and PDF renderers.
func NewTimetableExportService(slots timetableSource, subjects subjectNamer, namers map[models.ResourceType]ResourceNamer, titlePrefix string, logger *zap.Logger) *TimetableExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if titlePrefix == "" {
		titlePrefix = "Timetable"
	}
	return &TimetableExportService{
		slots:    slots,
		subjects: subjects,
		namers:   namers,
		renderers: map[string]export.Renderer{
			dto.ExportFormatCSV: export.NewCSVExporter(),
			dto.ExportFormatPDF: export.NewPDFExporter(),
		},
		titlePrefix: titlePrefix,
		logger:      logger,
	}
}

// Export renders the timetable of one resource in the requested format.
func (s *TimetableExportService) Export(ctx context.Context, req dto.TimetableExportRequest) (*dto.ExportFile, error) {
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "unsupported export format"),
			map[string]string{"format": "must be csv or pdf"},
		)
	}
	resource := req.ResourceType()

	name := req.ID
	if namer, ok := s.namers[resource]; ok && namer != nil {
		resolved, err := namer(ctx, req.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", req.Resource))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export resource")
		}
		name = resolved
	}

	slots, err := s.slots.ListByResource(ctx, resource, req.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	subjects, err := s.subjectNames(ctx, slots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject names")
	}

	doc := export.Document{
		Title:    fmt.Sprintf("%s: %s", s.titlePrefix, name),
		Subtitle: fmt.Sprintf("%s %s, generated %s", strings.ToLower(string(resource)), req.ID, time.Now().UTC().Format(time.RFC3339)),
		Data:     timetableDataset(slots, subjects),
	}
	content, err := renderer.Render(doc)
	if err != nil {
		s.logger.Error("failed to render timetable", zap.String("format", req.Format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("timetable_%s_%s.%s", req.Resource, sanitizeFilename(req.ID), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *TimetableExportService) subjectNames(ctx context.Context, slots []models.TimeSlot) (map[string]string, error) {
	names := make(map[string]string)
	if s.subjects == nil || len(slots) == 0 {
		return names, nil
	}
	ids := make([]string, 0, len(slots))
	seen := make(map[string]bool)
	for _, slot := range slots {
		if !seen[slot.SubjectID] {
			seen[slot.SubjectID] = true
			ids = append(ids, slot.SubjectID)
		}
	}
	refs, err := s.subjects.ListRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		names[ref.ID] = ref.Name
	}
	return names, nil
}

func timetableDataset(slots []models.TimeSlot, subjects map[string]string) export.Dataset {
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		subject := subjects[slot.SubjectID]
		if subject == "" {
			subject = slot.SubjectID
		}
		day := fmt.Sprintf("%d", slot.DayOfWeek)
		if slot.DayOfWeek >= 0 && slot.DayOfWeek < len(weekdayNames) {
			day = weekdayNames[slot.DayOfWeek]
		}
		rows = append(rows, map[string]string{
			"Day":     day,
			"Start":   slot.StartTime,
			"End":     slot.EndTime,
			"Subject": subject,
			"Class":   slot.ClassID,
			"Teacher": slot.TeacherID,
			"Room":    slot.RoomID,
			"Status":  string(slot.Status),
		})
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
