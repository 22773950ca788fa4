package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/allocation"
	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
	"github.com/noah-isme/campus-alloc-api/pkg/export"
)

// TimetableFormat names a supported export rendering.
type TimetableFormat string

const (
	TimetableFormatCSV TimetableFormat = "csv"
	TimetableFormatPDF TimetableFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, summary []string) ([]byte, error)
}

// TimetableExport carries a rendered timetable document.
type TimetableExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ValidationService audits stored timetables and renders them for download.
type ValidationService struct {
	timetables timetableRepository
	slots      timetableSlotRepository
	courseList courseCatalog
	roomList   roomCatalog
	faculty    facultyCatalog
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
	cfg        allocation.Config
}

// NewValidationService constructs a ValidationService.
func NewValidationService(
	timetables timetableRepository,
	slots timetableSlotRepository,
	courseList courseCatalog,
	roomList roomCatalog,
	faculty facultyCatalog,
	csv csvRenderer,
	pdf pdfRenderer,
	logger *zap.Logger,
	cfg allocation.Config,
) *ValidationService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		timetables: timetables,
		slots:      slots,
		courseList: courseList,
		roomList:   roomList,
		faculty:    faculty,
		csv:        csv,
		pdf:        pdf,
		logger:     logger,
		cfg:        cfg,
	}
}

// ValidateTimetable runs the full consistency audit over a stored timetable.
func (s *ValidationService) ValidateTimetable(ctx context.Context, timetableID string) (*dto.ValidateTimetableResponse, error) {
	record, slots, err := s.loadTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}

	courses, err := s.courseList.ListByDepartment(ctx, record.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	rooms, err := s.roomList.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room inventory")
	}
	members, err := s.faculty.ListActiveByDepartment(ctx, record.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	result := allocation.NewScheduleValidator(s.cfg).Validate(slots, courses, members, rooms)
	s.logger.Info("timetable validated",
		zap.String("timetable_id", timetableID),
		zap.Bool("valid", result.IsValid),
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)))

	return &dto.ValidateTimetableResponse{
		TimetableID: timetableID,
		Result:      result,
	}, nil
}

// ExportTimetable renders a stored timetable as CSV or PDF.
func (s *ValidationService) ExportTimetable(ctx context.Context, timetableID string, format TimetableFormat) (*TimetableExport, error) {
	record, slots, err := s.loadTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}

	courses, err := s.courseList.ListByDepartment(ctx, record.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	rooms, err := s.roomList.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room inventory")
	}
	members, err := s.faculty.ListActiveByDepartment(ctx, record.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	dataset := buildTimetableDataset(slots, courses, rooms, members)
	title := fmt.Sprintf("Timetable %s %s v%d", record.Department, record.Term, record.Version)

	var payload []byte
	var contentType string
	switch format {
	case TimetableFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case TimetableFormatPDF:
		summary := []string{
			fmt.Sprintf("Department: %s", record.Department),
			fmt.Sprintf("Term: %s", record.Term),
			fmt.Sprintf("Version: %d (%s)", record.Version, record.Status),
			fmt.Sprintf("Sessions: %d", len(slots)),
		}
		payload, err = s.pdf.Render(dataset, title, summary)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}

	return &TimetableExport{
		Filename:    buildTimetableFilename(record, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

func (s *ValidationService) loadTimetable(ctx context.Context, timetableID string) (*models.Timetable, []models.TimetableSlot, error) {
	if timetableID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	record, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	slots, err := s.slots.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return record, slots, nil
}

func buildTimetableDataset(slots []models.TimetableSlot, courses []models.Course, rooms []models.Room, members []models.Faculty) export.Dataset {
	courseNames := make(map[string]string, len(courses))
	for _, course := range courses {
		courseNames[course.ID] = fmt.Sprintf("%s %s", course.Code, course.Name)
	}
	roomNames := make(map[string]string, len(rooms))
	for _, room := range rooms {
		roomNames[room.ID] = room.Code
	}
	facultyNames := make(map[string]string, len(members))
	for _, member := range members {
		facultyNames[member.ID] = member.FullName
	}

	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, map[string]string{
			"Day":        slot.Day,
			"Start":      slot.StartTime,
			"End":        slot.EndTime,
			"Course":     labelOr(courseNames, slot.CourseID),
			"Room":       labelOr(roomNames, slot.RoomID),
			"Faculty":    labelOr(facultyNames, slot.FacultyID),
			"Purpose":    slot.Purpose,
			"Confidence": fmt.Sprintf("%.1f", slot.Confidence),
		})
	}
	return export.Dataset{
		Headers: []string{"Day", "Start", "End", "Course", "Room", "Faculty", "Purpose", "Confidence"},
		Rows:    rows,
	}
}

func labelOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func buildTimetableFilename(record *models.Timetable, format TimetableFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	dept := sanitizeFilename(record.Department)
	term := sanitizeFilename(record.Term)
	return fmt.Sprintf("timetable_%s_%s_v%d_%s.%s", dept, term, record.Version, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
