package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/engine"
	internalmiddleware "github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timeSlotServiceMock struct {
	created  dto.CreateTimeSlotRequest
	updated  dto.UpdateTimeSlotRequest
	listed   dto.ListTimeSlotsQuery
	createFn func(req dto.CreateTimeSlotRequest) (*models.TimeSlot, error)
}

func (m *timeSlotServiceMock) List(ctx context.Context, query dto.ListTimeSlotsQuery) ([]models.TimeSlot, *models.Pagination, error) {
	m.listed = query
	return []models.TimeSlot{}, &models.Pagination{Page: query.Page, PageSize: query.PageSize}, nil
}

func (m *timeSlotServiceMock) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
}

func (m *timeSlotServiceMock) Check(ctx context.Context, req dto.CreateTimeSlotRequest, excludeID string) (*engine.ConflictReport, error) {
	return &engine.ConflictReport{Valid: true, Conflicts: []models.SlotConflict{}}, nil
}

func (m *timeSlotServiceMock) Create(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error) {
	m.created = req
	if m.createFn != nil {
		return m.createFn(req)
	}
	return &models.TimeSlot{ID: "slot-1", DayOfWeek: req.DayOfWeek, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (m *timeSlotServiceMock) Update(ctx context.Context, id string, req dto.UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	m.updated = req
	return &models.TimeSlot{ID: id}, nil
}

func (m *timeSlotServiceMock) Cancel(ctx context.Context, id string) (*models.TimeSlot, error) {
	return &models.TimeSlot{ID: id, Status: models.TimeSlotStatusCancelled}, nil
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestTimeSlotHandlerCreateCoercesPayload(t *testing.T) {
	svc := &timeSlotServiceMock{}
	h := NewTimeSlotHandler(svc)
	c, w := newContext(http.MethodPost, "/time-slots", []byte(`{"dayOfWeek":"1","startTime":"09:00","endTime":"10:00","classId":"c1","subjectId":"s1","teacherId":"t1","roomId":"r1"}`))

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, svc.created.DayOfWeek)
	assert.Equal(t, "t1", svc.created.TeacherID)
}

func TestTimeSlotHandlerCreateReportsFieldErrors(t *testing.T) {
	h := NewTimeSlotHandler(&timeSlotServiceMock{})
	c, w := newContext(http.MethodPost, "/time-slots", []byte(`{"dayOfWeek":7,"startTime":"9:00","endTime":"10:00","classId":"c1","subjectId":"s1","teacherId":"t1"}`))

	h.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	details, ok := env.Error.Details.([]interface{})
	require.True(t, ok)
	fields := map[string]bool{}
	for _, d := range details {
		fields[d.(map[string]interface{})["field"].(string)] = true
	}
	assert.Equal(t, map[string]bool{"dayOfWeek": true, "startTime": true, "roomId": true}, fields)
}

func TestTimeSlotHandlerCreateRejectsMalformedJSON(t *testing.T) {
	h := NewTimeSlotHandler(&timeSlotServiceMock{})
	c, w := newContext(http.MethodPost, "/time-slots", []byte(`{"dayOfWeek":`))
	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimeSlotHandlerCreateConflict(t *testing.T) {
	svc := &timeSlotServiceMock{createFn: func(req dto.CreateTimeSlotRequest) (*models.TimeSlot, error) {
		report := engine.ConflictReport{Conflicts: []models.SlotConflict{{
			Slot:       models.TimeSlot{ID: "existing"},
			Dimensions: []models.ResourceType{models.ResourceTeacher},
		}}}
		return nil, report.Err()
	}}
	h := NewTimeSlotHandler(svc)
	c, w := newContext(http.MethodPost, "/time-slots", []byte(`{"dayOfWeek":1,"startTime":"09:00","endTime":"10:00","classId":"c1","subjectId":"s1","teacherId":"t1","roomId":"r1"}`))

	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, appErrors.ErrConflict.Code, env.Error.Code)
	assert.Contains(t, w.Body.String(), `"existing"`)
}

func TestTimeSlotHandlerListQuery(t *testing.T) {
	svc := &timeSlotServiceMock{}
	h := NewTimeSlotHandler(svc)

	c, w := newContext(http.MethodGet, "/time-slots?dayOfWeek=3&teacherId=t1", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.listed.DayOfWeek)
	assert.Equal(t, 3, *svc.listed.DayOfWeek)
	assert.Equal(t, 1, svc.listed.Page)
	assert.Equal(t, 100, svc.listed.PageSize)

	c, w = newContext(http.MethodGet, "/time-slots?pageSize=5000", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimeSlotHandlerUpdatePartial(t *testing.T) {
	svc := &timeSlotServiceMock{}
	h := NewTimeSlotHandler(svc)
	c, w := newContext(http.MethodPatch, "/time-slots/s1", []byte(`{"endTime":"11:00"}`))
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	h.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.updated.EndTime)
	assert.Equal(t, "11:00", *svc.updated.EndTime)
	assert.Nil(t, svc.updated.StartTime)
}

func TestTimeSlotHandlerGetNotFound(t *testing.T) {
	h := NewTimeSlotHandler(&timeSlotServiceMock{})
	c, w := newContext(http.MethodGet, "/time-slots/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type prerequisiteServiceMock struct {
	depth *int
	hit   bool
}

func (m *prerequisiteServiceMock) AddPrerequisite(ctx context.Context, subjectID string, req dto.AddPrerequisiteRequest) (*models.PrerequisiteEdge, error) {
	if subjectID == req.PrerequisiteID {
		return nil, appErrors.Clone(appErrors.ErrSelfReference, "")
	}
	return &models.PrerequisiteEdge{SubjectID: subjectID, PrerequisiteID: req.PrerequisiteID, Position: 1}, nil
}

func (m *prerequisiteServiceMock) RemovePrerequisite(ctx context.Context, subjectID, prerequisiteID string) error {
	return nil
}

func (m *prerequisiteServiceMock) Closure(ctx context.Context, subjectID string) (*dto.PrerequisiteClosureResponse, bool, error) {
	return &dto.PrerequisiteClosureResponse{SubjectID: subjectID, Prerequisites: []string{"b"}}, m.hit, nil
}

func (m *prerequisiteServiceMock) Tree(ctx context.Context, subjectID string, query dto.PrerequisiteTreeQuery) (*models.PrerequisiteNode, bool, error) {
	m.depth = query.MaxDepth
	return &models.PrerequisiteNode{SubjectID: subjectID, Prerequisites: []models.PrerequisiteNode{}}, m.hit, nil
}

func TestPrerequisiteHandlerTreeReportsCacheHit(t *testing.T) {
	svc := &prerequisiteServiceMock{hit: true}
	h := NewPrerequisiteHandler(svc)
	c, w := newContext(http.MethodGet, "/subjects/a/prerequisites/tree?maxDepth=2", nil)
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	internalmiddleware.WithResponseMeta()(c)

	h.Tree(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.depth)
	assert.Equal(t, 2, *svc.depth)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

func TestPrerequisiteHandlerTreeRejectsZeroDepth(t *testing.T) {
	h := NewPrerequisiteHandler(&prerequisiteServiceMock{})
	c, w := newContext(http.MethodGet, "/subjects/a/prerequisites/tree?maxDepth=0", nil)
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	h.Tree(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrerequisiteHandlerAdd(t *testing.T) {
	h := NewPrerequisiteHandler(&prerequisiteServiceMock{})

	c, w := newContext(http.MethodPost, "/subjects/a/prerequisites", []byte(`{"prerequisiteId":"b"}`))
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	h.Add(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newContext(http.MethodPost, "/subjects/a/prerequisites", []byte(`{"prerequisiteId":"a"}`))
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	h.Add(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrSelfReference.Code, decodeEnvelope(t, w).Error.Code)

	c, w = newContext(http.MethodPost, "/subjects/a/prerequisites", nil)
	c.Params = gin.Params{{Key: "id", Value: "a"}}
	h.Add(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type eligibilityServiceMock struct {
	query dto.EligibilityQuery
}

func (m *eligibilityServiceMock) Check(ctx context.Context, studentID string, query dto.EligibilityQuery) (*models.EligibilityResult, error) {
	m.query = query
	return &models.EligibilityResult{Eligible: true, MissingPrerequisites: []models.SubjectRef{}, Message: "Student meets all prerequisites", AdminOverride: query.AdminOverride}, nil
}

func TestEligibilityHandlerParsesOverride(t *testing.T) {
	svc := &eligibilityServiceMock{}
	h := NewEligibilityHandler(svc)
	c, w := newContext(http.MethodGet, "/students/s1/eligibility?subjectId=physics&adminOverride=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	h.Check(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.query.AdminOverride)
	assert.Equal(t, "physics", svc.query.SubjectID)
	assert.Contains(t, w.Body.String(), `"missingPrerequisites":[]`)
}

type enrollmentServiceMock struct {
	outcome *models.EnrollmentOutcome
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, req dto.EnrollRequest) (*models.EnrollmentOutcome, error) {
	return m.outcome, nil
}

func (m *enrollmentServiceMock) Withdraw(ctx context.Context, id string) (*models.Enrollment, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment is not active")
}

func TestEnrollmentHandlerWaitlistedIsAccepted(t *testing.T) {
	h := NewEnrollmentHandler(&enrollmentServiceMock{outcome: &models.EnrollmentOutcome{
		Status:   models.EnrollmentOutcomeWaitlisted,
		Waitlist: &models.WaitlistEntry{ClassID: "c1", StudentID: "s1", Position: 2},
	}})
	c, w := newContext(http.MethodPost, "/enrollments", []byte(`{"studentId":"s1","classId":"c1"}`))

	h.Enroll(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"WAITLISTED"`)

	c, w = newContext(http.MethodPost, "/enrollments/e1/withdraw", nil)
	c.Params = gin.Params{{Key: "id", Value: "e1"}}
	h.Withdraw(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

type exporterMock struct {
	req dto.TimetableExportRequest
}

func (m *exporterMock) Export(ctx context.Context, req dto.TimetableExportRequest) (*dto.ExportFile, error) {
	m.req = req
	return &dto.ExportFile{Filename: "timetable_room_r1.csv", ContentType: "text/csv", Content: []byte("Day\n")}, nil
}

func TestExportHandlerStreamsAttachment(t *testing.T) {
	svc := &exporterMock{}
	h := NewExportHandler(svc)
	c, w := newContext(http.MethodGet, "/timetables/room/r1/export", nil)
	c.Params = gin.Params{{Key: "resource", Value: "room"}, {Key: "id", Value: "r1"}}

	h.Timetable(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportFormatCSV, svc.req.Format)
	assert.Equal(t, models.ResourceRoom, svc.req.ResourceType())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_room_r1.csv")

	c, w = newContext(http.MethodGet, "/timetables/building/b1/export", nil)
	c.Params = gin.Params{{Key: "resource", Value: "building"}, {Key: "id", Value: "b1"}}
	h.Timetable(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    PingFunc(func(ctx context.Context) error { return errors.New("dial tcp: refused") }),
	})
	c, w := newContext(http.MethodGet, "/ready", nil)

	h.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		TimeSlots:     NewTimeSlotHandler(&timeSlotServiceMock{}),
		Availability:  NewAvailabilityHandler(nil),
		Prerequisites: NewPrerequisiteHandler(&prerequisiteServiceMock{}),
		Eligibility:   NewEligibilityHandler(&eligibilityServiceMock{}),
		Enrollments:   NewEnrollmentHandler(&enrollmentServiceMock{}),
		Waitlist:      NewWaitlistHandler(nil),
		Export:        NewExportHandler(&exporterMock{}),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/time-slots/s1/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/subjects/a/prerequisites/closure", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"prerequisites":["b"]`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/subjects/a/prerequisites/b", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
