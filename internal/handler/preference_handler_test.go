package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
)

type preferenceServiceMock struct {
	capturedFaculty string
	capturedUpsert  dto.UpsertPreferencesRequest
	getErr          error
	upsertErr       error
}

func (m *preferenceServiceMock) Get(ctx context.Context, facultyID string) (*models.FacultyPreferences, error) {
	m.capturedFaculty = facultyID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.FacultyPreferences{FacultyID: facultyID}, nil
}

func (m *preferenceServiceMock) Upsert(ctx context.Context, facultyID string, req dto.UpsertPreferencesRequest) (*models.FacultyPreferences, error) {
	m.capturedFaculty = facultyID
	m.capturedUpsert = req
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return &models.FacultyPreferences{FacultyID: facultyID, RoomPreferences: req.RoomPreferences}, nil
}

func (m *preferenceServiceMock) ScoreAssignment(ctx context.Context, req dto.ScoreAssignmentRequest) (*dto.ScoreAssignmentResponse, error) {
	return &dto.ScoreAssignmentResponse{
		Score:        models.PreferenceScore{Score: 72},
		Satisfaction: models.SatisfactionGood,
	}, nil
}

func (m *preferenceServiceMock) DetectConflicts(ctx context.Context, facultyID string) (*models.ConflictDetectionResult, error) {
	m.capturedFaculty = facultyID
	return &models.ConflictDetectionResult{FacultyID: facultyID}, nil
}

func (m *preferenceServiceMock) Completeness(ctx context.Context, facultyID string) (float64, error) {
	return 66.67, nil
}

func TestPreferenceGetSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &preferenceServiceMock{}
	handler := &PreferenceHandler{service: mockSvc}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/faculty/f-1/preferences", nil)
	c.Params = gin.Params{{Key: "id", Value: "f-1"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "f-1", mockSvc.capturedFaculty)
}

func TestPreferenceGetUnknownFaculty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &preferenceServiceMock{
		getErr: appErrors.Clone(appErrors.ErrNotFound, "faculty member not found"),
	}
	handler := &PreferenceHandler{service: mockSvc}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/faculty/nope/preferences", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferenceUpsertSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &preferenceServiceMock{}
	handler := &PreferenceHandler{service: mockSvc}
	payload := []byte(`{"room_preferences":[{"room_id":"r-1","weight":80,"priority":"high"}]}`)
	req, _ := http.NewRequest(http.MethodPut, "/faculty/f-1/preferences", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "f-1"}}

	handler.Upsert(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.capturedUpsert.RoomPreferences, 1)
	require.Equal(t, "r-1", mockSvc.capturedUpsert.RoomPreferences[0].RoomID)
}

func TestPreferenceUpsertBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &PreferenceHandler{service: &preferenceServiceMock{}}
	req, _ := http.NewRequest(http.MethodPut, "/faculty/f-1/preferences", bytes.NewReader([]byte(`{"room_preferences":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "f-1"}}

	handler.Upsert(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreferenceScoreSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &PreferenceHandler{service: &preferenceServiceMock{}}
	payload := []byte(`{"facultyId":"f-1","courseId":"c-1","roomId":"r-1","timeSlotId":"ts-1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/preferences/score", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Score(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), string(models.SatisfactionGood))
}

func TestPreferenceConflictsSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &preferenceServiceMock{}
	handler := &PreferenceHandler{service: mockSvc}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/faculty/f-1/preferences/conflicts", nil)
	c.Params = gin.Params{{Key: "id", Value: "f-1"}}

	handler.Conflicts(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "f-1", mockSvc.capturedFaculty)
}
