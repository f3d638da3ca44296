package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/smaplan/timetable-api/internal/dto"
	internalmiddleware "github.com/smaplan/timetable-api/internal/middleware"
	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/scheduler"
	appErrors "github.com/smaplan/timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	generated dto.GenerateTimetableRequest
	moveID    string
	moved     dto.MoveSlotRequest
	busy      bool
}

func (m *timetableServiceMock) Validate(ctx context.Context) (*dto.ValidationResponse, error) {
	return &dto.ValidationResponse{Feasible: true}, nil
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationRun, error) {
	if m.busy {
		return nil, appErrors.ErrBusy
	}
	m.generated = req
	return &dto.GenerationRun{RunID: "run-1", State: dto.RunStatePending}, nil
}

func (m *timetableServiceMock) Progress(ctx context.Context) (*dto.GenerationSnapshot, error) {
	return &dto.GenerationSnapshot{RunID: "run-1", State: dto.RunStateRunning, Phase: "assign", Percent: 40}, nil
}

func (m *timetableServiceMock) Cancel(ctx context.Context) error { return nil }

func (m *timetableServiceMock) List(ctx context.Context) ([]models.Timetable, error) {
	return []models.Timetable{{ID: "tt1", Version: 1}}, nil
}

func (m *timetableServiceMock) Get(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	return &dto.TimetableResponse{Timetable: models.Timetable{ID: "tt1"}}, nil
}

func (m *timetableServiceMock) Score(ctx context.Context, id string) (*scheduler.ScoreBreakdown, error) {
	return &scheduler.ScoreBreakdown{Total: 950}, nil
}

func (m *timetableServiceMock) Move(ctx context.Context, id string, req dto.MoveSlotRequest) (*dto.TimetableResponse, error) {
	m.moveID = id
	m.moved = req
	return &dto.TimetableResponse{Timetable: models.Timetable{ID: id}}, nil
}

func (m *timetableServiceMock) Check(ctx context.Context, id string, req dto.CheckSlotRequest) (*dto.CheckSlotResponse, error) {
	return &dto.CheckSlotResponse{Allowed: true}, nil
}

func (m *timetableServiceMock) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	return []byte("Class,Period\n"), "text/csv", nil
}

func newTimetableTestContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	c.Request = req
	return c, w
}

func TestGenerateAccepted(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}
	c, w := newTimetableTestContext(t, http.MethodPost, "/timetables/generate", []byte(`{"days":[1,2,3],"maxDailyLessons":5}`))

	h.Generate(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, []int{1, 2, 3}, mockSvc.generated.Days)
	require.NotNil(t, mockSvc.generated.MaxDailyLessons)
	require.Equal(t, 5, *mockSvc.generated.MaxDailyLessons)
}

func TestGenerateConflictWhenBusy(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{busy: true}}
	c, w := newTimetableTestContext(t, http.MethodPost, "/timetables/generate", []byte(`{}`))

	h.Generate(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	require.Equal(t, appErrors.ErrBusy.Code, envelope.Error.Code)
}

func TestGenerateMalformedPayload(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{}}
	c, w := newTimetableTestContext(t, http.MethodPost, "/timetables/generate", []byte(`{"days":`))

	h.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressReturnsSnapshot(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{}}
	c, w := newTimetableTestContext(t, http.MethodGet, "/timetables/generate/progress", nil)

	h.Progress(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.GenerationSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, dto.RunStateRunning, envelope.Data.State)
	require.Equal(t, "assign", envelope.Data.Phase)
}

func TestMovePassesPathID(t *testing.T) {
	mockSvc := &timetableServiceMock{}
	h := &TimetableHandler{service: mockSvc}
	payload := []byte(`{"from":{"day":1,"periodId":"p1","classId":"c1"},"to":{"day":2,"periodId":"p1","classId":"c1"}}`)
	c, w := newTimetableTestContext(t, http.MethodPost, "/timetables/tt1/slots/move", payload)
	c.Params = gin.Params{{Key: "id", Value: "tt1"}}

	h.Move(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "tt1", mockSvc.moveID)
	require.Equal(t, 2, mockSvc.moved.To.Day)
}

func TestExportSetsContentDisposition(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{}}
	c, w := newTimetableTestContext(t, http.MethodGet, "/timetables/latest/export?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "latest"}}

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "timetable-latest.csv")
}

func TestGenerateForbiddenForViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleViewer})
		c.Next()
	})
	router.POST("/timetables/generate", internalmiddleware.RequireRoles(models.RoleAdmin), h.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGenerateUnauthorizedWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: &timetableServiceMock{}}
	router := gin.New()
	router.POST("/timetables/generate", internalmiddleware.RequireRoles(models.RoleAdmin), h.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
