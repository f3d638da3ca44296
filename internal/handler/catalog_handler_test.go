package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/repository"
	appErrors "github.com/smaplan/timetable-api/pkg/errors"
)

type subjectCatalogMock struct {
	filter repository.SubjectFilter
}

func (m *subjectCatalogMock) List(ctx context.Context, filter repository.SubjectFilter) ([]models.Subject, int, error) {
	m.filter = filter
	return []models.Subject{{ID: "math", Code: "MATH", Name: "Mathematics"}}, 41, nil
}

func (m *subjectCatalogMock) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if id != "math" {
		return nil, sql.ErrNoRows
	}
	return &models.Subject{ID: "math", Code: "MATH"}, nil
}

func TestListSubjectsPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := &subjectCatalogMock{}
	h := &CatalogHandler{subjects: mockRepo}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/subjects?priority=HIGH&page=3&pageSize=10", nil)

	h.ListSubjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "HIGH", mockRepo.filter.Priority)
	require.Equal(t, 3, mockRepo.filter.Page)
	require.Equal(t, 10, mockRepo.filter.PageSize)

	var envelope struct {
		Pagination struct {
			Page       int `json:"page"`
			TotalItems int `json:"total_items"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 3, envelope.Pagination.Page)
	require.Equal(t, 41, envelope.Pagination.TotalItems)
	require.Equal(t, 5, envelope.Pagination.TotalPages)
}

func TestListSubjectsIgnoresMalformedPaging(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := &subjectCatalogMock{}
	h := &CatalogHandler{subjects: mockRepo}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/subjects?page=abc&pageSize=-4", nil)

	h.ListSubjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, mockRepo.filter.Page)
	require.Equal(t, 20, mockRepo.filter.PageSize)
}

func TestGetSubjectNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &CatalogHandler{subjects: &subjectCatalogMock{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/subjects/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	h.GetSubject(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	require.Equal(t, appErrors.ErrNotFound.Code, envelope.Error.Code)
}
