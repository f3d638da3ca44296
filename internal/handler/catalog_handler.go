package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/repository"
	appErrors "github.com/smaplan/timetable-api/pkg/errors"
	"github.com/smaplan/timetable-api/pkg/response"
)

type periodCatalog interface {
	List(ctx context.Context) ([]models.Period, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type subjectCatalog interface {
	List(ctx context.Context, filter repository.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type classCatalog interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type teacherCatalog interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// CatalogHandler exposes read access to the scheduling entities.
type CatalogHandler struct {
	periods  periodCatalog
	subjects subjectCatalog
	classes  classCatalog
	teachers teacherCatalog
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(periods *repository.PeriodRepository, subjects *repository.SubjectRepository, classes *repository.ClassRepository, teachers *repository.TeacherRepository) *CatalogHandler {
	return &CatalogHandler{periods: periods, subjects: subjects, classes: classes, teachers: teachers}
}

// ListPeriods godoc
// @Summary List daily periods in chronological order
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *CatalogHandler) ListPeriods(c *gin.Context) {
	periods, err := h.periods.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// GetPeriod godoc
// @Summary Get one period
// @Tags Catalog
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *CatalogHandler) GetPeriod(c *gin.Context) {
	period, err := h.periods.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, notFoundOr(err, "period not found"))
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// ListSubjects godoc
// @Summary List subjects with optional filtering and pagination
// @Tags Catalog
// @Produce json
// @Param priority query string false "Filter by priority (HIGH, MEDIUM, LOW)"
// @Param search query string false "Match against name or code"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	filter := repository.SubjectFilter{
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}
	subjects, total, err := h.subjects.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	totalPages := 0
	if filter.PageSize > 0 {
		totalPages = (total + filter.PageSize - 1) / filter.PageSize
	}
	response.JSON(c, http.StatusOK, subjects, &response.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// GetSubject godoc
// @Summary Get one subject
// @Tags Catalog
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *CatalogHandler) GetSubject(c *gin.Context) {
	subject, err := h.subjects.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, notFoundOr(err, "subject not found"))
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// ListClasses godoc
// @Summary List classes
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	classes, err := h.classes.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// GetClass godoc
// @Summary Get one class
// @Tags Catalog
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *CatalogHandler) GetClass(c *gin.Context) {
	class, err := h.classes.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, notFoundOr(err, "class not found"))
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *CatalogHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.teachers.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// GetTeacher godoc
// @Summary Get one teacher
// @Tags Catalog
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *CatalogHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.teachers.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, notFoundOr(err, "teacher not found"))
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return err
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
