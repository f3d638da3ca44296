package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smaplan/timetable-api/internal/dto"
	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/scheduler"
	"github.com/smaplan/timetable-api/internal/service"
	appErrors "github.com/smaplan/timetable-api/pkg/errors"
	"github.com/smaplan/timetable-api/pkg/response"
)

type timetableOrchestrator interface {
	Validate(ctx context.Context) (*dto.ValidationResponse, error)
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationRun, error)
	Progress(ctx context.Context) (*dto.GenerationSnapshot, error)
	Cancel(ctx context.Context) error
	List(ctx context.Context) ([]models.Timetable, error)
	Get(ctx context.Context, id string) (*dto.TimetableResponse, error)
	Score(ctx context.Context, id string) (*scheduler.ScoreBreakdown, error)
	Move(ctx context.Context, id string, req dto.MoveSlotRequest) (*dto.TimetableResponse, error)
	Check(ctx context.Context, id string, req dto.CheckSlotRequest) (*dto.CheckSlotResponse, error)
	Export(ctx context.Context, id, format string) ([]byte, string, error)
}

// TimetableHandler exposes generation and timetable endpoints.
type TimetableHandler struct {
	service timetableOrchestrator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Validate godoc
// @Summary Check whether the stored entities admit a complete timetable
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/validation [get]
func (h *TimetableHandler) Validate(c *gin.Context) {
	result, err := h.service.Validate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Generate godoc
// @Summary Start a background timetable generation run
// @Description Returns 202 with a run id; poll the progress endpoint for the outcome.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation overrides"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	run, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// Progress godoc
// @Summary Report the latest generation run state
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/generate/progress [get]
func (h *TimetableHandler) Progress(c *gin.Context) {
	snapshot, err := h.service.Progress(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Cancel godoc
// @Summary Cancel the in-flight generation run
// @Tags Timetables
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/generate [delete]
func (h *TimetableHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"state": dto.RunStateCancelling})
}

// List godoc
// @Summary List stored timetable versions
// @Tags Timetables
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	timetables, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetables, nil)
}

// Get godoc
// @Summary Get a timetable with its slots
// @Description Use the id "latest" for the most recent version.
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID or latest"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Score godoc
// @Summary Recompute the score breakdown of a stored timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID or latest"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/score [get]
func (h *TimetableHandler) Score(c *gin.Context) {
	breakdown, err := h.service.Score(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, breakdown, nil)
}

// Move godoc
// @Summary Move a lesson to another slot
// @Description Applies the move atomically; a rejected move leaves the timetable unchanged.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID or latest"
// @Param payload body dto.MoveSlotRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/{id}/slots/move [post]
func (h *TimetableHandler) Move(c *gin.Context) {
	var req dto.MoveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	result, err := h.service.Move(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Check godoc
// @Summary Dry-run a slot edit against the hard constraints
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID or latest"
// @Param payload body dto.CheckSlotRequest true "Check payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/slots/check [post]
func (h *TimetableHandler) Check(c *gin.Context) {
	var req dto.CheckSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check payload"))
		return
	}
	result, err := h.service.Check(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export a timetable as CSV or PDF
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID or latest"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.Export(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.%s", id, format))
	c.Data(http.StatusOK, contentType, payload)
}
