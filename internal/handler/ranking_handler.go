package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mcpower/monash-timetabler/internal/dto"
	"github.com/mcpower/monash-timetabler/internal/models"
	"github.com/mcpower/monash-timetabler/internal/service"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
	"github.com/mcpower/monash-timetabler/pkg/response"
)

type rankingService interface {
	Submit(ctx context.Context, req dto.RankRequest) (*dto.RankSubmissionResponse, error)
	Status(ctx context.Context, id string) (*dto.RankingStatusResponse, error)
	List(ctx context.Context, id string, query dto.RankingListQuery) ([]dto.RankedTimetableSummary, *models.Pagination, error)
	Timetable(ctx context.Context, id string, index int) (*dto.TimetableResponse, error)
	Palette(ctx context.Context, id string) (*models.Palette, error)
	Rebuild(ctx context.Context, id string, req dto.RebuildRequest) (*dto.TimetableResponse, error)
	Export(ctx context.Context, id string, index int, format string) (*service.ExportedFile, error)
}

// RankingHandler exposes timetable ranking endpoints.
type RankingHandler struct {
	service rankingService
}

// NewRankingHandler constructs the handler.
func NewRankingHandler(svc rankingService) *RankingHandler {
	return &RankingHandler{service: svc}
}

// Submit godoc
// @Summary Rank every clash-free timetable for a set of activities
// @Description Builds the catalog immediately, so malformed times and oversized searches fail fast, then ranks in the background.
// @Tags Rankings
// @Accept json
// @Produce json
// @Param payload body dto.RankRequest true "Ranking request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /rankings [post]
func (h *RankingHandler) Submit(c *gin.Context) {
	var req dto.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ranking payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}

// Status godoc
// @Summary Get ranking status
// @Tags Rankings
// @Produce json
// @Param id path string true "Ranking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rankings/{id} [get]
func (h *RankingHandler) Status(c *gin.Context) {
	result, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List ranked timetables, best first
// @Tags Rankings
// @Produce json
// @Param id path string true "Ranking ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /rankings/{id}/timetables [get]
func (h *RankingHandler) List(c *gin.Context) {
	var query dto.RankingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pagination"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Timetable godoc
// @Summary Get the timetable ranked at an index
// @Tags Rankings
// @Produce json
// @Param id path string true "Ranking ID"
// @Param index path int true "Zero-based rank"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rankings/{id}/timetables/{index} [get]
func (h *RankingHandler) Timetable(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	result, err := h.service.Timetable(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download a ranked timetable
// @Tags Rankings
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Ranking ID"
// @Param index path int true "Zero-based rank"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Router /rankings/{id}/timetables/{index}/export [get]
func (h *RankingHandler) Export(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), index, c.DefaultQuery("format", service.ExportFormatPDF))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Palette godoc
// @Summary Get display colours for a ranking
// @Tags Rankings
// @Produce json
// @Param id path string true "Ranking ID"
// @Success 200 {object} response.Envelope
// @Router /rankings/{id}/palette [get]
func (h *RankingHandler) Palette(c *gin.Context) {
	result, err := h.service.Palette(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Rebuild godoc
// @Summary Build the grid for an arbitrary combination
// @Description Works for clashing combinations too; score is omitted when the combination clashes.
// @Tags Rankings
// @Accept json
// @Produce json
// @Param id path string true "Ranking ID"
// @Param payload body dto.RebuildRequest true "Option index per group"
// @Success 200 {object} response.Envelope
// @Router /rankings/{id}/grid [post]
func (h *RankingHandler) Rebuild(c *gin.Context) {
	var req dto.RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rebuild payload"))
		return
	}
	result, err := h.service.Rebuild(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "index must be a non-negative integer"))
		return 0, false
	}
	return index, true
}
