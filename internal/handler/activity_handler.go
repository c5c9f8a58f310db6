package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcpower/monash-timetabler/internal/dto"
	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
	"github.com/mcpower/monash-timetabler/pkg/response"
)

type activityService interface {
	List(ctx context.Context, enrolmentID string) ([]models.Activity, error)
	Replace(ctx context.Context, enrolmentID string, req dto.ReplaceActivitiesRequest) ([]models.Activity, error)
}

// ActivityHandler manages the activities offered to an enrolment.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc activityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary List stored activities
// @Tags Activities
// @Produce json
// @Param id path string true "Enrolment ID"
// @Success 200 {object} response.Envelope
// @Router /enrolments/{id}/activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	activities, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil, map[string]interface{}{"count": len(activities)})
}

// Replace godoc
// @Summary Replace the activities of an enrolment
// @Description Every activity is normalised before anything is stored; one malformed time rejects the whole import.
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Enrolment ID"
// @Param payload body dto.ReplaceActivitiesRequest true "Activities"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrolments/{id}/activities [put]
func (h *ActivityHandler) Replace(c *gin.Context) {
	var req dto.ReplaceActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activities payload"))
		return
	}
	activities, err := h.service.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil, map[string]interface{}{"count": len(activities)})
}
