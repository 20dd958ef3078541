package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/assessment-engine/internal/services"
	"github.com/skillforge/assessment-engine/internal/utils"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type MakeupHandler struct {
	BaseHandler
	makeupService services.MakeupService
	validator     *validator.Validator
}

func NewMakeupHandler(makeupService services.MakeupService, validator *validator.Validator, logger utils.Logger) *MakeupHandler {
	return &MakeupHandler{
		BaseHandler:   NewBaseHandler(logger),
		makeupService: makeupService,
		validator:     validator,
	}
}

// GetMakeup retrieves a makeup exam record by ID
// @Summary Get makeup exam
// @Tags makeups
// @Produce json
// @Param id path uint true "Makeup exam ID"
// @Success 200 {object} models.MakeupExam
// @Failure 404 {object} ErrorResponse
// @Router /makeups/{id} [get]
func (h *MakeupHandler) GetMakeup(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	makeup, err := h.makeupService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, makeup)
}

// GetMyMakeups lists the calling candidate's makeup exams
// @Summary Get my makeup exams
// @Tags makeups
// @Produce json
// @Success 200 {array} models.MakeupExam
// @Router /makeups/me [get]
func (h *MakeupHandler) GetMyMakeups(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	makeups, err := h.makeupService.ListByCandidate(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, makeups)
}

// ScheduleMakeup schedules a pending makeup exam as a new assignment
// @Summary Schedule makeup exam
// @Tags makeups
// @Accept json
// @Produce json
// @Param id path uint true "Makeup exam ID"
// @Param schedule body services.MakeupScheduleRequest true "Schedule data"
// @Success 200 {object} models.MakeupExam
// @Failure 409 {object} ErrorResponse
// @Router /makeups/{id}/schedule [post]
func (h *MakeupHandler) ScheduleMakeup(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Scheduling makeup exam", "makeup_id", id)

	var req services.MakeupScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	makeup, err := h.makeupService.Schedule(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, makeup)
}

// RunExpirySweep expires scheduled makeups whose deadline passed
// @Summary Run makeup expiry sweep
// @Tags sweeps
// @Produce json
// @Success 200 {object} services.SweepResult
// @Router /sweeps/makeup-expiry [post]
func (h *MakeupHandler) RunExpirySweep(c *gin.Context) {
	h.LogRequest(c, "Running makeup expiry sweep")

	result, err := h.makeupService.RunExpirySweep(c.Request.Context(), time.Now())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
