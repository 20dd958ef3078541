package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/assessment-engine/internal/services"
	"github.com/skillforge/assessment-engine/internal/utils"
)

// SchedulerHandler exposes the batch sweeps for an external cron to trigger.
type SchedulerHandler struct {
	BaseHandler
	schedulerService services.SchedulerService
}

func NewSchedulerHandler(schedulerService services.SchedulerService, logger utils.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		BaseHandler:      NewBaseHandler(logger),
		schedulerService: schedulerService,
	}
}

// RunReminderSweep sends deadline reminders at the 3/1/0-day thresholds
// @Summary Run reminder sweep
// @Tags sweeps
// @Produce json
// @Success 200 {object} services.SweepResult
// @Router /sweeps/reminders [post]
func (h *SchedulerHandler) RunReminderSweep(c *gin.Context) {
	h.LogRequest(c, "Running reminder sweep")

	result, err := h.schedulerService.RunReminderSweep(c.Request.Context(), time.Now())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunOverdueSweep marks past-deadline assignments overdue
// @Summary Run overdue sweep
// @Tags sweeps
// @Produce json
// @Success 200 {object} services.SweepResult
// @Router /sweeps/overdue [post]
func (h *SchedulerHandler) RunOverdueSweep(c *gin.Context) {
	h.LogRequest(c, "Running overdue sweep")

	result, err := h.schedulerService.RunOverdueSweep(c.Request.Context(), time.Now())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
