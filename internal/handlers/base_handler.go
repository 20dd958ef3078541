package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/assessment-engine/internal/services"
	"github.com/skillforge/assessment-engine/internal/utils"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler needs.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c).Error(msg, append(args, "error", err)...)
}

func (h *BaseHandler) getUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// requireUserID writes the 401 response itself; callers just return on "".
func (h *BaseHandler) requireUserID(c *gin.Context) string {
	id := h.getUserID(c)
	if id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
	}
	return id
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError translates service errors into HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Typed errors first
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validationError.Message,
			Details: map[string]interface{}{
				"field": validationError.Field,
				"value": validationError.Value,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"operation": permissionError.Operation,
				"reason":    permissionError.Reason,
			},
		})
		return
	}

	var transitionError *services.TransitionError
	if errors.As(err, &transitionError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Invalid status transition",
			Details: map[string]interface{}{
				"from":   transitionError.From,
				"to":     transitionError.To,
				"reason": transitionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrAssignmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assignment not found"})
	case errors.Is(err, services.ErrScoreNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Score not found"})
	case errors.Is(err, services.ErrMakeupNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Makeup exam not found"})
	case errors.Is(err, services.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Entry not found"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
	case errors.Is(err, services.ErrExamNotPublished):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam is not published"})
	case errors.Is(err, services.ErrAssignmentNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Assignment is not in progress"})
	case errors.Is(err, services.ErrAssignmentCannotStart):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Assignment cannot be started"})
	case errors.Is(err, services.ErrAssignmentNotSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Assignment has not been submitted"})
	case errors.Is(err, services.ErrGradingNotAllowed):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Assignment is not in a gradable state"})
	case errors.Is(err, services.ErrAlreadyAssigned):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Candidate already has an active assignment"})
	case errors.Is(err, services.ErrMakeupLimitReached):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Maximum makeup attempts exceeded"})
	case errors.Is(err, services.ErrMakeupNotSchedulable):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Makeup exam cannot be scheduled"})
	case errors.Is(err, services.ErrDeadlinePassed):
		c.JSON(http.StatusGone, ErrorResponse{Message: "Assignment deadline has passed"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
