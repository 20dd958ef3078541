package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/services"
	"github.com/skillforge/assessment-engine/internal/utils"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type AssignmentHandler struct {
	BaseHandler
	assignmentService services.AssignmentService
	gradingService    services.GradingService
	validator         *validator.Validator
}

func NewAssignmentHandler(
	assignmentService services.AssignmentService,
	gradingService services.GradingService,
	validator *validator.Validator,
	logger utils.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentService: assignmentService,
		gradingService:    gradingService,
		validator:         validator,
	}
}

// AssignExam assigns an exam to one or more candidates
// @Summary Assign exam
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment body services.AssignRequest true "Assignment data"
// @Success 201 {array} services.AssignmentResponse
// @Failure 400 {object} ErrorResponse
// @Router /assignments [post]
func (h *AssignmentHandler) AssignExam(c *gin.Context) {
	h.LogRequest(c, "Assigning exam")

	var req services.AssignRequest
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

	assignments, err := h.assignmentService.Assign(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assignments)
}

// StartAssignment opens a pending assignment for answering
// @Summary Start assignment
// @Tags assignments
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} services.AssignmentResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /assignments/{id}/start [post]
func (h *AssignmentHandler) StartAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Starting assignment", "assignment_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	assignment, err := h.assignmentService.Start(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// SaveAnswer stores one answer on an in-progress assignment
// @Summary Save answer
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path uint true "Assignment ID"
// @Param answer body services.SaveAnswerRequest true "Answer data"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /assignments/{id}/answers [post]
func (h *AssignmentHandler) SaveAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SaveAnswerRequest
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

	if err := h.assignmentService.SaveAnswer(c.Request.Context(), id, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer saved successfully",
	})
}

// SubmitAssignment submits the assignment and triggers grading
// @Summary Submit assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path uint true "Assignment ID"
// @Param submission body services.SubmitRequest false "Final answers"
// @Success 200 {object} services.AssignmentResponse
// @Failure 409 {object} ErrorResponse
// @Router /assignments/{id}/submit [post]
func (h *AssignmentHandler) SubmitAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Submitting assignment", "assignment_id", id)

	var req services.SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	assignment, err := h.assignmentService.Submit(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// HandleTimeout force-submits an assignment whose time limit elapsed
// @Summary Handle assignment timeout
// @Tags assignments
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} SuccessResponse
// @Router /assignments/{id}/timeout [post]
func (h *AssignmentHandler) HandleTimeout(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Handling assignment timeout", "assignment_id", id)

	if err := h.assignmentService.HandleTimeout(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Timeout handled",
	})
}

// ReopenAssignment reverts a graded assignment for re-examination
// @Summary Reopen assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path uint true "Assignment ID"
// @Param reopen body services.ReopenRequest true "Reopen reason"
// @Success 200 {object} services.AssignmentResponse
// @Failure 403 {object} ErrorResponse
// @Router /assignments/{id}/reopen [post]
func (h *AssignmentHandler) ReopenAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Reopening assignment", "assignment_id", id)

	var req services.ReopenRequest
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

	assignment, err := h.assignmentService.Reopen(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// GetAssignment retrieves an assignment by ID
// @Summary Get assignment
// @Tags assignments
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} services.AssignmentResponse
// @Failure 404 {object} ErrorResponse
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	assignment, err := h.assignmentService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// ListAssignments lists assignments with filters (staff view)
// @Summary List assignments
// @Tags assignments
// @Produce json
// @Param status query string false "Assignment status"
// @Param exam_id query int false "Exam ID"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.AssignmentListResponse
// @Router /assignments [get]
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignmentService.List(c.Request.Context(), h.parseAssignmentFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// GetMyAssignments lists the calling candidate's assignments
// @Summary Get my assignments
// @Tags assignments
// @Produce json
// @Success 200 {object} services.AssignmentListResponse
// @Router /assignments/me [get]
func (h *AssignmentHandler) GetMyAssignments(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	assignments, err := h.assignmentService.GetByCandidate(c.Request.Context(), userID, h.parseAssignmentFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// GradeAssignment runs grading for a submitted assignment
// @Summary Grade assignment
// @Tags grading
// @Produce json
// @Param id path uint true "Assignment ID"
// @Success 200 {object} services.AssignmentGradingResult
// @Failure 409 {object} ErrorResponse
// @Router /assignments/{id}/grade [post]
func (h *AssignmentHandler) GradeAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Grading assignment", "assignment_id", id)

	result, err := h.gradingService.GradeAssignment(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type gradeSubmissionRequest struct {
	Score   float64 `json:"score" validate:"min=0"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// GradeSubmission manually overrides the score of one submission
// @Summary Grade submission
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param grade body gradeSubmissionRequest true "Score override"
// @Success 200 {object} services.SubmissionGradingResult
// @Failure 403 {object} ErrorResponse
// @Router /grading/submissions/{id} [post]
func (h *AssignmentHandler) GradeSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Manually grading submission", "submission_id", id)

	var req gradeSubmissionRequest
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

	result, err := h.gradingService.GradeSubmission(c.Request.Context(), id, req.Score, req.Comment, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AssignmentHandler) parseAssignmentFilters(c *gin.Context) repositories.AssignmentFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.AssignmentFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if status := c.Query("status"); status != "" {
		assignmentStatus := models.AssignmentStatus(status)
		filters.Status = &assignmentStatus
	}
	if examID := h.parseIntQuery(c, "exam_id", 0); examID > 0 {
		id := uint(examID)
		filters.ExamID = &id
	}
	if candidateID := strings.TrimSpace(c.Query("candidate_id")); candidateID != "" {
		filters.CandidateID = &candidateID
	}

	return filters
}
