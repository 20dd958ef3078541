package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/services"
	"github.com/skillforge/assessment-engine/internal/utils"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type WrongQuestionHandler struct {
	BaseHandler
	wrongQuestionService services.WrongQuestionService
	validator            *validator.Validator
}

func NewWrongQuestionHandler(wrongQuestionService services.WrongQuestionService, validator *validator.Validator, logger utils.Logger) *WrongQuestionHandler {
	return &WrongQuestionHandler{
		BaseHandler:          NewBaseHandler(logger),
		wrongQuestionService: wrongQuestionService,
		validator:            validator,
	}
}

// GetMyWrongQuestions lists the calling candidate's wrong-question ledger
// @Summary Get my wrong questions
// @Tags wrong-questions
// @Produce json
// @Param is_reviewed query bool false "Filter by reviewed flag"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {array} models.WrongQuestionEntry
// @Router /wrong-questions/me [get]
func (h *WrongQuestionHandler) GetMyWrongQuestions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.WrongQuestionFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if reviewed := c.Query("is_reviewed"); reviewed != "" {
		isReviewed := reviewed == "true"
		filters.IsReviewed = &isReviewed
	}
	if categoryID := h.parseIntQuery(c, "category_id", 0); categoryID > 0 {
		id := uint(categoryID)
		filters.CategoryID = &id
	}

	entries, total, err := h.wrongQuestionService.ListByCandidate(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"page":    page,
		"size":    size,
	})
}

// MarkReviewed marks ledger entries as reviewed
// @Summary Mark wrong questions reviewed
// @Tags wrong-questions
// @Accept json
// @Produce json
// @Param entries body services.MarkReviewedRequest true "Entry IDs"
// @Success 200 {object} SuccessResponse
// @Router /wrong-questions/reviewed [post]
func (h *WrongQuestionHandler) MarkReviewed(c *gin.Context) {
	var req services.MarkReviewedRequest
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

	updated, err := h.wrongQuestionService.MarkReviewed(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Entries marked as reviewed",
		Data:    gin.H{"updated": updated},
	})
}

// ResolveWrongQuestion removes a question from the candidate's ledger
// @Summary Resolve wrong question
// @Tags wrong-questions
// @Produce json
// @Param question_id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /wrong-questions/{question_id} [delete]
func (h *WrongQuestionHandler) ResolveWrongQuestion(c *gin.Context) {
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.wrongQuestionService.Resolve(c.Request.Context(), userID, questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Wrong question resolved",
	})
}
