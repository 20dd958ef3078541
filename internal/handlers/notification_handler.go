package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/services"
	"github.com/skillforge/assessment-engine/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
	}
}

// GetMyNotifications lists the calling user's notifications
// @Summary Get my notifications
// @Tags notifications
// @Produce json
// @Param is_read query bool false "Filter by read flag"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {array} models.Notification
// @Router /notifications/me [get]
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.NotificationFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if read := c.Query("is_read"); read != "" {
		isRead := read == "true"
		filters.IsRead = &isRead
	}
	if notifType := c.Query("type"); notifType != "" {
		t := models.NotificationType(notifType)
		filters.Type = &t
	}

	notifications, total, err := h.notificationService.ListByRecipient(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"size":          size,
	})
}

// MarkNotificationRead marks one notification as read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path uint true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), userID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Notification marked as read",
	})
}

// GetUnreadCount returns the calling user's unread notification count
// @Summary Get unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}
