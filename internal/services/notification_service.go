package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillforge/assessment-engine/internal/events"
	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

const notificationTopic = "assessment.notifications"

type notificationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewNotificationService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) NotificationService {
	return &notificationService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// notificationEventData is the payload carried by notification events.
// Delivery (mail, push, in-app fan-out) happens downstream of the topic.
type notificationEventData struct {
	NotificationID uint                        `json:"notification_id"`
	RecipientID    string                      `json:"recipient_id"`
	Type           models.NotificationType     `json:"notification_type"`
	Priority       models.NotificationPriority `json:"priority"`
	Title          string                      `json:"title"`
	Content        string                      `json:"content"`
	ExamID         *uint                       `json:"exam_id,omitempty"`
	AssignmentID   *uint                       `json:"assignment_id,omitempty"`
	MakeupExamID   *uint                       `json:"makeup_exam_id,omitempty"`
}

func (s *notificationService) Send(ctx context.Context, recipientID string, req *NotificationRequest) (*models.Notification, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if recipientID == "" {
		return nil, NewValidationError("recipient_id", "recipient is required", recipientID)
	}

	notification := s.buildNotification(recipientID, req)
	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.publish(ctx, "notification.created", notification)

	return notification, nil
}

// SendBulkNotification persists one row per recipient and publishes a single
// bulk event. A persistence failure aborts the whole batch so a retry never
// half-delivers.
func (s *notificationService) SendBulkNotification(ctx context.Context, recipientIDs []string, req *NotificationRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if len(recipientIDs) == 0 {
		return NewValidationError("recipient_ids", "at least one recipient is required", recipientIDs)
	}

	notifications := make([]*models.Notification, len(recipientIDs))
	for i, recipientID := range recipientIDs {
		notifications[i] = s.buildNotification(recipientID, req)
	}

	if err := s.repo.Notification().CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	if s.publisher != nil {
		event := events.NewEvent("system.bulk_notification", map[string]interface{}{
			"notification_type": req.Type,
			"priority":          req.Priority,
			"title":             req.Title,
			"recipient_count":   len(recipientIDs),
			"recipient_ids":     recipientIDs,
		})
		if err := s.publisher.Publish(ctx, notificationTopic, event); err != nil {
			// Rows are persisted; the event stream is best effort.
			s.logger.Error("Failed to publish bulk notification event",
				"type", req.Type,
				"recipients", len(recipientIDs),
				"error", err)
		}
	}

	s.logger.Info("Bulk notification sent",
		"type", req.Type,
		"recipients", len(recipientIDs))

	return nil
}

func (s *notificationService) ListByRecipient(ctx context.Context, recipientID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	return s.repo.Notification().ListByRecipient(ctx, recipientID, filters)
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID string, id uint) error {
	err := s.repo.Notification().MarkRead(ctx, recipientID, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.Notification().CountUnread(ctx, recipientID)
}

// ===== HELPERS =====

func (s *notificationService) buildNotification(recipientID string, req *NotificationRequest) *models.Notification {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	return &models.Notification{
		RecipientID:  recipientID,
		Type:         req.Type,
		Priority:     priority,
		Title:        req.Title,
		Content:      req.Content,
		ExamID:       req.ExamID,
		AssignmentID: req.AssignmentID,
		MakeupExamID: req.MakeupExamID,
		CreatedAt:    time.Now(),
	}
}

func (s *notificationService) publish(ctx context.Context, eventType string, notification *models.Notification) {
	if s.publisher == nil {
		return
	}

	event := events.NewEvent(eventType, notificationEventData{
		NotificationID: notification.ID,
		RecipientID:    notification.RecipientID,
		Type:           notification.Type,
		Priority:       notification.Priority,
		Title:          notification.Title,
		Content:        notification.Content,
		ExamID:         notification.ExamID,
		AssignmentID:   notification.AssignmentID,
		MakeupExamID:   notification.MakeupExamID,
	})
	if err := s.publisher.Publish(ctx, notificationTopic, event); err != nil {
		s.logger.Error("Failed to publish notification event",
			"notification_id", notification.ID,
			"type", notification.Type,
			"error", err)
	}
}
