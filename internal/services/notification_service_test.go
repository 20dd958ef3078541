package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillforge/assessment-engine/internal/events"
	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

func newNotificationService(repo *fakeRepo) (NotificationService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewNotificationService(repo, testLogger(), validator.New(), publisher)
	return svc, publisher
}

func TestSendNotification(t *testing.T) {
	repo := newFakeRepo()
	svc, publisher := newNotificationService(repo)
	ctx := context.Background()

	examID := uint(7)
	notification, err := svc.Send(ctx, "student-1", &NotificationRequest{
		Type:    models.NotificationGradingCompleted,
		Title:   "Your exam was graded",
		Content: "You scored 85%.",
		ExamID:  &examID,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if notification.ID == 0 {
		t.Error("notification was not persisted")
	}
	if notification.Priority != models.PriorityNormal {
		t.Errorf("priority = %s, want the normal default", notification.Priority)
	}
	if notification.IsRead {
		t.Error("a fresh notification must be unread")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	event := published[0]
	if event.Type != "notification.created" {
		t.Errorf("event type = %s, want notification.created", event.Type)
	}
	if event.Source != "assessment-engine" || event.Version != "1.0" {
		t.Errorf("envelope = %s/%s, want assessment-engine/1.0", event.Source, event.Version)
	}
	data, ok := event.Data.(notificationEventData)
	if !ok {
		t.Fatalf("event data has type %T", event.Data)
	}
	if data.NotificationID != notification.ID || data.RecipientID != "student-1" {
		t.Errorf("event data = %+v, want the persisted notification", data)
	}
	if data.ExamID == nil || *data.ExamID != examID {
		t.Errorf("event exam_id = %v, want %d", data.ExamID, examID)
	}

	t.Run("explicit priority is kept", func(t *testing.T) {
		notification, err := svc.Send(ctx, "student-1", &NotificationRequest{
			Type:     models.NotificationDeadlineReminder,
			Priority: models.PriorityHigh,
			Title:    "Due today",
			Content:  "Your exam is due today.",
		})
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		if notification.Priority != models.PriorityHigh {
			t.Errorf("priority = %s, want high", notification.Priority)
		}
	})

	t.Run("empty recipient rejected", func(t *testing.T) {
		_, err := svc.Send(ctx, "", &NotificationRequest{
			Type:    models.NotificationGradingCompleted,
			Title:   "t",
			Content: "c",
		})
		if !IsValidationError(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("missing title rejected", func(t *testing.T) {
		_, err := svc.Send(ctx, "student-1", &NotificationRequest{
			Type:    models.NotificationGradingCompleted,
			Content: "c",
		})
		if err == nil {
			t.Error("expected validation failure for a missing title")
		}
	})
}

func TestSendBulkNotification(t *testing.T) {
	repo := newFakeRepo()
	svc, publisher := newNotificationService(repo)
	ctx := context.Background()

	recipients := []string{"student-1", "student-2", "student-3"}
	err := svc.SendBulkNotification(ctx, recipients, &NotificationRequest{
		Type:    models.NotificationDeadlineReminder,
		Title:   "Maintenance window",
		Content: "The platform is down tonight between 02:00 and 03:00.",
	})
	if err != nil {
		t.Fatalf("SendBulkNotification: %v", err)
	}

	for _, recipientID := range recipients {
		rows, total, err := svc.ListByRecipient(ctx, recipientID, repositories.NotificationFilters{})
		if err != nil {
			t.Fatalf("ListByRecipient(%s): %v", recipientID, err)
		}
		if total != 1 || len(rows) != 1 {
			t.Errorf("recipient %s has %d notifications, want 1", recipientID, total)
		}
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("published %d events, want a single bulk event", len(published))
	}
	event := published[0]
	if event.Type != "system.bulk_notification" {
		t.Errorf("event type = %s, want system.bulk_notification", event.Type)
	}
	data, ok := event.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("event data has type %T", event.Data)
	}
	if count, _ := data["recipient_count"].(int); count != len(recipients) {
		t.Errorf("recipient_count = %v, want %d", data["recipient_count"], len(recipients))
	}

	t.Run("empty recipient list rejected", func(t *testing.T) {
		err := svc.SendBulkNotification(ctx, nil, &NotificationRequest{
			Type:    models.NotificationDeadlineReminder,
			Title:   "t",
			Content: "c",
		})
		if !IsValidationError(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})
}

func TestMarkReadAndCount(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newNotificationService(repo)
	ctx := context.Background()

	var first *models.Notification
	for i := 0; i < 3; i++ {
		n, err := svc.Send(ctx, "student-1", &NotificationRequest{
			Type:    models.NotificationGradingCompleted,
			Title:   "Graded",
			Content: "Result available.",
		})
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		if first == nil {
			first = n
		}
	}

	if unread, err := svc.CountUnread(ctx, "student-1"); err != nil || unread != 3 {
		t.Fatalf("CountUnread = %d (%v), want 3", unread, err)
	}

	if err := svc.MarkRead(ctx, "student-1", first.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if unread, err := svc.CountUnread(ctx, "student-1"); err != nil || unread != 2 {
		t.Errorf("CountUnread = %d (%v), want 2 after marking one read", unread, err)
	}

	t.Run("read filter", func(t *testing.T) {
		read := true
		rows, total, err := svc.ListByRecipient(ctx, "student-1", repositories.NotificationFilters{IsRead: &read})
		if err != nil {
			t.Fatalf("ListByRecipient: %v", err)
		}
		if total != 1 || len(rows) != 1 || rows[0].ID != first.ID {
			t.Errorf("read filter returned %d rows, want the single read notification", total)
		}
	})

	t.Run("cannot mark someone else's notification", func(t *testing.T) {
		if err := svc.MarkRead(ctx, "student-2", first.ID); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("err = %v, want ErrEntryNotFound", err)
		}
	})

	t.Run("unknown notification", func(t *testing.T) {
		if err := svc.MarkRead(ctx, "student-1", 99999); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("err = %v, want ErrEntryNotFound", err)
		}
	})
}
