package models

import "time"

type NotificationType string

const (
	NotificationAssignmentAssigned NotificationType = "assignment_assigned"
	NotificationDeadlineReminder   NotificationType = "deadline_reminder"
	NotificationAssignmentOverdue  NotificationType = "assignment_overdue"
	NotificationGradingCompleted   NotificationType = "grading_completed"
	NotificationExamFailed         NotificationType = "exam_failed"
	NotificationMakeupCreated      NotificationType = "makeup_created"
	NotificationMakeupScheduled    NotificationType = "makeup_scheduled"
	NotificationMakeupExpired      NotificationType = "makeup_expired"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is produced by the engine; delivery happens out of band
// through the event pipeline.
type Notification struct {
	ID          uint                 `json:"id" gorm:"primaryKey"`
	RecipientID string               `json:"recipient_id" gorm:"not null;index;size:255"`
	Type        NotificationType     `json:"type" gorm:"not null;size:50;index"`
	Priority    NotificationPriority `json:"priority" gorm:"default:normal;size:10"`
	Title       string               `json:"title" gorm:"not null;size:200"`
	Content     string               `json:"content" gorm:"type:text"`

	// Optional references
	ExamID       *uint `json:"exam_id" gorm:"index"`
	AssignmentID *uint `json:"assignment_id" gorm:"index"`
	MakeupExamID *uint `json:"makeup_exam_id" gorm:"index"`

	IsRead bool       `json:"is_read" gorm:"default:false;index"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
