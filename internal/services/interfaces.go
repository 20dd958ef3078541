package services

import (
	"context"
	"time"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type ExamQuestionRequest = validator.ExamQuestionRequest
type AssignRequest = validator.AssignRequest
type SaveAnswerRequest = validator.SaveAnswerRequest
type SubmitRequest = validator.SubmitRequest
type ReopenRequest = validator.ReopenRequest
type MakeupScheduleRequest = validator.MakeupScheduleRequest
type MarkReviewedRequest = validator.MarkReviewedRequest

type ExamResponse struct {
	*models.Exam
	CanEdit    bool `json:"can_edit"`
	CanPublish bool `json:"can_publish"`
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type AssignmentResponse struct {
	*models.Assignment
	CanStart  bool `json:"can_start"`
	CanSubmit bool `json:"can_submit"`
	IsOverdue bool `json:"is_overdue"`
}

type AssignmentListResponse struct {
	Assignments []*AssignmentResponse `json:"assignments"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

// ===== GRADING RELATED DTOs =====

type SubmissionGradingResult struct {
	SubmissionID uint    `json:"submission_id"`
	QuestionID   uint    `json:"question_id"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	IsCorrect    *bool   `json:"is_correct"`
	NeedsReview  bool    `json:"needs_review"`
	Comment      *string `json:"comment,omitempty"`
}

type AssignmentGradingResult struct {
	AssignmentID uint                      `json:"assignment_id"`
	TotalScore   float64                   `json:"total_score"`
	MaxScore     float64                   `json:"max_score"`
	Percentage   float64                   `json:"percentage"`
	Passed       bool                      `json:"passed"`
	Questions    []SubmissionGradingResult `json:"questions"`
	GradedAt     time.Time                 `json:"graded_at"`
	GradedBy     *string                   `json:"graded_by"`
}

// ===== NOTIFICATION RELATED DTOs =====

type NotificationRequest struct {
	Type         models.NotificationType     `json:"type" validate:"required"`
	Priority     models.NotificationPriority `json:"priority"`
	Title        string                      `json:"title" validate:"required,max=200"`
	Content      string                      `json:"content" validate:"required,max=2000"`
	ExamID       *uint                       `json:"exam_id"`
	AssignmentID *uint                       `json:"assignment_id"`
	MakeupExamID *uint                       `json:"makeup_exam_id"`
}

// ===== SCHEDULER RELATED DTOs =====

// SweepResult summarizes one pass of a background sweep.
type SweepResult struct {
	Scanned   int       `json:"scanned"`
	Acted     int       `json:"acted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

// ===== SERVICE INTERFACES =====

type ExamService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint) (*ExamResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*ExamResponse, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*ExamResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.ExamFilters) (*ExamListResponse, error)

	// Status management
	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error
}

type AssignmentService interface {
	// Lifecycle operations
	Assign(ctx context.Context, req *AssignRequest, assignerID string) ([]*AssignmentResponse, error)
	Start(ctx context.Context, id uint, candidateID string) (*AssignmentResponse, error)
	SaveAnswer(ctx context.Context, id uint, req *SaveAnswerRequest, candidateID string) error
	Submit(ctx context.Context, id uint, req *SubmitRequest, candidateID string) (*AssignmentResponse, error)
	HandleTimeout(ctx context.Context, id uint) error
	Reopen(ctx context.Context, id uint, req *ReopenRequest, adminID string) (*AssignmentResponse, error)

	// Get operations
	GetByID(ctx context.Context, id uint, userID string) (*AssignmentResponse, error)
	List(ctx context.Context, filters repositories.AssignmentFilters) (*AssignmentListResponse, error)
	GetByCandidate(ctx context.Context, candidateID string, filters repositories.AssignmentFilters) (*AssignmentListResponse, error)

	// Validation
	CanTransition(current, next models.AssignmentStatus) bool
}

type GradingService interface {
	// Grades every submission of a submitted assignment and finalizes the score.
	GradeAssignment(ctx context.Context, assignmentID uint) (*AssignmentGradingResult, error)

	// Manual override for a single subjective submission.
	GradeSubmission(ctx context.Context, submissionID uint, score float64, comment *string, graderID string) (*SubmissionGradingResult, error)

	// Grading utilities
	GradeObjectiveAnswer(questionType models.QuestionType, questionContent, candidateAnswer []byte) (bool, error)
}

type MakeupService interface {
	// Failure intake; idempotent per origin assignment.
	HandleFailedAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error)

	// Lifecycle
	Schedule(ctx context.Context, makeupID uint, req *MakeupScheduleRequest, userID string) (*models.MakeupExam, error)
	CompleteFromAssignment(ctx context.Context, makeupAssignmentID uint, score *models.Score) error
	RunExpirySweep(ctx context.Context, now time.Time) (*SweepResult, error)

	// Get operations
	GetByID(ctx context.Context, id uint) (*models.MakeupExam, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]*models.MakeupExam, error)
}

type WrongQuestionService interface {
	// Records every incorrectly answered question of a graded assignment.
	// Returns how many entries were touched; repeat calls for the same
	// assignment are no-ops.
	CollectFromAssignment(ctx context.Context, assignmentID uint) (int, error)

	MarkReviewed(ctx context.Context, candidateID string, req *MarkReviewedRequest) (int64, error)
	Resolve(ctx context.Context, candidateID string, questionID uint) error
	ListByCandidate(ctx context.Context, candidateID string, filters repositories.WrongQuestionFilters) ([]*models.WrongQuestionEntry, int64, error)
}

type SchedulerService interface {
	// Deadline reminders at 3 days, 1 day and due day; at most once each.
	RunReminderSweep(ctx context.Context, now time.Time) (*SweepResult, error)

	// Marks past-deadline unfinished assignments overdue and feeds the
	// makeup pipeline.
	RunOverdueSweep(ctx context.Context, now time.Time) (*SweepResult, error)
}

type NotificationService interface {
	Send(ctx context.Context, recipientID string, req *NotificationRequest) (*models.Notification, error)
	SendBulkNotification(ctx context.Context, recipientIDs []string, req *NotificationRequest) error

	ListByRecipient(ctx context.Context, recipientID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, recipientID string, id uint) error
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Exam() ExamService
	Assignment() AssignmentService
	Grading() GradingService
	Makeup() MakeupService
	WrongQuestion() WrongQuestionService
	Scheduler() SchedulerService
	Notification() NotificationService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
