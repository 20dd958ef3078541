package repositories

import (
	"context"
	"time"

	"github.com/skillforge/assessment-engine/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	Status    *models.ExamStatus `json:"status"`
	CreatedBy *string            `json:"created_by"`
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type AssignmentFilters struct {
	Status         *models.AssignmentStatus  `json:"status"`
	Statuses       []models.AssignmentStatus `json:"statuses"`
	CandidateID    *string                   `json:"candidate_id"`
	ExamID         *uint                     `json:"exam_id"`
	IsPractice     *bool                     `json:"is_practice"`
	HasDeadline    *bool                     `json:"has_deadline"`
	DeadlineBefore *time.Time                `json:"deadline_before"`
	Limit          int                       `json:"limit"`
	Offset         int                       `json:"offset"`
	SortBy         string                    `json:"sort_by"`
	SortOrder      string                    `json:"sort_order"`
}

type WrongQuestionFilters struct {
	IsReviewed *bool `json:"is_reviewed"`
	CategoryID *uint `json:"category_id"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

type NotificationFilters struct {
	Type   *models.NotificationType `json:"type"`
	IsRead *bool                    `json:"is_read"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

type RecommendationFilters struct {
	Type   *models.RecommendationType `json:"type"`
	IsRead *bool                      `json:"is_read"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

// ===== ENTITY REPOSITORIES =====

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	UpdateStatus(ctx context.Context, id uint, status models.ExamStatus) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)
}

type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
	GetByIDWithExam(ctx context.Context, id uint) (*models.Assignment, error)
	Update(ctx context.Context, assignment *models.Assignment) error

	// UpdateStatusFrom transitions status only when the current status is one
	// of the given values; returns the number of rows changed. Concurrent
	// grading of the same assignment serializes on this check.
	UpdateStatusFrom(ctx context.Context, id uint, from []models.AssignmentStatus, to models.AssignmentStatus) (int64, error)

	List(ctx context.Context, filters AssignmentFilters) ([]*models.Assignment, int64, error)
	GetActiveByExamAndCandidate(ctx context.Context, examID uint, candidateID string) (*models.Assignment, error)
}

type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error)
	GetByAssignmentAndQuestion(ctx context.Context, assignmentID, questionID uint) (*models.Submission, error)

	// Upsert creates or replaces the row keyed by (assignment, question).
	Upsert(ctx context.Context, submission *models.Submission) error
	UpsertBatch(ctx context.Context, submissions []*models.Submission) error
}

type ScoreRepository interface {
	// Upsert creates or overwrites the single Score row for an assignment.
	Upsert(ctx context.Context, score *models.Score) error
	GetByAssignment(ctx context.Context, assignmentID uint) (*models.Score, error)
}

type AssignmentActionRepository interface {
	// Record inserts the (assignment, action) pair; it reports false without
	// error when the pair already exists.
	Record(ctx context.Context, action *models.AssignmentAction) (bool, error)
	Exists(ctx context.Context, assignmentID uint, action models.AssignmentActionType) (bool, error)
	GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.AssignmentAction, error)
}

type MakeupExamRepository interface {
	Create(ctx context.Context, makeup *models.MakeupExam) error
	GetByID(ctx context.Context, id uint) (*models.MakeupExam, error)
	GetByOriginAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error)
	GetByMakeupAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error)
	Update(ctx context.Context, makeup *models.MakeupExam) error
	ListByCandidate(ctx context.Context, candidateID string) ([]*models.MakeupExam, error)

	// ListExpirable returns scheduled makeups whose deadline has passed and
	// whose linked assignment never reached graded.
	ListExpirable(ctx context.Context, now time.Time) ([]*models.MakeupExam, error)
}

type WrongQuestionRepository interface {
	GetByCandidateAndQuestion(ctx context.Context, candidateID string, questionID uint) (*models.WrongQuestionEntry, error)

	// Upsert inserts the entry with wrong_count = 1, or increments wrong_count,
	// refreshes last_wrong_at and clears the reviewed flag on conflict.
	Upsert(ctx context.Context, candidateID string, questionID uint, at time.Time) error

	MarkReviewed(ctx context.Context, candidateID string, ids []uint, at time.Time) (int64, error)
	Delete(ctx context.Context, candidateID string, questionID uint) error
	ListByCandidate(ctx context.Context, candidateID string, filters WrongQuestionFilters) ([]*models.WrongQuestionEntry, int64, error)
}

type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.LearningRecommendation) error
	CreateBatch(ctx context.Context, recs []*models.LearningRecommendation) error
	ListByCandidate(ctx context.Context, candidateID string, filters RecommendationFilters) ([]*models.LearningRecommendation, int64, error)
	MarkRead(ctx context.Context, candidateID string, id uint) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, filters NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, recipientID string, id uint) error
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByRole(ctx context.Context, role models.UserRole) ([]*models.User, error)
}
