package models

import (
	"time"

	"gorm.io/datatypes"
)

type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentSubmitted  AssignmentStatus = "submitted"
	AssignmentGraded     AssignmentStatus = "graded"
)

const (
	SubmitReasonTimeout = "time_out"
	SubmitReasonManual  = "submitted"
)

// Assignment is one candidate's instance of taking one exam.
type Assignment struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	ExamID      uint             `json:"exam_id" gorm:"not null;index"`
	CandidateID string           `json:"candidate_id" gorm:"not null;index;size:255"`
	Status      AssignmentStatus `json:"status" gorm:"default:pending;index"`

	// Practice runs never feed the makeup or wrong-question pipelines.
	IsPractice bool `json:"is_practice" gorm:"default:false"`

	// Timing
	AssignedAt  time.Time  `json:"assigned_at"`
	StartedAt   *time.Time `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Deadline    *time.Time `json:"deadline" gorm:"index"`
	EndReason   *string    `json:"end_reason" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam        Exam         `json:"exam" gorm:"foreignKey:ExamID"`
	Candidate   User         `json:"candidate" gorm:"foreignKey:CandidateID"`
	Submissions []Submission `json:"submissions" gorm:"foreignKey:AssignmentID"`
	Score       *Score       `json:"score" gorm:"foreignKey:AssignmentID"`
}

// Submission holds one candidate answer per (assignment, question).
type Submission struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssignmentID uint `json:"assignment_id" gorm:"not null;index;uniqueIndex:idx_assignment_question"`
	QuestionID   uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_assignment_question"`

	// Raw answer as submitted (JSON string or string array).
	Answer datatypes.JSON `json:"answer" gorm:"type:jsonb"`

	// Grading; nil until the assignment is graded.
	IsCorrect *bool    `json:"is_correct"`
	Score     *float64 `json:"score"`
	MaxScore  int      `json:"max_score"`

	// AI evaluation payload for short answers (AIEvaluation, marshaled).
	AIEvaluation datatypes.JSON `json:"ai_evaluation" gorm:"type:jsonb"`
	Comment      *string        `json:"comment" gorm:"type:text"`

	AnsweredAt *time.Time `json:"answered_at"`
	GradedAt   *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assignment Assignment `json:"assignment" gorm:"foreignKey:AssignmentID"`
	Question   Question   `json:"question" gorm:"foreignKey:QuestionID"`
}

// Score is the aggregate grading result; unique per assignment, so a
// re-grade overwrites rather than appends.
type Score struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssignmentID uint `json:"assignment_id" gorm:"not null;uniqueIndex"`

	TotalScore float64 `json:"total_score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"` // whole number, 0-100
	Passed     bool    `json:"passed"`

	// GradedBy is nil for automatic grading.
	GradedBy *string   `json:"graded_by" gorm:"size:255"`
	GradedAt time.Time `json:"graded_at"`
	Feedback *string   `json:"feedback" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AIEvaluation is the structured result of the AI grader for one submission.
type AIEvaluation struct {
	Quality     int      `json:"quality"` // 0-100
	Passed      bool     `json:"passed"`  // quality >= 60, informational
	Reasoning   string   `json:"reasoning"`
	Suggestions []string `json:"suggestions,omitempty"`
	NeedsReview bool     `json:"needs_review"` // true when automatic grading failed
}

type AssignmentActionType string

const (
	ActionReminder3Days          AssignmentActionType = "reminder_3d"
	ActionReminder1Day           AssignmentActionType = "reminder_1d"
	ActionReminderDue            AssignmentActionType = "reminder_0d"
	ActionMarkedOverdue          AssignmentActionType = "overdue"
	ActionWrongQuestionCollected AssignmentActionType = "wrong_questions_collected"
)

// AssignmentAction is a persistent idempotency record: each (assignment,
// action) pair is applied at most once, surviving process restarts.
type AssignmentAction struct {
	ID           uint                 `json:"id" gorm:"primaryKey"`
	AssignmentID uint                 `json:"assignment_id" gorm:"not null;index;uniqueIndex:idx_assignment_action"`
	Action       AssignmentActionType `json:"action" gorm:"not null;size:50;uniqueIndex:idx_assignment_action"`

	// Audit payload (e.g. overdue day count and original deadline).
	Detail datatypes.JSON `json:"detail" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (Submission) TableName() string {
	return "submissions"
}

func (Score) TableName() string {
	return "scores"
}

func (AssignmentAction) TableName() string {
	return "assignment_actions"
}
