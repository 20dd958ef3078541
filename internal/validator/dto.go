package validator

import (
	"time"

	"gorm.io/datatypes"

	"github.com/skillforge/assessment-engine/internal/models"
)

// ExamCreateRequest is the payload for creating an exam.
type ExamCreateRequest struct {
	Title         string                `json:"title" validate:"required,exam_title"`
	Description   *string               `json:"description" validate:"omitempty,max=1000"`
	TimeLimit     *int                  `json:"time_limit" validate:"omitempty,time_limit"`
	PassingScore  int                   `json:"passing_score" validate:"passing_score"`
	GradingMethod models.GradingMethod  `json:"grading_method" validate:"omitempty,oneof=auto manual mixed"`
	Questions     []ExamQuestionRequest `json:"questions" validate:"omitempty,dive"`
}

// ExamUpdateRequest is the payload for updating a draft exam.
type ExamUpdateRequest struct {
	Title        *string `json:"title" validate:"omitempty,exam_title"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	TimeLimit    *int    `json:"time_limit" validate:"omitempty,time_limit"`
	PassingScore *int    `json:"passing_score" validate:"omitempty,passing_score"`
}

// ExamQuestionRequest attaches a question to an exam with an optional point override.
type ExamQuestionRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
	Order      int  `json:"order" validate:"required,min=1"`
	Points     *int `json:"points" validate:"omitempty,points_range"`
}

// AssignRequest assigns an exam to one or more candidates.
type AssignRequest struct {
	ExamID       uint       `json:"exam_id" validate:"required"`
	CandidateIDs []string   `json:"candidate_ids" validate:"required,min=1,dive,required"`
	Deadline     *time.Time `json:"deadline" validate:"omitempty,future_date"`
	IsPractice   bool       `json:"is_practice"`
}

// SaveAnswerRequest stores one answer on an in-progress assignment.
type SaveAnswerRequest struct {
	QuestionID uint           `json:"question_id" validate:"required"`
	Answer     datatypes.JSON `json:"answer" validate:"required"`
}

// SubmitRequest submits an assignment, optionally carrying final answers.
type SubmitRequest struct {
	Answers []SaveAnswerRequest `json:"answers" validate:"omitempty,dive"`
}

// ReopenRequest reverts a graded assignment for re-examination.
type ReopenRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// MakeupScheduleRequest schedules a pending makeup exam.
type MakeupScheduleRequest struct {
	Deadline *time.Time `json:"deadline" validate:"omitempty,future_date"`
	Notes    string     `json:"notes" validate:"omitempty,max=1000"`
}

// MarkReviewedRequest marks wrong-question ledger entries as reviewed.
type MarkReviewedRequest struct {
	EntryIDs []uint `json:"entry_ids" validate:"required,min=1"`
}
