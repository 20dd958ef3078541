package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	TrueFalse      QuestionType = "true_false"
	MultipleChoice QuestionType = "multiple_choice"
	MultipleAnswer QuestionType = "multiple_answer"
	ShortAnswer    QuestionType = "short_answer"
)

// IsObjective reports whether answers of this type are graded by exact
// comparison against the canonical answer. Short answers go through the
// AI grader instead.
func (t QuestionType) IsObjective() bool {
	return t == TrueFalse || t == MultipleChoice || t == MultipleAnswer
}

// Question is consumed read-only by the grading engine. The question bank
// that authors these rows lives in another service.
type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	Type   QuestionType `json:"type" gorm:"not null;index"`
	Text   string       `json:"text" gorm:"type:text;not null" validate:"required"`
	Points int          `json:"points" gorm:"default:10" validate:"min=1,max=100"` // Default points. Actual points come from ExamQuestion.Points.

	// Canonical answer: a JSON string for true_false/multiple_choice,
	// a JSON string array for multiple_answer, unused for short_answer.
	Answer datatypes.JSON `json:"answer" gorm:"type:jsonb"`

	// Type-specific content (options, reference answer, rubric) as JSONB.
	Content datatypes.JSON `json:"content" gorm:"type:jsonb"`

	// Categorization
	CategoryID *uint          `json:"category_id" gorm:"index"`
	Tags       datatypes.JSON `json:"tags" gorm:"type:jsonb"` // []string

	// Metadata
	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Category *QuestionCategory `json:"category" gorm:"foreignKey:CategoryID"`
}

// ExamQuestion links a question into an exam with per-exam overrides.
type ExamQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamID     uint `json:"exam_id" gorm:"not null;index;uniqueIndex:idx_exam_question"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_exam_question"`

	Order  int  `json:"order" gorm:"not null"`
	Points *int `json:"points"` // Overrides Question.Points when set.

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam     Exam     `json:"exam" gorm:"foreignKey:ExamID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

// PointValue resolves the effective point value for this question in its exam.
func (eq ExamQuestion) PointValue() int {
	if eq.Points != nil {
		return *eq.Points
	}
	return eq.Question.Points
}

type QuestionCategory struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ===== QUESTION CONTENT SCHEMAS =====

type TrueFalseContent struct {
	CorrectAnswer bool `json:"correct_answer"`
}

type ChoiceOption struct {
	ID    string `json:"id"`
	Text  string `json:"text" validate:"required"`
	Order int    `json:"order"`
}

type MultipleChoiceContent struct {
	Options       []ChoiceOption `json:"options" validate:"min=2,max=10"`
	CorrectAnswer string         `json:"correct_answer" validate:"required"`
}

type MultipleAnswerContent struct {
	Options        []ChoiceOption `json:"options" validate:"min=2,max=10"`
	CorrectAnswers []string       `json:"correct_answers" validate:"min=1"`
}

type ShortAnswerContent struct {
	ReferenceAnswer string   `json:"reference_answer"`
	Rubric          *string  `json:"rubric"`
	KeyWords        []string `json:"key_words"`
	MaxLength       *int     `json:"max_length" validate:"omitempty,min=1,max=5000"`
}

func (Question) TableName() string {
	return "questions"
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

func (QuestionCategory) TableName() string {
	return "question_categories"
}
