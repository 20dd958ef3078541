package models

import (
	"time"

	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamPublished ExamStatus = "published"
	ExamArchived  ExamStatus = "archived"
)

type GradingMethod string

const (
	GradingAuto   GradingMethod = "auto"
	GradingManual GradingMethod = "manual"
	GradingMixed  GradingMethod = "mixed"
)

type Exam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	// TimeLimit is in minutes; nil means untimed.
	TimeLimit     *int          `json:"time_limit" validate:"omitempty,min=5,max=300"`
	PassingScore  int           `json:"passing_score" gorm:"not null" validate:"required,min=0,max=100"`
	TotalScore    int           `json:"total_score" gorm:"default:100"`
	GradingMethod GradingMethod `json:"grading_method" gorm:"default:auto;size:20" validate:"omitempty,oneof=auto manual mixed"`
	Status        ExamStatus    `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft published archived"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions   []ExamQuestion `json:"questions" gorm:"foreignKey:ExamID"`
	Assignments []Assignment   `json:"assignments" gorm:"foreignKey:ExamID"`
	Creator     User           `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

func (Exam) TableName() string {
	return "exams"
}
