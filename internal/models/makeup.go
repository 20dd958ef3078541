package models

import (
	"time"

	"gorm.io/datatypes"
)

type MakeupStatus string

const (
	MakeupPending   MakeupStatus = "pending"
	MakeupScheduled MakeupStatus = "scheduled"
	MakeupCompleted MakeupStatus = "completed"
	MakeupExpired   MakeupStatus = "expired"
)

// MakeupExam tracks a remedial re-attempt offered after a failed assignment.
// At most one record exists per originating assignment.
type MakeupExam struct {
	ID uint `json:"id" gorm:"primaryKey"`

	OriginAssignmentID uint   `json:"origin_assignment_id" gorm:"not null;uniqueIndex"`
	ExamID             uint   `json:"exam_id" gorm:"not null;index"`
	CandidateID        string `json:"candidate_id" gorm:"not null;index;size:255"`

	// Set once the makeup is scheduled.
	MakeupAssignmentID *uint      `json:"makeup_assignment_id" gorm:"index"`
	Deadline           *time.Time `json:"deadline"`

	MakeupCount int          `json:"makeup_count" gorm:"default:1"`
	MaxAttempts int          `json:"max_attempts" gorm:"default:2"`
	Status      MakeupStatus `json:"status" gorm:"default:pending;index"`

	OriginalScore float64  `json:"original_score"`
	MakeupScore   *float64 `json:"makeup_score"`
	Reason        string   `json:"reason" gorm:"type:text"`
	Notes         *string  `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	OriginAssignment Assignment  `json:"origin_assignment" gorm:"foreignKey:OriginAssignmentID"`
	MakeupAssignment *Assignment `json:"makeup_assignment" gorm:"foreignKey:MakeupAssignmentID"`
	Exam             Exam        `json:"exam" gorm:"foreignKey:ExamID"`
	Candidate        User        `json:"candidate" gorm:"foreignKey:CandidateID"`
}

type RecommendationType string

const (
	RecommendWeakTopics        RecommendationType = "weak_topics"
	RecommendPracticeQuestions RecommendationType = "practice_questions"
	RecommendStudyMaterials    RecommendationType = "study_materials"
	RecommendAIGenerated       RecommendationType = "ai_generated"
)

type RecommendationPriority string

const (
	PriorityRecommendHigh   RecommendationPriority = "high"
	PriorityRecommendMedium RecommendationPriority = "medium"
	PriorityRecommendLow    RecommendationPriority = "low"
)

// LearningRecommendation is derived from wrong-answer analysis after a
// failed assignment.
type LearningRecommendation struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	CandidateID  string `json:"candidate_id" gorm:"not null;index;size:255"`
	AssignmentID uint   `json:"assignment_id" gorm:"not null;index"`
	MakeupExamID *uint  `json:"makeup_exam_id" gorm:"index"`

	Type     RecommendationType     `json:"type" gorm:"not null;size:30;index"`
	Priority RecommendationPriority `json:"priority" gorm:"default:medium;size:10"`
	Title    string                 `json:"title" gorm:"not null;size:200"`
	Content  string                 `json:"content" gorm:"type:text"`

	// Structured payload: weak topic names or wrong question ids.
	Payload datatypes.JSON `json:"payload" gorm:"type:jsonb"`

	IsRead bool       `json:"is_read" gorm:"default:false"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MakeupExam) TableName() string {
	return "makeup_exams"
}

func (LearningRecommendation) TableName() string {
	return "learning_recommendations"
}
