package models

import "time"

// WrongQuestionEntry is a per-candidate running counter of missed questions,
// unique per (candidate, question). A fresh miss un-reviews a previously
// reviewed entry; removal happens only through an explicit resolve action,
// never from the grading path.
type WrongQuestionEntry struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CandidateID string `json:"candidate_id" gorm:"not null;size:255;index;uniqueIndex:idx_candidate_question"`
	QuestionID  uint   `json:"question_id" gorm:"not null;index;uniqueIndex:idx_candidate_question"`

	WrongCount  int       `json:"wrong_count" gorm:"default:1"`
	LastWrongAt time.Time `json:"last_wrong_at"`

	IsReviewed bool       `json:"is_reviewed" gorm:"default:false;index"`
	ReviewedAt *time.Time `json:"reviewed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (WrongQuestionEntry) TableName() string {
	return "wrong_question_entries"
}
