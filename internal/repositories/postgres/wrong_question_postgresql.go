package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
)

type WrongQuestionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewWrongQuestionPostgreSQL(db *gorm.DB) repositories.WrongQuestionRepository {
	return &WrongQuestionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (w *WrongQuestionPostgreSQL) GetByCandidateAndQuestion(ctx context.Context, candidateID string, questionID uint) (*models.WrongQuestionEntry, error) {
	var entry models.WrongQuestionEntry
	if err := w.db.WithContext(ctx).
		Where("candidate_id = ? AND question_id = ?", candidateID, questionID).
		First(&entry).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &entry, nil
}

// Upsert inserts with wrong_count = 1 or, on conflict, increments the counter,
// refreshes last_wrong_at and clears the reviewed flag. A fresh miss
// un-reviews a previously reviewed entry.
func (w *WrongQuestionPostgreSQL) Upsert(ctx context.Context, candidateID string, questionID uint, at time.Time) error {
	entry := &models.WrongQuestionEntry{
		CandidateID: candidateID,
		QuestionID:  questionID,
		WrongCount:  1,
		LastWrongAt: at,
	}
	return w.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "candidate_id"}, {Name: "question_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"wrong_count":   gorm.Expr("wrong_question_entries.wrong_count + 1"),
				"last_wrong_at": at,
				"is_reviewed":   false,
				"reviewed_at":   nil,
				"updated_at":    at,
			}),
		}).
		Create(entry).Error
}

func (w *WrongQuestionPostgreSQL) MarkReviewed(ctx context.Context, candidateID string, ids []uint, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := w.db.WithContext(ctx).
		Model(&models.WrongQuestionEntry{}).
		Where("candidate_id = ? AND id IN ?", candidateID, ids).
		Updates(map[string]interface{}{"is_reviewed": true, "reviewed_at": at})
	return result.RowsAffected, result.Error
}

func (w *WrongQuestionPostgreSQL) Delete(ctx context.Context, candidateID string, questionID uint) error {
	result := w.db.WithContext(ctx).
		Where("candidate_id = ? AND question_id = ?", candidateID, questionID).
		Delete(&models.WrongQuestionEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (w *WrongQuestionPostgreSQL) ListByCandidate(ctx context.Context, candidateID string, filters repositories.WrongQuestionFilters) ([]*models.WrongQuestionEntry, int64, error) {
	var entries []*models.WrongQuestionEntry
	var total int64

	query := w.db.WithContext(ctx).
		Model(&models.WrongQuestionEntry{}).
		Where("candidate_id = ?", candidateID)
	if filters.IsReviewed != nil {
		query = query.Where("is_reviewed = ?", *filters.IsReviewed)
	}
	if filters.CategoryID != nil {
		query = query.
			Joins("JOIN questions ON questions.id = wrong_question_entries.question_id").
			Where("questions.category_id = ?", *filters.CategoryID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("last_wrong_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Question").Preload("Question.Category").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
