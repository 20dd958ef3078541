package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, assignment *models.Assignment) error {
	return a.db.WithContext(ctx).Create(assignment).Error
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) GetByIDWithExam(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.db.WithContext(ctx).
		Preload("Exam").
		Preload("Score").
		First(&assignment, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, assignment *models.Assignment) error {
	return a.db.WithContext(ctx).Save(assignment).Error
}

func (a *AssignmentPostgreSQL) UpdateStatusFrom(ctx context.Context, id uint, from []models.AssignmentStatus, to models.AssignmentStatus) (int64, error) {
	result := a.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (a *AssignmentPostgreSQL) List(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	var assignments []*models.Assignment
	var total int64

	query := a.db.WithContext(ctx).Model(&models.Assignment{})
	query = a.helpers.ApplyAssignmentFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Exam").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (a *AssignmentPostgreSQL) GetActiveByExamAndCandidate(ctx context.Context, examID uint, candidateID string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.db.WithContext(ctx).
		Where("exam_id = ? AND candidate_id = ? AND status IN ?",
			examID, candidateID,
			[]models.AssignmentStatus{models.AssignmentPending, models.AssignmentInProgress}).
		Order("created_at DESC").
		First(&assignment).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &assignment, nil
}

// ===== SUBMISSIONS =====

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Question").
		First(&submission, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Category").
		Where("assignment_id = ?", assignmentID).
		Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) GetByAssignmentAndQuestion(ctx context.Context, assignmentID, questionID uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Where("assignment_id = ? AND question_id = ?", assignmentID, questionID).
		First(&submission).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) Upsert(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer", "is_correct", "score", "max_score",
				"ai_evaluation", "comment", "answered_at", "graded_at", "updated_at",
			}),
		}).
		Create(submission).Error
}

func (s *SubmissionPostgreSQL) UpsertBatch(ctx context.Context, submissions []*models.Submission) error {
	if len(submissions) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer", "is_correct", "score", "max_score",
				"ai_evaluation", "comment", "answered_at", "graded_at", "updated_at",
			}),
		}).
		Create(&submissions).Error
}

// ===== SCORES =====

type ScorePostgreSQL struct {
	db *gorm.DB
}

func NewScorePostgreSQL(db *gorm.DB) repositories.ScoreRepository {
	return &ScorePostgreSQL{db: db}
}

func (s *ScorePostgreSQL) Upsert(ctx context.Context, score *models.Score) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_score", "max_score", "percentage", "passed",
				"graded_by", "graded_at", "feedback", "updated_at",
			}),
		}).
		Create(score).Error
}

func (s *ScorePostgreSQL) GetByAssignment(ctx context.Context, assignmentID uint) (*models.Score, error) {
	var score models.Score
	if err := s.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		First(&score).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &score, nil
}

// ===== ASSIGNMENT ACTIONS (idempotency ledger) =====

type AssignmentActionPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentActionPostgreSQL(db *gorm.DB) repositories.AssignmentActionRepository {
	return &AssignmentActionPostgreSQL{db: db}
}

func (a *AssignmentActionPostgreSQL) Record(ctx context.Context, action *models.AssignmentAction) (bool, error) {
	result := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}, {Name: "action"}},
			DoNothing: true,
		}).
		Create(action)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (a *AssignmentActionPostgreSQL) Exists(ctx context.Context, assignmentID uint, action models.AssignmentActionType) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.AssignmentAction{}).
		Where("assignment_id = ? AND action = ?", assignmentID, action).
		Count(&count).Error
	return count > 0, err
}

func (a *AssignmentActionPostgreSQL) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.AssignmentAction, error) {
	var actions []*models.AssignmentAction
	if err := a.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}
