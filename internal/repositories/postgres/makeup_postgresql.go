package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
)

type MakeupExamPostgreSQL struct {
	db *gorm.DB
}

func NewMakeupExamPostgreSQL(db *gorm.DB) repositories.MakeupExamRepository {
	return &MakeupExamPostgreSQL{db: db}
}

func (m *MakeupExamPostgreSQL) Create(ctx context.Context, makeup *models.MakeupExam) error {
	return m.db.WithContext(ctx).Create(makeup).Error
}

func (m *MakeupExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.MakeupExam, error) {
	var makeup models.MakeupExam
	if err := m.db.WithContext(ctx).
		Preload("Exam").
		Preload("OriginAssignment").
		First(&makeup, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &makeup, nil
}

func (m *MakeupExamPostgreSQL) GetByOriginAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error) {
	var makeup models.MakeupExam
	if err := m.db.WithContext(ctx).
		Where("origin_assignment_id = ?", assignmentID).
		First(&makeup).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &makeup, nil
}

func (m *MakeupExamPostgreSQL) GetByMakeupAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error) {
	var makeup models.MakeupExam
	if err := m.db.WithContext(ctx).
		Where("makeup_assignment_id = ?", assignmentID).
		First(&makeup).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &makeup, nil
}

func (m *MakeupExamPostgreSQL) Update(ctx context.Context, makeup *models.MakeupExam) error {
	return m.db.WithContext(ctx).Save(makeup).Error
}

func (m *MakeupExamPostgreSQL) ListByCandidate(ctx context.Context, candidateID string) ([]*models.MakeupExam, error) {
	var makeups []*models.MakeupExam
	if err := m.db.WithContext(ctx).
		Preload("Exam").
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&makeups).Error; err != nil {
		return nil, err
	}
	return makeups, nil
}

func (m *MakeupExamPostgreSQL) ListExpirable(ctx context.Context, now time.Time) ([]*models.MakeupExam, error) {
	var makeups []*models.MakeupExam
	err := m.db.WithContext(ctx).
		Joins("LEFT JOIN assignments ON assignments.id = makeup_exams.makeup_assignment_id").
		Where("makeup_exams.status = ?", models.MakeupScheduled).
		Where("makeup_exams.deadline IS NOT NULL AND makeup_exams.deadline < ?", now).
		Where("assignments.id IS NULL OR assignments.status <> ?", models.AssignmentGraded).
		Find(&makeups).Error
	if err != nil {
		return nil, err
	}
	return makeups, nil
}

// ===== LEARNING RECOMMENDATIONS =====

type RecommendationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewRecommendationPostgreSQL(db *gorm.DB) repositories.RecommendationRepository {
	return &RecommendationPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *RecommendationPostgreSQL) Create(ctx context.Context, rec *models.LearningRecommendation) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RecommendationPostgreSQL) CreateBatch(ctx context.Context, recs []*models.LearningRecommendation) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&recs).Error
}

func (r *RecommendationPostgreSQL) ListByCandidate(ctx context.Context, candidateID string, filters repositories.RecommendationFilters) ([]*models.LearningRecommendation, int64, error) {
	var recs []*models.LearningRecommendation
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.LearningRecommendation{}).
		Where("candidate_id = ?", candidateID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.IsRead != nil {
		query = query.Where("is_read = ?", *filters.IsRead)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	if err := query.Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func (r *RecommendationPostgreSQL) MarkRead(ctx context.Context, candidateID string, id uint) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.LearningRecommendation{}).
		Where("id = ? AND candidate_id = ?", id, candidateID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
