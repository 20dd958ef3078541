package postgres

import (
	"errors"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common query building used by several repositories.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// translateNotFound maps the gorm sentinel to the repository-level one so
// callers never import gorm for error checks.
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}

// ApplyExamFilters applies common filters to exam queries.
func (h *SharedHelpers) ApplyExamFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyAssignmentFilters applies common filters to assignment queries.
func (h *SharedHelpers) ApplyAssignmentFilters(query *gorm.DB, filters repositories.AssignmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}
	if filters.CandidateID != nil {
		query = query.Where("candidate_id = ?", *filters.CandidateID)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.IsPractice != nil {
		query = query.Where("is_practice = ?", *filters.IsPractice)
	}
	if filters.HasDeadline != nil && *filters.HasDeadline {
		query = query.Where("deadline IS NOT NULL")
	}
	if filters.DeadlineBefore != nil {
		query = query.Where("deadline < ?", *filters.DeadlineBefore)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with a column
// whitelist to keep user input out of the ORDER BY clause.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"status":     true,
		"deadline":   true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

// BulkUpdateAssignmentStatus updates status for multiple assignments.
func (h *SharedHelpers) BulkUpdateAssignmentStatus(query *gorm.DB, ids []uint, status models.AssignmentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return query.
		Model(&models.Assignment{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}
