package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type wrongQuestionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewWrongQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) WrongQuestionService {
	return &wrongQuestionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// CollectFromAssignment upserts a ledger entry for every incorrectly answered
// objective question of a graded assignment. The per-assignment action record
// makes repeat calls (grading retries, manual re-runs) no-ops, so a single
// graded assignment never inflates wrong counts twice.
func (s *wrongQuestionService) CollectFromAssignment(ctx context.Context, assignmentID uint) (int, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrAssignmentNotFound
		}
		return 0, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Status != models.AssignmentGraded {
		return 0, ErrAssignmentNotSubmitted
	}
	if assignment.IsPractice {
		return 0, nil
	}

	submissions, err := s.repo.Submission().GetByAssignment(ctx, assignmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to get submissions: %w", err)
	}

	var wrong []*models.Submission
	for _, sub := range submissions {
		if sub.IsCorrect != nil && !*sub.IsCorrect {
			wrong = append(wrong, sub)
		}
	}

	now := time.Now()
	collected := 0
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		recorded, err := txRepo.AssignmentAction().Record(ctx, &models.AssignmentAction{
			AssignmentID: assignmentID,
			Action:       models.ActionWrongQuestionCollected,
		})
		if err != nil {
			return fmt.Errorf("failed to record collection action: %w", err)
		}
		if !recorded {
			s.logger.Debug("Wrong questions already collected for assignment",
				"assignment_id", assignmentID)
			return nil
		}

		for _, sub := range wrong {
			if err := txRepo.WrongQuestion().Upsert(ctx, assignment.CandidateID, sub.QuestionID, now); err != nil {
				return fmt.Errorf("failed to upsert wrong question %d: %w", sub.QuestionID, err)
			}
			collected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if collected > 0 {
		s.logger.Info("Wrong questions collected",
			"assignment_id", assignmentID,
			"candidate_id", assignment.CandidateID,
			"count", collected)
	}

	return collected, nil
}

func (s *wrongQuestionService) MarkReviewed(ctx context.Context, candidateID string, req *MarkReviewedRequest) (int64, error) {
	if err := s.validator.Validate(req); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	updated, err := s.repo.WrongQuestion().MarkReviewed(ctx, candidateID, req.EntryIDs, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark entries reviewed: %w", err)
	}
	return updated, nil
}

// Resolve removes a question from the candidate's ledger entirely.
func (s *wrongQuestionService) Resolve(ctx context.Context, candidateID string, questionID uint) error {
	err := s.repo.WrongQuestion().Delete(ctx, candidateID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("failed to resolve wrong question: %w", err)
	}
	return nil
}

func (s *wrongQuestionService) ListByCandidate(ctx context.Context, candidateID string, filters repositories.WrongQuestionFilters) ([]*models.WrongQuestionEntry, int64, error) {
	return s.repo.WrongQuestion().ListByCandidate(ctx, candidateID, filters)
}
