package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/skillforge/assessment-engine/internal/llm"
	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	grader    llm.Grader

	// Post-grading side effects; each may be nil (notably in tests).
	makeup         MakeupService
	wrongQuestions WrongQuestionService
	notifier       NotificationService
}

func NewGradingService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, grader llm.Grader) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		grader:    grader,
	}
}

// SetSideEffects wires the services invoked after a grade is finalized.
// Called by the service manager once all services exist.
func (s *gradingService) SetSideEffects(makeup MakeupService, wrongQuestions WrongQuestionService, notifier NotificationService) {
	s.makeup = makeup
	s.wrongQuestions = wrongQuestions
	s.notifier = notifier
}

// ===== ASSIGNMENT GRADING =====

// GradeAssignment grades every submission of a submitted assignment, writes
// the aggregate score and moves the assignment to graded. Re-running it on an
// already graded assignment recomputes everything and overwrites the Score
// row, so a retry or a manual re-grade is always safe. A failing AI
// evaluation never aborts the run; the affected submission scores zero and is
// flagged for review.
func (s *gradingService) GradeAssignment(ctx context.Context, assignmentID uint) (*AssignmentGradingResult, error) {
	s.logger.Info("Grading assignment", "assignment_id", assignmentID)

	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Status != models.AssignmentSubmitted && assignment.Status != models.AssignmentGraded {
		return nil, ErrGradingNotAllowed
	}

	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, assignment.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	submissions, err := s.repo.Submission().GetByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	byQuestion := make(map[uint]*models.Submission, len(submissions))
	for _, sub := range submissions {
		byQuestion[sub.QuestionID] = sub
	}

	now := time.Now()
	var totalScore, maxScore float64
	var graded []*models.Submission
	var results []SubmissionGradingResult

	for _, eq := range exam.Questions {
		points := eq.PointValue()
		maxScore += float64(points)

		sub, answered := byQuestion[eq.QuestionID]
		if !answered {
			// Unanswered questions still count toward the maximum.
			results = append(results, SubmissionGradingResult{
				QuestionID: eq.QuestionID,
				Score:      0,
				MaxScore:   float64(points),
			})
			continue
		}

		result := s.gradeOne(ctx, &eq.Question, sub, points, now)
		totalScore += result.Score
		graded = append(graded, sub)
		results = append(results, result)
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = math.Round(totalScore / maxScore * 100)
	}
	passed := percentage >= float64(exam.PassingScore)

	score := &models.Score{
		AssignmentID: assignmentID,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		Percentage:   percentage,
		Passed:       passed,
		GradedAt:     now,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Serializes concurrent grading runs of the same assignment.
		rows, err := txRepo.Assignment().UpdateStatusFrom(ctx, assignmentID,
			[]models.AssignmentStatus{models.AssignmentSubmitted, models.AssignmentGraded},
			models.AssignmentGraded)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if rows == 0 {
			return ErrGradingNotAllowed
		}

		if err := txRepo.Submission().UpsertBatch(ctx, graded); err != nil {
			return fmt.Errorf("failed to persist graded submissions: %w", err)
		}

		if err := txRepo.Score().Upsert(ctx, score); err != nil {
			return fmt.Errorf("failed to persist score: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assignment graded",
		"assignment_id", assignmentID,
		"total_score", totalScore,
		"max_score", maxScore,
		"percentage", percentage,
		"passed", passed)

	s.runPostGrading(ctx, assignment, exam, score)

	return &AssignmentGradingResult{
		AssignmentID: assignmentID,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		Percentage:   percentage,
		Passed:       passed,
		Questions:    results,
		GradedAt:     now,
	}, nil
}

// gradeOne grades one submission in place and returns its result.
func (s *gradingService) gradeOne(ctx context.Context, question *models.Question, sub *models.Submission, points int, now time.Time) SubmissionGradingResult {
	sub.MaxScore = points
	sub.GradedAt = &now

	if question.Type.IsObjective() {
		correct, err := s.GradeObjectiveAnswer(question.Type, question.Content, sub.Answer)
		if err != nil {
			s.logger.Warn("Objective answer could not be graded, counting as incorrect",
				"submission_id", sub.ID,
				"question_id", question.ID,
				"error", err)
			correct = false
		}

		score := 0.0
		if correct {
			score = float64(points)
		}
		sub.IsCorrect = &correct
		sub.Score = &score

		return SubmissionGradingResult{
			SubmissionID: sub.ID,
			QuestionID:   question.ID,
			Score:        score,
			MaxScore:     float64(points),
			IsCorrect:    &correct,
		}
	}

	evaluation := s.evaluateSubjective(ctx, question, sub)
	score := math.Round(float64(evaluation.Quality) / 100 * float64(points))
	sub.Score = &score

	// Zero quality covers blank answers and every degraded path; those count
	// as incorrect. Partial credit stays non-binary.
	sub.IsCorrect = nil
	if evaluation.Quality == 0 {
		incorrect := false
		sub.IsCorrect = &incorrect
	}

	if payload, err := json.Marshal(evaluation); err == nil {
		sub.AIEvaluation = payload
	}

	return SubmissionGradingResult{
		SubmissionID: sub.ID,
		QuestionID:   question.ID,
		Score:        score,
		MaxScore:     float64(points),
		IsCorrect:    sub.IsCorrect,
		NeedsReview:  evaluation.NeedsReview,
	}
}

// ===== MANUAL GRADING =====

// GradeSubmission overrides the score of a single submission, typically a
// short answer the AI grader flagged for review.
func (s *gradingService) GradeSubmission(ctx context.Context, submissionID uint, score float64, comment *string, graderID string) (*SubmissionGradingResult, error) {
	s.logger.Info("Manually grading submission",
		"submission_id", submissionID,
		"score", score,
		"grader_id", graderID)

	grader, err := s.repo.User().GetByID(ctx, graderID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get grader: %w", err)
	}
	if !grader.Role.IsStaff() {
		return nil, NewPermissionError(graderID, "grade submission", "staff role required")
	}

	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Status != models.AssignmentSubmitted && assignment.Status != models.AssignmentGraded {
		return nil, ErrGradingNotAllowed
	}

	maxScore := float64(submission.MaxScore)
	if maxScore == 0 {
		submission.MaxScore = submission.Question.Points
		maxScore = float64(submission.MaxScore)
	}
	if score < 0 || score > maxScore {
		return nil, NewValidationError("score", "score must be between 0 and max points", score)
	}

	now := time.Now()
	correct := score == maxScore
	submission.Score = &score
	submission.IsCorrect = &correct
	submission.Comment = comment
	submission.GradedAt = &now

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Submission().Upsert(ctx, submission); err != nil {
			return fmt.Errorf("failed to update submission: %w", err)
		}

		if assignment.Status == models.AssignmentGraded {
			return s.recomputeScore(ctx, txRepo, assignment, graderID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SubmissionGradingResult{
		SubmissionID: submissionID,
		QuestionID:   submission.QuestionID,
		Score:        score,
		MaxScore:     maxScore,
		IsCorrect:    &correct,
		Comment:      comment,
	}, nil
}

// recomputeScore rebuilds the aggregate score after a manual override.
func (s *gradingService) recomputeScore(ctx context.Context, txRepo repositories.Repository, assignment *models.Assignment, graderID string, now time.Time) error {
	exam, err := txRepo.Exam().GetByIDWithQuestions(ctx, assignment.ExamID)
	if err != nil {
		return fmt.Errorf("failed to get exam: %w", err)
	}

	submissions, err := txRepo.Submission().GetByAssignment(ctx, assignment.ID)
	if err != nil {
		return fmt.Errorf("failed to get submissions: %w", err)
	}
	byQuestion := make(map[uint]*models.Submission, len(submissions))
	for _, sub := range submissions {
		byQuestion[sub.QuestionID] = sub
	}

	var totalScore, maxScore float64
	for _, eq := range exam.Questions {
		maxScore += float64(eq.PointValue())
		if sub, ok := byQuestion[eq.QuestionID]; ok && sub.Score != nil {
			totalScore += *sub.Score
		}
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = math.Round(totalScore / maxScore * 100)
	}

	score := &models.Score{
		AssignmentID: assignment.ID,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		Percentage:   percentage,
		Passed:       percentage >= float64(exam.PassingScore),
		GradedBy:     &graderID,
		GradedAt:     now,
	}
	return txRepo.Score().Upsert(ctx, score)
}

// ===== POST-GRADING SIDE EFFECTS =====

// runPostGrading fans out to the wrong-question ledger, the makeup pipeline
// and notifications. Failures here are logged, never propagated; the grade
// itself is already committed.
func (s *gradingService) runPostGrading(ctx context.Context, assignment *models.Assignment, exam *models.Exam, score *models.Score) {
	if s.makeup != nil {
		if err := s.makeup.CompleteFromAssignment(ctx, assignment.ID, score); err != nil {
			s.logger.Error("Failed to complete makeup exam",
				"assignment_id", assignment.ID,
				"error", err)
		}
	}

	if assignment.IsPractice {
		return
	}

	if s.wrongQuestions != nil {
		if _, err := s.wrongQuestions.CollectFromAssignment(ctx, assignment.ID); err != nil {
			s.logger.Error("Failed to collect wrong questions",
				"assignment_id", assignment.ID,
				"error", err)
		}
	}

	if s.notifier != nil {
		content := fmt.Sprintf("Your exam %q has been graded: %.0f%%.", exam.Title, score.Percentage)
		if score.Passed {
			content += " Congratulations, you passed."
		}
		_, err := s.notifier.Send(ctx, assignment.CandidateID, &NotificationRequest{
			Type:         models.NotificationGradingCompleted,
			Priority:     models.PriorityNormal,
			Title:        "Exam graded",
			Content:      content,
			ExamID:       &exam.ID,
			AssignmentID: &assignment.ID,
		})
		if err != nil {
			s.logger.Error("Failed to send grading notification",
				"assignment_id", assignment.ID,
				"error", err)
		}
	}

	if !score.Passed && s.makeup != nil {
		if _, err := s.makeup.HandleFailedAssignment(ctx, assignment.ID); err != nil {
			s.logger.Error("Failed to create makeup exam",
				"assignment_id", assignment.ID,
				"error", err)
		}
	}
}
