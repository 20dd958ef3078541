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

type assignmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationService
	grading   GradingService
}

func NewAssignmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, notifier NotificationService, grading GradingService) AssignmentService {
	return &assignmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
		grading:   grading,
	}
}

// ===== LIFECYCLE OPERATIONS =====

func (s *assignmentService) Assign(ctx context.Context, req *AssignRequest, assignerID string) ([]*AssignmentResponse, error) {
	s.logger.Info("Assigning exam",
		"exam_id", req.ExamID,
		"candidates", len(req.CandidateIDs),
		"assigner_id", assignerID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	exam, err := s.repo.Exam().GetByID(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.Status != models.ExamPublished {
		return nil, ErrExamNotPublished
	}

	now := time.Now()
	var created []*models.Assignment

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, candidateID := range req.CandidateIDs {
			existing, err := txRepo.Assignment().GetActiveByExamAndCandidate(ctx, req.ExamID, candidateID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to check existing assignment: %w", err)
			}
			if existing != nil {
				s.logger.Warn("Candidate already has an active assignment, skipping",
					"exam_id", req.ExamID,
					"candidate_id", candidateID,
					"assignment_id", existing.ID)
				continue
			}

			assignment := &models.Assignment{
				ExamID:      req.ExamID,
				CandidateID: candidateID,
				Status:      models.AssignmentPending,
				IsPractice:  req.IsPractice,
				AssignedAt:  now,
				Deadline:    req.Deadline,
			}
			if err := txRepo.Assignment().Create(ctx, assignment); err != nil {
				return fmt.Errorf("failed to create assignment for %s: %w", candidateID, err)
			}
			created = append(created, assignment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, assignment := range created {
		s.notifyAssigned(ctx, exam, assignment)
	}

	responses := make([]*AssignmentResponse, len(created))
	for i, assignment := range created {
		responses[i] = s.toResponse(assignment, now)
	}

	s.logger.Info("Exam assigned",
		"exam_id", req.ExamID,
		"created", len(created),
		"skipped", len(req.CandidateIDs)-len(created))

	return responses, nil
}

func (s *assignmentService) Start(ctx context.Context, id uint, candidateID string) (*AssignmentResponse, error) {
	s.logger.Info("Starting assignment",
		"assignment_id", id,
		"candidate_id", candidateID)

	assignment, err := s.getOwned(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if verrs := s.validator.ValidateAssignmentStart(assignment.Status, assignment.Deadline, now); verrs.HasErrors() {
		if assignment.Deadline != nil && now.After(*assignment.Deadline) {
			return nil, ErrDeadlinePassed
		}
		return nil, NewTransitionError(assignment.Status, models.AssignmentInProgress, "")
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		rows, err := txRepo.Assignment().UpdateStatusFrom(ctx, id,
			[]models.AssignmentStatus{models.AssignmentPending}, models.AssignmentInProgress)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if rows == 0 {
			return NewTransitionError(assignment.Status, models.AssignmentInProgress, "assignment changed concurrently")
		}

		assignment.Status = models.AssignmentInProgress
		assignment.StartedAt = &now
		return txRepo.Assignment().Update(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(assignment, now), nil
}

func (s *assignmentService) SaveAnswer(ctx context.Context, id uint, req *SaveAnswerRequest, candidateID string) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	assignment, err := s.getOwned(ctx, id, candidateID)
	if err != nil {
		return err
	}
	if assignment.Status != models.AssignmentInProgress {
		return ErrAssignmentNotActive
	}

	if err := s.checkQuestionBelongsToExam(ctx, assignment.ExamID, req.QuestionID); err != nil {
		return err
	}

	now := time.Now()
	submission := &models.Submission{
		AssignmentID: id,
		QuestionID:   req.QuestionID,
		Answer:       req.Answer,
		AnsweredAt:   &now,
	}
	if err := s.repo.Submission().Upsert(ctx, submission); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	return nil
}

func (s *assignmentService) Submit(ctx context.Context, id uint, req *SubmitRequest, candidateID string) (*AssignmentResponse, error) {
	s.logger.Info("Submitting assignment",
		"assignment_id", id,
		"candidate_id", candidateID)

	if req != nil {
		if err := s.validator.Validate(req); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}

	assignment, err := s.getOwned(ctx, id, candidateID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if req != nil && len(req.Answers) > 0 {
			submissions := make([]*models.Submission, len(req.Answers))
			for i, answer := range req.Answers {
				if err := s.checkQuestionBelongsToExam(ctx, assignment.ExamID, answer.QuestionID); err != nil {
					return err
				}
				submissions[i] = &models.Submission{
					AssignmentID: id,
					QuestionID:   answer.QuestionID,
					Answer:       answer.Answer,
					AnsweredAt:   &now,
				}
			}
			if err := txRepo.Submission().UpsertBatch(ctx, submissions); err != nil {
				return fmt.Errorf("failed to save final answers: %w", err)
			}
		}

		rows, err := txRepo.Assignment().UpdateStatusFrom(ctx, id,
			[]models.AssignmentStatus{models.AssignmentInProgress}, models.AssignmentSubmitted)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if rows == 0 {
			return NewTransitionError(assignment.Status, models.AssignmentSubmitted, "")
		}

		assignment.Status = models.AssignmentSubmitted
		assignment.SubmittedAt = &now
		reason := models.SubmitReasonManual
		assignment.EndReason = &reason
		return txRepo.Assignment().Update(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}

	s.triggerGrading(ctx, id)

	return s.toResponse(assignment, now), nil
}

// HandleTimeout force-submits an in-progress assignment whose time ran out.
// Safe to call repeatedly; anything not in progress is left alone.
func (s *assignmentService) HandleTimeout(ctx context.Context, id uint) error {
	assignment, err := s.repo.Assignment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Status != models.AssignmentInProgress {
		return nil
	}

	now := time.Now()
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		rows, err := txRepo.Assignment().UpdateStatusFrom(ctx, id,
			[]models.AssignmentStatus{models.AssignmentInProgress}, models.AssignmentSubmitted)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if rows == 0 {
			return nil // Someone else already moved it
		}

		assignment.Status = models.AssignmentSubmitted
		assignment.SubmittedAt = &now
		reason := models.SubmitReasonTimeout
		assignment.EndReason = &reason
		return txRepo.Assignment().Update(ctx, assignment)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Assignment force-submitted after timeout", "assignment_id", id)
	s.triggerGrading(ctx, id)

	return nil
}

// Reopen reverts a graded assignment back to in_progress so the candidate can
// be re-examined. Admin override; the existing score stays until re-grading
// overwrites it.
func (s *assignmentService) Reopen(ctx context.Context, id uint, req *ReopenRequest, adminID string) (*AssignmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	admin, err := s.repo.User().GetByID(ctx, adminID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !admin.Role.IsStaff() {
		return nil, NewPermissionError(adminID, "reopen assignment", "staff role required")
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Status != models.AssignmentGraded {
		return nil, NewTransitionError(assignment.Status, models.AssignmentInProgress, "only graded assignments can be reopened")
	}

	now := time.Now()
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		rows, err := txRepo.Assignment().UpdateStatusFrom(ctx, id,
			[]models.AssignmentStatus{models.AssignmentGraded}, models.AssignmentInProgress)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if rows == 0 {
			return NewTransitionError(assignment.Status, models.AssignmentInProgress, "assignment changed concurrently")
		}

		assignment.Status = models.AssignmentInProgress
		assignment.SubmittedAt = nil
		assignment.EndReason = nil
		return txRepo.Assignment().Update(ctx, assignment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assignment reopened",
		"assignment_id", id,
		"admin_id", adminID,
		"reason", req.Reason)

	return s.toResponse(assignment, now), nil
}

// ===== GET OPERATIONS =====

func (s *assignmentService) GetByID(ctx context.Context, id uint, userID string) (*AssignmentResponse, error) {
	assignment, err := s.repo.Assignment().GetByIDWithExam(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	if assignment.CandidateID != userID {
		user, err := s.repo.User().GetByID(ctx, userID)
		if err != nil || !user.Role.IsStaff() {
			return nil, NewPermissionError(userID, "view assignment", "not the assignee")
		}
	}

	return s.toResponse(assignment, time.Now()), nil
}

func (s *assignmentService) List(ctx context.Context, filters repositories.AssignmentFilters) (*AssignmentListResponse, error) {
	assignments, total, err := s.repo.Assignment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return s.toListResponse(assignments, total, filters), nil
}

func (s *assignmentService) GetByCandidate(ctx context.Context, candidateID string, filters repositories.AssignmentFilters) (*AssignmentListResponse, error) {
	filters.CandidateID = &candidateID
	return s.List(ctx, filters)
}

// ===== VALIDATION =====

func (s *assignmentService) CanTransition(current, next models.AssignmentStatus) bool {
	return !s.validator.ValidateStatusTransition(current, next).HasErrors()
}

// ===== HELPERS =====

func (s *assignmentService) getOwned(ctx context.Context, id uint, candidateID string) (*models.Assignment, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.CandidateID != candidateID {
		return nil, NewPermissionError(candidateID, "access assignment", "not the assignee")
	}
	return assignment, nil
}

func (s *assignmentService) checkQuestionBelongsToExam(ctx context.Context, examID, questionID uint) error {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam questions: %w", err)
	}
	for _, eq := range exam.Questions {
		if eq.QuestionID == questionID {
			return nil
		}
	}
	return NewValidationError("question_id", "question does not belong to this exam", questionID)
}

func (s *assignmentService) triggerGrading(ctx context.Context, assignmentID uint) {
	if s.grading == nil {
		return
	}
	if _, err := s.grading.GradeAssignment(ctx, assignmentID); err != nil {
		// Submission already landed; grading can be retried out of band.
		s.logger.Error("Grading after submit failed",
			"assignment_id", assignmentID,
			"error", err)
	}
}

func (s *assignmentService) notifyAssigned(ctx context.Context, exam *models.Exam, assignment *models.Assignment) {
	if s.notifier == nil {
		return
	}

	content := fmt.Sprintf("You have been assigned the exam %q.", exam.Title)
	if assignment.Deadline != nil {
		content = fmt.Sprintf("You have been assigned the exam %q, due %s.",
			exam.Title, assignment.Deadline.Format("2006-01-02 15:04"))
	}

	_, err := s.notifier.Send(ctx, assignment.CandidateID, &NotificationRequest{
		Type:         models.NotificationAssignmentAssigned,
		Priority:     models.PriorityNormal,
		Title:        "New exam assigned",
		Content:      content,
		ExamID:       &exam.ID,
		AssignmentID: &assignment.ID,
	})
	if err != nil {
		s.logger.Error("Failed to send assignment notification",
			"assignment_id", assignment.ID,
			"error", err)
	}
}

func (s *assignmentService) toResponse(assignment *models.Assignment, now time.Time) *AssignmentResponse {
	overdue := assignment.Deadline != nil && now.After(*assignment.Deadline) &&
		assignment.Status != models.AssignmentSubmitted && assignment.Status != models.AssignmentGraded

	return &AssignmentResponse{
		Assignment: assignment,
		CanStart:   assignment.Status == models.AssignmentPending && !overdue,
		CanSubmit:  assignment.Status == models.AssignmentInProgress,
		IsOverdue:  overdue,
	}
}

func (s *assignmentService) toListResponse(assignments []*models.Assignment, total int64, filters repositories.AssignmentFilters) *AssignmentListResponse {
	now := time.Now()
	responses := make([]*AssignmentResponse, len(assignments))
	for i, assignment := range assignments {
		responses[i] = s.toResponse(assignment, now)
	}

	page := 1
	size := len(responses)
	if filters.Limit > 0 {
		size = filters.Limit
		page = (filters.Offset / filters.Limit) + 1
	}

	return &AssignmentListResponse{
		Assignments: responses,
		Total:       total,
		Page:        page,
		Size:        size,
	}
}
