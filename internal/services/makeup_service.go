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

type makeupService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationService
}

func NewMakeupService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, notifier NotificationService) MakeupService {
	return &makeupService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
	}
}

// ===== FAILURE INTAKE =====

// HandleFailedAssignment opens a makeup record for a failed, graded,
// non-practice assignment. At most one record per origin assignment; repeat
// calls return the existing record untouched.
func (s *makeupService) HandleFailedAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error) {
	assignment, err := s.repo.Assignment().GetByIDWithExam(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.Status != models.AssignmentGraded {
		return nil, ErrAssignmentNotSubmitted
	}
	if assignment.IsPractice {
		return nil, NewValidationError("assignment_id", "practice assignments do not qualify for makeup exams", assignmentID)
	}

	// A failed makeup attempt is handled by CompleteFromAssignment, not here.
	if owner, err := s.repo.MakeupExam().GetByMakeupAssignment(ctx, assignmentID); err == nil && owner != nil {
		return owner, nil
	}

	if existing, err := s.repo.MakeupExam().GetByOriginAssignment(ctx, assignmentID); err == nil && existing != nil {
		s.logger.Info("Makeup exam already exists for assignment",
			"assignment_id", assignmentID,
			"makeup_id", existing.ID)
		return existing, nil
	}

	score, err := s.repo.Score().GetByAssignment(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrScoreNotFound
		}
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	if score.Passed {
		return nil, NewValidationError("assignment_id", "assignment was passed, no makeup needed", assignmentID)
	}

	makeup := &models.MakeupExam{
		OriginAssignmentID: assignmentID,
		ExamID:             assignment.ExamID,
		CandidateID:        assignment.CandidateID,
		MakeupCount:        1,
		MaxAttempts:        2,
		Status:             models.MakeupPending,
		OriginalScore:      score.Percentage,
		Reason: fmt.Sprintf("failed %q with %.0f%% (passing score %d%%)",
			assignment.Exam.Title, score.Percentage, assignment.Exam.PassingScore),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.MakeupExam().Create(ctx, makeup); err != nil {
			return fmt.Errorf("failed to create makeup exam: %w", err)
		}
		return s.createRecommendations(ctx, txRepo, assignment, makeup)
	})
	if err != nil {
		// The unique index on origin_assignment_id catches concurrent intakes.
		if existing, getErr := s.repo.MakeupExam().GetByOriginAssignment(ctx, assignmentID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	s.logger.Info("Makeup exam created",
		"makeup_id", makeup.ID,
		"assignment_id", assignmentID,
		"candidate_id", assignment.CandidateID)

	s.notifyMakeupCreated(ctx, assignment, makeup)

	return makeup, nil
}

// ===== LIFECYCLE =====

// Schedule turns a pending makeup into a fresh assignment for the candidate.
func (s *makeupService) Schedule(ctx context.Context, makeupID uint, req *MakeupScheduleRequest, userID string) (*models.MakeupExam, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Role.IsStaff() {
		return nil, NewPermissionError(userID, "schedule makeup exam", "staff role required")
	}

	makeup, err := s.repo.MakeupExam().GetByID(ctx, makeupID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMakeupNotFound
		}
		return nil, fmt.Errorf("failed to get makeup exam: %w", err)
	}

	now := time.Now()
	if verrs := s.validator.ValidateMakeupSchedule(makeup, req.Deadline, now); verrs.HasErrors() {
		if makeup.MakeupCount > makeup.MaxAttempts {
			return nil, ErrMakeupLimitReached
		}
		return nil, ErrMakeupNotSchedulable
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		assignment := &models.Assignment{
			ExamID:      makeup.ExamID,
			CandidateID: makeup.CandidateID,
			Status:      models.AssignmentPending,
			AssignedAt:  now,
			Deadline:    req.Deadline,
		}
		if err := txRepo.Assignment().Create(ctx, assignment); err != nil {
			return fmt.Errorf("failed to create makeup assignment: %w", err)
		}

		makeup.MakeupAssignmentID = &assignment.ID
		makeup.Deadline = req.Deadline
		makeup.Status = models.MakeupScheduled
		if req.Notes != "" {
			makeup.Notes = &req.Notes
		}
		return txRepo.MakeupExam().Update(ctx, makeup)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Makeup exam scheduled",
		"makeup_id", makeup.ID,
		"makeup_assignment_id", *makeup.MakeupAssignmentID,
		"scheduled_by", userID)

	s.notify(ctx, makeup.CandidateID, &NotificationRequest{
		Type:         models.NotificationMakeupScheduled,
		Priority:     models.PriorityHigh,
		Title:        "Makeup exam scheduled",
		Content:      "Your makeup exam has been scheduled. Check your assignments for the deadline.",
		ExamID:       &makeup.ExamID,
		AssignmentID: makeup.MakeupAssignmentID,
		MakeupExamID: &makeup.ID,
	})

	return makeup, nil
}

// CompleteFromAssignment records the outcome of a graded makeup assignment.
// Not-a-makeup-assignment is a no-op so the grading pipeline can call this
// unconditionally.
func (s *makeupService) CompleteFromAssignment(ctx context.Context, makeupAssignmentID uint, score *models.Score) error {
	makeup, err := s.repo.MakeupExam().GetByMakeupAssignment(ctx, makeupAssignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to look up makeup exam: %w", err)
	}
	if makeup.Status != models.MakeupScheduled {
		return nil
	}

	makeup.MakeupScore = &score.Percentage

	switch {
	case score.Passed:
		makeup.Status = models.MakeupCompleted
	case makeup.MakeupCount < makeup.MaxAttempts:
		// Another attempt remains; back to pending for rescheduling.
		makeup.MakeupCount++
		makeup.Status = models.MakeupPending
	default:
		makeup.Status = models.MakeupCompleted
	}

	if err := s.repo.MakeupExam().Update(ctx, makeup); err != nil {
		return fmt.Errorf("failed to update makeup exam: %w", err)
	}

	s.logger.Info("Makeup exam outcome recorded",
		"makeup_id", makeup.ID,
		"makeup_assignment_id", makeupAssignmentID,
		"score", score.Percentage,
		"passed", score.Passed,
		"status", makeup.Status)

	return nil
}

// RunExpirySweep expires scheduled makeups whose deadline passed without a
// graded makeup assignment. Expiry is one-way.
func (s *makeupService) RunExpirySweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	start := time.Now()
	result := &SweepResult{StartedAt: start}

	expirable, err := s.repo.MakeupExam().ListExpirable(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable makeup exams: %w", err)
	}
	result.Scanned = len(expirable)

	for _, makeup := range expirable {
		makeup.Status = models.MakeupExpired
		if err := s.repo.MakeupExam().Update(ctx, makeup); err != nil {
			s.logger.Error("Failed to expire makeup exam",
				"makeup_id", makeup.ID,
				"error", err)
			result.Failed++
			continue
		}
		result.Acted++

		s.notify(ctx, makeup.CandidateID, &NotificationRequest{
			Type:         models.NotificationMakeupExpired,
			Priority:     models.PriorityHigh,
			Title:        "Makeup exam expired",
			Content:      "Your makeup exam deadline has passed. Contact your instructor about further options.",
			ExamID:       &makeup.ExamID,
			MakeupExamID: &makeup.ID,
		})
	}

	result.Duration = time.Since(start).String()
	s.logger.Info("Makeup expiry sweep finished",
		"scanned", result.Scanned,
		"expired", result.Acted,
		"failed", result.Failed)

	return result, nil
}

// ===== GET OPERATIONS =====

func (s *makeupService) GetByID(ctx context.Context, id uint) (*models.MakeupExam, error) {
	makeup, err := s.repo.MakeupExam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMakeupNotFound
		}
		return nil, fmt.Errorf("failed to get makeup exam: %w", err)
	}
	return makeup, nil
}

func (s *makeupService) ListByCandidate(ctx context.Context, candidateID string) ([]*models.MakeupExam, error) {
	return s.repo.MakeupExam().ListByCandidate(ctx, candidateID)
}

// ===== RECOMMENDATIONS =====

// createRecommendations derives study guidance from the wrong answers of the
// failed assignment: the top weak categories and a concrete practice set.
func (s *makeupService) createRecommendations(ctx context.Context, txRepo repositories.Repository, assignment *models.Assignment, makeup *models.MakeupExam) error {
	submissions, err := txRepo.Submission().GetByAssignment(ctx, assignment.ID)
	if err != nil {
		return fmt.Errorf("failed to get submissions: %w", err)
	}

	var wrongQuestionIDs []uint
	categoryCounts := make(map[string]int)
	for _, sub := range submissions {
		if sub.IsCorrect == nil || *sub.IsCorrect {
			continue
		}
		wrongQuestionIDs = append(wrongQuestionIDs, sub.QuestionID)
		if sub.Question.Category != nil {
			categoryCounts[sub.Question.Category.Name]++
		}
	}
	if len(wrongQuestionIDs) == 0 {
		return nil
	}

	var recs []*models.LearningRecommendation

	if weakTopics := topCategories(categoryCounts, 3); len(weakTopics) > 0 {
		payload, err := marshalPayload(weakTopics)
		if err != nil {
			return err
		}
		recs = append(recs, &models.LearningRecommendation{
			CandidateID:  assignment.CandidateID,
			AssignmentID: assignment.ID,
			MakeupExamID: &makeup.ID,
			Type:         models.RecommendWeakTopics,
			Priority:     models.PriorityRecommendHigh,
			Title:        "Focus areas for your makeup exam",
			Content:      fmt.Sprintf("You struggled most with: %s. Review these topics before the makeup exam.", joinTopics(weakTopics)),
			Payload:      payload,
		})
	}

	payload, err := marshalPayload(wrongQuestionIDs)
	if err != nil {
		return err
	}
	recs = append(recs, &models.LearningRecommendation{
		CandidateID:  assignment.CandidateID,
		AssignmentID: assignment.ID,
		MakeupExamID: &makeup.ID,
		Type:         models.RecommendPracticeQuestions,
		Priority:     models.PriorityRecommendMedium,
		Title:        "Practice the questions you missed",
		Content:      fmt.Sprintf("Revisit the %d question(s) you answered incorrectly.", len(wrongQuestionIDs)),
		Payload:      payload,
	})

	return txRepo.Recommendation().CreateBatch(ctx, recs)
}

// ===== NOTIFICATIONS =====

func (s *makeupService) notifyMakeupCreated(ctx context.Context, assignment *models.Assignment, makeup *models.MakeupExam) {
	s.notify(ctx, assignment.CandidateID, &NotificationRequest{
		Type:         models.NotificationMakeupCreated,
		Priority:     models.PriorityHigh,
		Title:        "Makeup exam available",
		Content:      fmt.Sprintf("You did not pass %q. A makeup exam has been opened for you.", assignment.Exam.Title),
		ExamID:       &assignment.ExamID,
		AssignmentID: &assignment.ID,
		MakeupExamID: &makeup.ID,
	})

	// Staff get a heads-up so someone schedules the makeup.
	var staff []*models.User
	for _, role := range []models.UserRole{models.RoleTeacher, models.RoleAdmin} {
		members, err := s.repo.User().GetByRole(ctx, role)
		if err != nil {
			s.logger.Error("Failed to list staff for makeup notification",
				"role", role,
				"error", err)
			continue
		}
		staff = append(staff, members...)
	}
	for _, member := range staff {
		s.notify(ctx, member.ID, &NotificationRequest{
			Type:         models.NotificationMakeupCreated,
			Priority:     models.PriorityNormal,
			Title:        "Makeup exam needs scheduling",
			Content:      fmt.Sprintf("Candidate %s failed %q and is awaiting a makeup exam.", assignment.CandidateID, assignment.Exam.Title),
			ExamID:       &assignment.ExamID,
			MakeupExamID: &makeup.ID,
		})
	}
}

func (s *makeupService) notify(ctx context.Context, recipientID string, req *NotificationRequest) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Send(ctx, recipientID, req); err != nil {
		s.logger.Error("Failed to send makeup notification",
			"recipient_id", recipientID,
			"type", req.Type,
			"error", err)
	}
}
