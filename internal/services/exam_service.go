package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	staff, err := s.requireStaff(ctx, creatorID, "create exam")
	if err != nil {
		return nil, err
	}

	gradingMethod := req.GradingMethod
	if gradingMethod == "" {
		gradingMethod = models.GradingAuto
	}

	exam := &models.Exam{
		Title:         req.Title,
		Description:   req.Description,
		TimeLimit:     req.TimeLimit,
		PassingScore:  req.PassingScore,
		GradingMethod: gradingMethod,
		Status:        models.ExamDraft,
		CreatedBy:     staff.ID,
	}
	for _, q := range req.Questions {
		exam.Questions = append(exam.Questions, models.ExamQuestion{
			QuestionID: q.QuestionID,
			Order:      q.Order,
			Points:     q.Points,
		})
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created",
		"exam_id", exam.ID,
		"title", exam.Title,
		"questions", len(exam.Questions),
		"creator_id", creatorID)

	return s.toResponse(exam), nil
}

func (s *examService) GetByID(ctx context.Context, id uint) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return s.toResponse(exam), nil
}

func (s *examService) GetByIDWithQuestions(ctx context.Context, id uint) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	exam.QuestionsCount = len(exam.Questions)
	total := 0
	for _, eq := range exam.Questions {
		total += eq.PointValue()
	}
	exam.TotalPoints = total

	return s.toResponse(exam), nil
}

// Update edits exam metadata. Only drafts are editable; published exams are
// frozen so existing assignments keep grading against stable parameters.
func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*ExamResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.requireStaff(ctx, userID, "update exam"); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.Status != models.ExamDraft {
		return nil, NewValidationError("status", "only draft exams can be edited", exam.Status)
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.TimeLimit != nil {
		exam.TimeLimit = req.TimeLimit
	}
	if req.PassingScore != nil {
		exam.PassingScore = *req.PassingScore
	}

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	return s.toResponse(exam), nil
}

// Delete soft-deletes an exam. Historical assignments keep their foreign key;
// the exam just disappears from active listings.
func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.requireStaff(ctx, userID, "delete exam"); err != nil {
		return err
	}

	if _, err := s.repo.Exam().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	if err := s.repo.Exam().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted", "exam_id", id, "user_id", userID)
	return nil
}

// ===== LIST OPERATIONS =====

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) (*ExamListResponse, error) {
	exams, total, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	responses := make([]*ExamResponse, len(exams))
	for i, exam := range exams {
		responses[i] = s.toResponse(exam)
	}

	page := 1
	size := len(responses)
	if filters.Limit > 0 {
		size = filters.Limit
		page = (filters.Offset / filters.Limit) + 1
	}

	return &ExamListResponse{
		Exams: responses,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

// ===== STATUS MANAGEMENT =====

func (s *examService) Publish(ctx context.Context, id uint, userID string) error {
	if _, err := s.requireStaff(ctx, userID, "publish exam"); err != nil {
		return err
	}

	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	if verrs := s.validator.ValidateExamPublish(exam.Status, len(exam.Questions)); verrs.HasErrors() {
		return fmt.Errorf("exam cannot be published: %w", verrs)
	}

	if err := s.repo.Exam().UpdateStatus(ctx, id, models.ExamPublished); err != nil {
		return fmt.Errorf("failed to publish exam: %w", err)
	}

	s.logger.Info("Exam published", "exam_id", id, "user_id", userID)
	return nil
}

func (s *examService) Archive(ctx context.Context, id uint, userID string) error {
	if _, err := s.requireStaff(ctx, userID, "archive exam"); err != nil {
		return err
	}

	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.Status == models.ExamArchived {
		return nil
	}

	if err := s.repo.Exam().UpdateStatus(ctx, id, models.ExamArchived); err != nil {
		return fmt.Errorf("failed to archive exam: %w", err)
	}

	s.logger.Info("Exam archived", "exam_id", id, "user_id", userID)
	return nil
}

// ===== HELPERS =====

func (s *examService) requireStaff(ctx context.Context, userID, action string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Role.IsStaff() {
		return nil, NewPermissionError(userID, action, "staff role required")
	}
	return user, nil
}

func (s *examService) toResponse(exam *models.Exam) *ExamResponse {
	return &ExamResponse{
		Exam:       exam,
		CanEdit:    exam.Status == models.ExamDraft,
		CanPublish: exam.Status == models.ExamDraft && len(exam.Questions) > 0,
	}
}
