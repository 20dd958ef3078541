package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
)

const sweepBatchSize = 500

type schedulerService struct {
	repo        repositories.Repository
	logger      *slog.Logger
	assignments AssignmentService
	grading     GradingService
	notifier    NotificationService
}

func NewSchedulerService(repo repositories.Repository, logger *slog.Logger, assignments AssignmentService, grading GradingService, notifier NotificationService) SchedulerService {
	return &schedulerService{
		repo:        repo,
		logger:      logger,
		assignments: assignments,
		grading:     grading,
		notifier:    notifier,
	}
}

// reminderThresholds maps days-until-deadline to the action type recorded for
// at-most-once delivery.
var reminderThresholds = map[int]models.AssignmentActionType{
	3: models.ActionReminder3Days,
	1: models.ActionReminder1Day,
	0: models.ActionReminderDue,
}

// RunReminderSweep scans every unfinished assignment with a deadline and
// emits a reminder when the deadline is exactly 3, 1 or 0 whole days away.
// Each (assignment, threshold) pair fires at most once; re-running the sweep
// on the same day sends nothing new.
func (s *schedulerService) RunReminderSweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	result := &SweepResult{StartedAt: now}

	hasDeadline := true
	assignments, err := s.listAll(ctx, repositories.AssignmentFilters{
		Statuses:    []models.AssignmentStatus{models.AssignmentPending, models.AssignmentInProgress},
		HasDeadline: &hasDeadline,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for reminders: %w", err)
	}

	for _, assignment := range assignments {
		result.Scanned++

		if assignment.Deadline == nil || assignment.Deadline.Before(now) {
			// Past deadlines belong to the overdue sweep.
			result.Skipped++
			continue
		}

		days := daysUntil(now, *assignment.Deadline)
		action, ok := reminderThresholds[days]
		if !ok {
			result.Skipped++
			continue
		}

		recorded, err := s.repo.AssignmentAction().Record(ctx, &models.AssignmentAction{
			AssignmentID: assignment.ID,
			Action:       action,
		})
		if err != nil {
			s.logger.Error("Failed to record reminder",
				"assignment_id", assignment.ID,
				"action", action,
				"error", err)
			result.Failed++
			continue
		}
		if !recorded {
			result.Skipped++
			continue
		}

		s.sendReminder(ctx, assignment, days)
		result.Acted++
	}

	result.Duration = time.Since(now).String()
	s.logger.Info("Reminder sweep finished",
		"scanned", result.Scanned,
		"sent", result.Acted,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

// overdueDetail is the audit payload stored with the overdue action record.
type overdueDetail struct {
	OverdueDays int       `json:"overdue_days"`
	Deadline    time.Time `json:"deadline"`
}

// RunOverdueSweep finds unfinished assignments whose deadline has passed,
// marks each overdue exactly once, notifies the candidate and force-submits
// the attempt so grading (and, on failure, the makeup pipeline) runs.
func (s *schedulerService) RunOverdueSweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	result := &SweepResult{StartedAt: now}

	assignments, err := s.listAll(ctx, repositories.AssignmentFilters{
		Statuses:       []models.AssignmentStatus{models.AssignmentPending, models.AssignmentInProgress},
		DeadlineBefore: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue assignments: %w", err)
	}

	for _, assignment := range assignments {
		result.Scanned++

		if assignment.Deadline == nil {
			result.Skipped++
			continue
		}

		detail, _ := json.Marshal(overdueDetail{
			OverdueDays: -daysUntil(now, *assignment.Deadline),
			Deadline:    *assignment.Deadline,
		})
		recorded, err := s.repo.AssignmentAction().Record(ctx, &models.AssignmentAction{
			AssignmentID: assignment.ID,
			Action:       models.ActionMarkedOverdue,
			Detail:       detail,
		})
		if err != nil {
			s.logger.Error("Failed to record overdue marker",
				"assignment_id", assignment.ID,
				"error", err)
			result.Failed++
			continue
		}
		if !recorded {
			result.Skipped++
			continue
		}

		s.sendOverdueNotice(ctx, assignment)

		if err := s.closeOutOverdue(ctx, assignment); err != nil {
			s.logger.Error("Failed to close out overdue assignment",
				"assignment_id", assignment.ID,
				"error", err)
			result.Failed++
			continue
		}
		result.Acted++
	}

	result.Duration = time.Since(now).String()
	s.logger.Info("Overdue sweep finished",
		"scanned", result.Scanned,
		"marked", result.Acted,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

// ===== HELPERS =====

// closeOutOverdue force-submits the attempt so it reaches grading. An
// in-progress attempt keeps its saved answers; a never-started one is graded
// blank, which fails it and hands it to the makeup pipeline.
func (s *schedulerService) closeOutOverdue(ctx context.Context, assignment *models.Assignment) error {
	switch assignment.Status {
	case models.AssignmentInProgress:
		return s.assignments.HandleTimeout(ctx, assignment.ID)
	case models.AssignmentPending:
		return s.submitBlank(ctx, assignment)
	default:
		return nil
	}
}

func (s *schedulerService) submitBlank(ctx context.Context, assignment *models.Assignment) error {
	now := time.Now()
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		rows, err := txRepo.Assignment().UpdateStatusFrom(ctx, assignment.ID,
			[]models.AssignmentStatus{models.AssignmentPending}, models.AssignmentSubmitted)
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

	if s.grading != nil {
		if _, err := s.grading.GradeAssignment(ctx, assignment.ID); err != nil {
			s.logger.Error("Grading overdue assignment failed",
				"assignment_id", assignment.ID,
				"error", err)
		}
	}
	return nil
}

func (s *schedulerService) sendReminder(ctx context.Context, assignment *models.Assignment, days int) {
	if s.notifier == nil {
		return
	}

	var content string
	switch days {
	case 0:
		content = fmt.Sprintf("Your exam %q is due today at %s.",
			assignment.Exam.Title, assignment.Deadline.Format("15:04"))
	case 1:
		content = fmt.Sprintf("Your exam %q is due tomorrow (%s).",
			assignment.Exam.Title, assignment.Deadline.Format("2006-01-02 15:04"))
	default:
		content = fmt.Sprintf("Your exam %q is due in %d days (%s).",
			assignment.Exam.Title, days, assignment.Deadline.Format("2006-01-02 15:04"))
	}

	priority := models.PriorityNormal
	if days <= 1 {
		priority = models.PriorityHigh
	}

	_, err := s.notifier.Send(ctx, assignment.CandidateID, &NotificationRequest{
		Type:         models.NotificationDeadlineReminder,
		Priority:     priority,
		Title:        "Exam deadline approaching",
		Content:      content,
		ExamID:       &assignment.ExamID,
		AssignmentID: &assignment.ID,
	})
	if err != nil {
		s.logger.Error("Failed to send reminder",
			"assignment_id", assignment.ID,
			"error", err)
	}
}

func (s *schedulerService) sendOverdueNotice(ctx context.Context, assignment *models.Assignment) {
	if s.notifier == nil {
		return
	}

	_, err := s.notifier.Send(ctx, assignment.CandidateID, &NotificationRequest{
		Type:     models.NotificationAssignmentOverdue,
		Priority: models.PriorityHigh,
		Title:    "Exam deadline missed",
		Content: fmt.Sprintf("The deadline for your exam %q (%s) has passed. The attempt has been closed.",
			assignment.Exam.Title, assignment.Deadline.Format("2006-01-02 15:04")),
		ExamID:       &assignment.ExamID,
		AssignmentID: &assignment.ID,
	})
	if err != nil {
		s.logger.Error("Failed to send overdue notification",
			"assignment_id", assignment.ID,
			"error", err)
	}
}

// listAll pages through the full filtered set before acting so later status
// changes cannot shift the pagination window mid-sweep.
func (s *schedulerService) listAll(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, error) {
	var all []*models.Assignment
	filters.Limit = sweepBatchSize
	filters.SortBy = "id"
	filters.SortOrder = "asc"

	for offset := 0; ; offset += sweepBatchSize {
		filters.Offset = offset
		page, _, err := s.repo.Assignment().List(ctx, filters)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < sweepBatchSize {
			return all, nil
		}
	}
}

// daysUntil returns the whole-day calendar distance from now to the deadline.
// Same calendar day is 0; a deadline three days out is 3; past deadlines are
// negative.
func daysUntil(now, deadline time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	due := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, now.Location())
	return int(due.Sub(today).Hours() / 24)
}
