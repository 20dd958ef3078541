package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/validator"
)

// newAssignmentService builds the service without a grading hook, for tests
// that only exercise the lifecycle itself.
func newAssignmentService(repo *fakeRepo) AssignmentService {
	logger := testLogger()
	v := validator.New()
	notifier := NewNotificationService(repo, logger, v, nil)
	return NewAssignmentService(repo, logger, v, notifier, nil)
}

// newAssignmentPipeline wires the real grading chain behind the service so
// submissions flow all the way to a score.
func newAssignmentPipeline(repo *fakeRepo) AssignmentService {
	logger := testLogger()
	v := validator.New()
	notifier := NewNotificationService(repo, logger, v, nil)
	grading := NewGradingService(repo, logger, v, nil).(*gradingService)
	makeup := NewMakeupService(repo, logger, v, notifier)
	wrongQuestions := NewWrongQuestionService(repo, logger, v)
	grading.SetSideEffects(makeup, wrongQuestions, notifier)
	return NewAssignmentService(repo, logger, v, notifier, grading)
}

func TestAssignExam(t *testing.T) {
	repo := newFakeRepo()
	svc := newAssignmentService(repo)
	ctx := context.Background()

	seedUser(repo, "teacher-1", models.RoleTeacher)
	q := seedTrueFalseQuestion(t, repo, true, 10)
	exam := seedExam(repo, 60, models.ExamPublished, q)

	deadline := time.Now().Add(72 * time.Hour)
	responses, err := svc.Assign(ctx, &AssignRequest{
		ExamID:       exam.ID,
		CandidateIDs: []string{"student-1", "student-2"},
		Deadline:     &deadline,
	}, "teacher-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("created %d assignments, want 2", len(responses))
	}
	for _, resp := range responses {
		if resp.Status != models.AssignmentPending {
			t.Errorf("status = %s, want pending", resp.Status)
		}
		if !resp.CanStart {
			t.Error("a fresh assignment should be startable")
		}
		if resp.Deadline == nil || !resp.Deadline.Equal(deadline) {
			t.Errorf("deadline = %v, want %v", resp.Deadline, deadline)
		}
	}
	if !hasNotification(repo, "student-1", models.NotificationAssignmentAssigned) ||
		!hasNotification(repo, "student-2", models.NotificationAssignmentAssigned) {
		t.Error("expected assignment notifications for both candidates")
	}

	t.Run("active assignment is not duplicated", func(t *testing.T) {
		responses, err := svc.Assign(ctx, &AssignRequest{
			ExamID:       exam.ID,
			CandidateIDs: []string{"student-1", "student-3"},
		}, "teacher-1")
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if len(responses) != 1 || responses[0].CandidateID != "student-3" {
			t.Fatalf("expected only student-3 to get a new assignment, got %d", len(responses))
		}
	})

	t.Run("unpublished exam rejected", func(t *testing.T) {
		draft := seedExam(repo, 60, models.ExamDraft, q)
		_, err := svc.Assign(ctx, &AssignRequest{
			ExamID:       draft.ID,
			CandidateIDs: []string{"student-1"},
		}, "teacher-1")
		if !errors.Is(err, ErrExamNotPublished) {
			t.Errorf("err = %v, want ErrExamNotPublished", err)
		}
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, err := svc.Assign(ctx, &AssignRequest{
			ExamID:       99999,
			CandidateIDs: []string{"student-1"},
		}, "teacher-1")
		if !errors.Is(err, ErrExamNotFound) {
			t.Errorf("err = %v, want ErrExamNotFound", err)
		}
	})

	t.Run("empty candidate list rejected", func(t *testing.T) {
		if _, err := svc.Assign(ctx, &AssignRequest{ExamID: exam.ID}, "teacher-1"); err == nil {
			t.Error("expected validation failure for an empty candidate list")
		}
	})
}

func TestStartAssignment(t *testing.T) {
	repo := newFakeRepo()
	svc := newAssignmentService(repo)
	ctx := context.Background()

	q := seedTrueFalseQuestion(t, repo, true, 10)
	exam := seedExam(repo, 60, models.ExamPublished, q)
	assignment := seedAssignment(repo, exam.ID, "student-1", models.AssignmentPending)

	resp, err := svc.Start(ctx, assignment.ID, "student-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.Status != models.AssignmentInProgress {
		t.Errorf("status = %s, want in_progress", resp.Status)
	}
	if resp.StartedAt == nil {
		t.Error("started_at not recorded")
	}

	t.Run("starting twice fails", func(t *testing.T) {
		if _, err := svc.Start(ctx, assignment.ID, "student-1"); !IsTransitionError(err) {
			t.Errorf("err = %v, want transition error", err)
		}
	})

	t.Run("past deadline", func(t *testing.T) {
		expired := deadlineAssignment(repo, exam.ID, "student-2", models.AssignmentPending,
			time.Now().Add(-time.Hour))
		if _, err := svc.Start(ctx, expired.ID, "student-2"); !errors.Is(err, ErrDeadlinePassed) {
			t.Errorf("err = %v, want ErrDeadlinePassed", err)
		}
	})

	t.Run("only the assignee can start", func(t *testing.T) {
		other := seedAssignment(repo, exam.ID, "student-3", models.AssignmentPending)
		if _, err := svc.Start(ctx, other.ID, "student-1"); !IsPermissionError(err) {
			t.Errorf("err = %v, want permission error", err)
		}
	})

	t.Run("unknown assignment", func(t *testing.T) {
		if _, err := svc.Start(ctx, 99999, "student-1"); !errors.Is(err, ErrAssignmentNotFound) {
			t.Errorf("err = %v, want ErrAssignmentNotFound", err)
		}
	})
}

func TestSaveAnswer(t *testing.T) {
	repo := newFakeRepo()
	svc := newAssignmentService(repo)
	ctx := context.Background()

	q := seedTrueFalseQuestion(t, repo, true, 10)
	outside := seedTrueFalseQuestion(t, repo, true, 10)
	exam := seedExam(repo, 60, models.ExamPublished, q)
	assignment := seedAssignment(repo, exam.ID, "student-1", models.AssignmentInProgress)

	answer := mustJSON(t, boolAnswer{Answer: true})
	if err := svc.SaveAnswer(ctx, assignment.ID, &SaveAnswerRequest{QuestionID: q.ID, Answer: answer}, "student-1"); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	sub, err := repo.Submission().GetByAssignmentAndQuestion(ctx, assignment.ID, q.ID)
	if err != nil {
		t.Fatalf("GetByAssignmentAndQuestion: %v", err)
	}
	if sub.AnsweredAt == nil {
		t.Error("answered_at not recorded")
	}

	t.Run("saving again replaces the answer", func(t *testing.T) {
		updated := mustJSON(t, boolAnswer{Answer: false})
		if err := svc.SaveAnswer(ctx, assignment.ID, &SaveAnswerRequest{QuestionID: q.ID, Answer: updated}, "student-1"); err != nil {
			t.Fatalf("SaveAnswer: %v", err)
		}
		subs, err := repo.Submission().GetByAssignment(ctx, assignment.ID)
		if err != nil {
			t.Fatalf("GetByAssignment: %v", err)
		}
		if len(subs) != 1 {
			t.Fatalf("expected a single submission row, got %d", len(subs))
		}
		if string(subs[0].Answer) != string(updated) {
			t.Errorf("answer = %s, want %s", subs[0].Answer, updated)
		}
	})

	t.Run("question outside the exam rejected", func(t *testing.T) {
		err := svc.SaveAnswer(ctx, assignment.ID, &SaveAnswerRequest{QuestionID: outside.ID, Answer: answer}, "student-1")
		if !IsValidationError(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("requires an in-progress assignment", func(t *testing.T) {
		pending := seedAssignment(repo, exam.ID, "student-2", models.AssignmentPending)
		err := svc.SaveAnswer(ctx, pending.ID, &SaveAnswerRequest{QuestionID: q.ID, Answer: answer}, "student-2")
		if !errors.Is(err, ErrAssignmentNotActive) {
			t.Errorf("err = %v, want ErrAssignmentNotActive", err)
		}
	})
}

func TestSubmitAssignment(t *testing.T) {
	repo := newFakeRepo()
	svc := newAssignmentPipeline(repo)
	ctx := context.Background()

	seedUser(repo, "teacher-1", models.RoleTeacher)
	seedUser(repo, "student-1", models.RoleStudent)
	q1 := seedTrueFalseQuestion(t, repo, true, 10)
	q2 := seedTrueFalseQuestion(t, repo, true, 10)
	exam := seedExam(repo, 60, models.ExamPublished, q1, q2)
	assignment := seedAssignment(repo, exam.ID, "student-1", models.AssignmentInProgress)

	// One answer was saved while working, the other rides in on the submit.
	seedSubmission(repo, assignment.ID, q1, mustJSON(t, boolAnswer{Answer: true}))

	_, err := svc.Submit(ctx, assignment.ID, &SubmitRequest{
		Answers: []SaveAnswerRequest{
			{QuestionID: q2.ID, Answer: mustJSON(t, boolAnswer{Answer: true})},
		},
	}, "student-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if assignment.Status != models.AssignmentGraded {
		t.Errorf("status = %s, want graded after the grading hook ran", assignment.Status)
	}
	if assignment.SubmittedAt == nil {
		t.Error("submitted_at not recorded")
	}
	if assignment.EndReason == nil || *assignment.EndReason != models.SubmitReasonManual {
		t.Errorf("end reason = %v, want %s", assignment.EndReason, models.SubmitReasonManual)
	}

	score, err := repo.Score().GetByAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("GetByAssignment: %v", err)
	}
	if score.Percentage != 100 || !score.Passed {
		t.Errorf("score = %.0f%% passed=%t, want a clean pass", score.Percentage, score.Passed)
	}

	t.Run("submitting twice fails", func(t *testing.T) {
		if _, err := svc.Submit(ctx, assignment.ID, nil, "student-1"); !IsTransitionError(err) {
			t.Errorf("err = %v, want transition error", err)
		}
	})

	t.Run("pending assignment cannot be submitted", func(t *testing.T) {
		direct := seedAssignment(repo, exam.ID, "student-2", models.AssignmentPending)
		if _, err := svc.Submit(ctx, direct.ID, nil, "student-2"); !IsTransitionError(err) {
			t.Errorf("err = %v, want transition error", err)
		}
		if direct.Status != models.AssignmentPending {
			t.Errorf("status = %s, want pending untouched", direct.Status)
		}
	})

	t.Run("answer for a foreign question aborts the submit", func(t *testing.T) {
		outside := seedTrueFalseQuestion(t, repo, true, 10)
		attempt := seedAssignment(repo, exam.ID, "student-3", models.AssignmentInProgress)
		_, err := svc.Submit(ctx, attempt.ID, &SubmitRequest{
			Answers: []SaveAnswerRequest{
				{QuestionID: outside.ID, Answer: mustJSON(t, boolAnswer{Answer: true})},
			},
		}, "student-3")
		if !IsValidationError(err) {
			t.Errorf("err = %v, want validation error", err)
		}
		if attempt.Status != models.AssignmentInProgress {
			t.Errorf("status = %s, the failed submit must not advance the assignment", attempt.Status)
		}
	})
}

func TestHandleTimeout(t *testing.T) {
	repo := newFakeRepo()
	svc := newAssignmentPipeline(repo)
	ctx := context.Background()

	seedUser(repo, "teacher-1", models.RoleTeacher)
	seedUser(repo, "student-1", models.RoleStudent)
	q := seedTrueFalseQuestion(t, repo, true, 10)
	exam := seedExam(repo, 60, models.ExamPublished, q)

	running := seedAssignment(repo, exam.ID, "student-1", models.AssignmentInProgress)
	if err := svc.HandleTimeout(ctx, running.ID); err != nil {
		t.Fatalf("HandleTimeout: %v", err)
	}
	if running.EndReason == nil || *running.EndReason != models.SubmitReasonTimeout {
		t.Errorf("end reason = %v, want %s", running.EndReason, models.SubmitReasonTimeout)
	}
	if running.Status != models.AssignmentGraded {
		t.Errorf("status = %s, want graded", running.Status)
	}

	t.Run("pending assignment is left alone", func(t *testing.T) {
		pending := seedAssignment(repo, exam.ID, "student-2", models.AssignmentPending)
		if err := svc.HandleTimeout(ctx, pending.ID); err != nil {
			t.Fatalf("HandleTimeout: %v", err)
		}
		if pending.Status != models.AssignmentPending {
			t.Errorf("status = %s, want pending", pending.Status)
		}
	})

	t.Run("unknown assignment", func(t *testing.T) {
		if err := svc.HandleTimeout(ctx, 99999); !errors.Is(err, ErrAssignmentNotFound) {
			t.Errorf("err = %v, want ErrAssignmentNotFound", err)
		}
	})
}

func TestReopenAssignment(t *testing.T) {
	repo := newFakeRepo()
	svc := newAssignmentService(repo)
	ctx := context.Background()

	seedUser(repo, "admin-1", models.RoleAdmin)
	seedUser(repo, "student-1", models.RoleStudent)
	q := seedTrueFalseQuestion(t, repo, true, 10)
	exam := seedExam(repo, 60, models.ExamPublished, q)

	graded := seedAssignment(repo, exam.ID, "student-1", models.AssignmentGraded)
	submittedAt := time.Now().Add(-time.Hour)
	graded.SubmittedAt = &submittedAt
	reason := models.SubmitReasonManual
	graded.EndReason = &reason

	req := &ReopenRequest{Reason: "appeal accepted"}

	t.Run("staff only", func(t *testing.T) {
		if _, err := svc.Reopen(ctx, graded.ID, req, "student-1"); !IsPermissionError(err) {
			t.Errorf("err = %v, want permission error", err)
		}
	})

	resp, err := svc.Reopen(ctx, graded.ID, req, "admin-1")
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if resp.Status != models.AssignmentInProgress {
		t.Errorf("status = %s, want in_progress", resp.Status)
	}
	if graded.SubmittedAt != nil || graded.EndReason != nil {
		t.Error("reopening must clear the submission markers")
	}

	t.Run("only graded assignments reopen", func(t *testing.T) {
		if _, err := svc.Reopen(ctx, graded.ID, req, "admin-1"); !IsTransitionError(err) {
			t.Errorf("err = %v, want transition error", err)
		}
	})

	t.Run("reason is required", func(t *testing.T) {
		other := seedAssignment(repo, exam.ID, "student-1", models.AssignmentGraded)
		if _, err := svc.Reopen(ctx, other.ID, &ReopenRequest{}, "admin-1"); err == nil {
			t.Error("expected validation failure for a missing reason")
		}
	})
}

func TestCanTransition(t *testing.T) {
	svc := newAssignmentService(newFakeRepo()).(*assignmentService)

	tests := []struct {
		current models.AssignmentStatus
		next    models.AssignmentStatus
		want    bool
	}{
		{models.AssignmentPending, models.AssignmentInProgress, true},
		{models.AssignmentPending, models.AssignmentSubmitted, false},
		{models.AssignmentPending, models.AssignmentGraded, false},
		{models.AssignmentInProgress, models.AssignmentSubmitted, true},
		{models.AssignmentInProgress, models.AssignmentPending, false},
		{models.AssignmentSubmitted, models.AssignmentGraded, true},
		{models.AssignmentSubmitted, models.AssignmentInProgress, false},
		{models.AssignmentGraded, models.AssignmentSubmitted, false},
	}

	for _, tt := range tests {
		if got := svc.CanTransition(tt.current, tt.next); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %t, want %t", tt.current, tt.next, got, tt.want)
		}
	}
}
