package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

func newExamService(repo *fakeRepo) ExamService {
	return NewExamService(repo, testLogger(), validator.New())
}

func TestCreateExam(t *testing.T) {
	repo := newFakeRepo()
	svc := newExamService(repo)
	ctx := context.Background()

	seedUser(repo, "teacher-1", models.RoleTeacher)
	seedUser(repo, "student-1", models.RoleStudent)
	q := seedTrueFalseQuestion(t, repo, true, 10)

	resp, err := svc.Create(ctx, &CreateExamRequest{
		Title:        "Networking Basics",
		PassingScore: 60,
		Questions: []ExamQuestionRequest{
			{QuestionID: q.ID, Order: 1},
		},
	}, "teacher-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Status != models.ExamDraft {
		t.Errorf("status = %s, a new exam must start as a draft", resp.Status)
	}
	if resp.GradingMethod != models.GradingAuto {
		t.Errorf("grading method = %s, want the auto default", resp.GradingMethod)
	}
	if resp.CreatedBy != "teacher-1" {
		t.Errorf("created_by = %s, want teacher-1", resp.CreatedBy)
	}
	if !resp.CanEdit || !resp.CanPublish {
		t.Error("a draft with questions should be editable and publishable")
	}

	t.Run("students cannot create exams", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateExamRequest{Title: "Sneaky", PassingScore: 60}, "student-1")
		if !IsPermissionError(err) {
			t.Errorf("err = %v, want permission error", err)
		}
	})

	t.Run("unknown creator", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateExamRequest{Title: "Orphan", PassingScore: 60}, "ghost")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("passing score is bounded", func(t *testing.T) {
		_, err := svc.Create(ctx, &CreateExamRequest{Title: "Impossible", PassingScore: 150}, "teacher-1")
		if err == nil {
			t.Error("expected validation failure for a passing score over 100")
		}
	})
}

func TestUpdateExam(t *testing.T) {
	repo := newFakeRepo()
	svc := newExamService(repo)
	ctx := context.Background()

	seedUser(repo, "teacher-1", models.RoleTeacher)
	q := seedTrueFalseQuestion(t, repo, true, 10)
	draft := seedExam(repo, 60, models.ExamDraft, q)

	title := "Networking Fundamentals"
	passing := 70
	resp, err := svc.Update(ctx, draft.ID, &UpdateExamRequest{Title: &title, PassingScore: &passing}, "teacher-1")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resp.Title != title || resp.PassingScore != passing {
		t.Errorf("exam = %q/%d, want %q/%d", resp.Title, resp.PassingScore, title, passing)
	}

	t.Run("published exams are frozen", func(t *testing.T) {
		published := seedExam(repo, 60, models.ExamPublished, q)
		_, err := svc.Update(ctx, published.ID, &UpdateExamRequest{Title: &title}, "teacher-1")
		if !IsValidationError(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, err := svc.Update(ctx, 99999, &UpdateExamRequest{Title: &title}, "teacher-1")
		if !errors.Is(err, ErrExamNotFound) {
			t.Errorf("err = %v, want ErrExamNotFound", err)
		}
	})
}

func TestPublishExam(t *testing.T) {
	repo := newFakeRepo()
	svc := newExamService(repo)
	ctx := context.Background()

	seedUser(repo, "teacher-1", models.RoleTeacher)
	q := seedTrueFalseQuestion(t, repo, true, 10)
	draft := seedExam(repo, 60, models.ExamDraft, q)

	if err := svc.Publish(ctx, draft.ID, "teacher-1"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if draft.Status != models.ExamPublished {
		t.Errorf("status = %s, want published", draft.Status)
	}

	t.Run("publishing twice fails", func(t *testing.T) {
		if err := svc.Publish(ctx, draft.ID, "teacher-1"); err == nil {
			t.Error("expected failure publishing a non-draft exam")
		}
	})

	t.Run("an exam needs questions", func(t *testing.T) {
		empty := seedExam(repo, 60, models.ExamDraft)
		if err := svc.Publish(ctx, empty.ID, "teacher-1"); err == nil {
			t.Error("expected failure publishing an exam without questions")
		}
	})
}

func TestArchiveAndDeleteExam(t *testing.T) {
	repo := newFakeRepo()
	svc := newExamService(repo)
	ctx := context.Background()

	seedUser(repo, "admin-1", models.RoleAdmin)
	seedUser(repo, "student-1", models.RoleStudent)
	q := seedTrueFalseQuestion(t, repo, true, 10)
	exam := seedExam(repo, 60, models.ExamPublished, q)

	if err := svc.Archive(ctx, exam.ID, "admin-1"); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if exam.Status != models.ExamArchived {
		t.Errorf("status = %s, want archived", exam.Status)
	}

	t.Run("archiving again is a no-op", func(t *testing.T) {
		if err := svc.Archive(ctx, exam.ID, "admin-1"); err != nil {
			t.Errorf("Archive: %v", err)
		}
	})

	t.Run("students cannot delete", func(t *testing.T) {
		if err := svc.Delete(ctx, exam.ID, "student-1"); !IsPermissionError(err) {
			t.Errorf("err = %v, want permission error", err)
		}
	})

	if err := svc.Delete(ctx, exam.ID, "admin-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, exam.ID); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound after delete", err)
	}
}

func TestGetExamWithQuestions(t *testing.T) {
	repo := newFakeRepo()
	svc := newExamService(repo)
	ctx := context.Background()

	q1 := seedTrueFalseQuestion(t, repo, true, 10)
	q2 := seedShortAnswerQuestion(t, repo, "TCP handshake", 20)
	exam := seedExam(repo, 60, models.ExamPublished, q1, q2)

	resp, err := svc.GetByIDWithQuestions(ctx, exam.ID)
	if err != nil {
		t.Fatalf("GetByIDWithQuestions: %v", err)
	}
	if resp.QuestionsCount != 2 {
		t.Errorf("questions_count = %d, want 2", resp.QuestionsCount)
	}
	if resp.TotalPoints != 30 {
		t.Errorf("total_points = %d, want 30", resp.TotalPoints)
	}
}

func TestListExams(t *testing.T) {
	repo := newFakeRepo()
	svc := newExamService(repo)
	ctx := context.Background()

	q := seedTrueFalseQuestion(t, repo, true, 10)
	seedExam(repo, 60, models.ExamDraft, q)
	seedExam(repo, 60, models.ExamPublished, q)
	seedExam(repo, 60, models.ExamPublished, q)

	t.Run("status filter", func(t *testing.T) {
		published := models.ExamPublished
		resp, err := svc.List(ctx, repositories.ExamFilters{Status: &published})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if resp.Total != 2 || len(resp.Exams) != 2 {
			t.Errorf("total = %d, want 2 published exams", resp.Total)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		resp, err := svc.List(ctx, repositories.ExamFilters{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if resp.Total != 3 {
			t.Errorf("total = %d, want 3", resp.Total)
		}
		if len(resp.Exams) != 1 {
			t.Errorf("page has %d exams, want the single remainder", len(resp.Exams))
		}
		if resp.Page != 2 {
			t.Errorf("page = %d, want 2", resp.Page)
		}
	})
}
