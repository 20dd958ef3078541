package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/skillforge/assessment-engine/internal/llm"
	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
)

// fakeRepo is an in-memory repositories.Repository backing the service tests.
// It mirrors the row-level semantics of the postgres implementation (conflict
// targets, rows-affected counts, not-found translation) on plain maps.
type fakeRepo struct {
	nextID uint

	exams           map[uint]*models.Exam
	questions       map[uint]*models.Question
	assignments     map[uint]*models.Assignment
	submissions     []*models.Submission
	scores          map[uint]*models.Score
	actions         []*models.AssignmentAction
	makeups         map[uint]*models.MakeupExam
	wrongEntries    map[uint]*models.WrongQuestionEntry
	recommendations []*models.LearningRecommendation
	notifications   []*models.Notification
	users           map[string]*models.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		exams:        make(map[uint]*models.Exam),
		questions:    make(map[uint]*models.Question),
		assignments:  make(map[uint]*models.Assignment),
		scores:       make(map[uint]*models.Score),
		makeups:      make(map[uint]*models.MakeupExam),
		wrongEntries: make(map[uint]*models.WrongQuestionEntry),
		users:        make(map[string]*models.User),
	}
}

func (r *fakeRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) Exam() repositories.ExamRepository             { return &fakeExamRepo{r} }
func (r *fakeRepo) Question() repositories.QuestionRepository     { return &fakeQuestionRepo{r} }
func (r *fakeRepo) Assignment() repositories.AssignmentRepository { return &fakeAssignmentRepo{r} }
func (r *fakeRepo) Submission() repositories.SubmissionRepository { return &fakeSubmissionRepo{r} }
func (r *fakeRepo) Score() repositories.ScoreRepository           { return &fakeScoreRepo{r} }
func (r *fakeRepo) AssignmentAction() repositories.AssignmentActionRepository {
	return &fakeActionRepo{r}
}
func (r *fakeRepo) MakeupExam() repositories.MakeupExamRepository { return &fakeMakeupRepo{r} }
func (r *fakeRepo) WrongQuestion() repositories.WrongQuestionRepository {
	return &fakeWrongQuestionRepo{r}
}
func (r *fakeRepo) Recommendation() repositories.RecommendationRepository {
	return &fakeRecommendationRepo{r}
}
func (r *fakeRepo) Notification() repositories.NotificationRepository {
	return &fakeNotificationRepo{r}
}
func (r *fakeRepo) User() repositories.UserRepository { return &fakeUserRepo{r} }

func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

// ===== EXAMS =====

type fakeExamRepo struct{ r *fakeRepo }

func (f *fakeExamRepo) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == 0 {
		exam.ID = f.r.id()
	}
	for i := range exam.Questions {
		if exam.Questions[i].ID == 0 {
			exam.Questions[i].ID = f.r.id()
		}
		exam.Questions[i].ExamID = exam.ID
	}
	f.r.exams[exam.ID] = exam
	return nil
}

func (f *fakeExamRepo) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	exam, ok := f.r.exams[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return exam, nil
}

func (f *fakeExamRepo) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exam, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeExamRepo) Update(ctx context.Context, exam *models.Exam) error {
	f.r.exams[exam.ID] = exam
	return nil
}

func (f *fakeExamRepo) UpdateStatus(ctx context.Context, id uint, status models.ExamStatus) error {
	exam, ok := f.r.exams[id]
	if !ok {
		return repositories.ErrNotFound
	}
	exam.Status = status
	return nil
}

func (f *fakeExamRepo) Delete(ctx context.Context, id uint) error {
	delete(f.r.exams, id)
	return nil
}

func (f *fakeExamRepo) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var matched []*models.Exam
	for _, exam := range f.r.exams {
		if filters.Status != nil && exam.Status != *filters.Status {
			continue
		}
		if filters.CreatedBy != nil && exam.CreatedBy != *filters.CreatedBy {
			continue
		}
		matched = append(matched, exam)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	return paginate(matched, filters.Limit, filters.Offset), total, nil
}

// ===== QUESTIONS =====

type fakeQuestionRepo struct{ r *fakeRepo }

func (f *fakeQuestionRepo) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	q, ok := f.r.questions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range ids {
		if q, ok := f.r.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// ===== ASSIGNMENTS =====

type fakeAssignmentRepo struct{ r *fakeRepo }

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == 0 {
		assignment.ID = f.r.id()
	}
	f.r.assignments[assignment.ID] = assignment
	return nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	assignment, ok := f.r.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) GetByIDWithExam(ctx context.Context, id uint) (*models.Assignment, error) {
	assignment, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam, ok := f.r.exams[assignment.ExamID]; ok {
		assignment.Exam = *exam
	}
	if score, ok := f.r.scores[assignment.ID]; ok {
		assignment.Score = score
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	f.r.assignments[assignment.ID] = assignment
	return nil
}

func (f *fakeAssignmentRepo) UpdateStatusFrom(ctx context.Context, id uint, from []models.AssignmentStatus, to models.AssignmentStatus) (int64, error) {
	assignment, ok := f.r.assignments[id]
	if !ok {
		return 0, nil
	}
	for _, status := range from {
		if assignment.Status == status {
			assignment.Status = to
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filters repositories.AssignmentFilters) ([]*models.Assignment, int64, error) {
	var matched []*models.Assignment
	for _, a := range f.r.assignments {
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		if len(filters.Statuses) > 0 && !containsStatus(filters.Statuses, a.Status) {
			continue
		}
		if filters.CandidateID != nil && a.CandidateID != *filters.CandidateID {
			continue
		}
		if filters.ExamID != nil && a.ExamID != *filters.ExamID {
			continue
		}
		if filters.IsPractice != nil && a.IsPractice != *filters.IsPractice {
			continue
		}
		if filters.HasDeadline != nil && (a.Deadline != nil) != *filters.HasDeadline {
			continue
		}
		if filters.DeadlineBefore != nil && (a.Deadline == nil || !a.Deadline.Before(*filters.DeadlineBefore)) {
			continue
		}
		if exam, ok := f.r.exams[a.ExamID]; ok {
			a.Exam = *exam
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	return paginate(matched, filters.Limit, filters.Offset), total, nil
}

func (f *fakeAssignmentRepo) GetActiveByExamAndCandidate(ctx context.Context, examID uint, candidateID string) (*models.Assignment, error) {
	for _, a := range f.r.assignments {
		if a.ExamID != examID || a.CandidateID != candidateID {
			continue
		}
		if a.Status == models.AssignmentPending || a.Status == models.AssignmentInProgress {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// ===== SUBMISSIONS =====

type fakeSubmissionRepo struct{ r *fakeRepo }

func (f *fakeSubmissionRepo) attachQuestion(sub *models.Submission) {
	if q, ok := f.r.questions[sub.QuestionID]; ok {
		sub.Question = *q
	}
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	for _, sub := range f.r.submissions {
		if sub.ID == id {
			f.attachQuestion(sub)
			return sub, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubmissionRepo) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.Submission, error) {
	var out []*models.Submission
	for _, sub := range f.r.submissions {
		if sub.AssignmentID == assignmentID {
			f.attachQuestion(sub)
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndQuestion(ctx context.Context, assignmentID, questionID uint) (*models.Submission, error) {
	for _, sub := range f.r.submissions {
		if sub.AssignmentID == assignmentID && sub.QuestionID == questionID {
			return sub, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubmissionRepo) Upsert(ctx context.Context, submission *models.Submission) error {
	for _, existing := range f.r.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.QuestionID == submission.QuestionID {
			existing.Answer = submission.Answer
			existing.IsCorrect = submission.IsCorrect
			existing.Score = submission.Score
			existing.MaxScore = submission.MaxScore
			existing.AIEvaluation = submission.AIEvaluation
			existing.Comment = submission.Comment
			existing.AnsweredAt = submission.AnsweredAt
			existing.GradedAt = submission.GradedAt
			return nil
		}
	}
	if submission.ID == 0 {
		submission.ID = f.r.id()
	}
	f.r.submissions = append(f.r.submissions, submission)
	return nil
}

func (f *fakeSubmissionRepo) UpsertBatch(ctx context.Context, submissions []*models.Submission) error {
	for _, sub := range submissions {
		if err := f.Upsert(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

// ===== SCORES =====

type fakeScoreRepo struct{ r *fakeRepo }

func (f *fakeScoreRepo) Upsert(ctx context.Context, score *models.Score) error {
	if existing, ok := f.r.scores[score.AssignmentID]; ok {
		score.ID = existing.ID
	} else if score.ID == 0 {
		score.ID = f.r.id()
	}
	f.r.scores[score.AssignmentID] = score
	return nil
}

func (f *fakeScoreRepo) GetByAssignment(ctx context.Context, assignmentID uint) (*models.Score, error) {
	score, ok := f.r.scores[assignmentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return score, nil
}

// ===== ASSIGNMENT ACTIONS =====

type fakeActionRepo struct{ r *fakeRepo }

func (f *fakeActionRepo) Record(ctx context.Context, action *models.AssignmentAction) (bool, error) {
	for _, existing := range f.r.actions {
		if existing.AssignmentID == action.AssignmentID && existing.Action == action.Action {
			return false, nil
		}
	}
	action.ID = f.r.id()
	action.CreatedAt = time.Now()
	f.r.actions = append(f.r.actions, action)
	return true, nil
}

func (f *fakeActionRepo) Exists(ctx context.Context, assignmentID uint, action models.AssignmentActionType) (bool, error) {
	for _, existing := range f.r.actions {
		if existing.AssignmentID == assignmentID && existing.Action == action {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActionRepo) GetByAssignment(ctx context.Context, assignmentID uint) ([]*models.AssignmentAction, error) {
	var out []*models.AssignmentAction
	for _, action := range f.r.actions {
		if action.AssignmentID == assignmentID {
			out = append(out, action)
		}
	}
	return out, nil
}

// ===== MAKEUP EXAMS =====

type fakeMakeupRepo struct{ r *fakeRepo }

func (f *fakeMakeupRepo) Create(ctx context.Context, makeup *models.MakeupExam) error {
	for _, existing := range f.r.makeups {
		if existing.OriginAssignmentID == makeup.OriginAssignmentID {
			return fmt.Errorf("duplicate key value violates unique constraint on origin_assignment_id")
		}
	}
	if makeup.ID == 0 {
		makeup.ID = f.r.id()
	}
	f.r.makeups[makeup.ID] = makeup
	return nil
}

func (f *fakeMakeupRepo) GetByID(ctx context.Context, id uint) (*models.MakeupExam, error) {
	makeup, ok := f.r.makeups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return makeup, nil
}

func (f *fakeMakeupRepo) GetByOriginAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error) {
	for _, makeup := range f.r.makeups {
		if makeup.OriginAssignmentID == assignmentID {
			return makeup, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeMakeupRepo) GetByMakeupAssignment(ctx context.Context, assignmentID uint) (*models.MakeupExam, error) {
	for _, makeup := range f.r.makeups {
		if makeup.MakeupAssignmentID != nil && *makeup.MakeupAssignmentID == assignmentID {
			return makeup, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeMakeupRepo) Update(ctx context.Context, makeup *models.MakeupExam) error {
	f.r.makeups[makeup.ID] = makeup
	return nil
}

func (f *fakeMakeupRepo) ListByCandidate(ctx context.Context, candidateID string) ([]*models.MakeupExam, error) {
	var out []*models.MakeupExam
	for _, makeup := range f.r.makeups {
		if makeup.CandidateID == candidateID {
			out = append(out, makeup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMakeupRepo) ListExpirable(ctx context.Context, now time.Time) ([]*models.MakeupExam, error) {
	var out []*models.MakeupExam
	for _, makeup := range f.r.makeups {
		if makeup.Status != models.MakeupScheduled {
			continue
		}
		if makeup.Deadline == nil || !makeup.Deadline.Before(now) {
			continue
		}
		if makeup.MakeupAssignmentID != nil {
			if a, ok := f.r.assignments[*makeup.MakeupAssignmentID]; ok && a.Status == models.AssignmentGraded {
				continue
			}
		}
		out = append(out, makeup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== WRONG QUESTIONS =====

type fakeWrongQuestionRepo struct{ r *fakeRepo }

func (f *fakeWrongQuestionRepo) find(candidateID string, questionID uint) *models.WrongQuestionEntry {
	for _, entry := range f.r.wrongEntries {
		if entry.CandidateID == candidateID && entry.QuestionID == questionID {
			return entry
		}
	}
	return nil
}

func (f *fakeWrongQuestionRepo) GetByCandidateAndQuestion(ctx context.Context, candidateID string, questionID uint) (*models.WrongQuestionEntry, error) {
	if entry := f.find(candidateID, questionID); entry != nil {
		return entry, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeWrongQuestionRepo) Upsert(ctx context.Context, candidateID string, questionID uint, at time.Time) error {
	if entry := f.find(candidateID, questionID); entry != nil {
		entry.WrongCount++
		entry.LastWrongAt = at
		entry.IsReviewed = false
		entry.ReviewedAt = nil
		return nil
	}
	id := f.r.id()
	f.r.wrongEntries[id] = &models.WrongQuestionEntry{
		ID:          id,
		CandidateID: candidateID,
		QuestionID:  questionID,
		WrongCount:  1,
		LastWrongAt: at,
	}
	return nil
}

func (f *fakeWrongQuestionRepo) MarkReviewed(ctx context.Context, candidateID string, ids []uint, at time.Time) (int64, error) {
	var updated int64
	for _, id := range ids {
		entry, ok := f.r.wrongEntries[id]
		if !ok || entry.CandidateID != candidateID || entry.IsReviewed {
			continue
		}
		entry.IsReviewed = true
		reviewedAt := at
		entry.ReviewedAt = &reviewedAt
		updated++
	}
	return updated, nil
}

func (f *fakeWrongQuestionRepo) Delete(ctx context.Context, candidateID string, questionID uint) error {
	if entry := f.find(candidateID, questionID); entry != nil {
		delete(f.r.wrongEntries, entry.ID)
		return nil
	}
	return repositories.ErrNotFound
}

func (f *fakeWrongQuestionRepo) ListByCandidate(ctx context.Context, candidateID string, filters repositories.WrongQuestionFilters) ([]*models.WrongQuestionEntry, int64, error) {
	var matched []*models.WrongQuestionEntry
	for _, entry := range f.r.wrongEntries {
		if entry.CandidateID != candidateID {
			continue
		}
		if filters.IsReviewed != nil && entry.IsReviewed != *filters.IsReviewed {
			continue
		}
		if filters.CategoryID != nil {
			q, ok := f.r.questions[entry.QuestionID]
			if !ok || q.CategoryID == nil || *q.CategoryID != *filters.CategoryID {
				continue
			}
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	return paginate(matched, filters.Limit, filters.Offset), total, nil
}

// ===== RECOMMENDATIONS =====

type fakeRecommendationRepo struct{ r *fakeRepo }

func (f *fakeRecommendationRepo) Create(ctx context.Context, rec *models.LearningRecommendation) error {
	if rec.ID == 0 {
		rec.ID = f.r.id()
	}
	f.r.recommendations = append(f.r.recommendations, rec)
	return nil
}

func (f *fakeRecommendationRepo) CreateBatch(ctx context.Context, recs []*models.LearningRecommendation) error {
	for _, rec := range recs {
		if err := f.Create(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRecommendationRepo) ListByCandidate(ctx context.Context, candidateID string, filters repositories.RecommendationFilters) ([]*models.LearningRecommendation, int64, error) {
	var matched []*models.LearningRecommendation
	for _, rec := range f.r.recommendations {
		if rec.CandidateID != candidateID {
			continue
		}
		if filters.Type != nil && rec.Type != *filters.Type {
			continue
		}
		if filters.IsRead != nil && rec.IsRead != *filters.IsRead {
			continue
		}
		matched = append(matched, rec)
	}
	total := int64(len(matched))
	return paginate(matched, filters.Limit, filters.Offset), total, nil
}

func (f *fakeRecommendationRepo) MarkRead(ctx context.Context, candidateID string, id uint) error {
	for _, rec := range f.r.recommendations {
		if rec.ID == id && rec.CandidateID == candidateID {
			rec.IsRead = true
			now := time.Now()
			rec.ReadAt = &now
			return nil
		}
	}
	return repositories.ErrNotFound
}

// ===== NOTIFICATIONS =====

type fakeNotificationRepo struct{ r *fakeRepo }

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == 0 {
		notification.ID = f.r.id()
	}
	f.r.notifications = append(f.r.notifications, notification)
	return nil
}

func (f *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	for _, n := range notifications {
		if err := f.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	var matched []*models.Notification
	for _, n := range f.r.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if filters.Type != nil && n.Type != *filters.Type {
			continue
		}
		if filters.IsRead != nil && n.IsRead != *filters.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	total := int64(len(matched))
	return paginate(matched, filters.Limit, filters.Offset), total, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, recipientID string, id uint) error {
	for _, n := range f.r.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			now := time.Now()
			n.ReadAt = &now
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	for _, n := range f.r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ===== USERS =====

type fakeUserRepo struct{ r *fakeRepo }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByRole(ctx context.Context, role models.UserRole) ([]*models.User, error) {
	var out []*models.User
	for _, user := range f.r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== SHARED HELPERS =====

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func containsStatus(statuses []models.AssignmentStatus, status models.AssignmentStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ===== TEST FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubGrader returns a canned evaluation (or error) for every answer.
type stubGrader struct {
	result *llm.EvaluationResult
	err    error
	calls  int
}

func (g *stubGrader) Evaluate(ctx context.Context, req llm.EvaluationRequest) (*llm.EvaluationResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func mustJSON(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return payload
}

func seedUser(r *fakeRepo, id string, role models.UserRole) *models.User {
	user := &models.User{
		ID:       id,
		FullName: "Test " + id,
		Email:    id + "@example.com",
		Role:     role,
	}
	r.users[id] = user
	return user
}

func seedTrueFalseQuestion(t *testing.T, r *fakeRepo, correct bool, points int) *models.Question {
	t.Helper()
	q := &models.Question{
		ID:      r.id(),
		Type:    models.TrueFalse,
		Text:    "True or false?",
		Points:  points,
		Content: mustJSON(t, models.TrueFalseContent{CorrectAnswer: correct}),
	}
	r.questions[q.ID] = q
	return q
}

func seedMultipleChoiceQuestion(t *testing.T, r *fakeRepo, correct string, points int) *models.Question {
	t.Helper()
	q := &models.Question{
		ID:     r.id(),
		Type:   models.MultipleChoice,
		Text:   "Pick one.",
		Points: points,
		Content: mustJSON(t, models.MultipleChoiceContent{
			Options: []models.ChoiceOption{
				{ID: "a", Text: "Option A", Order: 1},
				{ID: "b", Text: "Option B", Order: 2},
			},
			CorrectAnswer: correct,
		}),
	}
	r.questions[q.ID] = q
	return q
}

func seedShortAnswerQuestion(t *testing.T, r *fakeRepo, reference string, points int) *models.Question {
	t.Helper()
	q := &models.Question{
		ID:     r.id(),
		Type:   models.ShortAnswer,
		Text:   "Explain.",
		Points: points,
		Content: mustJSON(t, models.ShortAnswerContent{
			ReferenceAnswer: reference,
		}),
	}
	r.questions[q.ID] = q
	return q
}

// seedExam links the given questions into a published exam.
func seedExam(r *fakeRepo, passingScore int, status models.ExamStatus, questions ...*models.Question) *models.Exam {
	exam := &models.Exam{
		ID:           r.id(),
		Title:        "Networking Basics",
		PassingScore: passingScore,
		Status:       status,
		CreatedBy:    "teacher-1",
	}
	for i, q := range questions {
		exam.Questions = append(exam.Questions, models.ExamQuestion{
			ID:         r.id(),
			ExamID:     exam.ID,
			QuestionID: q.ID,
			Order:      i + 1,
			Question:   *q,
		})
	}
	r.exams[exam.ID] = exam
	return exam
}

func seedAssignment(r *fakeRepo, examID uint, candidateID string, status models.AssignmentStatus) *models.Assignment {
	assignment := &models.Assignment{
		ID:          r.id(),
		ExamID:      examID,
		CandidateID: candidateID,
		Status:      status,
		AssignedAt:  time.Now().Add(-time.Hour),
	}
	r.assignments[assignment.ID] = assignment
	return assignment
}

func seedSubmission(r *fakeRepo, assignmentID uint, q *models.Question, answer datatypes.JSON) *models.Submission {
	now := time.Now()
	sub := &models.Submission{
		ID:           r.id(),
		AssignmentID: assignmentID,
		QuestionID:   q.ID,
		Answer:       answer,
		AnsweredAt:   &now,
	}
	r.submissions = append(r.submissions, sub)
	return sub
}
