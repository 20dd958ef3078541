package repositories

import "context"

// Repository aggregates every entity repository the engine touches.
type Repository interface {
	// Exam domain
	Exam() ExamRepository
	Question() QuestionRepository

	// Assignment domain
	Assignment() AssignmentRepository
	Submission() SubmissionRepository
	Score() ScoreRepository
	AssignmentAction() AssignmentActionRepository

	// Remediation domain
	MakeupExam() MakeupExamRepository
	WrongQuestion() WrongQuestionRepository
	Recommendation() RecommendationRepository

	// Notifications (persisted here, delivered out of band)
	Notification() NotificationRepository

	// User domain (read-only for the engine)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
