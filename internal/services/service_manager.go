package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skillforge/assessment-engine/internal/events"
	"github.com/skillforge/assessment-engine/internal/llm"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Grading
	GradingTimeout time.Duration

	// Global settings
	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	grader    llm.Grader
	publisher events.EventPublisher
	config    ServiceManagerConfig

	// Service instances
	examService          ExamService
	assignmentService    AssignmentService
	gradingService       GradingService
	makeupService        MakeupService
	wrongQuestionService WrongQuestionService
	schedulerService     SchedulerService
	notificationService  NotificationService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies.
// The grader and publisher may be nil; grading then degrades subjective
// answers to needs-review and events are skipped.
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, grader llm.Grader, publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		grader:    grader,
		publisher: publisher,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.initializeServices()

	if err := sm.validateServicesHealth(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// initializeServices builds the service graph. Grading needs the makeup,
// wrong-question and notification services for its post-grading side effects,
// but those are constructed after it, so they are injected in a second step.
func (sm *serviceManager) initializeServices() {
	sm.notificationService = NewNotificationService(sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.examService = NewExamService(sm.repo, sm.logger, sm.validator)
	sm.gradingService = NewGradingService(sm.repo, sm.logger, sm.validator, sm.grader)
	sm.makeupService = NewMakeupService(sm.repo, sm.logger, sm.validator, sm.notificationService)
	sm.wrongQuestionService = NewWrongQuestionService(sm.repo, sm.logger, sm.validator)
	sm.assignmentService = NewAssignmentService(sm.repo, sm.logger, sm.validator, sm.notificationService, sm.gradingService)
	sm.schedulerService = NewSchedulerService(sm.repo, sm.logger, sm.assignmentService, sm.gradingService, sm.notificationService)

	if grading, ok := sm.gradingService.(*gradingService); ok {
		grading.SetSideEffects(sm.makeupService, sm.wrongQuestionService, sm.notificationService)
	}

	sm.logger.Info("Services initialized")
}

func (sm *serviceManager) validateServicesHealth(ctx context.Context) error {
	if manager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := manager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}
	return nil
}

// Service getters
func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.examService
}

func (sm *serviceManager) Assignment() AssignmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.assignmentService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.gradingService
}

func (sm *serviceManager) Makeup() MakeupService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.makeupService
}

func (sm *serviceManager) WrongQuestion() WrongQuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.wrongQuestionService
}

func (sm *serviceManager) Scheduler() SchedulerService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.schedulerService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.notificationService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if manager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := manager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if manager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := manager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// ===== UTILITY METHODS =====

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}

// ===== CONFIGURATION VALIDATION =====

// Validate checks the service manager configuration
func (config *ServiceManagerConfig) Validate() error {
	if config.DefaultTimeout <= 0 {
		return fmt.Errorf("default timeout must be positive")
	}
	if config.GradingTimeout < 0 {
		return fmt.Errorf("grading timeout cannot be negative")
	}
	return nil
}

// ===== FACTORY FUNCTIONS =====

// CreateProductionServiceManager creates a service manager configured for production
func CreateProductionServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, grader llm.Grader, publisher events.EventPublisher) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,
		GradingTimeout:     30 * time.Second,
		DefaultTimeout:     60 * time.Second,
	}

	return NewServiceManager(repo, logger, validator, grader, publisher, config)
}

// CreateDevelopmentServiceManager creates a service manager configured for development
func CreateDevelopmentServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, grader llm.Grader, publisher events.EventPublisher) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: true,
		LogLevel:           slog.LevelDebug,
		GradingTimeout:     10 * time.Second,
		DefaultTimeout:     10 * time.Second,
	}

	return NewServiceManager(repo, logger, validator, grader, publisher, config)
}
