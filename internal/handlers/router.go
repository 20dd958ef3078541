package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/skillforge/assessment-engine/internal/config"
	"github.com/skillforge/assessment-engine/internal/models"
	"github.com/skillforge/assessment-engine/internal/repositories"
	"github.com/skillforge/assessment-engine/internal/services"
	"github.com/skillforge/assessment-engine/internal/utils"
	"github.com/skillforge/assessment-engine/internal/validator"
)

type HandlerManager struct {
	examHandler          *ExamHandler
	assignmentHandler    *AssignmentHandler
	makeupHandler        *MakeupHandler
	wrongQuestionHandler *WrongQuestionHandler
	notificationHandler  *NotificationHandler
	schedulerHandler     *SchedulerHandler
	authMiddleware       *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		examHandler:          NewExamHandler(serviceManager.Exam(), validator, logger),
		assignmentHandler:    NewAssignmentHandler(serviceManager.Assignment(), serviceManager.Grading(), validator, logger),
		makeupHandler:        NewMakeupHandler(serviceManager.Makeup(), validator, logger),
		wrongQuestionHandler: NewWrongQuestionHandler(serviceManager.WrongQuestion(), validator, logger),
		notificationHandler:  NewNotificationHandler(serviceManager.Notification(), logger),
		schedulerHandler:     NewSchedulerHandler(serviceManager.Scheduler(), logger),
		authMiddleware:       authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	staffOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)
	adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Exam routes
		exams := v1.Group("/exams")
		{
			// Create/modify exams - Teachers and Admins only
			exams.POST("", staffOnly, hm.examHandler.CreateExam)
			exams.PUT("/:id", staffOnly, hm.examHandler.UpdateExam)
			exams.DELETE("/:id", staffOnly, hm.examHandler.DeleteExam)
			exams.POST("/:id/publish", staffOnly, hm.examHandler.PublishExam)
			exams.POST("/:id/archive", staffOnly, hm.examHandler.ArchiveExam)

			// View exams - all authenticated users
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.GET("/:id/details", hm.examHandler.GetExamWithQuestions)
		}

		// Assignment routes
		assignments := v1.Group("/assignments")
		{
			// Staff operations
			assignments.POST("", staffOnly, hm.assignmentHandler.AssignExam)
			assignments.GET("", staffOnly, hm.assignmentHandler.ListAssignments)
			assignments.POST("/:id/grade", staffOnly, hm.assignmentHandler.GradeAssignment)
			assignments.POST("/:id/reopen", adminOnly, hm.assignmentHandler.ReopenAssignment)
			assignments.POST("/:id/timeout", staffOnly, hm.assignmentHandler.HandleTimeout)

			// Candidate operations
			assignments.GET("/me", hm.assignmentHandler.GetMyAssignments)
			assignments.GET("/:id", hm.assignmentHandler.GetAssignment)
			assignments.POST("/:id/start", hm.assignmentHandler.StartAssignment)
			assignments.POST("/:id/answers", hm.assignmentHandler.SaveAnswer)
			assignments.POST("/:id/submit", hm.assignmentHandler.SubmitAssignment)
		}

		// Manual grading - Teachers and Admins only
		grading := v1.Group("/grading")
		grading.Use(staffOnly)
		{
			grading.POST("/submissions/:id", hm.assignmentHandler.GradeSubmission)
		}

		// Makeup exam routes
		makeups := v1.Group("/makeups")
		{
			makeups.GET("/me", hm.makeupHandler.GetMyMakeups)
			makeups.GET("/:id", hm.makeupHandler.GetMakeup)
			makeups.POST("/:id/schedule", staffOnly, hm.makeupHandler.ScheduleMakeup)
		}

		// Wrong-question ledger routes
		wrongQuestions := v1.Group("/wrong-questions")
		{
			wrongQuestions.GET("/me", hm.wrongQuestionHandler.GetMyWrongQuestions)
			wrongQuestions.POST("/reviewed", hm.wrongQuestionHandler.MarkReviewed)
			wrongQuestions.DELETE("/:question_id", hm.wrongQuestionHandler.ResolveWrongQuestion)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		{
			notifications.GET("/me", hm.notificationHandler.GetMyNotifications)
			notifications.GET("/unread-count", hm.notificationHandler.GetUnreadCount)
			notifications.POST("/:id/read", hm.notificationHandler.MarkNotificationRead)
		}

		// Batch sweeps - Admins only, normally triggered by an external cron
		sweeps := v1.Group("/sweeps")
		sweeps.Use(adminOnly)
		{
			sweeps.POST("/reminders", hm.schedulerHandler.RunReminderSweep)
			sweeps.POST("/overdue", hm.schedulerHandler.RunOverdueSweep)
			sweeps.POST("/makeup-expiry", hm.makeupHandler.RunExpirySweep)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "assessment-engine",
		})
	})
}
