package validator

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/skillforge/assessment-engine/internal/models"
)

// registerRules registers custom rule validators used by the request DTOs.
func (v *Validator) registerRules() {
	// Passing score validation (0-100)
	v.validate.RegisterValidation("passing_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})

	// Time limit validation (1-600 minutes)
	v.validate.RegisterValidation("time_limit", func(fl validator.FieldLevel) bool {
		limit := fl.Field().Int()
		return limit >= 1 && limit <= 600
	})

	// Title validation (1-200 characters)
	v.validate.RegisterValidation("exam_title", func(fl validator.FieldLevel) bool {
		title := fl.Field().String()
		return len(title) >= 1 && len(title) <= 200
	})

	// Deadline validation (must be in future)
	v.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()

		if field.Kind() == reflect.Ptr && field.IsNil() {
			return true // Optional field
		}

		var deadline time.Time
		if field.Kind() == reflect.Ptr {
			deadline = field.Elem().Interface().(time.Time)
		} else {
			deadline = field.Interface().(time.Time)
		}

		return deadline.After(time.Now())
	})

	// Points range validation
	v.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	// Question type validation
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		qType := models.QuestionType(fl.Field().String())
		switch qType {
		case models.TrueFalse, models.MultipleChoice, models.MultipleAnswer, models.ShortAnswer:
			return true
		}
		return false
	})
}

// ValidateAssignmentStart validates that an assignment may move to in_progress.
func (v *Validator) ValidateAssignmentStart(status models.AssignmentStatus, deadline *time.Time, now time.Time) ValidationErrors {
	var errors ValidationErrors

	if status != models.AssignmentPending {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("assignment cannot be started from status %s", status),
			Value:   status,
			Rule:    "status_transition",
		})
	}

	if deadline != nil && now.After(*deadline) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "assignment deadline has passed",
			Value:   deadline,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateStatusTransition validates assignment status transitions.
func (v *Validator) ValidateStatusTransition(current, next models.AssignmentStatus) ValidationErrors {
	allowed := map[models.AssignmentStatus][]models.AssignmentStatus{
		models.AssignmentPending:    {models.AssignmentInProgress},
		models.AssignmentInProgress: {models.AssignmentSubmitted},
		models.AssignmentSubmitted:  {models.AssignmentGraded},
		models.AssignmentGraded:     {}, // Terminal; reopening is an explicit admin override
	}

	for _, s := range allowed[current] {
		if next == s {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateExamPublish validates that an exam can move from draft to published.
func (v *Validator) ValidateExamPublish(status models.ExamStatus, questionCount int) ValidationErrors {
	var errors ValidationErrors

	if status != models.ExamDraft {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("only draft exams can be published, current status is %s", status),
			Value:   status,
			Rule:    "status_transition",
		})
	}

	if questionCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "exam must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateMakeupSchedule validates scheduling conditions for a makeup exam.
func (v *Validator) ValidateMakeupSchedule(makeup *models.MakeupExam, deadline *time.Time, now time.Time) ValidationErrors {
	var errors ValidationErrors

	if makeup.Status != models.MakeupPending {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("makeup exam cannot be scheduled from status %s", makeup.Status),
			Value:   makeup.Status,
			Rule:    "status_transition",
		})
	}

	if makeup.MakeupCount > makeup.MaxAttempts {
		errors = append(errors, ValidationError{
			Field:   "makeup_count",
			Message: "maximum makeup attempts exceeded",
			Value:   makeup.MakeupCount,
			Rule:    "business_logic",
		})
	}

	if deadline != nil && deadline.Before(now) {
		errors = append(errors, ValidationError{
			Field:   "deadline",
			Message: "must be in the future",
			Value:   deadline,
			Rule:    "business_logic",
		})
	}

	return errors
}
