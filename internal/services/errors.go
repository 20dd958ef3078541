package services

import (
	"errors"
	"fmt"

	"github.com/skillforge/assessment-engine/internal/models"
)

// Sentinel errors returned by the services. Handlers map these to HTTP codes.
var (
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotPublished   = errors.New("exam is not published")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrScoreNotFound      = errors.New("score not found")
	ErrMakeupNotFound     = errors.New("makeup exam not found")
	ErrEntryNotFound      = errors.New("wrong question entry not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrAssignmentNotActive    = errors.New("assignment is not in progress")
	ErrAssignmentCannotStart  = errors.New("assignment cannot be started")
	ErrAssignmentNotSubmitted = errors.New("assignment has not been submitted")
	ErrDeadlinePassed         = errors.New("assignment deadline has passed")
	ErrAlreadyAssigned        = errors.New("candidate already has an active assignment for this exam")
	ErrGradingNotAllowed      = errors.New("assignment is not in a gradable state")
	ErrMakeupLimitReached     = errors.New("maximum makeup attempts exceeded")
	ErrMakeupNotSchedulable   = errors.New("makeup exam cannot be scheduled")
)

// ValidationError carries a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string, value interface{}) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PermissionError signals that the acting user may not perform the operation.
type PermissionError struct {
	UserID    string
	Operation string
	Reason    string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s may not %s: %s", e.UserID, e.Operation, e.Reason)
}

// NewPermissionError creates a permission error.
func NewPermissionError(userID, operation, reason string) error {
	return &PermissionError{UserID: userID, Operation: operation, Reason: reason}
}

// IsPermissionError reports whether err is a permission failure.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// TransitionError signals an illegal assignment status transition.
type TransitionError struct {
	From   models.AssignmentStatus
	To     models.AssignmentStatus
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot transition assignment from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot transition assignment from %s to %s", e.From, e.To)
}

// NewTransitionError creates a status transition error.
func NewTransitionError(from, to models.AssignmentStatus, reason string) error {
	return &TransitionError{From: from, To: to, Reason: reason}
}

// IsTransitionError reports whether err is a status transition failure.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
