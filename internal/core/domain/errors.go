package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserExists         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrPlanNotFound       = errors.New("work plan not found")
	ErrObjectiveNotFound  = errors.New("objective not found")
	ErrActivePlanConflict = errors.New("patient already has an active work plan")
)

// InvalidInput returns an error wrapping ErrInvalidInput with a client-facing detail.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
