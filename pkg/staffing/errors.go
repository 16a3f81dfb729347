package staffing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
	"github.com/arnavshah/crew-scheduler-api/pkg/scheduler"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("staffing: not found")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("staffing: forbidden")
	// ErrInvalidTransition is returned when a workflow event does not apply.
	ErrInvalidTransition = errors.New("staffing: invalid transition")
	// ErrConflict is returned when a write collides with an existing record.
	ErrConflict = errors.New("staffing: conflict")
	// ErrInvalidCredentials is returned when a login does not match.
	ErrInvalidCredentials = errors.New("staffing: invalid credentials")
)

// ValidationError captures field level validation issues.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v.FieldErrors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind returns a stable label for err, used in logs and responses.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var inel *scheduler.IneligibleError
	if errors.As(err, &inel) {
		return "ineligible"
	}
	return "internal"
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func mapTransitionError(err error) error {
	if errors.Is(err, scheduler.ErrInvalidTransition) {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return err
}
