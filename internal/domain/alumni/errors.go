// internal/domain/alumni/errors.go
package alumni

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels for each error kind. Every *Error unwraps to exactly one of these.
var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateRequest      = errors.New("duplicate pending alumni request")
	ErrDuplicateSchoolBadge  = errors.New("duplicate alumni badge for school")
	ErrBadgeLimitExceeded    = errors.New("alumni badge limit exceeded")
	ErrBlocked               = errors.New("alumni requests blocked for school")
	ErrRateLimited           = errors.New("too many alumni requests")
	ErrNotFound              = errors.New("not found")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// Error carries a human-readable reason suitable for showing to the user.
type Error struct {
	Kind         error
	Field        string    // Set for validation errors
	BlockedUntil time.Time // Set for ErrBlocked
	Message      string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func validationError(field, message string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

func NewValidationError(field, message string) error {
	return validationError(field, message)
}

func NewDuplicateRequestError() error {
	return &Error{Kind: ErrDuplicateRequest, Message: "you already have a pending alumni request for this school"}
}

func NewDuplicateSchoolBadgeError(school string) error {
	return &Error{
		Kind:    ErrDuplicateSchoolBadge,
		Message: fmt.Sprintf("you already have an alumni badge for %s; cannot have multiple badges from the same school", school),
	}
}

func NewBadgeLimitError(limit int) error {
	return &Error{
		Kind:    ErrBadgeLimitExceeded,
		Message: fmt.Sprintf("you already hold the maximum of %d alumni badges; delete one before requesting another", limit),
	}
}

func NewBlockedError(until time.Time) error {
	return &Error{
		Kind:         ErrBlocked,
		BlockedUntil: until,
		Message: fmt.Sprintf("you cannot request alumni verification from this school until %s because a badge for it was deleted",
			until.UTC().Format("January 2, 2006")),
	}
}

func NewRateLimitError(limit int, window time.Duration) error {
	return &Error{
		Kind:    ErrRateLimited,
		Message: fmt.Sprintf("you have submitted %d alumni requests in the last %d days; please try again later", limit, int(window.Hours()/24)),
	}
}

func NewNotFoundError(what string, id int64) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %d not found", what, id)}
}

// NewInternalError wraps a fault that indicates a bug rather than user error.
// Message is never shown to end users.
func NewInternalError(format string, args ...any) error {
	return &Error{Kind: ErrInternalInconsistency, Message: fmt.Sprintf(format, args...)}
}

// UserMessage returns the text a caller may display. Internal faults get a
// generic message.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != ErrInternalInconsistency {
		return e.Error()
	}
	return "something went wrong while processing your alumni request; please try again later"
}
