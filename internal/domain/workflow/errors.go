package workflow

import "errors"

var (
	// ErrUnauthorized is returned when no session accompanies the request
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the permission check denies the action
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a definition, version, instance or step
	// does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a terminal step or instance is
	// transitioned again; it signals a caller bug and is never retried
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNoApproversFound is returned when an assignee spec resolves to an
	// empty user set; the enclosing creation fully rolls back
	ErrNoApproversFound = errors.New("no approvers found")

	// ErrDefinitionNotActive is returned when no active version exists for
	// a definition code
	ErrDefinitionNotActive = errors.New("workflow definition not active")

	// ErrDuplicateCode is returned when the case code uniqueness constraint
	// rejects an insert; callers may retry generation from scratch
	ErrDuplicateCode = errors.New("duplicate case code")
)
