package board

import "errors"

// Board-related errors
var (
	// Validation errors
	ErrEmptyBoardName  = errors.New("board name cannot be empty")
	ErrEmptyTaskTitle  = errors.New("task title cannot be empty")
	ErrInvalidBoardID  = errors.New("invalid board ID")
	ErrInvalidColumnID = errors.New("invalid column ID")
	ErrInvalidTaskID   = errors.New("invalid task ID")

	// ErrUnauthenticated indicates no user is resolvable and demo mode is off;
	// operations short-circuit before touching the repository.
	ErrUnauthenticated = errors.New("no user is logged in")
)
