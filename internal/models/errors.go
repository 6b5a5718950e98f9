package models

import "errors"

// Storage-level errors shared by every repository variant
var (
	// ErrNotFound indicates a referenced board, column, or task id does not
	// exist in the scope it was looked up in
	ErrNotFound = errors.New("entity not found")

	// ErrMissingData indicates a write would persist an incomplete record.
	// It is raised before any write is issued, so the store never sees a
	// partially applied mutation.
	ErrMissingData = errors.New("missing data for write")
)
