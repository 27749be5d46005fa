package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrSheetNotFound    = fmt.Errorf("%w: sheet", ErrNotFound)
	ErrRowNotFound      = fmt.Errorf("%w: row", ErrNotFound)
	ErrTemplateNotFound = fmt.Errorf("%w: authoring template", ErrNotFound)
	ErrFragmentNotFound = fmt.Errorf("%w: schema fragment", ErrNotFound)

	// Input errors (unreadable external inputs - never data-level problems,
	// those are ValidationIssue values)
	ErrWorkbookUnreadable = errors.New("workbook could not be read")
	ErrSchemaUnreadable   = errors.New("schema could not be read")

	// Generation errors
	ErrOracleNoResponse = errors.New("no response from generator")
	ErrRunAborted       = errors.New("generation run aborted")
)

// NewNotFoundError builds a not-found error with resource context.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
