package engine

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by every operation on a closed engine.
var ErrClosed = errors.New("engine: closed")

// ErrCode identifies the class of a mutation validation failure.
type ErrCode string

const (
	// ErrCodeUnknownEntity means an identifier named no current entity.
	ErrCodeUnknownEntity ErrCode = "UNKNOWN_ENTITY"
	// ErrCodeBadReorder means a reorder list was not a permutation of
	// the target's current children.
	ErrCodeBadReorder ErrCode = "BAD_REORDER"
	// ErrCodeBadMove means a move named an invalid target or index.
	ErrCodeBadMove ErrCode = "BAD_MOVE"
	// ErrCodeEmptyTitle means a created entity had a blank title.
	ErrCodeEmptyTitle ErrCode = "EMPTY_TITLE"
)

// ValidationError is a mutation rejected before it touched the store.
// The state is unchanged and nothing was scheduled for persistence.
type ValidationError struct {
	Code     ErrCode
	EntityID string // offending identifier, when one exists
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.EntityID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidation reports whether err is a rejected mutation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func errUnknown(kind, id string) *ValidationError {
	return &ValidationError{
		Code:     ErrCodeUnknownEntity,
		EntityID: id,
		Message:  "no such " + kind,
	}
}

func errBadReorder(message string) *ValidationError {
	return &ValidationError{Code: ErrCodeBadReorder, Message: message}
}

func errBadMove(message string) *ValidationError {
	return &ValidationError{Code: ErrCodeBadMove, Message: message}
}

func errEmptyTitle(kind string) *ValidationError {
	return &ValidationError{Code: ErrCodeEmptyTitle, Message: kind + " title must not be empty"}
}
