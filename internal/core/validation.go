package core

// validation.go holds the per-row error types.
//
// Field setters report bad cell values with ValidationError. The pipeline
// never inspects the type: any error from a setter fails its row, and the
// error text becomes the annotation written next to the row. RowError keeps
// the row and field for logs and reports.

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultRowErrorMessage annotates a failed row whose error carries no text.
const DefaultRowErrorMessage = "row import failed"

// ValidationError represents a single invalid cell value.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RowError is a setter failure located at a sheet row.
type RowError struct {
	Row   int // 0-based sheet row
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, field %s: %v", e.Row+1, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// rowErrorMessage picks the annotation text for a failed row: the error's own
// message, else its cause's message, else DefaultRowErrorMessage.
func rowErrorMessage(err error) string {
	if err == nil {
		return DefaultRowErrorMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	if cause := errors.Unwrap(err); cause != nil {
		if msg := strings.TrimSpace(cause.Error()); msg != "" {
			return msg
		}
	}
	return DefaultRowErrorMessage
}
