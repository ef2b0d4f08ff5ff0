package core

// error_messages.go maps technical import errors to user-facing messages.
//
// Codes by category:
//
//	CFG001-CFG003   record type configuration (duplicate column, bad index, no schema)
//	FILE001-FILE006 source and error files (unsupported format, missing, too large, no file, write, no error file)
//	VAL001-VAL006   cell values and request parameters
//	DB001-DB005     persistence (duplicates, constraints, connectivity, timeout)
//	IMP001-IMP005   import handling (busy, unknown record type, run not found, cancelled, bad run id)
//	ERR000          anything else; the technical error is in the logs
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Reference for support
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicateColumn = UserMessage{
		Message: "Two fields of this record type read the same column",
		Action:  "Fix the column declarations of the record type",
		Code:    "CFG001",
	}
	msgNoSchema = UserMessage{
		Message: "The record type has no import columns",
		Action:  "Declare at least one import column for the record type",
		Code:    "CFG003",
	}
	msgTooManyImports = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
	msgUnknownRecordType = UserMessage{
		Message: "Unknown record type",
		Action:  "Pick one of the listed record types",
		Code:    "IMP002",
	}
	msgRunNotFound = UserMessage{
		Message: "Import run not found",
		Action:  "The run may have expired. Please import the file again",
		Code:    "IMP003",
	}
)

var errorPatterns = []errorPattern{
	// Configuration
	{pattern: "column assigned to more than one field", msg: msgDuplicateColumn},
	{pattern: "column index must be", msg: UserMessage{
		Message: "A column declaration is not a valid index",
		Action:  "Use 0-based column numbers such as 0, 1, 2",
		Code:    "CFG002",
	}},
	{pattern: "no record schema", msg: msgNoSchema},

	// Files
	{pattern: "unsupported workbook format", msg: UserMessage{
		Message: "The file is not a supported spreadsheet",
		Action:  "Save the file as .xlsx and upload it again",
		Code:    "FILE001",
	}},
	{pattern: "no such file", msg: UserMessage{
		Message: "The source file could not be found",
		Action:  "Check the file path and try again",
		Code:    "FILE002",
	}},
	{pattern: "file too large", msg: UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller workbooks",
		Code:    "FILE003",
	}},
	{pattern: "no file provided", msg: UserMessage{
		Message: "No file was selected",
		Action:  "Please select a spreadsheet to import",
		Code:    "FILE004",
	}},
	{pattern: "has no error file", msg: UserMessage{
		Message: "This import run has no error file",
		Action:  "The import failed before the error file was written. Check the run error",
		Code:    "FILE006",
	}},
	{pattern: "error file", msg: UserMessage{
		Message: "The error file could not be written",
		Action:  "Check free disk space and permissions of the import directory",
		Code:    "FILE005",
	}},
	{pattern: "invalid form", msg: UserMessage{
		Message: "The upload could not be read",
		Action:  "Send the file as multipart/form-data in the \"file\" field",
		Code:    "FILE004",
	}},

	// Cell values
	{pattern: "invalid start row", msg: UserMessage{
		Message: "Invalid request parameter",
		Action:  "Use a whole number of 1 or more for the start row",
		Code:    "VAL006",
	}},
	{pattern: "invalid date", msg: UserMessage{
		Message: "Invalid date format detected",
		Action:  "Use YYYY-MM-DD",
		Code:    "VAL001",
	}},
	{pattern: "invalid number", msg: UserMessage{
		Message: "Invalid number format detected",
		Action:  "Use a plain decimal number such as 1234.50",
		Code:    "VAL002",
	}},
	{pattern: "positive integer", msg: UserMessage{
		Message: "A whole number greater than zero is required",
		Action:  "Remove signs, decimals and leading zeros",
		Code:    "VAL003",
	}},
	{pattern: "must be yes/no", msg: UserMessage{
		Message: "Invalid yes/no value",
		Action:  "Use yes/no, true/false, or 1/0",
		Code:    "VAL004",
	}},
	{pattern: "setter panicked", msg: UserMessage{
		Message: "A cell could not be processed",
		Action:  "Check the value in the error file and contact support",
		Code:    "VAL005",
	}},

	// Persistence
	{pattern: "duplicate key", msg: UserMessage{
		Message: "A record with this key already exists",
		Action:  "Remove the duplicate rows and import again",
		Code:    "DB001",
	}},
	{pattern: "violates", msg: UserMessage{
		Message: "A value breaks a database constraint",
		Action:  "Review the imported values and try again",
		Code:    "DB002",
	}},
	{pattern: "connection refused", msg: UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB003",
	}},
	{pattern: "connection reset", msg: UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB004",
	}},
	{pattern: "timeout", msg: UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB005",
	}},

	// Import handling
	{pattern: "too many imports", msg: msgTooManyImports},
	{pattern: "unknown record type", msg: msgUnknownRecordType},
	{pattern: "run not found", msg: msgRunNotFound},
	{pattern: "invalid run id", msg: UserMessage{
		Message: "Invalid import run id",
		Action:  "Use the run_id returned by the import",
		Code:    "IMP005",
	}},
	{pattern: "context canceled", msg: UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP004",
	}},
	{pattern: "context deadline exceeded", msg: UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "IMP004",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Sentinel
// errors of this package are matched with errors.Is first; anything else by
// text pattern. A nil error yields an empty UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrDuplicateColumn):
		return msgDuplicateColumn
	case errors.Is(err, ErrNoSchema):
		return msgNoSchema
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports
	case errors.Is(err, ErrUnknownRecordType):
		return msgUnknownRecordType
	case errors.Is(err, ErrRunNotFound):
		return msgRunNotFound
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
