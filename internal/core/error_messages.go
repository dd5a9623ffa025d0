package core

// # Error Codes Reference
//
// Technical errors are mapped to short user-facing messages with a code that
// can be quoted to support. Codes are grouped by category:
//
//	FILE001 - File too large       (ErrFileTooLarge, "file too large")
//	FILE002 - Cannot open file     (*FileOpenError, "cannot open file")
//	FILE003 - Bad compression      (ErrUnsupportedEncoding, "invalid header", "magic number mismatch")
//
//	VAL001  - Malformed row        (*MalformedRowError, "malformed row")
//	VAL002  - Not a number         (*NumericConversionError)
//
//	ING001  - Busy                 (ErrTooManyIngests)
//	ING002  - Request cancelled    ("context canceled")
//	ING003  - Request timeout      ("context deadline exceeded")
//
//	STO001  - No store configured  (ErrNoStore, "no store configured")
//	STO002  - Database unreachable ("connection refused")
//
//	ERR000  - Anything else
//
// Typed errors are matched with errors.Is first; the substring patterns are a
// fallback for errors that only survive as text (driver and decoder errors).

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum allowed size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgFileOpen = UserMessage{
		Message: "The file could not be opened",
		Action:  "Check that the path exists and is readable",
		Code:    "FILE002",
	}
	msgCompression = UserMessage{
		Message: "The compressed file is damaged or not in the expected format",
		Action:  "Re-export the file or upload it uncompressed",
		Code:    "FILE003",
	}
	msgMalformedRow = UserMessage{
		Message: "A row has a different number of fields than the header",
		Action:  "Fix the row or retry with padding enabled",
		Code:    "VAL001",
	}
	msgNumeric = UserMessage{
		Message: "A numeric column contains a value that is not a number",
		Action:  "Remove empty cells or lone dots from numeric columns",
		Code:    "VAL002",
	}
	msgBusy = UserMessage{
		Message: "Too many files are being processed",
		Action:  "Please wait a moment and try again",
		Code:    "ING001",
	}
	msgCancelled = UserMessage{
		Message: "The request was cancelled",
		Action:  "Please try again",
		Code:    "ING002",
	}
	msgTimeout = UserMessage{
		Message: "The request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "ING003",
	}
	msgNoStore = UserMessage{
		Message: "No database is configured for loading tables",
		Action:  "Set DATABASE_URL or SQLITE_PATH and restart the server",
		Code:    "STO001",
	}
	msgDBDown = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "STO002",
	}
)

// ErrNoStore is returned when a load is requested but no store is configured.
var ErrNoStore = errors.New("no store configured")

// typedMessages is consulted first, in order.
var typedMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrMalformedRow, msgMalformedRow},
	{ErrNumericConversion, msgNumeric},
	{ErrTooManyIngests, msgBusy},
	{ErrNoStore, msgNoStore},
	{ErrFileOpen, msgFileOpen},
}

// errorPatterns maps lowercase substrings to messages. First match wins, so
// specific patterns come before general ones.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgFileTooLarge},
	{"http: request body too large", msgFileTooLarge},
	{"gzip: invalid header", msgCompression},
	{"magic number mismatch", msgCompression},
	{"malformed row", msgMalformedRow},
	{"numeric conversion", msgNumeric},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"connection refused", msgDBDown},
	{"cannot open file", msgFileOpen},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check the server log for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	// Compression failures surface wrapped in *FileOpenError, so text
	// patterns for them must win over the typed FileOpen match.
	errStr := strings.ToLower(err.Error())
	if errors.Is(err, ErrUnsupportedEncoding) ||
		strings.Contains(errStr, "gzip: invalid header") || strings.Contains(errStr, "magic number mismatch") {
		return msgCompression
	}

	for _, tm := range typedMessages {
		if errors.Is(err, tm.target) {
			return tm.msg
		}
	}

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
