// Package errors provides structured error handling for Quill.
package errors

import (
	"errors"
	"strings"
)

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryConfig errors are configuration problems (missing API key).
	// They abort the operation before any network call is attempted.
	CategoryConfig Category = iota

	// CategoryTransport errors are completion-service failures (non-2xx
	// status, connection refused). They abort the current operation.
	CategoryTransport

	// CategoryTool errors are tool execution failures. They are absorbed
	// into the conversation as textual tool results, never propagated.
	CategoryTool

	// CategoryNotFound errors are missing notes or folders. Always
	// non-fatal and textual.
	CategoryNotFound

	// CategoryInternal errors are bugs or system-level failures.
	CategoryInternal
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryConfig:
		return "config"
	case CategoryTransport:
		return "transport"
	case CategoryTool:
		return "tool"
	case CategoryNotFound:
		return "not_found"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// AppError is the main error type for all Quill errors.
type AppError struct {
	// Code is a unique error code for programmatic handling
	Code string

	// Message is a user-friendly error message
	Message string

	// Category determines how the error should be handled
	Category Category

	// Inner is the underlying error
	Inner error

	// Suggestions are recovery suggestions for the user
	Suggestions []string
}

// Error returns the error message.
func (e *AppError) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Inner
}

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// Wrap wraps an existing error with code and category.
func Wrap(err error, code, message string, category Category) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Inner:    err,
	}
}

// Config creates a configuration error.
func Config(code, message string) *AppError {
	return New(code, message, CategoryConfig)
}

// Transport creates a completion-service transport error.
func Transport(code, message string) *AppError {
	return New(code, message, CategoryTransport)
}

// WithSuggestion appends a recovery suggestion.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// Error codes.
const (
	// Completion service
	CodeMissingAPIKey    = "MISSING_API_KEY"
	CodeCompletionFailed = "COMPLETION_FAILED"
	CodeCompletionEmpty  = "COMPLETION_EMPTY"
	CodeCompletionParse  = "COMPLETION_PARSE_ERROR"

	// Agent
	CodeMaxIterations = "AGENT_MAX_ITERATIONS"

	// Tools
	CodeToolNotFound      = "TOOL_NOT_FOUND"
	CodeToolInvalidParams = "TOOL_INVALID_PARAMS"

	// Vault
	CodeNoteNotFound   = "NOTE_NOT_FOUND"
	CodeNoteExists     = "NOTE_EXISTS"
	CodeVaultReadError = "VAULT_READ_ERROR"

	// Clipper
	CodeClipFetchFailed = "CLIP_FETCH_FAILED"
	CodeClipParseFailed = "CLIP_PARSE_FAILED"

	// Config
	CodeConfigInvalid = "CONFIG_INVALID"
)

// GetCategory extracts the category from an error.
// Returns CategoryInternal for non-AppError errors.
func GetCategory(err error) Category {
	if err == nil {
		return CategoryInternal
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}

	return CategoryInternal
}

// IsFatal reports whether the error should abort the current user-facing
// operation. Only configuration and transport errors do; everything else
// degrades to conversation content.
func IsFatal(err error) bool {
	switch GetCategory(err) {
	case CategoryConfig, CategoryTransport:
		return true
	default:
		return false
	}
}

// FormatUserMessage formats a user-friendly error message with suggestions.
func FormatUserMessage(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	var appErr *AppError
	if errors.As(err, &appErr) {
		sb.WriteString(appErr.Message)

		if appErr.Inner != nil {
			sb.WriteString(": ")
			sb.WriteString(appErr.Inner.Error())
		}

		if len(appErr.Suggestions) > 0 {
			sb.WriteString("\n\nSuggestions:")
			for _, s := range appErr.Suggestions {
				sb.WriteString("\n  - ")
				sb.WriteString(s)
			}
		}

		return sb.String()
	}

	return err.Error()
}
