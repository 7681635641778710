// Package errors provides error handling for Nimbus.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Error Categories
// ============================================================

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryExternal errors come from external services (network timeouts,
	// bad payloads from scraped or queried endpoints)
	CategoryExternal Category = iota

	// CategoryPermanent errors are not recoverable (invalid state, not found)
	CategoryPermanent

	// CategoryUser errors are due to user input (validation, syntax)
	CategoryUser

	// CategorySystem errors are system-level (disk full, permissions)
	CategorySystem
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryExternal:
		return "external"
	case CategoryPermanent:
		return "permanent"
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// ============================================================
// AppError - Main Error Type
// ============================================================

// AppError is the main error type for all Nimbus errors.
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

	// Context is additional debugging information
	Context map[string]interface{}
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

// Is checks if the target error is contained in this error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Inner, target)
}

// ============================================================
// Error Constructors
// ============================================================

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// Wrap wraps an existing error with context.
func Wrap(err error, code, message string, category Category) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:        code,
			Message:     message,
			Category:    category,
			Inner:       appErr,
			Suggestions: appErr.Suggestions,
			Context:     appErr.Context,
		}
	}

	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Inner:    err,
	}
}

// External creates an external-service error.
func External(code, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: CategoryExternal,
	}
}

// Permanent creates a permanent error.
func Permanent(code, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: CategoryPermanent,
	}
}

// User creates a user input error.
func User(code, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: CategoryUser,
	}
}

// System creates a system-level error.
func System(code, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: CategorySystem,
	}
}

// ============================================================
// Builder Pattern for Fluent Error Construction
// ============================================================

// Builder provides fluent error construction.
type Builder struct {
	err *AppError
}

// NewBuilder starts building a new error.
func NewBuilder(code, message string) *Builder {
	return &Builder{
		err: &AppError{
			Code:     code,
			Message:  message,
			Category: CategoryExternal,
			Context:  make(map[string]interface{}),
		},
	}
}

// External marks the error as coming from an external service.
func (b *Builder) External() *Builder {
	b.err.Category = CategoryExternal
	return b
}

// Permanent marks the error as permanent.
func (b *Builder) Permanent() *Builder {
	b.err.Category = CategoryPermanent
	return b
}

// User marks the error as a user input error.
func (b *Builder) User() *Builder {
	b.err.Category = CategoryUser
	return b
}

// System marks the error as a system error.
func (b *Builder) System() *Builder {
	b.err.Category = CategorySystem
	return b
}

// Wrap sets the underlying error.
func (b *Builder) Wrap(err error) *Builder {
	b.err.Inner = err
	return b
}

// WithSuggestion adds a recovery suggestion.
func (b *Builder) WithSuggestion(suggestion string) *Builder {
	b.err.Suggestions = append(b.err.Suggestions, suggestion)
	return b
}

// WithContext adds context information.
func (b *Builder) WithContext(key string, value interface{}) *Builder {
	b.err.Context[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *AppError {
	return b.err
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Model errors
	CodeModelUnavailable     = "MODEL_UNAVAILABLE"
	CodeModelTimeout         = "MODEL_TIMEOUT"
	CodeModelInvalidResponse = "MODEL_INVALID_RESPONSE"

	// Plugin errors
	CodePluginNotFound        = "PLUGIN_NOT_FOUND"
	CodePluginExecutionFailed = "PLUGIN_EXECUTION_FAILED"
	CodePluginDisabled        = "PLUGIN_DISABLED"

	// Knowledge errors
	CodeKnowledgeStoreFailed  = "KNOWLEDGE_STORE_FAILED"
	CodeKnowledgeLoadFailed   = "KNOWLEDGE_LOAD_FAILED"
	CodeKnowledgeLearnFailed  = "KNOWLEDGE_LEARN_FAILED"
	CodeKnowledgeNotFound     = "KNOWLEDGE_NOT_FOUND"

	// External service errors
	CodeNetworkUnavailable = "NETWORK_UNAVAILABLE"
	CodeServiceBadPayload  = "SERVICE_BAD_PAYLOAD"
	CodeWeatherUnavailable = "WEATHER_UNAVAILABLE"

	// System control errors
	CodeSystemCommandFailed = "SYSTEM_COMMAND_FAILED"
	CodeClipboardFailed     = "CLIPBOARD_FAILED"

	// Config errors
	CodeConfigInvalid = "CONFIG_INVALID"

	// History errors
	CodeHistoryUnavailable = "HISTORY_UNAVAILABLE"

	// Validation errors
	CodeInvalidInput = "INVALID_INPUT"
)

// ============================================================
// Helpers
// ============================================================

// GetCategory extracts the category from an error.
// Returns CategoryExternal for non-AppError errors.
func GetCategory(err error) Category {
	if err == nil {
		return CategoryExternal
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}

	return CategoryExternal
}

// GetSuggestions returns recovery suggestions for an error.
func GetSuggestions(err error) []string {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Suggestions
	}

	return nil
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

		if len(appErr.Suggestions) > 0 {
			sb.WriteString("\n\nSuggestions:")
			for _, s := range appErr.Suggestions {
				sb.WriteString(fmt.Sprintf("\n  - %s", s))
			}
		}

		return sb.String()
	}

	return err.Error()
}
