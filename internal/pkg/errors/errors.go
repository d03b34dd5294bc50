// Package errors provides error types, logging and retry policy for aicommit.
package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrorCode represents the category of an error.
type ErrorCode int

const (
	// User and configuration errors (Exit Code 1)
	ErrConfigMissing ErrorCode = iota + 100
	ErrConfigMalformed
	ErrProviderNotFound
	ErrCredentialMissing
	ErrNotARepository
	ErrNoStagedChanges
	ErrInvalidArguments
)

const (
	// System errors (Exit Code 2)
	ErrGitCommandFailed ErrorCode = iota + 200
	ErrFileSystemError
	ErrSerialization
	ErrClipboard
)

const (
	// External errors (Exit Code 3)
	ErrTransport ErrorCode = iota + 300
	ErrTimeout
	ErrMalformedSuccess
	ErrEmptyCompletion
	ErrProviderRejected
	ErrHTTPStatus
)

// ExitCode returns the appropriate exit code for an error code.
func (c ErrorCode) ExitCode() int {
	switch {
	case c >= 100 && c < 200:
		return 1
	case c >= 200 && c < 300:
		return 2
	case c >= 300:
		return 3
	default:
		return 1
	}
}

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrConfigMissing:
		return "ConfigMissing"
	case ErrConfigMalformed:
		return "ConfigMalformed"
	case ErrProviderNotFound:
		return "ProviderNotFound"
	case ErrCredentialMissing:
		return "CredentialMissing"
	case ErrNotARepository:
		return "NotARepository"
	case ErrNoStagedChanges:
		return "NoStagedChanges"
	case ErrInvalidArguments:
		return "InvalidArguments"
	case ErrGitCommandFailed:
		return "GitCommandFailed"
	case ErrFileSystemError:
		return "FileSystemError"
	case ErrSerialization:
		return "SerializationError"
	case ErrClipboard:
		return "ClipboardError"
	case ErrTransport:
		return "TransportError"
	case ErrTimeout:
		return "Timeout"
	case ErrMalformedSuccess:
		return "MalformedSuccess"
	case ErrEmptyCompletion:
		return "EmptyCompletion"
	case ErrProviderRejected:
		return "ProviderError"
	case ErrHTTPStatus:
		return "HttpError"
	default:
		return "Unknown"
	}
}

// AppError represents an application error with context.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Context    map[string]interface{}
	Suggestion string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether a surrounding retry policy may repeat the call.
// Only transport-level failures qualify; anything the provider actually
// answered is final.
func (e *AppError) IsRetryable() bool {
	switch e.Code {
	case ErrTransport, ErrTimeout:
		return true
	default:
		return false
	}
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// RetryableError is an interface for errors that can be retried.
type RetryableError interface {
	error
	IsRetryable() bool
}

var _ RetryableError = (*AppError)(nil)

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// GetExitCode returns the appropriate exit code for an error.
func GetExitCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code.ExitCode()
	}
	return 1
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// Common error constructors with suggestions

// NewConfigMissingError reports that no configuration source exists at path.
func NewConfigMissingError(path string, cause error) *AppError {
	return &AppError{
		Code:       ErrConfigMissing,
		Message:    fmt.Sprintf("configuration file not found at %s", path),
		Cause:      cause,
		Suggestion: "Run 'aicommit --copy-default-config' to create one",
	}
}

// NewConfigMalformedError reports a configuration file that cannot be decoded.
func NewConfigMalformedError(path string, cause error) *AppError {
	return &AppError{
		Code:       ErrConfigMalformed,
		Message:    fmt.Sprintf("could not parse configuration file %s", path),
		Cause:      cause,
		Suggestion: "Check the file format: {\"providers\": [...], \"default_provider\": \"...\"}",
	}
}

// NewProviderNotFoundError reports a default_provider that names no configured entry.
func NewProviderNotFoundError(name string) *AppError {
	return &AppError{
		Code:       ErrProviderNotFound,
		Message:    fmt.Sprintf("default provider %q is not listed in providers", name),
		Suggestion: "Run 'aicommit config use <name>' with one of the configured providers",
	}
}

// NewCredentialMissingError reports an active provider without an API key.
func NewCredentialMissingError(provider string) *AppError {
	return &AppError{
		Code:       ErrCredentialMissing,
		Message:    fmt.Sprintf("API key is not configured for provider %q", provider),
		Suggestion: "Set api_key in the config file, run 'aicommit config setup', or export AICOMMIT_API_KEY",
	}
}

// NewNotARepositoryError reports a working directory outside any git repository.
func NewNotARepositoryError() *AppError {
	return &AppError{
		Code:       ErrNotARepository,
		Message:    "this directory is not a Git repository",
		Suggestion: "Run aicommit from inside a Git working tree",
	}
}

// NewNoStagedChangesError creates an error for no staged changes.
func NewNoStagedChangesError() *AppError {
	return &AppError{
		Code:       ErrNoStagedChanges,
		Message:    "no staged changes detected",
		Suggestion: "Use 'git add <files>' to stage changes before generating commit messages",
	}
}

// NewGitError creates an error for git command failures.
func NewGitError(err error, output string) *AppError {
	appErr := &AppError{
		Code:    ErrGitCommandFailed,
		Message: "git command failed",
		Cause:   err,
	}
	if output = strings.TrimSpace(output); output != "" {
		appErr.Message = "git command failed: " + firstLine(output)
		appErr.Context = map[string]interface{}{
			"output": output,
		}
	}
	return appErr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// NewSerializationError reports a request body that could not be encoded.
func NewSerializationError(err error) *AppError {
	return &AppError{
		Code:    ErrSerialization,
		Message: "failed to serialize completion request",
		Cause:   err,
	}
}

// NewTransportError reports a failure to exchange bytes with the provider.
// stage distinguishes building, sending and reading.
func NewTransportError(stage string, err error) *AppError {
	return &AppError{
		Code:       ErrTransport,
		Message:    fmt.Sprintf("failed to %s", stage),
		Cause:      err,
		Suggestion: "Please check your network connection and the provider endpoint",
	}
}

// NewTimeoutError creates an error for timeouts.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Code:       ErrTimeout,
		Message:    "request timed out",
		Cause:      err,
		Suggestion: "Please check your network connection or try again later",
	}
}

// NewClipboardError reports a failed clipboard write.
func NewClipboardError(err error) *AppError {
	return &AppError{
		Code:       ErrClipboard,
		Message:    "failed to copy to clipboard",
		Cause:      err,
		Suggestion: "Copy the message manually from the list above",
	}
}

// FormatError formats an error for user display.
// API keys and other sensitive data are automatically masked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(appErr.Message))

		if appErr.Cause != nil {
			sb.WriteString("\n  Cause: ")
			sb.WriteString(SanitizeErrorMessage(appErr.Cause.Error()))
		}

		if appErr.Suggestion != "" {
			sb.WriteString("\n  Suggestion: ")
			sb.WriteString(appErr.Suggestion)
		}
	} else {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(err.Error()))
	}

	return sb.String()
}

// FormatErrorVerbose formats an error with full details for verbose mode.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString(fmt.Sprintf("Error [%s]: %s\n", appErr.Code.String(), SanitizeErrorMessage(appErr.Message)))

		if appErr.Cause != nil {
			sb.WriteString(fmt.Sprintf("  Cause: %v\n", SanitizeErrorMessage(appErr.Cause.Error())))
			sb.WriteString("  Error chain:\n")
			printErrorChain(&sb, appErr.Cause, 2)
		}

		if len(appErr.Context) > 0 {
			sb.WriteString("  Context:\n")
			for k, v := range appErr.Context {
				sb.WriteString(fmt.Sprintf("    %s: %v\n", k, SanitizeErrorMessage(fmt.Sprintf("%v", v))))
			}
		}

		if appErr.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", appErr.Suggestion))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %v\n", SanitizeErrorMessage(err.Error())))
		sb.WriteString("  Error chain:\n")
		printErrorChain(&sb, err, 2)
	}

	return sb.String()
}

// printErrorChain prints the error chain with indentation.
func printErrorChain(sb *strings.Builder, err error, indent int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)
	sb.WriteString(fmt.Sprintf("%s- %T: %v\n", prefix, err, SanitizeErrorMessage(err.Error())))

	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		printErrorChain(sb, unwrapped, indent+1)
	}
}

// SanitizeErrorMessage masks any API keys or sensitive data in error messages.
func SanitizeErrorMessage(msg string) string {
	return apiKeyPattern.ReplaceAllStringFunc(msg, func(match string) string {
		if len(match) <= 4 {
			return "****"
		}
		return strings.Repeat("*", len(match)-4) + match[len(match)-4:]
	})
}

// apiKeyPattern matches common API key patterns.
var apiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`)
