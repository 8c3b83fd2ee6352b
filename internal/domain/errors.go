package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	// ErrInvalidURL indicates a URL that is not a GitHub repository URL
	ErrInvalidURL = errors.New("invalid URL")

	// ErrNotFound indicates the remote repository or branch does not exist
	ErrNotFound = errors.New("not found")

	// ErrCorruptArchive indicates the downloaded archive could not be read
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrInvalidEncoding indicates a document that is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrConflict indicates a file and a directory share a name in the tree
	ErrConflict = errors.New("tree node conflict")

	// ErrArchiveTooLarge indicates the archive exceeded the configured size limit
	ErrArchiveTooLarge = errors.New("archive too large")

	// ErrMissingToken indicates a request that needs a bearer token had none
	ErrMissingToken = errors.New("missing authorization bearer token")

	// ErrInvalidLanguage indicates a language name that cannot be stored
	ErrInvalidLanguage = errors.New("invalid language name")
)

// InvalidInputError is a client-side input error (HTTP 400)
type InvalidInputError struct {
	Input   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidURL
}

// NewInvalidInputError creates a new InvalidInputError
func NewInvalidInputError(input, message string) *InvalidInputError {
	return &InvalidInputError{Input: input, Message: message}
}

// NotFoundError reports a missing remote repository (HTTP 404)
type NotFoundError struct {
	URL        string
	StatusCode int
}

func (e *NotFoundError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("repository not found: %s (status %d)", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("repository not found: %s", e.URL)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(url string, statusCode int) *NotFoundError {
	return &NotFoundError{URL: url, StatusCode: statusCode}
}

// CorruptArchiveError reports an archive that cannot be opened or parsed
type CorruptArchiveError struct {
	Path string
	Err  error
}

func (e *CorruptArchiveError) Error() string {
	return fmt.Sprintf("corrupt archive %s: %v", e.Path, e.Err)
}

func (e *CorruptArchiveError) Unwrap() []error {
	return []error{ErrCorruptArchive, e.Err}
}

// NewCorruptArchiveError creates a new CorruptArchiveError
func NewCorruptArchiveError(path string, err error) *CorruptArchiveError {
	return &CorruptArchiveError{Path: path, Err: err}
}

// EncodingError reports a markdown document that is not valid UTF-8.
// Path is relative to the extracted repository root.
type EncodingError struct {
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("'utf-8' codec can't decode %s: %v", e.Path, e.Err)
}

func (e *EncodingError) Unwrap() []error {
	return []error{ErrInvalidEncoding, e.Err}
}

// NewEncodingError creates a new EncodingError
func NewEncodingError(path string, err error) *EncodingError {
	return &EncodingError{Path: path, Err: err}
}

// ConflictError reports a name used by both a file and a directory at one level
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("file and directory share the name %q", e.Path)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// StatusError is an error already classified with an HTTP status code.
// The orchestrator returns every failure in this shape.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Classify wraps err in a StatusError. Already classified errors pass through.
func Classify(err error) *StatusError {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}

	return &StatusError{
		Code:    HTTPStatus(err),
		Message: PublicMessage(err),
		Err:     err,
	}
}

// HTTPStatus maps an error to its HTTP status class
func HTTPStatus(err error) int {
	var statusErr *StatusError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &statusErr):
		return statusErr.Code
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidLanguage):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLLMCircuitOpen), errors.Is(err, ErrLLMRateLimited):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message shown to API callers for err.
// Archive errors leave out the local archive path.
func PublicMessage(err error) string {
	var (
		inputErr   *InvalidInputError
		corruptErr *CorruptArchiveError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &inputErr):
		return inputErr.Message
	case errors.Is(err, ErrNotFound):
		return "Repository not found"
	case errors.As(err, &corruptErr):
		return fmt.Sprintf("%s: %v", ErrCorruptArchive, corruptErr.Err)
	default:
		return err.Error()
	}
}

// =============================================================================
// LLM Errors
// =============================================================================

// LLM sentinel errors
var (
	// ErrLLMNotConfigured indicates LLM provider is not configured
	ErrLLMNotConfigured = errors.New("LLM provider not configured")

	// ErrLLMMissingAPIKey indicates API key is required but not provided
	ErrLLMMissingAPIKey = errors.New("LLM API key is required")

	// ErrLLMMissingBaseURL indicates base URL is required but not provided
	ErrLLMMissingBaseURL = errors.New("LLM base URL is required")

	// ErrLLMMissingModel indicates model is required but not provided
	ErrLLMMissingModel = errors.New("LLM model is required")

	// ErrLLMInvalidProvider indicates an invalid provider type
	ErrLLMInvalidProvider = errors.New("invalid LLM provider")

	// ErrLLMRateLimited indicates rate limit was exceeded
	ErrLLMRateLimited = errors.New("LLM rate limit exceeded")

	// ErrLLMAuthFailed indicates authentication failed
	ErrLLMAuthFailed = errors.New("LLM authentication failed")

	// ErrLLMEmptyResponse indicates the provider returned no completion text
	ErrLLMEmptyResponse = errors.New("LLM returned an empty response")

	// ErrLLMCircuitOpen indicates the circuit breaker rejected the request
	ErrLLMCircuitOpen = errors.New("LLM circuit breaker is open")

	// ErrLLMMaxRetriesExceeded indicates all retry attempts failed
	ErrLLMMaxRetriesExceeded = errors.New("LLM max retries exceeded")
)

// LLMError represents an LLM-specific error
type LLMError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// NewLLMError creates a new LLMError
func NewLLMError(provider string, statusCode int, message string, err error) *LLMError {
	return &LLMError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}
