package errors

import (
	"fmt"
)

// SearchError is the structured error type used across the search core.
// It carries enough context for logging, CLI output and MCP error mapping.
type SearchError struct {
	// Code is the unique error code (e.g., "ERR_201_CORPUS_MALFORMED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Corpus, Index, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a SearchError with the same code.
// This lets errors.Is(err, ErrIndexNotBuilt) work through wrapping.
func (e *SearchError) Is(target error) bool {
	if t, ok := target.(*SearchError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *SearchError) WithDetail(key, value string) *SearchError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SearchError) WithSuggestion(suggestion string) *SearchError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SearchError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SearchError {
	return &SearchError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SearchError from an existing error.
// The error's message becomes the SearchError message.
func Wrap(code string, err error) *SearchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel values for errors.Is comparisons. They match any SearchError
// carrying the same code.
var (
	ErrCorpusMalformed  = &SearchError{Code: ErrCodeCorpusMalformed}
	ErrCorpusLoadFailed = &SearchError{Code: ErrCodeCorpusLoadFailed}
	ErrDocumentNotFound = &SearchError{Code: ErrCodeDocumentNotFound}
	ErrIndexNotBuilt    = &SearchError{Code: ErrCodeIndexNotBuilt}
	ErrIndexBuildFailed = &SearchError{Code: ErrCodeIndexBuildFailed}
	ErrQueryFailed      = &SearchError{Code: ErrCodeQueryFailed}
)

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SearchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// CorpusMalformed reports a corpus entry missing a required field or
// otherwise unusable. The whole load fails.
func CorpusMalformed(message string, cause error) *SearchError {
	return New(ErrCodeCorpusMalformed, message, cause).
		WithSuggestion("Regenerate search.json with the site generator")
}

// CorpusLoadFailed reports a transport or parse failure fetching the corpus.
func CorpusLoadFailed(message string, cause error) *SearchError {
	return New(ErrCodeCorpusLoadFailed, message, cause)
}

// IndexNotBuilt reports a query against an index that has not been built.
func IndexNotBuilt(backend string) *SearchError {
	return New(ErrCodeIndexNotBuilt, "search index has not been built", nil).
		WithDetail("backend", backend)
}

// QueryFailed reports an unexpected failure while evaluating a query.
func QueryFailed(message string, cause error) *SearchError {
	return New(ErrCodeQueryFailed, message, cause).
		WithSuggestion("Search failed, please retry")
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SearchError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SearchError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := asSearchError(err); ok {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors leave the engine unloaded until an explicit reload.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := asSearchError(err); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a SearchError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if se, ok := asSearchError(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a SearchError anywhere in the chain.
func GetCategory(err error) Category {
	if se, ok := asSearchError(err); ok {
		return se.Category
	}
	return ""
}

// asSearchError walks the Unwrap chain looking for a *SearchError.
func asSearchError(err error) (*SearchError, bool) {
	for err != nil {
		if se, ok := err.(*SearchError); ok {
			return se, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
