// Package errors provides structured error handling for the search core.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Corpus errors (shape, transport, lookups)
//   - 3XX: Index errors
//   - 4XX: Query and input errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryCorpus indicates corpus loading and lookup errors.
	CategoryCorpus Category = "CORPUS"
	// CategoryIndex indicates index build and state errors.
	CategoryIndex Category = "INDEX"
	// CategoryQuery indicates query evaluation and input errors.
	CategoryQuery Category = "QUERY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal means the loaded state is unusable until an explicit reload.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_100_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_101_CONFIG_INVALID"

	// Corpus errors (200-299)
	ErrCodeCorpusMalformed  = "ERR_201_CORPUS_MALFORMED"
	ErrCodeCorpusLoadFailed = "ERR_202_CORPUS_LOAD_FAILED"
	ErrCodeDocumentNotFound = "ERR_203_DOCUMENT_NOT_FOUND"

	// Index errors (300-399)
	ErrCodeIndexNotBuilt    = "ERR_301_INDEX_NOT_BUILT"
	ErrCodeIndexBuildFailed = "ERR_302_INDEX_BUILD_FAILED"

	// Query errors (400-499)
	ErrCodeQueryFailed  = "ERR_401_QUERY_FAILED"
	ErrCodeInvalidInput = "ERR_402_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "201" from "ERR_201_CORPUS_MALFORMED"
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryCorpus
	case '3':
		return CategoryIndex
	case '4':
		return CategoryQuery
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorpusMalformed, ErrCodeCorpusLoadFailed, ErrCodeIndexBuildFailed:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Only per-query failures are retryable; corpus and build failures need an
// explicit reload.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeQueryFailed:
		return true
	default:
		return false
	}
}
