// Package envelope defines the uniform response wrapper returned by every
// search-layer operation. Failures travel inside the envelope, never as a
// raised error, so callers always receive a renderable response.
package envelope

import (
	"time"

	"github.com/contentdex/contentdex/internal/domain/search/result"
)

// Code classifies a search failure.
type Code string

// The search error taxonomy.
const (
	CodeInvalidParameters Code = "invalid_parameters"
	CodeUnauthenticated   Code = "unauthenticated"
	CodeAccessDenied      Code = "access_denied"
	CodeDatabaseError     Code = "database_error"
	CodeTextSearchError   Code = "text_search_error"
	CodeMultiTopicError   Code = "multi_topic_search_error"
	CodeUnknownError      Code = "unknown_error"
)

// Error is the structured failure detail carried by a Response.
type Error struct {
	Code    Code
	Message string
	Details string
}

// Response is the envelope returned to every search caller.
// Error is non-nil if and only if the operation failed; on failure Results
// is empty and TotalCount is 0.
type Response struct {
	Results         []result.Result
	ExecutionTimeMs int64
	TotalCount      int
	Error           *Error
}

// Success wraps results measured over elapsed wall time.
func Success(results []result.Result, elapsed time.Duration) Response {
	if results == nil {
		results = []result.Result{}
	}
	return Response{
		Results:         results,
		ExecutionTimeMs: elapsed.Milliseconds(),
		TotalCount:      len(results),
	}
}

// Failure wraps a classified error with an empty result set.
func Failure(code Code, message string, elapsed time.Duration) Response {
	return Response{
		Results:         []result.Result{},
		ExecutionTimeMs: elapsed.Milliseconds(),
		Error:           &Error{Code: code, Message: message},
	}
}

// FailureWithDetails wraps a classified error carrying extra detail text.
func FailureWithDetails(code Code, message, details string, elapsed time.Duration) Response {
	r := Failure(code, message, elapsed)
	r.Error.Details = details
	return r
}

// OK reports whether the operation succeeded.
func (r *Response) OK() bool { return r.Error == nil }
