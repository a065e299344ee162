package sdk

import "fmt"

// APIError is a non-2xx response from a record or health endpoint.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contentdex: %d %s: %s", e.Status, e.Code, e.Message)
}

// Search envelope error codes, mirroring the server taxonomy.
const (
	CodeInvalidParameters = "invalid_parameters"
	CodeUnauthenticated   = "unauthenticated"
	CodeAccessDenied      = "access_denied"
	CodeDatabaseError     = "database_error"
	CodeTextSearchError   = "text_search_error"
	CodeMultiTopicError   = "multi_topic_search_error"
	CodeUnknownError      = "unknown_error"
)
