package domain

import "errors"

var (
	// ErrUnauthenticated signals that no session identity could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAccessDenied signals that the resolved identity does not own the target resource.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidParameters signals a request that failed validation.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrVectorDimMismatch signals a query vector with the wrong number of dimensions.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrZeroVector signals a vector with no magnitude.
	ErrZeroVector = errors.New("zero vector")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnknownTable signals a table outside the records allowlist.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn signals a filter or payload column outside a table's allowlist.
	ErrUnknownColumn = errors.New("unknown column")
)
