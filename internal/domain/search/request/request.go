package request

import (
	"fmt"
	"time"

	"github.com/contentdex/contentdex/internal/domain"
)

// Search parameter limits.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultMatchCount          = 10
	MaxMatchCount              = 1000
)

// DateRange restricts candidate content by creation time (inclusive).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Options holds the optional search parameters. Nil pointers take defaults.
type Options struct {
	SimilarityThreshold *float64
	MatchCount          *int
	DateRange           *DateRange
	SourceType          domain.SourceType // zero value = no filter
	ActiveOnly          *bool             // default true
}

// Request is a validated, fully-defaulted similarity search query.
// Construction is the only validation point, so an invalid query can never
// reach the store.
type Request struct {
	targetUserID        string
	queryVector         []float32
	similarityThreshold float64
	matchCount          int
	dateRange           *DateRange
	sourceType          domain.SourceType
	activeOnly          bool
}

// New validates and normalizes search parameters.
// Defaults: threshold=0.7, matchCount=10, activeOnly=true.
func New(targetUserID string, queryVector []float32, opts Options) (Request, error) {
	if targetUserID == "" {
		return Request{}, fmt.Errorf("target user id is required: %w", domain.ErrInvalidParameters)
	}
	if len(queryVector) != domain.EmbeddingDimensions {
		return Request{}, fmt.Errorf("query vector must have %d dimensions, got %d: %w",
			domain.EmbeddingDimensions, len(queryVector), domain.ErrVectorDimMismatch)
	}

	threshold := DefaultSimilarityThreshold
	if opts.SimilarityThreshold != nil {
		threshold = *opts.SimilarityThreshold
		if threshold < 0 || threshold > 1 {
			return Request{}, fmt.Errorf("similarity threshold must be within [0, 1], got %v: %w",
				threshold, domain.ErrInvalidParameters)
		}
	}

	count := DefaultMatchCount
	if opts.MatchCount != nil {
		count = *opts.MatchCount
		if count < 0 || count > MaxMatchCount {
			return Request{}, fmt.Errorf("match count must be within [0, %d], got %d: %w",
				MaxMatchCount, count, domain.ErrInvalidParameters)
		}
	}

	if opts.DateRange != nil {
		if opts.DateRange.Start.IsZero() || opts.DateRange.End.IsZero() {
			return Request{}, fmt.Errorf("date range requires both start and end: %w", domain.ErrInvalidParameters)
		}
		if opts.DateRange.Start.After(opts.DateRange.End) {
			return Request{}, fmt.Errorf("date range start is after end: %w", domain.ErrInvalidParameters)
		}
	}

	if opts.SourceType != "" && !opts.SourceType.IsValid() {
		return Request{}, fmt.Errorf("unknown source type %q: %w", opts.SourceType, domain.ErrInvalidParameters)
	}

	activeOnly := true
	if opts.ActiveOnly != nil {
		activeOnly = *opts.ActiveOnly
	}

	return Request{
		targetUserID:        targetUserID,
		queryVector:         queryVector,
		similarityThreshold: threshold,
		matchCount:          count,
		dateRange:           opts.DateRange,
		sourceType:          opts.SourceType,
		activeOnly:          activeOnly,
	}, nil
}

// Valid reports whether r is a constructed, usable request.
// Nil-safe boolean probe for callers that cannot handle an error return.
func Valid(r *Request) bool {
	return r != nil && r.targetUserID != "" && len(r.queryVector) == domain.EmbeddingDimensions
}

// TargetUserID returns the id of the user whose content is searched.
func (r *Request) TargetUserID() string { return r.targetUserID }

// QueryVector returns the semantic embedding of the query.
func (r *Request) QueryVector() []float32 { return r.queryVector }

// SimilarityThreshold returns the minimum similarity for a match.
func (r *Request) SimilarityThreshold() float64 { return r.similarityThreshold }

// MatchCount returns the result cardinality cap.
func (r *Request) MatchCount() int { return r.matchCount }

// DateRange returns the creation-time filter (nil when absent).
func (r *Request) DateRange() *DateRange { return r.dateRange }

// SourceType returns the content-origin filter (empty when absent).
func (r *Request) SourceType() domain.SourceType { return r.sourceType }

// ActiveOnly reports whether soft-deleted content is excluded.
func (r *Request) ActiveOnly() bool { return r.activeOnly }
