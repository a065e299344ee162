package result

import (
	"time"

	"github.com/contentdex/contentdex/internal/domain"
)

// QueryEcho mirrors the effective request parameters back into each result
// for audit and debugging.
type QueryEcho struct {
	Timestamp  time.Time
	Threshold  float64
	MatchCount int
	SourceType domain.SourceType
	ActiveOnly bool
}

// Metadata carries provenance details for a matched content item.
type Metadata struct {
	ModelName          string
	EmbeddedAt         time.Time
	EffectiveThreshold float64
	Active             bool
	Extra              map[string]any
	Query              QueryEcho
}

// Result is a single matched content item.
type Result struct {
	id          string
	contentText string
	sourceType  domain.SourceType
	sourceURL   *string
	similarity  float64
	metadata    Metadata
	createdAt   time.Time
}

// New creates a search result.
func New(
	id, contentText string,
	sourceType domain.SourceType, sourceURL *string,
	similarity float64, metadata Metadata, createdAt time.Time,
) Result {
	return Result{
		id:          id,
		contentText: contentText,
		sourceType:  sourceType,
		sourceURL:   sourceURL,
		similarity:  similarity,
		metadata:    metadata,
		createdAt:   createdAt,
	}
}

// ID returns the content item identifier.
func (r *Result) ID() string { return r.id }

// ContentText returns the matched content body.
func (r *Result) ContentText() string { return r.contentText }

// SourceType returns the content origin.
func (r *Result) SourceType() domain.SourceType { return r.sourceType }

// SourceURL returns the origin URL (nil when the item has none).
func (r *Result) SourceURL() *string { return r.sourceURL }

// Similarity returns the cosine similarity against the query, in [0, 1].
func (r *Result) Similarity() float64 { return r.similarity }

// Metadata returns the provenance record.
func (r *Result) Metadata() Metadata { return r.metadata }

// CreatedAt returns the content creation time.
func (r *Result) CreatedAt() time.Time { return r.createdAt }
