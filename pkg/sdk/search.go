package sdk

import (
	"context"
	"net/http"
	"time"
)

// SearchOptions are the optional search parameters. Nil pointers take the
// server defaults (threshold 0.7, match count 10, active only).
type SearchOptions struct {
	SimilarityThreshold *float64   `json:"similarity_threshold,omitempty"`
	MatchCount          *int       `json:"match_count,omitempty"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	SourceType          string     `json:"source_type,omitempty"`
	ActiveOnly          *bool      `json:"active_only,omitempty"`
}

// SearchResult is a single matched content item.
type SearchResult struct {
	ID          string         `json:"id"`
	ContentText string         `json:"content_text"`
	SourceType  string         `json:"source_type"`
	SourceURL   *string        `json:"source_url,omitempty"`
	Similarity  float64        `json:"similarity"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SearchError is the classified failure carried by a SearchResponse.
type SearchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SearchResponse is the response envelope. Error is non-nil iff the search
// failed; Results is empty in that case.
type SearchResponse struct {
	Results         []SearchResult `json:"results"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	TotalCount      int            `json:"total_count"`
	Error           *SearchError   `json:"error,omitempty"`
}

type vectorSearchRequest struct {
	TargetUserID string    `json:"target_user_id"`
	QueryVector  []float32 `json:"query_vector"`
	SearchOptions
}

type textSearchRequest struct {
	TargetUserID string `json:"target_user_id"`
	QueryText    string `json:"query_text"`
	Mode         string `json:"mode,omitempty"`
	SearchOptions
}

type topicsSearchRequest struct {
	TargetUserID string   `json:"target_user_id"`
	Topics       []string `json:"topics"`
	SearchOptions
}

// SearchVector runs a raw vector similarity search.
func (c *Client) SearchVector(ctx context.Context, targetUserID string, queryVector []float32, opts SearchOptions) (SearchResponse, error) {
	var resp SearchResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/search", nil, vectorSearchRequest{
		TargetUserID:  targetUserID,
		QueryVector:   queryVector,
		SearchOptions: opts,
	}, &resp, true)
	return resp, err
}

// SearchText embeds the query text server-side and searches with it.
func (c *Client) SearchText(ctx context.Context, targetUserID, queryText string, opts SearchOptions) (SearchResponse, error) {
	return c.searchText(ctx, targetUserID, queryText, "", opts)
}

// SearchPrecise searches with the high-similarity preset.
func (c *Client) SearchPrecise(ctx context.Context, targetUserID, queryText string) (SearchResponse, error) {
	return c.searchText(ctx, targetUserID, queryText, "precise", SearchOptions{})
}

// SearchBroad searches with the low-similarity discovery preset.
func (c *Client) SearchBroad(ctx context.Context, targetUserID, queryText string) (SearchResponse, error) {
	return c.searchText(ctx, targetUserID, queryText, "broad", SearchOptions{})
}

func (c *Client) searchText(ctx context.Context, targetUserID, queryText, mode string, opts SearchOptions) (SearchResponse, error) {
	var resp SearchResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/search/text", nil, textSearchRequest{
		TargetUserID:  targetUserID,
		QueryText:     queryText,
		Mode:          mode,
		SearchOptions: opts,
	}, &resp, true)
	return resp, err
}

// SearchTopics runs one search per topic and returns one envelope per topic,
// in input order.
func (c *Client) SearchTopics(ctx context.Context, targetUserID string, topics []string, opts SearchOptions) ([]SearchResponse, error) {
	var responses []SearchResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/search/topics", nil, topicsSearchRequest{
		TargetUserID:  targetUserID,
		Topics:        topics,
		SearchOptions: opts,
	}, &responses, true)
	return responses, err
}
