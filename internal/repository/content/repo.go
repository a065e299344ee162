// Package content invokes the match_user_content similarity-search function.
// Row-level security on user_content is the storage-side guarantee; the
// user_id parameter here is the explicit, defense-in-depth filter on top.
package content

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/contentdex/contentdex/internal/domain"
	"github.com/contentdex/contentdex/internal/domain/search/request"
	"github.com/contentdex/contentdex/internal/domain/search/result"
)

// querier is the consumer interface over the pgx pool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repo implements usecase/search.Repository over Postgres + pgvector.
type Repo struct {
	q querier
}

// New creates a content search repository.
func New(q querier) *Repo {
	return &Repo{q: q}
}

// matchSQL calls the similarity-search function. The function itself applies
// the threshold, ordering (similarity desc, created_at desc) and the limit.
const matchSQL = `
SELECT id, content_text, source_type, source_url, similarity,
       embedding_model, embedded_at, is_active, metadata, created_at
FROM match_user_content($1, $2, $3, $4, $5, $6, $7, $8)`

// Match runs the similarity search for a validated request.
func (r *Repo) Match(ctx context.Context, req *request.Request) ([]result.Result, error) {
	rows, err := r.q.Query(ctx, matchSQL, matchArgs(req)...)
	if err != nil {
		return nil, fmt.Errorf("match user content: %w", err)
	}
	defer rows.Close()

	echo := result.QueryEcho{
		Timestamp:  time.Now().UTC(),
		Threshold:  req.SimilarityThreshold(),
		MatchCount: req.MatchCount(),
		SourceType: req.SourceType(),
		ActiveOnly: req.ActiveOnly(),
	}

	var results []result.Result
	for rows.Next() {
		res, err := scanResult(rows, req.SimilarityThreshold(), echo)
		if err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return results, nil
}

// matchArgs converts a request into the positional arguments of
// match_user_content(user_id, query_embedding, match_threshold, match_count,
// start_date, end_date, source_type, active_only).
func matchArgs(req *request.Request) []any {
	var startDate, endDate *time.Time
	if dr := req.DateRange(); dr != nil {
		startDate, endDate = &dr.Start, &dr.End
	}

	var sourceType *string
	if st := req.SourceType(); st != "" {
		s := string(st)
		sourceType = &s
	}

	return []any{
		req.TargetUserID(),
		pgvector.NewVector(req.QueryVector()),
		req.SimilarityThreshold(),
		req.MatchCount(),
		startDate,
		endDate,
		sourceType,
		req.ActiveOnly(),
	}
}

func scanResult(rows pgx.Rows, threshold float64, echo result.QueryEcho) (result.Result, error) {
	var (
		id          string
		contentText string
		sourceType  string
		sourceURL   *string
		similarity  float64
		model       string
		embeddedAt  time.Time
		isActive    bool
		extra       map[string]any
		createdAt   time.Time
	)
	if err := rows.Scan(
		&id, &contentText, &sourceType, &sourceURL, &similarity,
		&model, &embeddedAt, &isActive, &extra, &createdAt,
	); err != nil {
		return result.Result{}, err
	}

	meta := result.Metadata{
		ModelName:          model,
		EmbeddedAt:         embeddedAt,
		EffectiveThreshold: threshold,
		Active:             isActive,
		Extra:              extra,
		Query:              echo,
	}
	return result.New(id, contentText, domain.SourceType(sourceType), sourceURL, similarity, meta, createdAt), nil
}
