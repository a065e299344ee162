package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/contentdex/contentdex/internal/domain"
	"github.com/contentdex/contentdex/internal/domain/search/envelope"
	"github.com/contentdex/contentdex/internal/domain/search/request"
	"github.com/contentdex/contentdex/internal/logger"
)

// Preset similarity thresholds for the convenience entry points.
const (
	PreciseThreshold = 0.85
	BroadThreshold   = 0.5
)

// maxTopics caps the fan-out width of a multi-topic search.
const maxTopics = 10

// SearchText embeds the query text and runs the search with the resulting
// vector. Embedding failures are classified as text_search_error and never
// reach the store.
func (s *Service) SearchText(ctx context.Context, targetUserID, queryText string, opts request.Options) envelope.Response {
	started := time.Now()

	if strings.TrimSpace(queryText) == "" {
		observe("text", string(envelope.CodeInvalidParameters), 0, time.Since(started))
		return envelope.Failure(envelope.CodeInvalidParameters,
			"query text is required", time.Since(started))
	}

	emb, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		logger.FromContext(ctx).Error("query embedding failed", zap.Error(err))
		observe("text", string(envelope.CodeTextSearchError), 0, time.Since(started))
		return envelope.FailureWithDetails(envelope.CodeTextSearchError,
			"failed to embed query text", err.Error(), time.Since(started))
	}
	if len(emb.Embedding) != domain.EmbeddingDimensions {
		observe("text", string(envelope.CodeTextSearchError), 0, time.Since(started))
		return envelope.FailureWithDetails(envelope.CodeTextSearchError,
			"embedding provider returned an unusable vector",
			fmt.Sprintf("expected %d dimensions, got %d", domain.EmbeddingDimensions, len(emb.Embedding)),
			time.Since(started))
	}

	req, err := request.New(targetUserID, emb.Embedding, opts)
	if err != nil {
		observe("text", string(envelope.CodeInvalidParameters), 0, time.Since(started))
		return envelope.FailureWithDetails(envelope.CodeInvalidParameters,
			"invalid search parameters", err.Error(), time.Since(started))
	}
	return s.invoke(ctx, "text", &req, started)
}

// SearchTopics runs one text search per topic concurrently and returns one
// envelope per topic, in input order. A failed topic yields a failure
// envelope in its slot without disturbing the other topics.
func (s *Service) SearchTopics(ctx context.Context, targetUserID string, topics []string, opts request.Options) []envelope.Response {
	if len(topics) == 0 {
		return []envelope.Response{}
	}
	if len(topics) > maxTopics {
		responses := make([]envelope.Response, len(topics))
		for i := range responses {
			responses[i] = envelope.Failure(envelope.CodeInvalidParameters,
				fmt.Sprintf("at most %d topics per search", maxTopics), 0)
		}
		return responses
	}

	responses := make([]envelope.Response, len(topics))
	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		i, topic := i, topic
		g.Go(func() (err error) {
			started := time.Now()
			defer func() {
				if r := recover(); r != nil {
					logger.FromContext(ctx).Error("topic search panicked",
						zap.String("topic", topic), zap.Any("panic", r))
					responses[i] = envelope.Failure(envelope.CodeMultiTopicError,
						fmt.Sprintf("search for topic %q failed unexpectedly", topic),
						time.Since(started))
				}
			}()
			// Topic failures land in their slot; never abort the group.
			responses[i] = s.SearchText(gctx, targetUserID, topic, opts)
			return nil
		})
	}
	_ = g.Wait()
	return responses
}

// SearchPrecise searches with a high-similarity preset for exact lookups.
func (s *Service) SearchPrecise(ctx context.Context, targetUserID, queryText string) envelope.Response {
	threshold := PreciseThreshold
	return s.SearchText(ctx, targetUserID, queryText, request.Options{
		SimilarityThreshold: &threshold,
	})
}

// SearchBroad searches with a low-similarity preset for discovery.
func (s *Service) SearchBroad(ctx context.Context, targetUserID, queryText string) envelope.Response {
	threshold := BroadThreshold
	return s.SearchText(ctx, targetUserID, queryText, request.Options{
		SimilarityThreshold: &threshold,
	})
}

// SearchDateRange restricts a text search to content created inside [start, end].
func (s *Service) SearchDateRange(ctx context.Context, targetUserID, queryText string, start, end time.Time) envelope.Response {
	return s.SearchText(ctx, targetUserID, queryText, request.Options{
		DateRange: &request.DateRange{Start: start, End: end},
	})
}

// SearchSourceType restricts a text search to one content origin.
func (s *Service) SearchSourceType(ctx context.Context, targetUserID, queryText string, sourceType domain.SourceType) envelope.Response {
	return s.SearchText(ctx, targetUserID, queryText, request.Options{
		SourceType: sourceType,
	})
}
