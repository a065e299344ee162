// Package search implements the authenticated vector-search use cases.
// Every entry point returns an envelope.Response: failures are classified
// and carried inside the envelope instead of propagating as errors.
package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/contentdex/contentdex/internal/domain"
	"github.com/contentdex/contentdex/internal/domain/search/envelope"
	"github.com/contentdex/contentdex/internal/domain/search/request"
	"github.com/contentdex/contentdex/internal/logger"
	"github.com/contentdex/contentdex/internal/metrics"
)

// DefaultWarnThreshold flags searches slower than this as slow queries.
const DefaultWarnThreshold = time.Second

// Service authorizes and executes similarity searches.
type Service struct {
	repo          Repository
	authorizer    Authorizer
	embedder      Embedder
	warnThreshold time.Duration
}

// NewService creates the search service. warnThreshold <= 0 takes the default.
func NewService(repo Repository, authorizer Authorizer, embedder Embedder, warnThreshold time.Duration) *Service {
	if warnThreshold <= 0 {
		warnThreshold = DefaultWarnThreshold
	}
	return &Service{
		repo:          repo,
		authorizer:    authorizer,
		embedder:      embedder,
		warnThreshold: warnThreshold,
	}
}

// SearchVector is the raw entry point: it validates parameters, then runs
// the authorized search. Validation failures are classified without touching
// the authorizer or the store.
func (s *Service) SearchVector(ctx context.Context, targetUserID string, queryVector []float32, opts request.Options) envelope.Response {
	started := time.Now()

	req, err := request.New(targetUserID, queryVector, opts)
	if err != nil {
		observe("vector", string(envelope.CodeInvalidParameters), 0, time.Since(started))
		return envelope.FailureWithDetails(envelope.CodeInvalidParameters,
			"invalid search parameters", err.Error(), time.Since(started))
	}
	return s.invoke(ctx, "vector", &req, started)
}

// invoke runs an already-validated request through authorization and the
// store, classifying every failure mode into the envelope. The deferred
// recover converts panics from the layers below into unknown_error.
func (s *Service) invoke(ctx context.Context, operation string, req *request.Request, started time.Time) (resp envelope.Response) {
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("search panicked",
				zap.String("operation", operation), zap.Any("panic", r))
			resp = envelope.Failure(envelope.CodeUnknownError,
				"search failed unexpectedly", time.Since(started))
		}
		status := "ok"
		if resp.Error != nil {
			status = string(resp.Error.Code)
		}
		observe(operation, status, len(resp.Results), time.Since(started))
		s.warnIfSlow(log, operation, req, time.Since(started))
	}()

	if _, err := s.authorizer.AuthorizeOwner(ctx, req.TargetUserID()); err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			return envelope.Failure(envelope.CodeUnauthenticated,
				"authentication required", time.Since(started))
		case errors.Is(err, domain.ErrAccessDenied):
			return envelope.Failure(envelope.CodeAccessDenied,
				"cannot search another user's content", time.Since(started))
		default:
			log.Error("authorization failed", zap.String("operation", operation), zap.Error(err))
			return envelope.Failure(envelope.CodeUnknownError,
				"authorization failed", time.Since(started))
		}
	}

	results, err := s.repo.Match(ctx, req)
	if err != nil {
		log.Error("similarity search failed",
			zap.String("operation", operation),
			zap.String("target_user_id", req.TargetUserID()),
			zap.Error(err))
		return envelope.FailureWithDetails(envelope.CodeDatabaseError,
			"similarity search failed", err.Error(), time.Since(started))
	}

	return envelope.Success(results, time.Since(started))
}

func (s *Service) warnIfSlow(log *zap.Logger, operation string, req *request.Request, elapsed time.Duration) {
	if elapsed < s.warnThreshold {
		return
	}
	metrics.SearchSlowTotal.Inc()
	log.Warn("slow search",
		zap.String("operation", operation),
		zap.Duration("elapsed", elapsed),
		zap.Duration("threshold", s.warnThreshold),
		zap.Float64("similarity_threshold", req.SimilarityThreshold()),
		zap.Int("match_count", req.MatchCount()))
}

func observe(operation, status string, resultCount int, elapsed time.Duration) {
	metrics.SearchRequestsTotal.WithLabelValues(operation, status).Inc()
	metrics.SearchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if status == "ok" {
		metrics.SearchResultCount.WithLabelValues(operation).Observe(float64(resultCount))
	}
}
