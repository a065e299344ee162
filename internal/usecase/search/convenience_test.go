package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdex/contentdex/internal/auth"
	"github.com/contentdex/contentdex/internal/domain"
	"github.com/contentdex/contentdex/internal/domain/search/envelope"
	"github.com/contentdex/contentdex/internal/domain/search/request"
	"github.com/contentdex/contentdex/internal/domain/search/result"
)

func okEmbedder() *mockEmbedder {
	return &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: validVector(),
		Model:     "text-embedding-3-small",
	}}
}

func TestSearchText_Success(t *testing.T) {
	repo := &mockRepo{results: []result.Result{sampleResult("a")}}
	authz := &mockAuthorizer{identity: auth.Identity{UserID: "user-1"}}
	emb := okEmbedder()
	svc := newTestService(repo, authz, emb)

	resp := svc.SearchText(context.Background(), "user-1", "golang concurrency", request.Options{})

	require.True(t, resp.OK())
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, "golang concurrency", emb.lastIn)
	assert.Equal(t, 1, repo.calls)
}

func TestSearchText_EmptyQuery(t *testing.T) {
	emb := okEmbedder()
	svc := newTestService(&mockRepo{}, &mockAuthorizer{}, emb)

	resp := svc.SearchText(context.Background(), "user-1", "   ", request.Options{})

	require.False(t, resp.OK())
	assert.Equal(t, envelope.CodeInvalidParameters, resp.Error.Code)
	assert.Equal(t, 0, emb.calls)
}

func TestSearchText_EmbeddingFailure(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{err: errors.New("rate limited")}
	svc := newTestService(repo, &mockAuthorizer{}, emb)

	resp := svc.SearchText(context.Background(), "user-1", "anything", request.Options{})

	require.False(t, resp.OK())
	assert.Equal(t, envelope.CodeTextSearchError, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "rate limited")
	assert.Equal(t, 0, repo.calls, "embedding failures must never reach the store")
}

func TestSearchText_WrongDimensionEmbedding(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2, 3}}}
	svc := newTestService(repo, &mockAuthorizer{}, emb)

	resp := svc.SearchText(context.Background(), "user-1", "anything", request.Options{})

	require.False(t, resp.OK())
	assert.Equal(t, envelope.CodeTextSearchError, resp.Error.Code)
	assert.Equal(t, 0, repo.calls)
}

func TestSearchTopics_OrderAndIsolation(t *testing.T) {
	authz := &mockAuthorizer{identity: auth.Identity{UserID: "user-1"}}
	repo := &mockRepo{results: []result.Result{sampleResult("a")}}

	// Fail embedding for exactly one topic; the other must still succeed.
	emb := &selectiveEmbedder{
		good:     validVector(),
		failText: "rust",
	}
	svc := NewService(repo, authz, emb, 0)

	responses := svc.SearchTopics(context.Background(), "user-1", []string{"rust", "golang"}, request.Options{})

	require.Len(t, responses, 2)
	require.False(t, responses[0].OK(), "failing topic keeps its input slot")
	assert.Equal(t, envelope.CodeTextSearchError, responses[0].Error.Code)
	require.True(t, responses[1].OK())
	assert.Equal(t, 1, responses[1].TotalCount)
}

func TestSearchTopics_Empty(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockAuthorizer{}, okEmbedder())
	responses := svc.SearchTopics(context.Background(), "user-1", nil, request.Options{})
	assert.Empty(t, responses)
}

func TestSearchTopics_TooMany(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockAuthorizer{}, okEmbedder())

	topics := make([]string, maxTopics+1)
	for i := range topics {
		topics[i] = "t"
	}
	responses := svc.SearchTopics(context.Background(), "user-1", topics, request.Options{})

	require.Len(t, responses, maxTopics+1)
	for _, resp := range responses {
		require.False(t, resp.OK())
		assert.Equal(t, envelope.CodeInvalidParameters, resp.Error.Code)
	}
}

func TestPresetThresholds(t *testing.T) {
	authz := &mockAuthorizer{identity: auth.Identity{UserID: "user-1"}}

	t.Run("precise", func(t *testing.T) {
		repo := &mockRepo{}
		svc := newTestService(repo, authz, okEmbedder())
		resp := svc.SearchPrecise(context.Background(), "user-1", "exact thing")
		require.True(t, resp.OK())
		require.NotNil(t, repo.lastReq)
		assert.Equal(t, PreciseThreshold, repo.lastReq.SimilarityThreshold())
	})

	t.Run("broad", func(t *testing.T) {
		repo := &mockRepo{}
		svc := newTestService(repo, authz, okEmbedder())
		resp := svc.SearchBroad(context.Background(), "user-1", "vague thing")
		require.True(t, resp.OK())
		require.NotNil(t, repo.lastReq)
		assert.Equal(t, BroadThreshold, repo.lastReq.SimilarityThreshold())
	})
}

func TestSearchSourceType_FilterReachesStore(t *testing.T) {
	repo := &mockRepo{}
	authz := &mockAuthorizer{identity: auth.Identity{UserID: "user-1"}}
	svc := newTestService(repo, authz, okEmbedder())

	resp := svc.SearchSourceType(context.Background(), "user-1", "readme", domain.SourceRepository)

	require.True(t, resp.OK())
	require.NotNil(t, repo.lastReq)
	assert.Equal(t, domain.SourceRepository, repo.lastReq.SourceType())
}

// selectiveEmbedder fails for one specific input and succeeds for the rest.
// Safe for concurrent use by the multi-topic fan-out.
type selectiveEmbedder struct {
	mu       sync.Mutex
	good     []float32
	failText string
}

func (e *selectiveEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if text == e.failText {
		return domain.EmbeddingResult{}, errors.New("provider unavailable")
	}
	return domain.EmbeddingResult{Embedding: e.good, Model: "text-embedding-3-small"}, nil
}
