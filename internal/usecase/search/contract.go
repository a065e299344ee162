package search

import (
	"context"

	"github.com/contentdex/contentdex/internal/auth"
	"github.com/contentdex/contentdex/internal/domain"
	"github.com/contentdex/contentdex/internal/domain/search/request"
	"github.com/contentdex/contentdex/internal/domain/search/result"
)

// Repository runs a validated similarity search against storage.
type Repository interface {
	Match(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// Authorizer resolves the caller's identity and checks row ownership.
type Authorizer interface {
	AuthorizeOwner(ctx context.Context, targetUserID string) (auth.Identity, error)
}

// Embedder turns query text into a vector for the text convenience entry point.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
