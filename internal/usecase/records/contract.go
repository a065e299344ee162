package records

import (
	"context"

	"github.com/contentdex/contentdex/internal/auth"
)

// Repository is the user-scoped storage surface for record CRUD.
type Repository interface {
	Select(ctx context.Context, table, userID string, filters map[string]any) ([]map[string]any, error)
	Insert(ctx context.Context, table, userID string, data map[string]any) (map[string]any, error)
	Update(ctx context.Context, table, userID, id string, data map[string]any) (map[string]any, error)
	Delete(ctx context.Context, table, userID, id string) error
}

// Authorizer resolves the caller's identity and enforces ownership of the
// target user's rows.
type Authorizer interface {
	Identify(ctx context.Context) (auth.Identity, error)
	AuthorizeOwner(ctx context.Context, targetUserID string) (auth.Identity, error)
}
