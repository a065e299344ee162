// Package auth resolves caller identity from session state and enforces
// per-user ownership on every data operation.
package auth

import (
	"context"
	"fmt"

	"github.com/contentdex/contentdex/internal/domain"
)

// Identity is the caller resolved from the active session.
// Ephemeral: resolved fresh per operation, never cached across calls.
type Identity struct {
	UserID string
	Email  string
}

// SessionProvider resolves the identity behind the current request.
// Implementations return domain.ErrUnauthenticated when no valid session exists.
type SessionProvider interface {
	Identify(ctx context.Context) (Identity, error)
}

// Gate enforces that a request's target user matches the session identity.
type Gate struct {
	sessions SessionProvider
}

// NewGate creates an access gate over a session provider.
func NewGate(sessions SessionProvider) *Gate {
	return &Gate{sessions: sessions}
}

// Identify resolves the current session identity.
func (g *Gate) Identify(ctx context.Context) (Identity, error) {
	id, err := g.sessions.Identify(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("resolve session: %w", err)
	}
	if id.UserID == "" {
		return Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// AuthorizeOwner resolves the session identity and verifies it owns
// targetUserID. A caller may only touch their own rows, never another user's.
func (g *Gate) AuthorizeOwner(ctx context.Context, targetUserID string) (Identity, error) {
	id, err := g.Identify(ctx)
	if err != nil {
		return Identity{}, err
	}
	if id.UserID != targetUserID {
		return Identity{}, fmt.Errorf("user %s cannot act on behalf of %s: %w",
			id.UserID, targetUserID, domain.ErrAccessDenied)
	}
	return id, nil
}
