// Package records implements the user-scoped CRUD gate. Unlike the search
// layer, failures here are returned as typed errors rather than wrapped in a
// response envelope: CRUD callers are internal and handle errors directly.
package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/contentdex/contentdex/internal/auth"
	"github.com/contentdex/contentdex/internal/logger"
)

// StoreError is the failure type for every CRUD operation. It carries enough
// context to log and classify the failure; Unwrap exposes the cause so
// callers can errors.Is against the domain sentinels.
type StoreError struct {
	Op     string
	Table  string
	UserID string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s for user %s: %v", e.Op, e.Table, e.UserID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Service authorizes every operation against the target user's rows.
type Service struct {
	repo Repository
	auth Authorizer
}

// NewService creates the CRUD gate.
func NewService(repo Repository, auth Authorizer) *Service {
	return &Service{repo: repo, auth: auth}
}

// authorize resolves the caller and verifies ownership of targetUserID
// before anything touches the store. An empty target scopes the operation
// to the caller's own rows.
func (s *Service) authorize(ctx context.Context, targetUserID string) (auth.Identity, error) {
	if targetUserID == "" {
		return s.auth.Identify(ctx)
	}
	return s.auth.AuthorizeOwner(ctx, targetUserID)
}

// Read returns targetUserID's rows in table, narrowed by filters.
func (s *Service) Read(ctx context.Context, table, targetUserID string, filters map[string]any) ([]map[string]any, error) {
	identity, err := s.authorize(ctx, targetUserID)
	if err != nil {
		return nil, &StoreError{Op: "read", Table: table, UserID: targetUserID, Err: err}
	}

	rows, err := s.repo.Select(ctx, table, identity.UserID, filters)
	if err != nil {
		return nil, &StoreError{Op: "read", Table: table, UserID: identity.UserID, Err: err}
	}
	return rows, nil
}

// Create inserts a row owned by targetUserID and returns it.
func (s *Service) Create(ctx context.Context, table, targetUserID string, data map[string]any) (map[string]any, error) {
	identity, err := s.authorize(ctx, targetUserID)
	if err != nil {
		return nil, &StoreError{Op: "create", Table: table, UserID: targetUserID, Err: err}
	}

	row, err := s.repo.Insert(ctx, table, identity.UserID, data)
	if err != nil {
		return nil, &StoreError{Op: "create", Table: table, UserID: identity.UserID, Err: err}
	}

	logger.FromContext(ctx).Info("record created",
		zap.String("table", table), zap.String("user_id", identity.UserID))
	return row, nil
}

// Update modifies targetUserID's row with the given id and returns it.
func (s *Service) Update(ctx context.Context, table, targetUserID, id string, data map[string]any) (map[string]any, error) {
	identity, err := s.authorize(ctx, targetUserID)
	if err != nil {
		return nil, &StoreError{Op: "update", Table: table, UserID: targetUserID, Err: err}
	}

	row, err := s.repo.Update(ctx, table, identity.UserID, id, data)
	if err != nil {
		return nil, &StoreError{Op: "update", Table: table, UserID: identity.UserID, Err: err}
	}
	return row, nil
}

// Delete removes targetUserID's row with the given id.
func (s *Service) Delete(ctx context.Context, table, targetUserID, id string) error {
	identity, err := s.authorize(ctx, targetUserID)
	if err != nil {
		return &StoreError{Op: "delete", Table: table, UserID: targetUserID, Err: err}
	}

	if err := s.repo.Delete(ctx, table, identity.UserID, id); err != nil {
		return &StoreError{Op: "delete", Table: table, UserID: identity.UserID, Err: err}
	}

	logger.FromContext(ctx).Info("record deleted",
		zap.String("table", table), zap.String("user_id", identity.UserID), zap.String("id", id))
	return nil
}
