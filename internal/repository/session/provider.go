// Package session resolves caller identity from bearer tokens backed by
// server-side session records. The OAuth sign-in flow that creates sessions
// lives outside this service; the signed token and the stored record are the
// boundary.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/contentdex/contentdex/internal/auth"
	"github.com/contentdex/contentdex/internal/domain"
)

const keyPrefix = "contentdex:session:"

// store is the consumer interface for session records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Provider implements auth.SessionProvider over a signed token and a
// key-value session record. The record is looked up fresh on every call;
// revoking the record invalidates the token immediately.
type Provider struct {
	store  store
	secret []byte
}

var _ auth.SessionProvider = (*Provider)(nil)

// New creates a session provider. secret signs and verifies HS256 tokens.
func New(s store, secret []byte) *Provider {
	return &Provider{store: s, secret: secret}
}

// record is the persisted session payload.
type record struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Identify resolves the identity behind the bearer token in ctx.
// Any failure along the way (missing token, bad signature, expired token,
// missing or mismatched session record) maps to domain.ErrUnauthenticated.
func (p *Provider) Identify(ctx context.Context) (auth.Identity, error) {
	token, ok := auth.TokenFromContext(ctx)
	if !ok {
		return auth.Identity{}, fmt.Errorf("no bearer token: %w", domain.ErrUnauthenticated)
	}

	sid, sub, err := p.parseToken(token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("parse token: %w: %w", err, domain.ErrUnauthenticated)
	}

	data, err := p.store.Get(ctx, keyPrefix+sid)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("session %s: %w", sid, domain.ErrUnauthenticated)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return auth.Identity{}, fmt.Errorf("decode session %s: %w", sid, domain.ErrUnauthenticated)
	}
	if rec.UserID == "" || (sub != "" && sub != rec.UserID) {
		return auth.Identity{}, fmt.Errorf("session %s does not match subject: %w", sid, domain.ErrUnauthenticated)
	}

	return auth.Identity{UserID: rec.UserID, Email: rec.Email}, nil
}

// Create persists a session record and returns a signed bearer token for it.
func (p *Provider) Create(ctx context.Context, id auth.Identity, ttl time.Duration) (string, error) {
	if id.UserID == "" {
		return "", fmt.Errorf("user id is required")
	}

	sid := uuid.NewString()
	data, err := json.Marshal(record{UserID: id.UserID, Email: id.Email})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := p.store.SetWithTTL(ctx, keyPrefix+sid, data, ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sid,
		"sub": id.UserID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Revoke deletes the session record behind a token, invalidating it for all
// future calls regardless of the token's own expiry.
func (p *Provider) Revoke(ctx context.Context, token string) error {
	sid, _, err := p.parseToken(token)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if err := p.store.Del(ctx, keyPrefix+sid); err != nil {
		return fmt.Errorf("delete session %s: %w", sid, err)
	}
	return nil
}

// parseToken validates the signature and expiry and extracts sid and sub.
func (p *Provider) parseToken(token string) (sid, sub string, err error) {
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", "", err
	}

	sid, _ = claims["sid"].(string)
	sub, _ = claims["sub"].(string)
	if sid == "" {
		return "", "", fmt.Errorf("token has no session id")
	}
	return sid, sub, nil
}
