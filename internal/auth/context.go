package auth

import "context"

type tokenKey struct{}

// ContextWithToken stores the raw bearer token in the context.
// The transport layer sets it; session providers read it on every operation.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext extracts the raw bearer token from the context.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
