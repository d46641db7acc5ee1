package v1

import (
	"context"

	"github.com/mindwell-ai/mindwell/pkg/security"
)

const (
	TOKEN_CONTEXT_KEY = "__mindwell.access_token"
	LANGUAGE_KEY      = "__mindwell.accept_language"
)

// InjectTokenClaim get user token claims from context
func InjectTokenClaim(ctx context.Context) (security.TokenClaims, bool) {
	val, ok := ctx.Value(TOKEN_CONTEXT_KEY).(security.TokenClaims)
	return val, ok
}

func InjectLanguage(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(LANGUAGE_KEY).(string)
	return val, ok
}

// WithLanguage attaches the client language for non http callers.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LANGUAGE_KEY, lang)
}

// WithTokenClaim is how non http callers (tests, commands) attach an authenticated user.
func WithTokenClaim(ctx context.Context, claims security.TokenClaims) context.Context {
	return context.WithValue(ctx, TOKEN_CONTEXT_KEY, claims)
}
