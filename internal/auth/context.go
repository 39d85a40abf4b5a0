package auth

import (
	"context"
	"time"
)

// Kind discriminates the two AuthContext variants.
type Kind string

const (
	// KindCredential is the credential-passthrough variant: the user's
	// identifier and secret are forwarded to the downstream API and never
	// validated locally.
	KindCredential Kind = "credential"

	// KindOAuth is the delegated variant: tokens obtained from a
	// third-party authorization server.
	KindOAuth Kind = "oauth"
)

// AuthContext is the authenticated identity attached to a request.
// Exactly one variant is populated, selected by Kind; LoggedAt is always
// set. Use the constructors rather than building the struct by hand.
type AuthContext struct {
	Kind Kind

	// Credential-passthrough fields.
	Email        string
	Password     string
	APIKey       string
	ClientID     string
	ClientSecret string

	// OAuth-delegated fields.
	AccessToken  string
	RefreshToken string

	LoggedAt time.Time
}

// NewCredentialContext builds the credential-passthrough variant.
func NewCredentialContext(email, password, apiKey, clientID, clientSecret string) AuthContext {
	return AuthContext{
		Kind:         KindCredential,
		Email:        email,
		Password:     password,
		APIKey:       apiKey,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		LoggedAt:     time.Now(),
	}
}

// NewOAuthContext builds the OAuth-delegated variant.
func NewOAuthContext(accessToken, refreshToken string) AuthContext {
	return AuthContext{
		Kind:         KindOAuth,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		LoggedAt:     time.Now(),
	}
}

// contextKey is the context key for the resolved AuthContext.
type contextKey struct{}

// WithContext returns a new context carrying the resolved AuthContext.
func WithContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext extracts the resolved AuthContext from a request context.
// The second return is false for exempt requests that proceeded without
// identity.
func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}
