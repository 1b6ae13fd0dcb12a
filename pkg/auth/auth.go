// Package auth verifies OIDC bearer tokens on incoming requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/tickler/pkg/handlers"
)

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// TokenVerifier verifies a raw ID token. *oidc.IDTokenVerifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Authenticator guards handlers behind bearer-token verification.
type Authenticator struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

type subjectKey struct{}

// New discovers the issuer's OIDC configuration and returns an Authenticator
// that verifies tokens against the configured audience.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Authenticator, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %s: %w", cfg.IssuerURL, err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.Audience})
	return NewWithVerifier(verifier, logger), nil
}

// NewWithVerifier returns an Authenticator backed by an existing verifier.
func NewWithVerifier(verifier TokenVerifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		logger:   logger.With("system", "auth"),
	}
}

// Middleware rejects requests without a valid bearer token with 401 and stores
// the token subject on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			handlers.RespondError(w, a.logger, http.StatusUnauthorized, ErrMissingToken)
			return
		}

		token, err := a.verifier.Verify(r.Context(), raw)
		if err != nil {
			a.logger.Debug("token verification failed", "error", err)
			handlers.RespondError(w, a.logger, http.StatusUnauthorized, ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, token.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject returns the verified token subject stored by Middleware.
func Subject(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey{}).(string)
	return sub, ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
