package firebase

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	readme "github.com/readmecorp/readme-server"
)

// TokenVerifier validates Firebase-issued identity tokens against the
// project's signing keys.
type TokenVerifier struct {
	config  Config
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// NewTokenVerifier creates a verifier for the configured project. Unless
// cfg.KeyFunc is provided the Google key set is fetched and kept refreshed
// for as long as ctx lives.
func NewTokenVerifier(ctx context.Context, cfg Config) (*TokenVerifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("firebase: project id is required")
	}

	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		jwks, err := keyfunc.Get(cfg.jwkSetURL(), keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   cfg.refreshInterval(),
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("firebase: failed to load key set: %w", err)
		}
		keyFunc = jwks.Keyfunc
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(cfg.issuer()),
		jwt.WithAudience(cfg.ProjectID),
		jwt.WithExpirationRequired(),
	)

	return &TokenVerifier{
		config:  cfg,
		keyFunc: keyFunc,
		parser:  parser,
	}, nil
}

// Verify implements readme.IdentityVerifier. The returned subject is the
// token's email when present, so the same person maps to the same account
// across providers keyed by address.
func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (*readme.VerifiedIdentity, error) {
	claims := &idTokenClaims{}
	token, err := v.parser.ParseWithClaims(idToken, claims, v.keyFunc)
	if err != nil {
		return nil, normalizeParseError(err)
	}

	if !token.Valid {
		return nil, readme.ErrInvalidIdentityToken
	}

	subject := claims.Email
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return nil, readme.ErrInvalidIdentityToken.Clone().WithMetadata(map[string]any{
			"provider": "firebase",
			"cause":    "token carries neither email nor subject",
		})
	}

	return &readme.VerifiedIdentity{
		Subject: subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func normalizeParseError(err error) error {
	if err == nil {
		return nil
	}

	clone := readme.ErrInvalidIdentityToken.Clone()
	clone.Source = err

	cause := "malformed"
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		cause = "expired"
	}

	return clone.WithMetadata(map[string]any{
		"provider": "firebase",
		"cause":    cause,
	})
}

var _ readme.IdentityVerifier = (*TokenVerifier)(nil)
