package readme

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of a resolved account used for token issuance
type Identity interface {
	ID() string
	Username() string
	Role() string
}

// VerifiedIdentity is the outcome of verifying an externally issued identity
// token. Subject is the provider-verified handle (an email for Firebase-style
// providers) and becomes the local username.
type VerifiedIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier verifies an opaque externally issued identity token and
// returns the attested subject. Implementations live under provider/.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*VerifiedIdentity, error)
}

// TokenService mints and validates the signed session credential issued after
// identity bridging. Issuance is stateless and side-effect free.
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// BookCatalog resolves book identifiers against the catalog collaborator.
// Resolve returns only the books that exist; a size mismatch with the request
// signals unknown ids to the caller.
type BookCatalog interface {
	Resolve(ctx context.Context, ids []int64) ([]*Book, error)
}

// MembershipCatalog resolves a membership plan by id.
type MembershipCatalog interface {
	Resolve(ctx context.Context, planID int64) (*Membership, error)
}

// PaymentGateway is the recurring billing collaborator. RegisterRecurring
// returns an opaque subscription reference stored on the membership payment;
// CancelRecurring stops billing for that reference.
type PaymentGateway interface {
	RegisterRecurring(ctx context.Context, user *User, plan *Membership) (string, error)
	CancelRecurring(ctx context.Context, billingRef string) error
}

// Config holds auth and session token options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// Clock lets tests pin time for expiry and cancellation stamps.
type Clock func() time.Time

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] README "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] README "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] README "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] README "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
