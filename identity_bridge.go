package readme

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// IdentityBridge resolves an externally verified identity into exactly one
// local account and mints the session credential for it. Verification is
// delegated to the injected IdentityVerifier; no password path is exercised
// for bridged identities.
type IdentityBridge struct {
	verifier IdentityVerifier
	repo     RepositoryManager
	tokens   TokenService
	logger   Logger
}

func NewIdentityBridge(verifier IdentityVerifier, repo RepositoryManager, tokens TokenService) *IdentityBridge {
	return &IdentityBridge{
		verifier: verifier,
		repo:     repo,
		tokens:   tokens,
		logger:   defLogger{},
	}
}

func (b *IdentityBridge) WithLogger(logger Logger) *IdentityBridge {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// ResolveOrCreate verifies the external token and returns the one account for
// its subject, creating it on first sight. An invalid token touches no
// storage. Concurrent first resolutions of the same subject are safe: the
// losing insert detects the unique violation and re-reads the winner's row.
func (b *IdentityBridge) ResolveOrCreate(ctx context.Context, idToken string) (*User, error) {
	verified, err := b.verifier.Verify(ctx, idToken)
	if err != nil {
		b.logger.Error("identity bridge verify failed", "error", err)

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		clone := ErrInvalidIdentityToken.Clone()
		clone.Source = err
		return nil, clone
	}

	if verified == nil || verified.Subject == "" {
		return nil, ErrInvalidIdentityToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record := &User{
		Username:      verified.Subject,
		PasswordHash:  RandomPasswordHash(),
		Role:          RoleUser,
		IsMembership:  false,
		IsAutoPayment: false,
		Status:        UserStatusActive,
	}

	// Deterministic id for a given subject keeps re-created test fixtures and
	// cross-service references stable.
	if id, err := hashid.NewUUID(verified.Subject); err == nil {
		record.ID = id
	}

	var user *User
	err = b.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		user, txErr = b.repo.Users().GetOrCreateByUsernameTx(ctx, tx, record)
		if txErr != nil {
			return goerrors.Wrap(txErr, goerrors.CategoryInternal, "could not resolve account for identity")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity resolution transaction failed")
	}

	return user, nil
}

// Exchange performs the full bridge: external token in, session token out.
func (b *IdentityBridge) Exchange(ctx context.Context, idToken string) (string, error) {
	user, err := b.ResolveOrCreate(ctx, idToken)
	if err != nil {
		return "", err
	}

	token, err := b.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint session token")
	}

	return token, nil
}
