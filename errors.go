package readme

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidIdentityToken  = "INVALID_IDENTITY_TOKEN"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	TextCodeUnknownBook           = "UNKNOWN_BOOK"
	TextCodeUnknownMembership     = "UNKNOWN_MEMBERSHIP"
	TextCodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	TextCodeMembershipNotFound    = "MEMBERSHIP_PAYMENT_NOT_FOUND"
	TextCodeMembershipActive      = "MEMBERSHIP_ALREADY_ACTIVE"
	TextCodeGatewayCancelFailed   = "GATEWAY_CANCEL_FAILED"
	TextCodeGatewayRegisterFailed = "GATEWAY_REGISTER_FAILED"
)

// ErrInvalidIdentityToken is returned when the external identity provider
// rejects the presented token.
var ErrInvalidIdentityToken = errors.New("invalid identity token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidIdentityToken).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for expired session tokens.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for session tokens that fail signature or
// structural validation.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound is returned when the caller's account row no longer
// exists in storage.
var ErrAccountNotFound = errors.New("account does not exist", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeBadRequest)

// ErrUnknownBook is returned when a requested book id does not resolve in the
// catalog. The batch performs no inserts.
var ErrUnknownBook = errors.New("book does not exist", errors.CategoryValidation).
	WithTextCode(TextCodeUnknownBook).
	WithCode(errors.CodeBadRequest)

// ErrUnknownMembership is returned when the requested plan does not exist.
var ErrUnknownMembership = errors.New("membership does not exist", errors.CategoryValidation).
	WithTextCode(TextCodeUnknownMembership).
	WithCode(errors.CodeBadRequest)

// ErrPaymentNotFound is returned when a payment number resolves to no lines
// owned by the caller. A number owned by another account is indistinguishable
// from one that never existed.
var ErrPaymentNotFound = errors.New("no book payments found", errors.CategoryNotFound).
	WithTextCode(TextCodePaymentNotFound).
	WithCode(errors.CodeBadRequest)

// ErrMembershipPaymentNotFound is returned when the caller holds no matching
// active membership payment.
var ErrMembershipPaymentNotFound = errors.New("no active membership found", errors.CategoryNotFound).
	WithTextCode(TextCodeMembershipNotFound).
	WithCode(errors.CodeBadRequest)

// ErrMembershipAlreadyActive rejects activation while a membership is live.
var ErrMembershipAlreadyActive = errors.New("membership already active", errors.CategoryConflict).
	WithTextCode(TextCodeMembershipActive).
	WithCode(errors.CodeConflict)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// isUniqueViolation sniffs driver-specific unique constraint failures. Both
// sqlite and postgres surface these only through the error text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
