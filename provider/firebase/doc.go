// Package firebase verifies Firebase-issued identity tokens for the
// platform.
//
// Use this package as the IdentityVerifier behind the identity bridge to
// accept Firebase sign-ins while keeping account creation and session
// issuance local.
package firebase
