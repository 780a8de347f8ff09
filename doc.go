// Package readme implements the account, session, and payment core of the
// reading platform backend.
//
// Identity bridging:
//   - IdentityBridge exchanges a verified external identity token for a local
//     account. Accounts are created on first sight with a random credential
//     and the default USER role; repeated exchanges for the same subject are
//     idempotent, including under concurrent first requests.
//   - TokenService signs and validates the stateless session tokens handed
//     back to clients. Claims carry the account id, username, and role.
//
// Payments:
//   - PaymentLedger records book purchases. A checkout of several books is
//     written atomically and every line shares a freshly allocated payment
//     number, so the batch can be read back as one receipt.
//   - MembershipLifecycle activates and cancels subscription plans. The
//     account membership flags and the payment row always change in the same
//     transaction, and cancelled payments are kept as markers rather than
//     deleted.
//
// All reads are scoped to the authenticated account. Failures surface as
// rich errors carrying a category and text code which the HTTP layer maps to
// status codes.
package readme
