// Package bootpay implements the payment gateway boundary against the
// Bootpay billing API.
//
// Use it as the PaymentGateway behind the membership lifecycle: recurring
// registrations return a billing key which is stored on the payment row and
// used to cancel the subscription later.
package bootpay
