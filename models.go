package readme

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role assigned to bridged identities
	RoleUser UserRole = "USER"
	// RoleAdmin is the backoffice role
	RoleAdmin UserRole = "ADMIN"
)

// UserStatus is the account lifecycle state
type UserStatus = string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusWithdrawn UserStatus = "WITHDRAWN"
)

// User is the account record. Exactly one row exists per verified external
// identity subject; username carries that subject and is unique.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsMembership  bool       `bun:"is_membership,notnull" json:"is_membership"`
	IsAutoPayment bool       `bun:"is_auto_payment,notnull" json:"is_auto_payment"`
	ProfileFileID *int64     `bun:"profile_file_id,nullzero" json:"profile_file_id,omitempty"`
	Status        UserStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the default lifecycle state on legacy rows.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// Book is a catalog row referenced by payment lines. The catalog package owns
// reads; this core never writes books.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:bk"`
	ID            int64  `bun:"id,pk" json:"id"`
	Title         string `bun:"title,notnull" json:"title"`
	Author        string `bun:"author" json:"author,omitempty"`
	Price         int64  `bun:"price,notnull" json:"price"`
}

// Membership is a recurring plan row owned by the membership catalog.
type Membership struct {
	bun.BaseModel `bun:"table:memberships,alias:mb"`
	ID            int64  `bun:"id,pk" json:"id"`
	Name          string `bun:"name,notnull" json:"name"`
	Price         int64  `bun:"price,notnull" json:"price"`
}

// BookPayment is one purchased book inside a batch. Every line created by one
// batch call shares the same payment number. Lines are immutable.
type BookPayment struct {
	bun.BaseModel `bun:"table:book_payments,alias:bp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	BookID        int64      `bun:"book_id,notnull" json:"book_id"`
	PaymentNo     int64      `bun:"payment_no,notnull" json:"payment_no"`
	Price         int64      `bun:"price,notnull" json:"price"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// MembershipPaymentStatus tracks the subscription lifecycle
type MembershipPaymentStatus = string

const (
	MembershipPaymentActive    MembershipPaymentStatus = "ACTIVE"
	MembershipPaymentCancelled MembershipPaymentStatus = "CANCELLED"
)

// MembershipPayment records one subscription activation. Cancellation flips
// the status; rows are never deleted so the audit trail survives.
type MembershipPayment struct {
	bun.BaseModel `bun:"table:membership_payments,alias:mp"`
	ID            uuid.UUID               `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID               `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	MembershipID  int64                   `bun:"membership_id,notnull" json:"membership_id"`
	PaymentNo     int64                   `bun:"payment_no,notnull" json:"payment_no"`
	Amount        int64                   `bun:"amount,notnull" json:"amount"`
	IsAutoPayment bool                    `bun:"is_auto_payment,notnull" json:"is_auto_payment"`
	Status        MembershipPaymentStatus `bun:"status,notnull" json:"status"`
	BillingRef    string                  `bun:"billing_ref" json:"billing_ref,omitempty"`
	CreatedAt     *time.Time              `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	CancelledAt   *time.Time              `bun:"cancelled_at,nullzero" json:"cancelled_at,omitempty"`
}

// IsActive reports whether this payment is the account's live subscription.
func (m *MembershipPayment) IsActive() bool {
	return m.Status == MembershipPaymentActive
}

// PaymentNumber is the allocator row backing batch payment numbers. Inserting
// a row yields a fresh system-wide unique number.
type PaymentNumber struct {
	bun.BaseModel `bun:"table:payment_numbers,alias:pn"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
