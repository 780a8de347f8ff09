package readme

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MembershipPayments stores subscription activation records. Cancellation is
// a guarded status transition, never a delete.
type MembershipPayments interface {
	CreateTx(ctx context.Context, tx bun.IDB, record *MembershipPayment) (*MembershipPayment, error)
	GetActiveForUser(ctx context.Context, userID, paymentID uuid.UUID) (*MembershipPayment, error)
	GetActiveForUserTx(ctx context.Context, tx bun.IDB, userID, paymentID uuid.UUID) (*MembershipPayment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*MembershipPayment, error)
	ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*MembershipPayment, error)
	MarkCancelledTx(ctx context.Context, tx bun.IDB, userID, paymentID uuid.UUID, at time.Time) (bool, error)
}

type membershipPayments struct {
	db *bun.DB
}

var _ MembershipPayments = (*membershipPayments)(nil)

func NewMembershipPaymentsRepository(db *bun.DB) MembershipPayments {
	return &membershipPayments{db: db}
}

func (r *membershipPayments) CreateTx(ctx context.Context, tx bun.IDB, record *MembershipPayment) (*MembershipPayment, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = MembershipPaymentActive
	}

	_, err := tx.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *membershipPayments) GetActiveForUser(ctx context.Context, userID, paymentID uuid.UUID) (*MembershipPayment, error) {
	return r.GetActiveForUserTx(ctx, r.db, userID, paymentID)
}

// GetActiveForUserTx is owner-scoped: a payment id belonging to another
// account yields the same not-found as an id that never existed.
func (r *membershipPayments) GetActiveForUserTx(ctx context.Context, tx bun.IDB, userID, paymentID uuid.UUID) (*MembershipPayment, error) {
	record := &MembershipPayment{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", paymentID).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.status = ?", MembershipPaymentActive).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipPaymentNotFound
		}
		return nil, err
	}

	return record, nil
}

func (r *membershipPayments) ListByUser(ctx context.Context, userID uuid.UUID) ([]*MembershipPayment, error) {
	return r.ListByUserTx(ctx, r.db, userID)
}

func (r *membershipPayments) ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*MembershipPayment, error) {
	var records []*MembershipPayment
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkCancelledTx flips the payment to cancelled, guarded on it still being
// the caller's active record. Zero rows affected means wrong id, wrong owner,
// or already cancelled; callers map that to not-found.
func (r *membershipPayments) MarkCancelledTx(ctx context.Context, tx bun.IDB, userID, paymentID uuid.UUID, at time.Time) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*MembershipPayment)(nil)).
		Set("status = ?", MembershipPaymentCancelled).
		Set("cancelled_at = ?", at).
		Where("id = ?", paymentID).
		Where("user_id = ?", userID).
		Where("status = ?", MembershipPaymentActive).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
