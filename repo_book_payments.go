package readme

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BookPayments is the ledger store for one-time book purchases. Batch inserts
// happen inside the caller's transaction; reads are always owner-scoped.
type BookPayments interface {
	NextPaymentNoTx(ctx context.Context, tx bun.IDB) (int64, error)
	InsertBatchTx(ctx context.Context, tx bun.IDB, lines []*BookPayment) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*BookPayment, error)
	ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*BookPayment, error)
	ListByPaymentNo(ctx context.Context, userID uuid.UUID, paymentNo int64) ([]*BookPayment, error)
	ListByPaymentNoTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, paymentNo int64) ([]*BookPayment, error)
}

type bookPayments struct {
	db *bun.DB
}

var _ BookPayments = (*bookPayments)(nil)

func NewBookPaymentsRepository(db *bun.DB) BookPayments {
	return &bookPayments{db: db}
}

// NextPaymentNoTx allocates a fresh system-wide unique payment number by
// inserting into the autoincrement allocator table.
func (r *bookPayments) NextPaymentNoTx(ctx context.Context, tx bun.IDB) (int64, error) {
	record := &PaymentNumber{}
	_, err := tx.NewInsert().
		Model(record).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (r *bookPayments) InsertBatchTx(ctx context.Context, tx bun.IDB, lines []*BookPayment) error {
	if len(lines) == 0 {
		return nil
	}

	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
	}

	_, err := tx.NewInsert().
		Model(&lines).
		Exec(ctx)
	return err
}

func (r *bookPayments) ListByUser(ctx context.Context, userID uuid.UUID) ([]*BookPayment, error) {
	return r.ListByUserTx(ctx, r.db, userID)
}

func (r *bookPayments) ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*BookPayment, error) {
	var records []*BookPayment
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("payment_no ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *bookPayments) ListByPaymentNo(ctx context.Context, userID uuid.UUID, paymentNo int64) ([]*BookPayment, error) {
	return r.ListByPaymentNoTx(ctx, r.db, userID, paymentNo)
}

// ListByPaymentNoTx scopes by owner in the query itself: lines under a number
// that belongs to another account simply do not match.
func (r *bookPayments) ListByPaymentNoTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, paymentNo int64) ([]*BookPayment, error) {
	var records []*BookPayment
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.payment_no = ?", paymentNo).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
