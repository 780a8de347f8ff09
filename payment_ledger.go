package readme

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// PaymentLedger creates and queries one-time book purchase batches. Every
// line of a batch shares one freshly allocated payment number and the batch
// commits all-or-nothing.
type PaymentLedger struct {
	repo    RepositoryManager
	catalog BookCatalog
	logger  Logger
}

func NewPaymentLedger(repo RepositoryManager, catalog BookCatalog) *PaymentLedger {
	return &PaymentLedger{
		repo:    repo,
		catalog: catalog,
		logger:  defLogger{},
	}
}

func (l *PaymentLedger) WithLogger(logger Logger) *PaymentLedger {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// CreateBookPaymentBatch validates every requested book against the catalog,
// allocates one payment number and inserts one line per book at the catalog
// price, all inside one transaction. A single unknown id fails the whole
// batch with zero inserts.
func (l *PaymentLedger) CreateBookPaymentBatch(ctx context.Context, user *User, bookIDs []int64) (int64, error) {
	if user == nil {
		return 0, goerrors.New("user is required", goerrors.CategoryBadInput)
	}
	if len(bookIDs) == 0 {
		return 0, ErrUnknownBook.Clone().WithMetadata(map[string]any{
			"book_ids": bookIDs,
		})
	}

	books, err := l.catalog.Resolve(ctx, bookIDs)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "book catalog lookup failed")
	}

	// Size comparison also rejects duplicate ids in the request: the catalog
	// resolves each id once.
	if len(books) != len(bookIDs) {
		return 0, ErrUnknownBook.Clone().WithMetadata(map[string]any{
			"requested": len(bookIDs),
			"resolved":  len(books),
		})
	}

	priceByID := make(map[int64]int64, len(books))
	for _, book := range books {
		priceByID[book.ID] = book.Price
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var paymentNo int64
	err = l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		no, txErr := l.repo.BookPayments().NextPaymentNoTx(ctx, tx)
		if txErr != nil {
			return goerrors.Wrap(txErr, goerrors.CategoryInternal, "failed to allocate payment number")
		}

		lines := make([]*BookPayment, 0, len(bookIDs))
		for _, id := range bookIDs {
			lines = append(lines, &BookPayment{
				UserID:    user.ID,
				BookID:    id,
				PaymentNo: no,
				Price:     priceByID[id],
			})
		}

		if txErr := l.repo.BookPayments().InsertBatchTx(ctx, tx, lines); txErr != nil {
			return goerrors.Wrap(txErr, goerrors.CategoryInternal, "failed to insert payment batch")
		}

		paymentNo = no
		return nil
	})

	if err != nil {
		l.logger.Error("book payment batch failed", "user_id", user.ID.String(), "error", err)
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return 0, richErr
		}
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "book payment transaction failed")
	}

	return paymentNo, nil
}

// ListMine returns every book payment line owned by the user.
func (l *PaymentLedger) ListMine(ctx context.Context, user *User) ([]*BookPayment, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}
	return l.repo.BookPayments().ListByUser(ctx, user.ID)
}

// ListByPaymentNumber returns the caller's lines under one payment number.
// A number owned by another account is indistinguishable from one that never
// existed.
func (l *PaymentLedger) ListByPaymentNumber(ctx context.Context, user *User, paymentNo int64) ([]*BookPayment, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	lines, err := l.repo.BookPayments().ListByPaymentNo(ctx, user.ID, paymentNo)
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, ErrPaymentNotFound.Clone().WithMetadata(map[string]any{
			"payment_no": paymentNo,
		})
	}

	return lines, nil
}
