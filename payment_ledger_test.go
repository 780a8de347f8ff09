package readme

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooks() []*Book {
	return []*Book{
		{ID: 1, Title: "The Go Programming Language", Author: "Donovan", Price: 32000},
		{ID: 2, Title: "Designing Data-Intensive Applications", Author: "Kleppmann", Price: 45000},
		{ID: 3, Title: "A Philosophy of Software Design", Author: "Ousterhout", Price: 28000},
	}
}

func TestPaymentLedgerBatchSharesOneNumber(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedTestUser(t, repo, "reader@example.com")
	ledger := NewPaymentLedger(repo, newFakeBookCatalog(testBooks()...))

	paymentNo, err := ledger.CreateBookPaymentBatch(context.Background(), user, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Greater(t, paymentNo, int64(0))

	lines, err := ledger.ListByPaymentNumber(context.Background(), user, paymentNo)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	for _, line := range lines {
		assert.Equal(t, paymentNo, line.PaymentNo)
		assert.Equal(t, user.ID, line.UserID)
	}

	assert.Equal(t, int64(32000), lines[0].Price)
	assert.Equal(t, 3, countRows(t, db, (*BookPayment)(nil)))
}

func TestPaymentLedgerFreshNumberPerBatch(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedTestUser(t, repo, "reader@example.com")
	ledger := NewPaymentLedger(repo, newFakeBookCatalog(testBooks()...))

	first, err := ledger.CreateBookPaymentBatch(context.Background(), user, []int64{1})
	require.NoError(t, err)

	second, err := ledger.CreateBookPaymentBatch(context.Background(), user, []int64{2, 3})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPaymentLedgerUnknownBookWritesNothing(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedTestUser(t, repo, "reader@example.com")
	ledger := NewPaymentLedger(repo, newFakeBookCatalog(testBooks()...))

	_, err := ledger.CreateBookPaymentBatch(context.Background(), user, []int64{1, 2, 999})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	assert.Equal(t, TextCodeUnknownBook, richErr.TextCode)

	assert.Equal(t, 0, countRows(t, db, (*BookPayment)(nil)))
}

func TestPaymentLedgerDuplicateIDsRejected(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedTestUser(t, repo, "reader@example.com")
	ledger := NewPaymentLedger(repo, newFakeBookCatalog(testBooks()...))

	_, err := ledger.CreateBookPaymentBatch(context.Background(), user, []int64{1, 1})
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, db, (*BookPayment)(nil)))
}

func TestPaymentLedgerEmptyBatchRejected(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedTestUser(t, repo, "reader@example.com")
	ledger := NewPaymentLedger(repo, newFakeBookCatalog(testBooks()...))

	_, err := ledger.CreateBookPaymentBatch(context.Background(), user, nil)
	require.Error(t, err)
}

func TestPaymentLedgerReadsAreOwnerScoped(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	owner := seedTestUser(t, repo, "owner@example.com")
	other := seedTestUser(t, repo, "other@example.com")
	ledger := NewPaymentLedger(repo, newFakeBookCatalog(testBooks()...))

	paymentNo, err := ledger.CreateBookPaymentBatch(context.Background(), owner, []int64{1, 2})
	require.NoError(t, err)

	t.Run("list mine excludes other accounts", func(t *testing.T) {
		mine, err := ledger.ListMine(context.Background(), owner)
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		theirs, err := ledger.ListMine(context.Background(), other)
		require.NoError(t, err)
		assert.Empty(t, theirs)
	})

	t.Run("foreign payment number reads as missing", func(t *testing.T) {
		_, err := ledger.ListByPaymentNumber(context.Background(), other, paymentNo)
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, TextCodePaymentNotFound, richErr.TextCode)
	})
}

func TestPaymentLedgerUnknownPaymentNumber(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedTestUser(t, repo, "reader@example.com")
	ledger := NewPaymentLedger(repo, newFakeBookCatalog(testBooks()...))

	_, err := ledger.ListByPaymentNumber(context.Background(), user, 424242)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryNotFound, richErr.Category)
}
