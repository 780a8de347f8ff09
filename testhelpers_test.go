package readme

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT,
    user_role TEXT NOT NULL,
    is_membership BOOLEAN NOT NULL DEFAULT FALSE,
    is_auto_payment BOOLEAN NOT NULL DEFAULT FALSE,
    profile_file_id INTEGER NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);`

	sqliteCreateBooks = `CREATE TABLE books (
    id INTEGER NOT NULL PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT,
    price INTEGER NOT NULL
);`

	sqliteCreateMemberships = `CREATE TABLE memberships (
    id INTEGER NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    price INTEGER NOT NULL
);`

	sqliteCreateBookPayments = `CREATE TABLE book_payments (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    book_id INTEGER NOT NULL,
    payment_no INTEGER NOT NULL,
    price INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

	sqliteCreateMembershipPayments = `CREATE TABLE membership_payments (
    id TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    membership_id INTEGER NOT NULL,
    payment_no INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    is_auto_payment BOOLEAN NOT NULL DEFAULT FALSE,
    status TEXT NOT NULL,
    billing_ref TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    cancelled_at TIMESTAMP NULL
);`

	sqliteCreatePaymentNumbers = `CREATE TABLE payment_numbers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

func setupTestDB(t *testing.T) (*bun.DB, RepositoryManager, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, stmt := range []string{
		sqliteCreateUsers,
		sqliteCreateBooks,
		sqliteCreateMemberships,
		sqliteCreateBookPayments,
		sqliteCreateMembershipPayments,
		sqliteCreatePaymentNumbers,
	} {
		_, err = bunDB.Exec(stmt)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, NewRepositoryManager(bunDB), cleanup
}

func seedTestUser(t *testing.T, repo RepositoryManager, username string) *User {
	t.Helper()

	user, err := repo.Users().Create(context.Background(), &User{
		Username:     username,
		PasswordHash: RandomPasswordHash(),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}

func seedTestBooks(t *testing.T, db *bun.DB, books ...*Book) {
	t.Helper()

	_, err := db.NewInsert().Model(&books).Exec(context.Background())
	require.NoError(t, err)
}

func seedTestMembership(t *testing.T, db *bun.DB, plan *Membership) {
	t.Helper()

	_, err := db.NewInsert().Model(plan).Exec(context.Background())
	require.NoError(t, err)
}

func countRows(t *testing.T, db *bun.DB, model any) int {
	t.Helper()

	count, err := db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return count
}

// fakeBookCatalog resolves from an in-memory map, preserving request order
// of the ids it knows about.
type fakeBookCatalog struct {
	books map[int64]*Book
}

func newFakeBookCatalog(books ...*Book) *fakeBookCatalog {
	c := &fakeBookCatalog{books: map[int64]*Book{}}
	for _, b := range books {
		c.books[b.ID] = b
	}
	return c
}

func (c *fakeBookCatalog) Resolve(_ context.Context, ids []int64) ([]*Book, error) {
	seen := map[int64]bool{}
	var out []*Book
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if b, ok := c.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeMembershipCatalog struct {
	plans map[int64]*Membership
}

func newFakeMembershipCatalog(plans ...*Membership) *fakeMembershipCatalog {
	c := &fakeMembershipCatalog{plans: map[int64]*Membership{}}
	for _, p := range plans {
		c.plans[p.ID] = p
	}
	return c
}

func (c *fakeMembershipCatalog) Resolve(_ context.Context, planID int64) (*Membership, error) {
	return c.plans[planID], nil
}

// MockPaymentGateway mocks the recurring billing collaborator.
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) RegisterRecurring(ctx context.Context, user *User, plan *Membership) (string, error) {
	args := m.Called(ctx, user, plan)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentGateway) CancelRecurring(ctx context.Context, billingRef string) error {
	args := m.Called(ctx, billingRef)
	return args.Error(0)
}

// MockIdentityVerifier mocks the external identity provider boundary.
type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, idToken string) (*VerifiedIdentity, error) {
	args := m.Called(ctx, idToken)
	if identity := args.Get(0); identity != nil {
		return identity.(*VerifiedIdentity), args.Error(1)
	}
	return nil, args.Error(1)
}
