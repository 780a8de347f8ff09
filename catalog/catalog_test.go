package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	readme "github.com/readmecorp/readme-server"

	_ "github.com/mattn/go-sqlite3"
)

const (
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
)

func setupCatalogDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateBooks)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateMemberships)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return bunDB, cleanup
}

func TestBookStoreResolve(t *testing.T) {
	db, cleanup := setupCatalogDB(t)
	defer cleanup()

	ctx := context.Background()
	books := []*readme.Book{
		{ID: 1, Title: "The Go Programming Language", Author: "Donovan", Price: 32000},
		{ID: 2, Title: "A Philosophy of Software Design", Author: "Ousterhout", Price: 28000},
	}
	_, err := db.NewInsert().Model(&books).Exec(ctx)
	require.NoError(t, err)

	store := NewBookStore(db)

	t.Run("resolves known ids", func(t *testing.T) {
		got, err := store.Resolve(ctx, []int64{1, 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "The Go Programming Language", got[0].Title)
	})

	t.Run("unknown ids are absent", func(t *testing.T) {
		got, err := store.Resolve(ctx, []int64{1, 999})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("empty request", func(t *testing.T) {
		got, err := store.Resolve(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMembershipStoreResolve(t *testing.T) {
	db, cleanup := setupCatalogDB(t)
	defer cleanup()

	ctx := context.Background()
	plan := &readme.Membership{ID: 1, Name: "premium", Price: 9900}
	_, err := db.NewInsert().Model(plan).Exec(ctx)
	require.NoError(t, err)

	store := NewMembershipStore(db)

	t.Run("resolves known plan", func(t *testing.T) {
		got, err := store.Resolve(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "premium", got.Name)
		assert.Equal(t, int64(9900), got.Price)
	})

	t.Run("unknown plan resolves to nil", func(t *testing.T) {
		got, err := store.Resolve(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
