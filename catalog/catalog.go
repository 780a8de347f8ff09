package catalog

import (
	"context"
	"database/sql"

	readme "github.com/readmecorp/readme-server"
	"github.com/uptrace/bun"
)

// BookStore resolves book ids against the catalog table using Bun.
type BookStore struct {
	db bun.IDB
}

// NewBookStore creates a catalog backed by the given database handle.
func NewBookStore(db bun.IDB) *BookStore {
	return &BookStore{db: db}
}

// Resolve returns the catalog rows for the given ids. Ids with no catalog
// entry are simply absent from the result, callers decide whether a partial
// resolution is acceptable.
func (s *BookStore) Resolve(ctx context.Context, ids []int64) ([]*readme.Book, error) {
	if len(ids) == 0 {
		return []*readme.Book{}, nil
	}

	var books []*readme.Book
	err := s.db.NewSelect().
		Model(&books).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return []*readme.Book{}, nil
		}
		return nil, err
	}

	return books, nil
}

// MembershipStore resolves plan ids against the memberships table.
type MembershipStore struct {
	db bun.IDB
}

// NewMembershipStore creates a plan catalog backed by the given database
// handle.
func NewMembershipStore(db bun.IDB) *MembershipStore {
	return &MembershipStore{db: db}
}

// Resolve returns the plan for the given id, or nil when no such plan
// exists.
func (s *MembershipStore) Resolve(ctx context.Context, planID int64) (*readme.Membership, error) {
	plan := &readme.Membership{}
	err := s.db.NewSelect().
		Model(plan).
		Where("?TableAlias.id = ?", planID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return plan, nil
}

var _ readme.BookCatalog = (*BookStore)(nil)
var _ readme.MembershipCatalog = (*MembershipStore)(nil)
