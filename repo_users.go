package readme

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Users interface {
	repository.Repository[*User]

	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	GetOrCreateByUsername(ctx context.Context, record *User) (*User, error)
	GetOrCreateByUsernameTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	ActivateMembershipFlagsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, autoPayment bool) (bool, error)
	ClearMembershipFlagsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", strings.TrimSpace(username)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetOrCreateByUsername(ctx context.Context, record *User) (*User, error) {
	return a.GetOrCreateByUsernameTx(ctx, a.db, record)
}

// GetOrCreateByUsernameTx resolves the account for a verified subject,
// creating it on first sight. The username column is unique, so a concurrent
// first-time resolution loses the insert and falls back to reading the row
// the winner created.
func (a *users) GetOrCreateByUsernameTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	user, err := a.GetByUsernameTx(ctx, tx, record.Username)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	created, err := a.CreateTx(ctx, tx, record)
	if err == nil {
		return created, nil
	}

	if !isUniqueViolation(err) {
		return nil, err
	}

	return a.GetByUsernameTx(ctx, tx, record.Username)
}

// ActivateMembershipFlagsTx flips the account into membership, guarded on the
// flag being unset. The guard is the serialization point between concurrent
// activate and cancel: zero rows affected with the row present means another
// writer got there first or the account already holds a live membership. A
// missing row surfaces as a record-not-found error.
func (a *users) ActivateMembershipFlagsTx(ctx context.Context, tx bun.IDB, id uuid.UUID, autoPayment bool) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("is_membership = ?", true).
		Set("is_auto_payment = ?", autoPayment).
		Where("id = ?", id).
		Where("is_membership = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if affected == 0 {
		count, err := tx.NewSelect().
			Model((*User)(nil)).
			Where("?TableAlias.id = ?", id).
			Count(ctx)
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
	}

	return affected == 1, nil
}

func (a *users) ClearMembershipFlagsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("is_membership = ?", false).
		Set("is_auto_payment = ?", false).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
