package readme

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MembershipLifecycle drives the per-account subscription state machine:
// NONE -> ACTIVE via Activate, ACTIVE -> NONE via Cancel. The account's
// membership flags move in the same transaction as the payment record, and
// the flag-guarded update serializes concurrent activate/cancel for one
// account without relying on isolation beyond read-committed.
type MembershipLifecycle struct {
	repo    RepositoryManager
	catalog MembershipCatalog
	gateway PaymentGateway
	logger  Logger
	now     Clock
}

func NewMembershipLifecycle(repo RepositoryManager, catalog MembershipCatalog, gateway PaymentGateway) *MembershipLifecycle {
	return &MembershipLifecycle{
		repo:    repo,
		catalog: catalog,
		gateway: gateway,
		logger:  defLogger{},
		now:     time.Now,
	}
}

func (m *MembershipLifecycle) WithLogger(logger Logger) *MembershipLifecycle {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithClock overrides the cancellation timestamp source for tests.
func (m *MembershipLifecycle) WithClock(clock Clock) *MembershipLifecycle {
	if clock != nil {
		m.now = clock
	}
	return m
}

// Activate resolves the plan, registers recurring billing when requested, and
// in one transaction creates the active payment record and flips the
// account's membership flags. An account that already holds a live
// membership is rejected with a conflict: the guarded flag update is the
// enforcement point, so two concurrent activations cannot both commit.
func (m *MembershipLifecycle) Activate(ctx context.Context, user *User, planID int64, autoRenew bool) (*MembershipPayment, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	plan, err := m.catalog.Resolve(ctx, planID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "membership catalog lookup failed")
	}
	if plan == nil {
		return nil, ErrUnknownMembership.Clone().WithMetadata(map[string]any{
			"membership_id": planID,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var payment *MembershipPayment
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		flipped, txErr := m.repo.Users().ActivateMembershipFlagsTx(ctx, tx, user.ID, autoRenew)
		if txErr != nil {
			if repository.IsRecordNotFound(txErr) {
				return ErrAccountNotFound.Clone().WithMetadata(map[string]any{
					"user_id": user.ID.String(),
				})
			}
			return goerrors.Wrap(txErr, goerrors.CategoryInternal, "failed to update membership flags")
		}
		if !flipped {
			return ErrMembershipAlreadyActive.Clone().WithMetadata(map[string]any{
				"user_id": user.ID.String(),
			})
		}

		// The gateway call sits inside the transaction so a registration
		// failure rolls back the flag flip and payment row together.
		var billingRef string
		if autoRenew {
			billingRef, txErr = m.gateway.RegisterRecurring(ctx, user, plan)
			if txErr != nil {
				return goerrors.Wrap(txErr, goerrors.CategoryExternal, "failed to register recurring billing").
					WithTextCode(TextCodeGatewayRegisterFailed)
			}
		}

		no, txErr2 := m.repo.BookPayments().NextPaymentNoTx(ctx, tx)
		if txErr2 != nil {
			return goerrors.Wrap(txErr2, goerrors.CategoryInternal, "failed to allocate payment number")
		}

		payment, txErr = m.repo.MembershipPayments().CreateTx(ctx, tx, &MembershipPayment{
			UserID:        user.ID,
			MembershipID:  plan.ID,
			PaymentNo:     no,
			Amount:        plan.Price,
			IsAutoPayment: autoRenew,
			Status:        MembershipPaymentActive,
			BillingRef:    billingRef,
		})
		if txErr != nil {
			return goerrors.Wrap(txErr, goerrors.CategoryInternal, "failed to create membership payment")
		}

		return nil
	})

	if err != nil {
		m.logger.Error("membership activation failed", "user_id", user.ID.String(), "error", err)
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "membership activation transaction failed")
	}

	user.IsMembership = true
	user.IsAutoPayment = autoRenew

	return payment, nil
}

// Cancel transitions the caller's active membership payment to cancelled,
// clears the account flags and stops recurring billing, atomically. The
// gateway call runs inside the transaction: if it fails nothing commits.
func (m *MembershipLifecycle) Cancel(ctx context.Context, user *User, paymentID uuid.UUID) error {
	if user == nil {
		return goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		payment, txErr := m.repo.MembershipPayments().GetActiveForUserTx(ctx, tx, user.ID, paymentID)
		if txErr != nil {
			return txErr
		}

		cancelled, txErr := m.repo.MembershipPayments().MarkCancelledTx(ctx, tx, user.ID, paymentID, m.now())
		if txErr != nil {
			return goerrors.Wrap(txErr, goerrors.CategoryInternal, "failed to cancel membership payment")
		}
		if !cancelled {
			return ErrMembershipPaymentNotFound.Clone().WithMetadata(map[string]any{
				"payment_id": paymentID.String(),
			})
		}

		if txErr := m.repo.Users().ClearMembershipFlagsTx(ctx, tx, user.ID); txErr != nil {
			return goerrors.Wrap(txErr, goerrors.CategoryInternal, "failed to clear membership flags")
		}

		if payment.BillingRef != "" {
			if txErr := m.gateway.CancelRecurring(ctx, payment.BillingRef); txErr != nil {
				return goerrors.Wrap(txErr, goerrors.CategoryExternal, "failed to stop recurring billing").
					WithTextCode(TextCodeGatewayCancelFailed)
			}
		}

		return nil
	})

	if err != nil {
		m.logger.Error("membership cancellation failed", "user_id", user.ID.String(), "error", err)
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "membership cancellation transaction failed")
	}

	user.IsMembership = false
	user.IsAutoPayment = false

	return nil
}

// GetActiveForAccount returns the caller's active membership payment with the
// given id, never another account's.
func (m *MembershipLifecycle) GetActiveForAccount(ctx context.Context, user *User, paymentID uuid.UUID) (*MembershipPayment, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}
	return m.repo.MembershipPayments().GetActiveForUser(ctx, user.ID, paymentID)
}

// ListMine returns all of the caller's membership payment records, active and
// cancelled.
func (m *MembershipLifecycle) ListMine(ctx context.Context, user *User) ([]*MembershipPayment, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}
	return m.repo.MembershipPayments().ListByUser(ctx, user.ID)
}
