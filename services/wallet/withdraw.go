package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"earnplay-core/pkg/db/option"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/sequence"
	"earnplay-core/services/entitlement"
)

type WithdrawParams struct {
	AccountID   string
	Amount      decimal.Decimal
	Method      WithdrawalMethod
	Destination string
}

// Withdraw debits the available balance up front and opens a pending
// payout request. The debit is returned if the request later fails or
// is refunded.
func (s *Service) Withdraw(ctx context.Context, p WithdrawParams) (*Withdrawal, error) {
	if s.roles == nil {
		return nil, errutil.Internal("role resolver not configured")
	}

	role, err := s.roles.ResolveRole(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	ent := entitlement.For(role)

	if p.Amount.LessThan(ent.MinWithdrawal) {
		return nil, errutil.BelowMinimum(fmt.Sprintf("Minimum withdrawal amount is ₹%s", ent.MinWithdrawal.StringFixed(0)))
	}

	w, err := s.Get(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if w.Available.LessThan(p.Amount) {
		return nil, errutil.InsufficientFunds("Insufficient balance")
	}

	if !p.Method.Valid() {
		return nil, errutil.InvalidRequest("invalid withdrawal method")
	}
	if p.Destination == "" {
		return nil, errutil.InvalidRequest("destination is required")
	}

	code, err := s.withdrawalCode(ctx)
	if err != nil {
		return nil, err
	}

	withdrawal := &Withdrawal{
		ID:          s.node.Generate().String(),
		Code:        code,
		AccountID:   p.AccountID,
		Amount:      p.Amount,
		Method:      p.Method,
		Destination: p.Destination,
		Status:      WithdrawalPending,
		CreatedAt:   s.now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		desc := fmt.Sprintf("Withdrawal request %s", code)
		if err := s.debitAvailable(ctx, tx, p.AccountID, p.Amount, withdrawal.ID, desc); err != nil {
			return err
		}
		return s.withdrawals.WithTrx(tx).Create(ctx, withdrawal)
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

func (s *Service) withdrawalCode(ctx context.Context) (string, error) {
	if s.seq != nil {
		return s.seq.NextWithdrawalCode(ctx)
	}

	suffix, err := sequence.RandomAlphaNumeric(5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WDR-%s-%s", s.now().UTC().Format("060102"), suffix), nil
}

// ListWithdrawals returns an account's payout requests, newest first.
func (s *Service) ListWithdrawals(ctx context.Context, accountID string) ([]*Withdrawal, error) {
	return s.withdrawals.Find(ctx, &Withdrawal{AccountID: accountID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	)
}

type StatusUpdate struct {
	Status                 WithdrawalStatus
	ProcessorTransactionID string
	FailureReason          string
}

// UpdateWithdrawalStatus advances a payout through its lifecycle. A move
// into failed or refunded returns the debited amount to available in the
// same transaction, so a crash can never leave the money lost.
func (s *Service) UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, update StatusUpdate) (*Withdrawal, error) {
	var result *Withdrawal

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.withdrawals.WithTrx(tx)

		w, err := repo.FindOne(ctx, &Withdrawal{ID: withdrawalID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if w == nil {
			return errutil.NotFound("withdrawal not found")
		}
		if !w.Status.CanTransitionTo(update.Status) {
			return errutil.InvalidTransition(fmt.Sprintf("cannot move withdrawal from %s to %s", w.Status, update.Status))
		}

		now := s.now()
		updates := map[string]any{"status": update.Status}
		if update.ProcessorTransactionID != "" {
			updates["processor_transaction_id"] = update.ProcessorTransactionID
		}
		if update.FailureReason != "" {
			updates["failure_reason"] = update.FailureReason
		}
		if update.Status != WithdrawalInProcess {
			updates["processed_at"] = now
		}

		if err := repo.Update(ctx, w.ID, updates); err != nil {
			return err
		}

		if update.Status.repaysDebit() {
			desc := fmt.Sprintf("Withdrawal %s %s", w.Code, update.Status)
			if err := s.refundAvailable(ctx, tx, w.AccountID, w.Amount, w.ID, desc); err != nil {
				return err
			}
		}

		w.Status = update.Status
		if update.ProcessorTransactionID != "" {
			w.ProcessorTransactionID = update.ProcessorTransactionID
		}
		if update.FailureReason != "" {
			w.FailureReason = update.FailureReason
		}
		if update.Status != WithdrawalInProcess {
			w.ProcessedAt = &now
		}
		result = w

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// StaleWithdrawals returns pending requests older than the cutoff. The
// reconcile job uses it to surface payouts stuck waiting on a processor.
func (s *Service) StaleWithdrawals(ctx context.Context, olderThan time.Duration) ([]*Withdrawal, error) {
	cutoff := s.now().Add(-olderThan)
	return s.withdrawals.Find(ctx, &Withdrawal{Status: WithdrawalPending},
		option.ApplyOperator(option.Condition{Field: "created_at", Operator: option.LT, Value: cutoff}),
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "asc"}),
	)
}
