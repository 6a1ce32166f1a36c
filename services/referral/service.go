package referral

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"earnplay-core/pkg/db/option"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/repository"
	"earnplay-core/services/account"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/wallet"
)

// completionHold is how long a verified referral waits before the bonus
// is released. Gives fraud review a window to void the signup.
const completionHold = 48 * time.Hour

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	accounts  *account.Service
	wallets   *wallet.Service
	referrals repository.Repository[Referral]

	now func() time.Time
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Accounts *account.Service
	Wallets  *wallet.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		accounts:  p.Accounts,
		wallets:   p.Wallets,
		referrals: repository.ProvideStore[Referral](p.DB),
		now:       time.Now,
	}
}

// Verify opens the referral for a referred signup and credits the
// referrer's bonus to pending. Idempotent: a second call for the same
// referred account is a no-op.
func (s *Service) Verify(ctx context.Context, referredID string) (*Referral, error) {
	referred, err := s.accounts.Get(ctx, referredID)
	if err != nil {
		return nil, err
	}
	if referred.ReferredBy == "" {
		return nil, errutil.BadRequest("account was not referred")
	}

	existing, err := s.referrals.FindOne(ctx, &Referral{ReferredID: referredID})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	role, err := s.accounts.ResolveRole(ctx, referred.ReferredBy)
	if err != nil {
		return nil, err
	}
	bonus := entitlement.For(role).ReferralBonus

	now := s.now()
	ref := &Referral{
		ID:          s.node.Generate().String(),
		ReferrerID:  referred.ReferredBy,
		ReferredID:  referredID,
		Status:      StatusVerified,
		BonusAmount: bonus,
		CreatedAt:   now,
		VerifiedAt:  &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.referrals.WithTrx(tx).Create(ctx, ref); err != nil {
			return err
		}

		return s.wallets.Credit(ctx, tx, wallet.PostParams{
			AccountID:   ref.ReferrerID,
			Bucket:      wallet.BucketPending,
			Amount:      bonus,
			Source:      wallet.SourceReferral,
			SourceID:    ref.ID,
			Description: fmt.Sprintf("Referral bonus for %s", referred.Email),
		})
	})
	if err != nil {
		return nil, err
	}

	return ref, nil
}

// Complete releases a verified referral's bonus from pending to
// available after the hold period. Idempotent on completed referrals.
func (s *Service) Complete(ctx context.Context, referredID string) (*Referral, error) {
	ref, err := s.referrals.FindOne(ctx, &Referral{ReferredID: referredID})
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, errutil.NotFound("referral not found")
	}
	if ref.Status == StatusCompleted {
		return ref, nil
	}
	if ref.Status != StatusVerified {
		return nil, errutil.InvalidTransition(fmt.Sprintf("cannot complete referral in status %s", ref.Status))
	}

	now := s.now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.referrals.WithTrx(tx).Update(ctx, ref.ID, map[string]any{
			"status":       StatusCompleted,
			"completed_at": now,
		}); err != nil {
			return err
		}

		return s.wallets.ReleasePending(ctx, tx, ref.ReferrerID, ref.BonusAmount)
	})
	if err != nil {
		return nil, err
	}

	ref.Status = StatusCompleted
	ref.CompletedAt = &now
	return ref, nil
}

// List returns the referrer's referrals, newest first, with summary
// stats and their share code.
func (s *Service) List(ctx context.Context, referrerID string) (string, []*Referral, *Stats, error) {
	acc, err := s.accounts.Get(ctx, referrerID)
	if err != nil {
		return "", nil, nil, err
	}

	rows, err := s.referrals.Find(ctx, &Referral{ReferrerID: referrerID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	)
	if err != nil {
		return "", nil, nil, err
	}

	stats := &Stats{TotalReferred: len(rows), TotalEarned: decimal.Zero}
	for _, r := range rows {
		if r.Status == StatusCompleted {
			stats.Completed++
		}
		if r.Status == StatusVerified || r.Status == StatusCompleted {
			stats.TotalEarned = stats.TotalEarned.Add(r.BonusAmount)
		}
	}

	return acc.ReferralCode, rows, stats, nil
}
