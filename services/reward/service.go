package reward

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"earnplay-core/pkg/calendar"
	"earnplay-core/pkg/config"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/repository"
	"earnplay-core/services/account"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/wallet"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	loc      *time.Location
	accounts *account.Service
	wallets  *wallet.Service
	spins    repository.Repository[Spin]

	now       func() time.Time
	randFloat func() float64
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Accounts *account.Service
	Wallets  *wallet.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		loc:       p.Config.DayLocation(),
		accounts:  p.Accounts,
		wallets:   p.Wallets,
		spins:     repository.ProvideStore[Spin](p.DB),
		now:       time.Now,
		randFloat: rand.Float64,
	}
}

// Spin draws one wheel segment for the account. The spin record, the
// payout credit and the last-spin stamp commit together; hitting the
// daily cap rolls everything back untouched.
func (s *Service) Spin(ctx context.Context, accountID string) (*Result, error) {
	role, err := s.accounts.ResolveRole(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ent := entitlement.For(role)

	now := s.now()
	dayKey := calendar.DayKey(now, s.loc)

	record := &Spin{
		ID:        s.node.Generate().String(),
		AccountID: accountID,
		DayKey:    dayKey,
		CreatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.spins.WithTrx(tx)

		// Serialise on the account row so a concurrent spin cannot
		// read the same count. The unique spin_number index backstops
		// databases where the lock is skipped.
		if _, err := s.accounts.GetForUpdate(ctx, tx, accountID); err != nil {
			return err
		}

		used, err := repo.Count(ctx, &Spin{AccountID: accountID, DayKey: dayKey})
		if err != nil {
			return err
		}
		if used >= int64(ent.MaxSpinsPerDay) {
			return errutil.LimitExceeded("No spins remaining today")
		}
		record.SpinNumber = int(used) + 1

		outcome := pick(s.randFloat())
		record.Outcome = outcome.outcome
		record.Amount = outcome.amount

		if err := repo.Create(ctx, record); err != nil {
			return err
		}

		if outcome.amount.IsPositive() {
			if err := s.wallets.Credit(ctx, tx, wallet.PostParams{
				AccountID:   accountID,
				Bucket:      wallet.BucketAvailable,
				Amount:      outcome.amount,
				Source:      wallet.SourceSpin,
				SourceID:    record.ID,
				Description: fmt.Sprintf("Spin wheel reward: %s", outcome.outcome),
			}); err != nil {
				return err
			}
		}

		return s.accounts.MarkSpin(ctx, tx, accountID, now)
	})
	if err != nil {
		return nil, err
	}

	remaining, err := s.RemainingSpins(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Spin:           record,
		Outcome:        record.Outcome,
		Amount:         record.Amount,
		Message:        resultMessage(record.Amount),
		RemainingSpins: remaining,
	}, nil
}

// RemainingSpins reports how many spins the account has left today.
func (s *Service) RemainingSpins(ctx context.Context, accountID string) (int, error) {
	role, err := s.accounts.ResolveRole(ctx, accountID)
	if err != nil {
		return 0, err
	}
	ent := entitlement.For(role)

	used, err := s.spins.Count(ctx, &Spin{
		AccountID: accountID,
		DayKey:    calendar.DayKey(s.now(), s.loc),
	})
	if err != nil {
		return 0, err
	}

	remaining := ent.MaxSpinsPerDay - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
