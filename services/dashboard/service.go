// Package dashboard aggregates the per-service read models into the
// single stats payload the home screen renders.
package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"earnplay-core/services/account"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/mission"
	"earnplay-core/services/referral"
	"earnplay-core/services/reward"
	"earnplay-core/services/wallet"
)

type Service struct {
	accounts  *account.Service
	wallets   *wallet.Service
	rewards   *reward.Service
	missions  *mission.Service
	referrals *referral.Service

	now func() time.Time
}

type ServiceParams struct {
	fx.In

	Accounts  *account.Service
	Wallets   *wallet.Service
	Rewards   *reward.Service
	Missions  *mission.Service
	Referrals *referral.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		accounts:  p.Accounts,
		wallets:   p.Wallets,
		rewards:   p.Rewards,
		missions:  p.Missions,
		referrals: p.Referrals,
		now:       time.Now,
	}
}

// Stats is the home-screen payload. Wallet balances are flattened to
// top-level keys so clients read them without digging into sub-objects.
type Stats struct {
	Balance           decimal.Decimal      `json:"balance"`
	PendingBalance    decimal.Decimal      `json:"pendingBalance"`
	LifetimeEarnings  decimal.Decimal      `json:"lifetimeEarnings"`
	Earnings          *wallet.EarningStats `json:"earnings"`
	UserRole          entitlement.Role     `json:"userRole"`
	AvailableSpins    int                  `json:"availableSpins"`
	Streak            int                  `json:"streak"`
	MissionsCompleted int                  `json:"missionsCompleted"`
	MissionsAvailable int                  `json:"missionsAvailable"`
	Referrals         *referral.Stats      `json:"referrals"`
}

func (s *Service) GetStats(ctx context.Context, accountID string) (*Stats, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	w, err := s.wallets.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	earnings, err := s.wallets.Stats(ctx, accountID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.rewards.RemainingSpins(ctx, accountID)
	if err != nil {
		return nil, err
	}

	missions, err := s.missions.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	completedToday := 0
	for _, m := range missions {
		if m.CompletedToday {
			completedToday++
		}
	}

	_, _, refStats, err := s.referrals.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Balance:           w.Available,
		PendingBalance:    w.Pending,
		LifetimeEarnings:  w.Lifetime,
		Earnings:          earnings,
		UserRole:          acc.EffectiveRole(s.now()),
		AvailableSpins:    remaining,
		Streak:            acc.StreakCount,
		MissionsCompleted: completedToday,
		MissionsAvailable: len(missions),
		Referrals:         refStats,
	}, nil
}
