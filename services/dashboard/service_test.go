package dashboard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"earnplay-core/pkg/config"
	"earnplay-core/services/account"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/mission"
	"earnplay-core/services/referral"
	"earnplay-core/services/reward"
	"earnplay-core/services/testutil"
	"earnplay-core/services/wallet"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestGetStats(t *testing.T) {
	db := testutil.NewTestDB(t,
		&account.Account{},
		&wallet.Wallet{}, &wallet.Earning{}, &wallet.Withdrawal{},
		&reward.Spin{},
		&mission.Mission{}, &mission.Completion{},
		&referral.Referral{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Rewards.Timezone = "UTC"

	wallets := wallet.NewService(wallet.ServiceParams{DB: db, Node: node, Config: cfg})
	accounts := account.NewService(account.ServiceParams{DB: db, Node: node, Wallets: wallets})
	wallets.SetRoleResolver(accounts)
	rewards := reward.NewService(reward.ServiceParams{DB: db, Node: node, Config: cfg, Accounts: accounts, Wallets: wallets})
	missions := mission.NewService(mission.ServiceParams{DB: db, Node: node, Config: cfg, Accounts: accounts, Wallets: wallets})
	referrals := referral.NewService(referral.ServiceParams{DB: db, Node: node, Accounts: accounts, Wallets: wallets})

	s := NewService(ServiceParams{
		Accounts:  accounts,
		Wallets:   wallets,
		Rewards:   rewards,
		Missions:  missions,
		Referrals: referrals,
	})

	ctx := context.Background()
	acc, err := accounts.Create(ctx, account.CreateParams{Email: "dash@example.com"})
	require.NoError(t, err)

	m, err := missions.CreateMission(ctx, mission.CreateMissionParams{Title: "Open the app", Reward: decimal.NewFromInt(2)})
	require.NoError(t, err)
	_, err = missions.Complete(ctx, acc.ID, m.ID)
	require.NoError(t, err)

	stats, err := s.GetStats(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, entitlement.RoleFree, stats.UserRole)
	require.Equal(t, 1, stats.AvailableSpins)
	require.Equal(t, 1, stats.Streak)
	require.Equal(t, 1, stats.MissionsCompleted)
	require.Equal(t, 1, stats.MissionsAvailable)
	require.Equal(t, 0, stats.Referrals.TotalReferred)
	require.True(t, stats.Balance.Equal(decimal.NewFromInt(2)), "balance = %s", stats.Balance)
	require.True(t, stats.Earnings.Today.Equal(decimal.NewFromInt(2)), "today = %s", stats.Earnings.Today)
}

func TestStatsFlattensWalletKeys(t *testing.T) {
	stats := Stats{
		Balance:        decimal.NewFromInt(12),
		UserRole:       entitlement.RolePro,
		AvailableSpins: 2,
	}

	raw, err := json.Marshal(stats)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"balance", "pendingBalance", "lifetimeEarnings", "userRole", "availableSpins", "missionsCompleted"} {
		require.Contains(t, m, key)
	}
	require.Equal(t, "12", m["balance"])
}
