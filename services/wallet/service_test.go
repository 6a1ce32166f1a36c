package wallet

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"earnplay-core/pkg/config"
	"earnplay-core/pkg/db/pagination"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/taskname"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type staticRoles struct {
	role entitlement.Role
}

func (r staticRoles) ResolveRole(ctx context.Context, accountID string) (entitlement.Role, error) {
	return r.role, nil
}

func newTestService(t *testing.T, role entitlement.Role) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Wallet{}, &Earning{}, &Withdrawal{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Rewards.Timezone = "UTC"

	s := NewService(ServiceParams{
		DB:     db,
		Node:   node,
		Config: cfg,
	})
	s.SetRoleResolver(staticRoles{role: role})

	return s
}

func mustCredit(t *testing.T, s *Service, accountID string, bucket Bucket, amount int64, source Source) {
	t.Helper()
	require.NoError(t, s.Credit(context.Background(), nil, PostParams{
		AccountID: accountID,
		Bucket:    bucket,
		Amount:    decimal.NewFromInt(amount),
		Source:    source,
	}))
}

func TestCreditBuckets(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)

	mustCredit(t, s, "acc-1", BucketAvailable, 10, SourceSpin)
	mustCredit(t, s, "acc-1", BucketPending, 5, SourceTask)

	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Available.Equal(decimal.NewFromInt(10)), "available = %s", w.Available)
	require.True(t, w.Pending.Equal(decimal.NewFromInt(5)), "pending = %s", w.Pending)
	require.True(t, w.Lifetime.Equal(decimal.NewFromInt(15)), "lifetime = %s", w.Lifetime)

	earnings, _, err := s.ListEarnings(ctx, "acc-1", pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, earnings, 2)
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)

	err = s.Credit(ctx, nil, PostParams{
		AccountID: "acc-1",
		Bucket:    BucketAvailable,
		Amount:    decimal.Zero,
		Source:    SourceBonus,
	})
	require.Error(t, err)
}

func TestEnsureWalletIsIdempotent(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	first, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)

	second, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestReleasePendingMovesAtMostPendingBalance(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketPending, 5, SourceReferral)

	require.NoError(t, s.ReleasePending(ctx, nil, "acc-1", decimal.NewFromInt(20)))

	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Pending.IsZero(), "pending = %s", w.Pending)
	require.True(t, w.Available.Equal(decimal.NewFromInt(5)), "available = %s", w.Available)
	require.True(t, w.Lifetime.Equal(decimal.NewFromInt(5)), "lifetime = %s", w.Lifetime)
}

func TestWithdrawDebitsUpFront(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 100, SourceSpin)

	withdrawal, err := s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(60),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	require.NoError(t, err)
	require.Equal(t, WithdrawalPending, withdrawal.Status)
	require.NotEmpty(t, withdrawal.Code)

	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Available.Equal(decimal.NewFromInt(40)), "available = %s", w.Available)
	require.True(t, w.Lifetime.Equal(decimal.NewFromInt(100)), "lifetime = %s", w.Lifetime)

	earnings, _, err := s.ListEarnings(ctx, "acc-1", pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, earnings, 2)
	require.Equal(t, SourceWithdrawal, earnings[0].Source)
	require.True(t, earnings[0].Amount.Equal(decimal.NewFromInt(-60)), "debit entry = %s", earnings[0].Amount)
}

func TestWithdrawBelowRoleMinimum(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 100, SourceSpin)

	_, err = s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(30),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	requireCode(t, err, errutil.StatusBelowMinimum)

	// pro accounts clear the same amount
	pro := newTestService(t, entitlement.RolePro)
	_, err = pro.EnsureWallet(ctx, nil, "acc-2")
	require.NoError(t, err)
	mustCredit(t, pro, "acc-2", BucketAvailable, 100, SourceSpin)

	_, err = pro.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-2",
		Amount:      decimal.NewFromInt(30),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	require.NoError(t, err)
}

func TestWithdrawFreeTierBoundary(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 50, SourceTask)

	_, err = s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(45),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	requireCode(t, err, errutil.StatusBelowMinimum)

	// exactly the minimum clears
	withdrawal, err := s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(50),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	require.NoError(t, err)
	require.True(t, withdrawal.Amount.Equal(decimal.NewFromInt(50)))

	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Available.IsZero(), "available = %s", w.Available)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 60, SourceSpin)

	_, err = s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(80),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	requireCode(t, err, errutil.StatusInsufficientFunds)

	// balance untouched by the failed attempt
	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Available.Equal(decimal.NewFromInt(60)), "available = %s", w.Available)
}

func TestWithdrawValidatesMethodAfterBalance(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 100, SourceSpin)

	_, err = s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(60),
		Method:      WithdrawalMethod("paypal"),
		Destination: "user@upi",
	})
	requireCode(t, err, errutil.StatusInvalidRequest)

	_, err = s.Withdraw(ctx, WithdrawParams{
		AccountID: "acc-1",
		Amount:    decimal.NewFromInt(60),
		Method:    MethodUPI,
	})
	requireCode(t, err, errutil.StatusInvalidRequest)
}

func TestWithdrawalFailureRefundsDebit(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 100, SourceSpin)

	withdrawal, err := s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(60),
		Method:      MethodBank,
		Destination: "acct-99",
	})
	require.NoError(t, err)

	updated, err := s.UpdateWithdrawalStatus(ctx, withdrawal.ID, StatusUpdate{
		Status:        WithdrawalFailed,
		FailureReason: "processor rejected destination",
	})
	require.NoError(t, err)
	require.Equal(t, WithdrawalFailed, updated.Status)
	require.NotNil(t, updated.ProcessedAt)

	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Available.Equal(decimal.NewFromInt(100)), "available = %s", w.Available)
	require.True(t, w.Lifetime.Equal(decimal.NewFromInt(100)), "lifetime = %s", w.Lifetime)
}

func TestWithdrawalTerminalStatesAreImmutable(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 100, SourceSpin)

	withdrawal, err := s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(60),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	require.NoError(t, err)

	_, err = s.UpdateWithdrawalStatus(ctx, withdrawal.ID, StatusUpdate{Status: WithdrawalInProcess})
	require.NoError(t, err)
	_, err = s.UpdateWithdrawalStatus(ctx, withdrawal.ID, StatusUpdate{Status: WithdrawalCompleted, ProcessorTransactionID: "txn-1"})
	require.NoError(t, err)

	_, err = s.UpdateWithdrawalStatus(ctx, withdrawal.ID, StatusUpdate{Status: WithdrawalRefunded})
	requireCode(t, err, errutil.StatusInvalidTransition)

	// completed payout keeps the debit
	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Available.Equal(decimal.NewFromInt(40)), "available = %s", w.Available)
}

func TestStatsExcludeWithdrawals(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 80, SourceSpin)
	mustCredit(t, s, "acc-1", BucketAvailable, 20, SourceMission)

	_, err = s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(50),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	require.NoError(t, err)

	stats, err := s.Stats(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, stats.Today.Equal(decimal.NewFromInt(100)), "today = %s", stats.Today)
	require.True(t, stats.ThisMonth.Equal(decimal.NewFromInt(100)), "thisMonth = %s", stats.ThisMonth)
	require.True(t, stats.Total.Equal(decimal.NewFromInt(100)), "total = %s", stats.Total)
}

func TestListEarningsPaginates(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		mustCredit(t, s, "acc-1", BucketAvailable, 1, SourceSpin)
	}
	s.now = time.Now

	first, info, err := s.ListEarnings(ctx, "acc-1", pagination.Pagination{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.True(t, info.HasMore)

	rest, info, err := s.ListEarnings(ctx, "acc-1", pagination.Pagination{Limit: 3, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.False(t, info.HasMore)
}

func TestReconcileHandlerAppliesProcessorOutcome(t *testing.T) {
	s := newTestService(t, entitlement.RoleFree)
	ctx := context.Background()

	_, err := s.EnsureWallet(ctx, nil, "acc-1")
	require.NoError(t, err)
	mustCredit(t, s, "acc-1", BucketAvailable, 100, SourceSpin)

	withdrawal, err := s.Withdraw(ctx, WithdrawParams{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(60),
		Method:      MethodUPI,
		Destination: "user@upi",
	})
	require.NoError(t, err)

	payload, err := json.Marshal(ReconcilePayload{
		WithdrawalID:  withdrawal.ID,
		Status:        WithdrawalFailed,
		FailureReason: "processor timeout",
	})
	require.NoError(t, err)

	require.NoError(t, s.HandleReconcile(ctx, asynq.NewTask(taskname.WithdrawalReconcile, payload)))

	w, err := s.Get(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, w.Available.Equal(decimal.NewFromInt(100)), "available = %s", w.Available)
}

func requireCode(t *testing.T, err error, code errutil.CoreStatus) {
	t.Helper()
	require.Error(t, err)

	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, code, be.Code)
}
