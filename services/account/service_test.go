package account

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"earnplay-core/pkg/config"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/taskname"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/testutil"
	"earnplay-core/services/wallet"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type enqueuerMock struct {
	tasks []*asynq.Task
}

func (m *enqueuerMock) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newTestService(t *testing.T) (*Service, *enqueuerMock) {
	t.Helper()

	db := testutil.NewTestDB(t, &Account{}, &wallet.Wallet{}, &wallet.Earning{}, &wallet.Withdrawal{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Rewards.Timezone = "UTC"

	wallets := wallet.NewService(wallet.ServiceParams{
		DB:     db,
		Node:   node,
		Config: cfg,
	})

	enq := &enqueuerMock{}
	s := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Enqueuer: enq,
		Wallets:  wallets,
	})
	wallets.SetRoleResolver(s)

	return s, enq
}

func TestCreateProvisionsWallet(t *testing.T) {
	s, enq := newTestService(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, CreateParams{Email: "a@example.com", FirstName: "Asha"})
	require.NoError(t, err)
	require.NotEmpty(t, acc.ID)
	require.Len(t, acc.ReferralCode, referralCodeLength)
	require.Equal(t, entitlement.RoleFree, acc.Role)

	w, err := s.wallets.Get(ctx, acc.ID)
	require.NoError(t, err)
	require.True(t, w.Available.IsZero())

	// no referral, nothing enqueued
	require.Empty(t, enq.tasks)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateParams{Email: "a@example.com"})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateParams{Email: "a@example.com"})
	requireCode(t, err, errutil.StatusConflict)
}

func TestCreateWithReferralCode(t *testing.T) {
	s, enq := newTestService(t)
	ctx := context.Background()

	referrer, err := s.Create(ctx, CreateParams{Email: "ref@example.com"})
	require.NoError(t, err)

	referred, err := s.Create(ctx, CreateParams{
		Email:          "new@example.com",
		ReferredByCode: referrer.ReferralCode,
	})
	require.NoError(t, err)
	require.Equal(t, referrer.ID, referred.ReferredBy)

	require.Len(t, enq.tasks, 1)
	require.Equal(t, taskname.ReferralVerify, enq.tasks[0].Type())
}

func TestCreateRejectsUnknownReferralCode(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Create(context.Background(), CreateParams{
		Email:          "new@example.com",
		ReferredByCode: "NOPE1234",
	})
	requireCode(t, err, errutil.StatusBadRequest)
}

func TestUpgradeProSetsAndStacksExpiry(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	acc, err := s.Create(ctx, CreateParams{Email: "a@example.com"})
	require.NoError(t, err)

	upgraded, err := s.UpgradePro(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, entitlement.RolePro, upgraded.Role)
	require.Equal(t, now.Add(proPeriod), *upgraded.ProExpiresAt)

	// a second purchase extends the remaining period
	again, err := s.UpgradePro(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, now.Add(2*proPeriod), *again.ProExpiresAt)
}

func TestResolveRoleDemotesExpiredPro(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, CreateParams{Email: "a@example.com"})
	require.NoError(t, err)

	_, err = s.UpgradePro(ctx, acc.ID)
	require.NoError(t, err)

	role, err := s.ResolveRole(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, entitlement.RolePro, role)

	s.now = func() time.Time { return time.Now().Add(proPeriod + time.Hour) }

	role, err = s.ResolveRole(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, entitlement.RoleFree, role)
}

func TestRecordDailyActivityStreak(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	acc, err := s.Create(ctx, CreateParams{Email: "a@example.com"})
	require.NoError(t, err)

	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	streak, err := s.RecordDailyActivity(ctx, nil, acc.ID, day1, time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, streak)

	// same day is a no-op
	streak, err = s.RecordDailyActivity(ctx, nil, acc.ID, day1.Add(4*time.Hour), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, streak)

	// consecutive day extends
	streak, err = s.RecordDailyActivity(ctx, nil, acc.ID, day1.AddDate(0, 0, 1), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 2, streak)

	// a gap restarts
	streak, err = s.RecordDailyActivity(ctx, nil, acc.ID, day1.AddDate(0, 0, 4), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 1, streak)
}

func TestExpireLapsedPro(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	lapsed, err := s.Create(ctx, CreateParams{Email: "lapsed@example.com"})
	require.NoError(t, err)
	_, err = s.UpgradePro(ctx, lapsed.ID)
	require.NoError(t, err)

	current, err := s.Create(ctx, CreateParams{Email: "current@example.com"})
	require.NoError(t, err)
	_, err = s.UpgradePro(ctx, current.ID)
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(proPeriod + time.Hour) }

	// extend the second subscription past the new clock
	_, err = s.UpgradePro(ctx, current.ID)
	require.NoError(t, err)

	demoted, err := s.ExpireLapsedPro(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, demoted)

	got, err := s.Get(ctx, lapsed.ID)
	require.NoError(t, err)
	require.Equal(t, entitlement.RoleFree, got.Role)

	got, err = s.Get(ctx, current.ID)
	require.NoError(t, err)
	require.Equal(t, entitlement.RolePro, got.Role)
}

func requireCode(t *testing.T, err error, code errutil.CoreStatus) {
	t.Helper()
	require.Error(t, err)

	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, code, be.Code)
}
