package account

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"earnplay-core/pkg/db/option"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/repository"
	"earnplay-core/pkg/sequence"
	"earnplay-core/pkg/task"
	"earnplay-core/pkg/taskname"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/wallet"
)

const (
	referralCodeLength   = 8
	referralCodeAttempts = 5
	proPeriod            = 30 * 24 * time.Hour
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	enqueuer task.Enqueuer
	wallets  *wallet.Service
	accounts repository.Repository[Account]

	now func() time.Time
}

type ServiceParams struct {
	fx.In

	DB       *gorm.DB
	Node     *snowflake.Node
	Enqueuer task.Enqueuer `optional:"true"`
	Wallets  *wallet.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		enqueuer: p.Enqueuer,
		wallets:  p.Wallets,
		accounts: repository.ProvideStore[Account](p.DB),
		now:      time.Now,
	}
}

type CreateParams struct {
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
	ReferredByCode  string
}

// Create registers an account with its zero-balance wallet in one
// transaction. A valid referral code links the new account to its
// referrer and kicks off the referral lifecycle asynchronously.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Account, error) {
	span := trace.SpanFromContext(ctx)

	existing, err := s.accounts.FindOne(ctx, &Account{Email: p.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errutil.Conflict("email already registered")
	}

	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	acc := &Account{
		ID:              s.node.Generate().String(),
		Email:           p.Email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		ProfileImageURL: p.ProfileImageURL,
		Role:            entitlement.RoleFree,
		Status:          StatusActive,
		ReferralCode:    code,
	}

	if p.ReferredByCode != "" {
		referrer, err := s.accounts.FindOne(ctx, &Account{ReferralCode: p.ReferredByCode})
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			return nil, errutil.BadRequest("unknown referral code")
		}
		if referrer.Email == p.Email {
			return nil, errutil.BadRequest("cannot refer yourself")
		}
		acc.ReferredBy = referrer.ID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accounts.WithTrx(tx).Create(ctx, acc); err != nil {
			return err
		}
		_, err := s.wallets.EnsureWallet(ctx, tx, acc.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if acc.ReferredBy != "" && s.enqueuer != nil {
		payload, _ := json.Marshal(taskname.ReferralEventPayload{AccountID: acc.ID})
		if _, err := s.enqueuer.Enqueue(asynq.NewTask(taskname.ReferralVerify, payload)); err != nil {
			zap.L().Error("failed to enqueue referral verification",
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("account_id", acc.ID),
				zap.Error(err),
			)
		}
	}

	return acc, nil
}

func (s *Service) uniqueReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := sequence.RandomAlphaNumeric(referralCodeLength)
		if err != nil {
			return "", err
		}

		taken, err := s.accounts.Count(ctx, &Account{ReferralCode: code})
		if err != nil {
			return "", err
		}
		if taken == 0 {
			return code, nil
		}
	}

	return "", errutil.CodeGenerationExhausted("could not allocate a unique referral code")
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, accountID string) (*Account, error) {
	acc, err := s.accounts.FindOne(ctx, &Account{ID: accountID})
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, errutil.NotFound("account not found")
	}
	return acc, nil
}

// GetByReferralCode resolves the owner of a referral code.
func (s *Service) GetByReferralCode(ctx context.Context, code string) (*Account, error) {
	acc, err := s.accounts.FindOne(ctx, &Account{ReferralCode: code})
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, errutil.NotFound("referral code not found")
	}
	return acc, nil
}

// ResolveRole reports the effective role, demoting expired pro
// subscriptions at read time.
func (s *Service) ResolveRole(ctx context.Context, accountID string) (entitlement.Role, error) {
	acc, err := s.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	return acc.EffectiveRole(s.now()), nil
}

// UpgradePro grants or extends a pro subscription. Extending stacks on
// the remaining period rather than resetting it.
func (s *Service) UpgradePro(ctx context.Context, accountID string) (*Account, error) {
	acc, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	base := now
	if acc.Role == entitlement.RolePro && acc.ProExpiresAt != nil && acc.ProExpiresAt.After(now) {
		base = *acc.ProExpiresAt
	}
	expiresAt := base.Add(proPeriod)

	if err := s.accounts.Update(ctx, acc.ID, map[string]any{
		"role":           entitlement.RolePro,
		"pro_expires_at": expiresAt,
		"updated_at":     now,
	}); err != nil {
		return nil, err
	}

	acc.Role = entitlement.RolePro
	acc.ProExpiresAt = &expiresAt
	return acc, nil
}

// MarkSpin stamps the account's last spin time inside the spin
// transaction.
// GetForUpdate loads the account under a row-level update lock.
// Transactions that gate on per-day counters take this lock first so
// the subsequent count sees every committed row.
func (s *Service) GetForUpdate(ctx context.Context, tx *gorm.DB, accountID string) (*Account, error) {
	acc, err := s.accounts.WithTrx(tx).FindOne(ctx, &Account{ID: accountID}, option.WithLockingUpdate())
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, errutil.NotFound("account not found")
	}
	return acc, nil
}

func (s *Service) MarkSpin(ctx context.Context, tx *gorm.DB, accountID string, at time.Time) error {
	return s.accounts.WithTrx(tx).Update(ctx, accountID, map[string]any{
		"last_spin_at": at,
		"updated_at":   at,
	})
}

// RecordDailyActivity maintains the mission streak. The first activity
// of a calendar day extends the streak when yesterday was active and
// restarts it otherwise.
func (s *Service) RecordDailyActivity(ctx context.Context, tx *gorm.DB, accountID string, now time.Time, loc *time.Location) (int, error) {
	repo := s.accounts.WithTrx(tx)

	acc, err := repo.FindOne(ctx, &Account{ID: accountID}, option.WithLockingUpdate())
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, errutil.NotFound("account not found")
	}

	streak := acc.StreakCount

	switch {
	case acc.LastActivityAt == nil:
		streak = 1
	case sameDay(*acc.LastActivityAt, now, loc):
		// already counted today
	case sameDay(*acc.LastActivityAt, now.AddDate(0, 0, -1), loc):
		streak++
	default:
		streak = 1
	}

	if err := repo.Update(ctx, acc.ID, map[string]any{
		"streak_count":     streak,
		"last_activity_at": now,
		"updated_at":       now,
	}); err != nil {
		return 0, err
	}

	return streak, nil
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// ExpireLapsedPro demotes every pro account whose subscription has
// ended. Run by the nightly sweep; returns the number demoted.
func (s *Service) ExpireLapsedPro(ctx context.Context) (int, error) {
	lapsed, err := s.accounts.Find(ctx, &Account{Role: entitlement.RolePro},
		option.ApplyOperator(option.Condition{Field: "pro_expires_at", Operator: option.LT, Value: s.now()}),
	)
	if err != nil {
		return 0, err
	}

	for _, acc := range lapsed {
		if err := s.accounts.Update(ctx, acc.ID, map[string]any{
			"role":       entitlement.RoleFree,
			"updated_at": s.now(),
		}); err != nil {
			return 0, fmt.Errorf("demote account %s: %w", acc.ID, err)
		}
	}

	return len(lapsed), nil
}
