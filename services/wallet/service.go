package wallet

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"earnplay-core/pkg/config"
	"earnplay-core/pkg/db/option"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/repository"
	"earnplay-core/pkg/sequence"
	"earnplay-core/services/entitlement"
)

// RoleResolver reports the effective role of an account. Implemented by
// the account service; kept narrow so the ledger does not depend on
// account storage.
type RoleResolver interface {
	ResolveRole(ctx context.Context, accountID string) (entitlement.Role, error)
}

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	loc         *time.Location
	seq         sequence.Generator
	roles       RoleResolver
	wallets     repository.Repository[Wallet]
	earnings    repository.Repository[Earning]
	withdrawals repository.Repository[Withdrawal]

	now func() time.Time
}

type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
	Seq    sequence.Generator `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		node:        p.Node,
		loc:         p.Config.DayLocation(),
		seq:         p.Seq,
		wallets:     repository.ProvideStore[Wallet](p.DB),
		earnings:    repository.ProvideStore[Earning](p.DB),
		withdrawals: repository.ProvideStore[Withdrawal](p.DB),
		now:         time.Now,
	}
}

// SetRoleResolver is wired by the account module after both services
// are built; the constructors would otherwise depend on each other.
func (s *Service) SetRoleResolver(r RoleResolver) {
	s.roles = r
}

// EnsureWallet creates the zero-balance ledger row for an account if it
// does not exist yet. Safe to call from inside a transaction.
func (s *Service) EnsureWallet(ctx context.Context, tx *gorm.DB, accountID string) (*Wallet, error) {
	repo := s.wallets.WithTrx(tx)

	existing, err := repo.FindOne(ctx, &Wallet{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	w := &Wallet{
		ID:        s.node.Generate().String(),
		AccountID: accountID,
		Available: decimal.Zero,
		Pending:   decimal.Zero,
		Lifetime:  decimal.Zero,
	}
	if err := repo.Create(ctx, w); err != nil {
		return nil, err
	}

	return w, nil
}

// Get returns the wallet for an account.
func (s *Service) Get(ctx context.Context, accountID string) (*Wallet, error) {
	w, err := s.wallets.FindOne(ctx, &Wallet{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errutil.NotFound("wallet not found")
	}
	return w, nil
}

// PostParams describes a single credit. SourceID ties the audit entry
// back to the originating record (spin, task completion, referral).
type PostParams struct {
	AccountID   string
	Bucket      Bucket
	Amount      decimal.Decimal
	Source      Source
	SourceID    string
	Description string
	Metadata    datatypes.JSON
}

// Credit adds Amount to the chosen bucket and to lifetime, and appends
// the audit entry, all against the supplied transaction. Amount must be
// positive.
func (s *Service) Credit(ctx context.Context, tx *gorm.DB, p PostParams) error {
	if !p.Amount.IsPositive() {
		return errutil.Internal("credit amount must be positive")
	}

	repo := s.wallets.WithTrx(tx)

	w, err := repo.FindOne(ctx, &Wallet{AccountID: p.AccountID}, option.WithLockingUpdate())
	if err != nil {
		return err
	}
	if w == nil {
		return errutil.NotFound("wallet not found")
	}

	updates := map[string]any{
		"lifetime":   w.Lifetime.Add(p.Amount),
		"updated_at": s.now(),
	}
	switch p.Bucket {
	case BucketPending:
		updates["pending"] = w.Pending.Add(p.Amount)
	default:
		updates["available"] = w.Available.Add(p.Amount)
	}

	if err := repo.Update(ctx, w.ID, updates); err != nil {
		return err
	}

	return s.appendEarning(ctx, tx, p.AccountID, p.Amount, p.Source, p.SourceID, p.Description, p.Metadata)
}

// ReleasePending moves Amount from pending to available. Lifetime is
// untouched: the amount was already counted when it entered pending.
func (s *Service) ReleasePending(ctx context.Context, tx *gorm.DB, accountID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errutil.Internal("release amount must be positive")
	}

	repo := s.wallets.WithTrx(tx)

	w, err := repo.FindOne(ctx, &Wallet{AccountID: accountID}, option.WithLockingUpdate())
	if err != nil {
		return err
	}
	if w == nil {
		return errutil.NotFound("wallet not found")
	}

	moved := decimal.Min(amount, w.Pending)
	if moved.IsZero() {
		return nil
	}

	return repo.Update(ctx, w.ID, map[string]any{
		"pending":    w.Pending.Sub(moved),
		"available":  w.Available.Add(moved),
		"updated_at": s.now(),
	})
}

// debitAvailable removes amount from available under a row lock and
// appends a negative withdrawal entry. Fails closed when the balance is
// short so the available bucket can never go negative.
func (s *Service) debitAvailable(ctx context.Context, tx *gorm.DB, accountID string, amount decimal.Decimal, sourceID, description string) error {
	repo := s.wallets.WithTrx(tx)

	w, err := repo.FindOne(ctx, &Wallet{AccountID: accountID}, option.WithLockingUpdate())
	if err != nil {
		return err
	}
	if w == nil {
		return errutil.NotFound("wallet not found")
	}
	if w.Available.LessThan(amount) {
		return errutil.InsufficientFunds("Insufficient balance")
	}

	if err := repo.Update(ctx, w.ID, map[string]any{
		"available":  w.Available.Sub(amount),
		"updated_at": s.now(),
	}); err != nil {
		return err
	}

	return s.appendEarning(ctx, tx, accountID, amount.Neg(), SourceWithdrawal, sourceID, description, nil)
}

// refundAvailable returns a previously debited amount to available.
// Lifetime stays put: refunds are not new earnings.
func (s *Service) refundAvailable(ctx context.Context, tx *gorm.DB, accountID string, amount decimal.Decimal, sourceID, description string) error {
	repo := s.wallets.WithTrx(tx)

	w, err := repo.FindOne(ctx, &Wallet{AccountID: accountID}, option.WithLockingUpdate())
	if err != nil {
		return err
	}
	if w == nil {
		return errutil.NotFound("wallet not found")
	}

	if err := repo.Update(ctx, w.ID, map[string]any{
		"available":  w.Available.Add(amount),
		"updated_at": s.now(),
	}); err != nil {
		return err
	}

	return s.appendEarning(ctx, tx, accountID, amount, SourceWithdrawal, sourceID, description, nil)
}

func (s *Service) appendEarning(ctx context.Context, tx *gorm.DB, accountID string, amount decimal.Decimal, source Source, sourceID, description string, metadata datatypes.JSON) error {
	return s.earnings.WithTrx(tx).Create(ctx, &Earning{
		ID:          s.node.Generate().String(),
		AccountID:   accountID,
		Amount:      amount,
		Source:      source,
		SourceID:    sourceID,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   s.now(),
	})
}
