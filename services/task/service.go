package task

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/repository"
	"earnplay-core/services/account"
	"earnplay-core/services/entitlement"
	"earnplay-core/services/wallet"
)

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	accounts    *account.Service
	wallets     *wallet.Service
	tasks       repository.Repository[Task]
	completions repository.Repository[Completion]

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
		db:          p.DB,
		node:        p.Node,
		accounts:    p.Accounts,
		wallets:     p.Wallets,
		tasks:       repository.ProvideStore[Task](p.DB),
		completions: repository.ProvideStore[Completion](p.DB),
		now:         time.Now,
	}
}

type CreateTaskParams struct {
	Title       string
	Description string
	Category    Category
	Reward      decimal.Decimal
	MinRole     entitlement.Role
}

// CreateTask adds an offer to the catalog.
func (s *Service) CreateTask(ctx context.Context, p CreateTaskParams) (*Task, error) {
	if p.Title == "" {
		return nil, errutil.ValidationFailed("title is required")
	}
	if !p.Reward.IsPositive() {
		return nil, errutil.ValidationFailed("reward must be positive")
	}
	if p.MinRole == "" {
		p.MinRole = entitlement.RoleFree
	}
	if !p.MinRole.Valid() {
		return nil, errutil.ValidationFailed("unknown minimum role")
	}

	t := &Task{
		ID:          s.node.Generate().String(),
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Reward:      p.Reward,
		MinRole:     p.MinRole,
		Active:      true,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the active catalog visible to the account, each row
// flagged with whether the account already completed it. Rows gated to
// a higher role, and offers above the role's reward ceiling, are held
// back.
func (s *Service) List(ctx context.Context, accountID string) ([]*TaskView, error) {
	role, err := s.accounts.ResolveRole(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ceiling := entitlement.For(role).TaskRewardCeiling

	rows, err := s.tasks.Find(ctx, &Task{Active: true})
	if err != nil {
		return nil, err
	}

	done, err := s.completions.Find(ctx, &Completion{AccountID: accountID})
	if err != nil {
		return nil, err
	}
	doneByTask := make(map[string]bool, len(done))
	for _, c := range done {
		doneByTask[c.TaskID] = true
	}

	views := make([]*TaskView, 0, len(rows))
	for _, t := range rows {
		if !role.AtLeast(t.MinRole) || t.Reward.GreaterThan(ceiling) {
			continue
		}
		views = append(views, &TaskView{Task: t, Completed: doneByTask[t.ID]})
	}

	return views, nil
}

// Complete marks a task done and credits its reward to the pending
// balance. A task can be completed once per account, ever.
func (s *Service) Complete(ctx context.Context, accountID, taskID string) (*Completion, error) {
	t, err := s.tasks.FindOne(ctx, &Task{ID: taskID})
	if err != nil {
		return nil, err
	}
	if t == nil || !t.Active {
		return nil, errutil.NotFound("task not found")
	}

	role, err := s.accounts.ResolveRole(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(t.MinRole) || t.Reward.GreaterThan(entitlement.For(role).TaskRewardCeiling) {
		return nil, errutil.Forbidden("task requires a pro subscription")
	}

	completion := &Completion{
		ID:        s.node.Generate().String(),
		TaskID:    taskID,
		AccountID: accountID,
		CreatedAt: s.now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.completions.WithTrx(tx)

		existing, err := repo.FindOne(ctx, &Completion{TaskID: taskID, AccountID: accountID})
		if err != nil {
			return err
		}
		if existing != nil {
			return errutil.AlreadyCompleted("Task already completed")
		}

		if err := repo.Create(ctx, completion); err != nil {
			return err
		}

		return s.wallets.Credit(ctx, tx, wallet.PostParams{
			AccountID:   accountID,
			Bucket:      wallet.BucketPending,
			Amount:      t.Reward,
			Source:      wallet.SourceTask,
			SourceID:    taskID,
			Description: fmt.Sprintf("Task completed: %s", t.Title),
		})
	})
	if err != nil {
		return nil, err
	}

	return completion, nil
}
