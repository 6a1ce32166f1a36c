package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
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

// streakMilestone is the streak length that pays the role's streak
// bonus, on that day and every multiple of it.
const streakMilestone = 7

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	loc         *time.Location
	accounts    *account.Service
	wallets     *wallet.Service
	missions    repository.Repository[Mission]
	completions repository.Repository[Completion]

	now func() time.Time
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
		db:          p.DB,
		node:        p.Node,
		loc:         p.Config.DayLocation(),
		accounts:    p.Accounts,
		wallets:     p.Wallets,
		missions:    repository.ProvideStore[Mission](p.DB),
		completions: repository.ProvideStore[Completion](p.DB),
		now:         time.Now,
	}
}

type CreateMissionParams struct {
	Title       string
	Description string
	Reward      decimal.Decimal
	MinRole     entitlement.Role
}

// CreateMission adds a daily mission to the catalog.
func (s *Service) CreateMission(ctx context.Context, p CreateMissionParams) (*Mission, error) {
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

	m := &Mission{
		ID:          s.node.Generate().String(),
		Title:       p.Title,
		Description: p.Description,
		Reward:      p.Reward,
		MinRole:     p.MinRole,
		Active:      true,
	}
	if err := s.missions.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns active missions visible to the account's role, flagged
// with today's completion state.
func (s *Service) List(ctx context.Context, accountID string) ([]*MissionView, error) {
	role, err := s.accounts.ResolveRole(ctx, accountID)
	if err != nil {
		return nil, err
	}

	rows, err := s.missions.Find(ctx, &Mission{Active: true})
	if err != nil {
		return nil, err
	}

	today, err := s.completions.Find(ctx, &Completion{
		AccountID: accountID,
		DayKey:    calendar.DayKey(s.now(), s.loc),
	})
	if err != nil {
		return nil, err
	}
	doneByMission := make(map[string]bool, len(today))
	for _, c := range today {
		doneByMission[c.MissionID] = true
	}

	views := make([]*MissionView, 0, len(rows))
	for _, m := range rows {
		if !role.AtLeast(m.MinRole) {
			continue
		}
		views = append(views, &MissionView{Mission: m, CompletedToday: doneByMission[m.ID]})
	}

	return views, nil
}

// Complete records a mission for today and credits its reward straight
// to the available balance. The first mission of the day advances the
// activity streak; hitting a streak milestone pays the role's bonus on
// top.
func (s *Service) Complete(ctx context.Context, accountID, missionID string) (*CompleteResult, error) {
	m, err := s.missions.FindOne(ctx, &Mission{ID: missionID})
	if err != nil {
		return nil, err
	}
	if m == nil || !m.Active {
		return nil, errutil.NotFound("mission not found")
	}

	role, err := s.accounts.ResolveRole(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(m.MinRole) {
		return nil, errutil.Forbidden("mission requires a pro subscription")
	}

	now := s.now()
	completion := &Completion{
		ID:        s.node.Generate().String(),
		MissionID: missionID,
		AccountID: accountID,
		DayKey:    calendar.DayKey(now, s.loc),
		CreatedAt: now,
	}

	result := &CompleteResult{Completion: completion, StreakBonus: decimal.Zero}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.completions.WithTrx(tx)

		existing, err := repo.FindOne(ctx, &Completion{
			MissionID: missionID,
			AccountID: accountID,
			DayKey:    completion.DayKey,
		})
		if err != nil {
			return err
		}
		if existing != nil {
			return errutil.AlreadyCompleted("Mission already completed today")
		}

		if err := repo.Create(ctx, completion); err != nil {
			return err
		}

		if err := s.wallets.Credit(ctx, tx, wallet.PostParams{
			AccountID:   accountID,
			Bucket:      wallet.BucketAvailable,
			Amount:      m.Reward,
			Source:      wallet.SourceMission,
			SourceID:    missionID,
			Description: fmt.Sprintf("Daily mission: %s", m.Title),
		}); err != nil {
			return err
		}

		streak, err := s.accounts.RecordDailyActivity(ctx, tx, accountID, now, s.loc)
		if err != nil {
			return err
		}
		result.Streak = streak

		if streak > 0 && streak%streakMilestone == 0 && s.firstCompletionToday(ctx, tx, accountID, completion) {
			bonus := entitlement.For(role).MissionStreakBonus
			if err := s.wallets.Credit(ctx, tx, wallet.PostParams{
				AccountID:   accountID,
				Bucket:      wallet.BucketAvailable,
				Amount:      bonus,
				Source:      wallet.SourceBonus,
				SourceID:    completion.ID,
				Description: fmt.Sprintf("%d-day streak bonus", streak),
			}); err != nil {
				return err
			}
			result.StreakBonus = bonus
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// firstCompletionToday guards the streak bonus against paying once per
// mission on milestone days.
func (s *Service) firstCompletionToday(ctx context.Context, tx *gorm.DB, accountID string, current *Completion) bool {
	rows, err := s.completions.WithTrx(tx).Find(ctx, &Completion{
		AccountID: accountID,
		DayKey:    current.DayKey,
	})
	if err != nil {
		return false
	}

	return len(rows) == 1 && rows[0].ID == current.ID
}
