package mission

import (
	"time"

	"github.com/shopspring/decimal"

	"earnplay-core/services/entitlement"
)

// Mission is a daily repeatable action. Rewards are small and credit
// the available balance immediately.
type Mission struct {
	ID          string           `gorm:"column:id;primaryKey" json:"id"`
	Title       string           `gorm:"column:title;not null" json:"title"`
	Description string           `gorm:"column:description;type:text" json:"description"`
	Reward      decimal.Decimal  `gorm:"column:reward;type:decimal(10,2);not null" json:"reward"`
	MinRole     entitlement.Role `gorm:"column:min_role;type:varchar(10);default:'free'" json:"minRole"`
	Active      bool             `gorm:"column:active;default:true" json:"active"`
	CreatedAt   time.Time        `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"column:updated_at" json:"updatedAt"`
}

// Completion records a mission done on a calendar day. The unique index
// is the once-per-day guarantee.
type Completion struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	MissionID string    `gorm:"column:mission_id;uniqueIndex:idx_mission_completion;not null" json:"missionId"`
	AccountID string    `gorm:"column:account_id;uniqueIndex:idx_mission_completion;not null" json:"accountId"`
	DayKey    string    `gorm:"column:day_key;uniqueIndex:idx_mission_completion;not null" json:"dayKey"`
	CreatedAt time.Time `gorm:"column:created_at" json:"completedAt"`
}

// MissionView is a mission annotated with today's progress.
type MissionView struct {
	*Mission
	CompletedToday bool `json:"completedToday"`
}

// CompleteResult reports a completion plus any streak milestone it
// triggered.
type CompleteResult struct {
	Completion  *Completion     `json:"completion"`
	Streak      int             `json:"streak"`
	StreakBonus decimal.Decimal `json:"streakBonus"`
}
