package referral

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusCompleted Status = "completed"
)

// Referral links a referred signup to its referrer. The bonus is
// credited to the referrer's pending balance at verification and
// released to available when the referral completes its hold period.
type Referral struct {
	ID          string          `gorm:"column:id;primaryKey" json:"id"`
	ReferrerID  string          `gorm:"column:referrer_id;index;not null" json:"referrerId"`
	ReferredID  string          `gorm:"column:referred_id;uniqueIndex;not null" json:"referredId"`
	Status      Status          `gorm:"column:status;type:varchar(15);default:'pending';not null" json:"status"`
	BonusAmount decimal.Decimal `gorm:"column:bonus_amount;type:decimal(10,2);not null" json:"bonusAmount"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"createdAt"`
	VerifiedAt  *time.Time      `gorm:"column:verified_at" json:"verifiedAt,omitempty"`
	CompletedAt *time.Time      `gorm:"column:completed_at" json:"completedAt,omitempty"`
}

// Stats summarises a referrer's program standing.
type Stats struct {
	TotalReferred int             `json:"totalReferred"`
	Completed     int             `json:"completed"`
	TotalEarned   decimal.Decimal `json:"totalEarned"`
}
