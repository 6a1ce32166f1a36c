package reward

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeTryAgain  Outcome = "try_again"
	OutcomeCash      Outcome = "cash"
	OutcomeBonusTask Outcome = "bonus_task"
)

// Spin is one wheel spin. Every spin is recorded, winning or not, so
// the daily cap counts attempts rather than payouts. SpinNumber runs
// 1..MaxSpinsPerDay within a day; the unique index rejects a second
// spin racing for the same slot.
type Spin struct {
	ID         string          `gorm:"column:id;primaryKey" json:"id"`
	AccountID  string          `gorm:"column:account_id;uniqueIndex:uq_spins_account_day_seq;not null" json:"accountId"`
	DayKey     string          `gorm:"column:day_key;uniqueIndex:uq_spins_account_day_seq;not null" json:"dayKey"`
	SpinNumber int             `gorm:"column:spin_number;uniqueIndex:uq_spins_account_day_seq;not null" json:"spinNumber"`
	Outcome    Outcome         `gorm:"column:outcome;type:varchar(15);not null" json:"outcome"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null" json:"amount"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"createdAt"`
}

// band is one wheel segment. Bands are checked in order against a draw
// in [0,1); upper is the exclusive upper bound of the segment.
type band struct {
	upper   float64
	outcome Outcome
	amount  decimal.Decimal
}

var wheel = []band{
	{0.40, OutcomeTryAgain, decimal.Zero},
	{0.70, OutcomeCash, decimal.NewFromInt(1)},
	{0.85, OutcomeBonusTask, decimal.NewFromInt(5)},
	{0.95, OutcomeCash, decimal.NewFromInt(5)},
	{1.01, OutcomeCash, decimal.NewFromInt(10)},
}

func pick(r float64) band {
	for _, b := range wheel {
		if r < b.upper {
			return b
		}
	}
	return wheel[len(wheel)-1]
}

// Result is what a spin returns to the caller.
type Result struct {
	Spin           *Spin           `json:"spin"`
	Outcome        Outcome         `json:"outcome"`
	Amount         decimal.Decimal `json:"amount"`
	Message        string          `json:"message"`
	RemainingSpins int             `json:"remainingSpins"`
}

func resultMessage(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return fmt.Sprintf("Congratulations! You won ₹%s", amount.StringFixed(0))
	}
	return "Better luck next time!"
}
